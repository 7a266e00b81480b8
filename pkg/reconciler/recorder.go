package reconciler

import "time"

// Recorder receives batch outcomes, typically to export them as metrics.
type Recorder interface {
	Deduped(records, unique, groups int)
	Merged(added, updated, skipped, review int)
	Rejected(n int)
	Observe(operation string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Deduped(int, int, int) {}
func (nopRecorder) Merged(int, int, int, int) {}
func (nopRecorder) Rejected(int) {}
func (nopRecorder) Observe(string, time.Duration) {}
