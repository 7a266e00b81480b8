package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// Capture holds everything logged through the default logger while a
// test runs.
type Capture struct {
	buf bytes.Buffer
}

// Output returns the raw JSON lines written so far.
func (c *Capture) Output() string {
	return c.buf.String()
}

// AssertContains fails the test when no captured entry mentions substr.
func (c *Capture) AssertContains(t testing.TB, substr string) {
	t.Helper()
	if !strings.Contains(c.buf.String(), substr) {
		t.Errorf("log output missing %q\n%s", substr, c.buf.String())
	}
}

// AssertNotContains fails the test when any captured entry mentions substr.
func (c *Capture) AssertNotContains(t testing.TB, substr string) {
	t.Helper()
	if strings.Contains(c.buf.String(), substr) {
		t.Errorf("log output unexpectedly has %q\n%s", substr, c.buf.String())
	}
}

// DisableLoggingForTest silences the default logger until the test ends.
func DisableLoggingForTest(t testing.TB) {
	t.Helper()
	swapDefault(t, zerolog.Nop())
}

// CaptureLoggingForTest routes the default logger into a buffer at trace
// level until the test ends.
func CaptureLoggingForTest(t testing.TB) *Capture {
	t.Helper()

	c := &Capture{}
	level := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(level) })

	swapDefault(t, zerolog.New(&c.buf).Level(zerolog.TraceLevel).With().Timestamp().Logger())
	return c
}

func swapDefault(t testing.TB, l zerolog.Logger) {
	original := *Default()
	SetDefault(l)
	t.Cleanup(func() { SetDefault(original) })
}
