// Package reconciler assembles a canonical catalog from scraped records.
//
// Dedupe collapses a batch onto one record per tool, MergeInto folds new
// records into an existing catalog, and Ingest runs the whole pipeline from
// raw scraper output. Only definite duplicates are ever merged; possible
// duplicates are reported for review.
package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/siteoptz/toolcatalog/pkg/detector"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/merger"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
	"github.com/siteoptz/toolcatalog/pkg/selector"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Reconciler is the main interface for building a canonical catalog.
type Reconciler interface {
	// Dedupe collapses duplicate records within one batch.
	Dedupe(ctx context.Context, records []tools.Tool) (*DedupeResult, error)

	// MergeInto folds new records into an existing catalog.
	MergeInto(ctx context.Context, incoming, existing []tools.Tool) (*MergeResult, error)

	// Ingest normalizes, validates, deduplicates and merges raw records.
	Ingest(ctx context.Context, raws []tools.Raw, existing []tools.Tool) (*IngestResult, error)

	// FindDuplicates classifies existing records against one candidate
	// using the batch detection options.
	FindDuplicates(candidate tools.Tool, existing []tools.Tool) detector.Result

	// Normalizer returns the normalizer used for raw records.
	Normalizer() *normalize.Normalizer
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	normalizer   *normalize.Normalizer
	dedupe       *detector.Detector
	merge        *detector.Detector
	selector     *selector.Selector
	updateMargin float64
	now          func() time.Time
	recorder     Recorder
	runID        string
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	dedupe, err := detector.New(options.dedupe)
	if err != nil {
		return nil, err
	}
	merge, err := detector.New(options.merge)
	if err != nil {
		return nil, err
	}
	// the selector shares the reconciler clock unless overridden
	sel, err := selector.New(append([]selector.Option{selector.WithClock(options.now)}, options.selector...)...)
	if err != nil {
		return nil, err
	}

	return &reconciler{
		normalizer:   normalize.New(options.taxonomy),
		dedupe:       dedupe,
		merge:        merge,
		selector:     sel,
		updateMargin: options.updateMargin,
		now:          options.now,
		recorder:     options.recorder,
		runID:        options.runID,
	}, nil
}

// Normalizer returns the normalizer used for raw records.
func (r *reconciler) Normalizer() *normalize.Normalizer {
	return r.normalizer
}

// FindDuplicates classifies existing records against one candidate.
func (r *reconciler) FindDuplicates(candidate tools.Tool, existing []tools.Tool) detector.Result {
	return r.dedupe.Find(candidate, existing)
}

// Dedupe walks records left to right. Each record not yet claimed forms a
// cluster with its definite duplicates among the later unclaimed records;
// the best version of the cluster is kept and every member is claimed.
func (r *reconciler) Dedupe(ctx context.Context, records []tools.Tool) (*DedupeResult, error) {
	start := r.now()
	ctx = logging.WithOperation(ctx, "dedupe")
	logger := logging.FromContext(ctx)

	records = tools.NormalizeAll(records, r.normalizer)
	corpus := detector.NewCorpus(records)
	matches, err := r.dedupe.Pairwise(ctx, corpus)
	if err != nil {
		return nil, err
	}

	result := &DedupeResult{
		Unique: make([]tools.Tool, 0, len(records)),
		Groups: []Group{},
	}
	claimed := make([]bool, len(records))

	for i, rec := range records {
		if claimed[i] {
			continue
		}
		claimed[i] = true

		cluster := []int{i}
		reason := ""
		for _, m := range matches[i].Definite {
			if claimed[m.Index] {
				continue
			}
			claimed[m.Index] = true
			cluster = append(cluster, m.Index)
			if reason == "" {
				reason = m.Reason
			}
		}
		for _, m := range matches[i].Possible {
			if !claimed[m.Index] {
				result.Review = append(result.Review, Review{Candidate: rec.Name, Match: m})
			}
		}

		if len(cluster) == 1 {
			result.Unique = append(result.Unique, rec)
			continue
		}

		members := make([]tools.Tool, len(cluster))
		for k, idx := range cluster {
			members[k] = records[idx]
		}
		best, bestIdx := r.selector.Best(members)
		result.Unique = append(result.Unique, best)

		group := Group{Kept: best.Name, KeptID: best.ID, Reason: reason}
		for k, m := range members {
			if k != bestIdx {
				group.Removed = append(group.Removed, m.Name)
			}
		}
		result.Groups = append(result.Groups, group)

		logging.FromContext(logging.WithTool(ctx, best.ID)).Debug().
			Strs("removed", group.Removed).
			Str("reason", reason).
			Msg("Resolved duplicate cluster")
	}

	result.RemovedCount = len(records) - len(result.Unique)

	logger.Info().
		Int("records", len(records)).
		Int("unique", len(result.Unique)).
		Int("groups", len(result.Groups)).
		Int("review", len(result.Review)).
		Msg("Deduplicated batch")

	r.recorder.Deduped(len(records), len(result.Unique), len(result.Groups))
	r.recorder.Observe("dedupe", r.now().Sub(start))
	return result, nil
}

// MergeInto checks each incoming record against the catalog as it grows.
// A definite duplicate updates the matched entry only when the incoming
// record is more complete by the update margin; otherwise it is skipped.
// Records without a definite duplicate are appended.
func (r *reconciler) MergeInto(ctx context.Context, incoming, existing []tools.Tool) (*MergeResult, error) {
	start := r.now()
	ctx = logging.WithOperation(ctx, "merge")
	logger := logging.FromContext(ctx)

	existing = tools.NormalizeAll(existing, r.normalizer)
	result := &MergeResult{
		Merged:  make([]tools.Tool, len(existing), len(existing)+len(incoming)),
		Added:   []string{},
		Updated: []Update{},
		Skipped: []SkipReport{},
	}
	copy(result.Merged, existing)
	corpus := detector.NewCorpus(existing)

	for _, in := range incoming {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in = tools.Normalize(in, r.normalizer)
		res := r.merge.Search(in, corpus, nil)
		for _, m := range res.Possible {
			result.Review = append(result.Review, Review{Candidate: in.Name, Match: m})
		}

		if !res.HasDefinite() {
			corpus.Add(in)
			result.Merged = append(result.Merged, in)
			result.Added = append(result.Added, in.ID)
			logging.FromContext(logging.WithTool(ctx, in.ID)).Debug().Msg("Added tool")
			continue
		}

		match := res.Definite[0]
		current := corpus.Tool(match.Index)
		if !selector.Worthwhile(in, current, r.updateMargin) {
			result.Skipped = append(result.Skipped, SkipReport{
				New:      in.Name,
				Existing: current.Name,
				Reason:   match.Reason,
			})
			logging.FromContext(logging.WithTool(ctx, current.ID)).Debug().
				Str("incoming", in.Name).
				Str("reason", match.Reason).
				Msg("Skipped duplicate")
			continue
		}

		updated := merger.MergeAt(current, in, r.now())
		corpus.Replace(match.Index, updated)
		result.Merged[match.Index] = updated
		result.Updated = append(result.Updated, Update{
			ID:       current.ID,
			Incoming: in.Name,
			Fields:   merger.Changes(current, updated),
		})
		logging.FromContext(logging.WithTool(ctx, current.ID)).Debug().
			Str("incoming", in.Name).
			Msg("Updated tool")
	}

	logger.Info().
		Int("incoming", len(incoming)).
		Int("existing", len(existing)).
		Int("added", len(result.Added)).
		Int("updated", len(result.Updated)).
		Int("skipped", len(result.Skipped)).
		Msg("Merged into catalog")

	r.recorder.Merged(len(result.Added), len(result.Updated), len(result.Skipped), len(result.Review))
	r.recorder.Observe("merge", r.now().Sub(start))
	return result, nil
}

// Ingest converts raw records, rejects invalid ones, deduplicates the rest
// and merges them into existing. Rejections never abort the batch.
func (r *reconciler) Ingest(ctx context.Context, raws []tools.Raw, existing []tools.Tool) (*IngestResult, error) {
	start := r.now()
	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logging.WithRun(ctx, runID)
	logger := logging.FromContext(logging.WithOperation(ctx, "ingest"))

	result := &IngestResult{
		Errors:   []*errors.RecordError{},
		Metadata: ResultMetadata{StartTime: start},
	}

	valid := make([]tools.Tool, 0, len(raws))
	for i, raw := range raws {
		t := tools.FromRaw(raw, r.normalizer, start)
		if err := tools.Validate(t, r.normalizer); err != nil {
			recErr := errors.NewRecordError(raw.Name, i, err)
			result.Errors = append(result.Errors, recErr)
			logger.Warn().Err(err).Int("index", i).Str("name", raw.Name).Msg("Rejected record")
			continue
		}
		if warnings := tools.Warnings(t); len(warnings) > 0 {
			logging.FromContext(logging.WithTool(ctx, t.ID)).Debug().Strs("warnings", warnings).Msg("Incomplete record")
		}
		valid = append(valid, t)
	}
	r.recorder.Rejected(len(result.Errors))

	dedupe, err := r.Dedupe(ctx, valid)
	if err != nil {
		return nil, err
	}
	merge, err := r.MergeInto(ctx, dedupe.Unique, existing)
	if err != nil {
		return nil, err
	}

	result.Dedupe = dedupe
	result.Merge = merge
	result.Catalog = tools.Catalog{
		Metadata: tools.Metadata{
			TotalScraped:      len(raws),
			UniqueTools:       len(dedupe.Unique),
			DuplicatesRemoved: dedupe.RemovedCount,
			Categories:        tools.CountCategories(merge.Merged),
			GeneratedAt:       start.UTC(),
			RunID:             runID,
		},
		Tools: merge.Merged,
	}
	result.Metadata.finalize(r.now())

	logger.Info().
		Dur("duration", result.Metadata.Duration).
		Int("rejected", len(result.Errors)).
		Int("catalog_size", len(merge.Merged)).
		Msg("Ingest complete")

	r.recorder.Observe("ingest", result.Metadata.Duration)
	return result, nil
}
