// Package extract reads match pages into raw per-player record
// batches. Matches are processed one at a time per session; a failed
// match is recorded and skipped so a long run survives individual
// losses.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/lstanic/pitchfeed/internal/httputil"
	"github.com/lstanic/pitchfeed/internal/metrics"
	"github.com/lstanic/pitchfeed/internal/navigator"
	"github.com/lstanic/pitchfeed/internal/store"
	"github.com/lstanic/pitchfeed/pkg/types"
)

// ExtractionError reports a match that could not be read after the
// retry. The driver records it and moves on.
type ExtractionError struct {
	MatchID string
	URL     string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting match %s: %v", e.MatchID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// BatchResult holds the outcome of one extraction pass.
type BatchResult struct {
	Attempted int
	Extracted int
	Failed    int
}

// HasFailures reports whether any matches failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Extractor reads matches through one navigator session.
type Extractor struct {
	session *navigator.Session
	store   *store.Store
	cfg     types.ExtractionConfig
	clock   clockwork.Clock
	log     *slog.Logger
}

// New returns an Extractor bound to the given session and run store.
func New(session *navigator.Session, st *store.Store, cfg types.ExtractionConfig, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		session: session,
		store:   st,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		log:     log,
	}
}

// Extract reads the match page behind ref into one whole batch. A
// match that cannot be fully read is retried once before failing with
// *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, ref types.MatchRef) (types.Batch, error) {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(httputil.RetryBaseDelay), 1), ctx)

	var records []types.RawRecord
	op := func() error {
		page, err := e.session.Open(ctx, ref.URL)
		if err == nil {
			records, err = e.parseMatch(page, ref)
		}
		if err != nil {
			// A 200 interstitial or half-rendered page sits in the
			// session cache; evict it so the retry reads the source.
			e.session.Forget(ref.URL)
		}
		return err
	}
	if err := backoff.Retry(op, bo); err != nil {
		return types.Batch{}, &ExtractionError{MatchID: ref.MatchID, URL: ref.URL, Err: err}
	}
	return types.Batch{Ref: ref, Records: records}, nil
}

// ExtractAll processes refs in order, persisting each successful batch
// and marking failures in the store, continuing after individual
// matches fail. A store write failure is fatal; per-match read
// failures are not. Progress lines go to w.
func (e *Extractor) ExtractAll(ctx context.Context, runID string, refs []types.MatchRef, w io.Writer) (BatchResult, error) {
	var result BatchResult
	for i, ref := range refs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if i > 0 && e.cfg.MatchDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-e.clock.After(e.cfg.MatchDelay):
			}
		}

		result.Attempted++
		batch, err := e.Extract(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed++
			metrics.MatchesFailed.Inc()
			e.log.Warn("match extraction failed", "match", ref.MatchID, "error", err)
			fmt.Fprintf(w, "failed:    %s (%v)\n", ref.MatchID, err)
			if err := e.store.UpdateRefStatus(ctx, runID, ref.MatchID, types.RefFailed); err != nil {
				return result, err
			}
			continue
		}

		if err := e.store.SaveBatch(ctx, runID, batch); err != nil {
			return result, fmt.Errorf("saving batch for match %s: %w", ref.MatchID, err)
		}
		result.Extracted++
		metrics.MatchesExtracted.Inc()
		fmt.Fprintf(w, "extracted: %s (%d players)\n", ref.MatchID, len(batch.Records))
	}

	fmt.Fprintf(w, "\nExtraction summary: %d attempted, %d extracted, %d failed\n",
		result.Attempted, result.Extracted, result.Failed)
	return result, nil
}

// ExtractParallel splits refs into contiguous partitions, one per
// extractor, each running its own independent session, and merges the
// counters. Batch writes serialize in the store.
func ExtractParallel(ctx context.Context, runID string, refs []types.MatchRef, extractors []*Extractor, w io.Writer) (BatchResult, error) {
	if len(extractors) == 0 {
		return BatchResult{}, fmt.Errorf("no extraction sessions provided")
	}
	if len(extractors) == 1 {
		return extractors[0].ExtractAll(ctx, runID, refs, w)
	}

	out := &syncWriter{w: w}
	pool := pond.NewResultPool[BatchResult](len(extractors))
	group := pool.NewGroupContext(ctx)
	for i, part := range partition(refs, len(extractors)) {
		ext := extractors[i]
		part := part
		group.SubmitErr(func() (BatchResult, error) {
			return ext.ExtractAll(ctx, runID, part, out)
		})
	}

	results, err := group.Wait()
	pool.StopAndWait()

	var merged BatchResult
	for _, r := range results {
		merged.Attempted += r.Attempted
		merged.Extracted += r.Extracted
		merged.Failed += r.Failed
	}
	if err != nil {
		return merged, err
	}
	fmt.Fprintf(w, "\nAll sessions: %d attempted, %d extracted, %d failed\n",
		merged.Attempted, merged.Extracted, merged.Failed)
	return merged, nil
}

// partition splits refs into n contiguous chunks of near-equal size.
func partition(refs []types.MatchRef, n int) [][]types.MatchRef {
	if n > len(refs) {
		n = len(refs)
	}
	if n <= 0 {
		return nil
	}
	size := (len(refs) + n - 1) / n
	parts := make([][]types.MatchRef, 0, n)
	for start := 0; start < len(refs); start += size {
		end := start + size
		if end > len(refs) {
			end = len(refs)
		}
		parts = append(parts, refs[start:end])
	}
	return parts
}

// syncWriter serializes progress lines from concurrent sessions.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}
