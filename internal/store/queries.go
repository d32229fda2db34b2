// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lstanic/pitchfeed/pkg/types"
)

// RunSummary aggregates the state of one run for reporting.
type RunSummary struct {
	Run         types.Run
	Discovered  int
	Extracted   int
	Failed      int
	RawRecords  int
	FeatureRows int
	FailedIDs   []string
}

// Pending returns how many discovered matches still await extraction.
func (rs RunSummary) Pending() int {
	return rs.Discovered - rs.Extracted - rs.Failed
}

// Summary collects per-run counters and the ids of failed matches.
func (s *Store) Summary(ctx context.Context, runID string) (RunSummary, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	summary := RunSummary{Run: run}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM match_refs WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("counting match refs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return RunSummary{}, fmt.Errorf("scanning ref counts: %w", err)
		}
		summary.Discovered += count
		switch types.RefStatus(status) {
		case types.RefExtracted:
			summary.Extracted = count
		case types.RefFailed:
			summary.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return RunSummary{}, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM raw_records WHERE run_id = ?`, runID,
	).Scan(&summary.RawRecords); err != nil {
		return RunSummary{}, fmt.Errorf("counting raw records: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feature_rows WHERE run_id = ?`, runID,
	).Scan(&summary.FeatureRows); err != nil {
		return RunSummary{}, fmt.Errorf("counting feature rows: %w", err)
	}

	failed, err := s.RetryableRefs(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	for _, ref := range failed {
		summary.FailedIDs = append(summary.FailedIDs, ref.MatchID)
	}

	return summary, nil
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]types.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, country, league, season, start_date, end_date, status, created_at
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var run types.Run
		var start, end, created, status string
		if err := rows.Scan(&run.ID, &run.Criteria.Country, &run.Criteria.League,
			&run.Criteria.Season, &start, &end, &status, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Status = types.RunStatus(status)
		if run.Criteria.StartDate, err = time.Parse(types.DateFormat, start); err != nil {
			return nil, fmt.Errorf("parsing run start date: %w", err)
		}
		if run.Criteria.EndDate, err = time.Parse(types.DateFormat, end); err != nil {
			return nil, fmt.Errorf("parsing run end date: %w", err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("parsing run created_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
