// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lstanic/pitchfeed/pkg/types"
)

// SaveFixturePage appends the references found on one fixture page and
// advances the discovery cursor, atomically. If the transaction fails
// the cursor stays on the previous page and the page is re-walked on
// resume; already-known references are ignored rather than duplicated.
func (s *Store) SaveFixturePage(ctx context.Context, runID, cursor string, refs []types.MatchRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(discovered_at), -1) + 1 FROM match_refs WHERE run_id = ?`,
		runID,
	).Scan(&next); err != nil {
		return fmt.Errorf("reading discovery counter: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO match_refs
		 (run_id, match_id, url, match_date, home_team, away_team, league, season, status, discovered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		_, err := stmt.ExecContext(ctx,
			runID, ref.MatchID, ref.URL, ref.MatchDate.Format(types.DateFormat),
			ref.HomeTeam, ref.AwayTeam, ref.League, ref.Season,
			string(types.RefDiscovered), next,
		)
		if err != nil {
			return fmt.Errorf("inserting match ref %s: %w", ref.MatchID, err)
		}
		next++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO checkpoints (run_id, cursor, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET cursor = excluded.cursor, updated_at = excluded.updated_at`,
		runID, cursor, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}

	return tx.Commit()
}

// Checkpoint returns the discovery cursor of a run, or found=false when
// discovery never completed a page.
func (s *Store) Checkpoint(ctx context.Context, runID string) (cursor string, found bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT cursor FROM checkpoints WHERE run_id = ?`, runID).Scan(&cursor)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading checkpoint: %w", err)
	}
	return cursor, true, nil
}

// ClearCheckpoint removes the discovery cursor once the walk is done.
func (s *Store) ClearCheckpoint(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clearing checkpoint: %w", err)
	}
	return nil
}

// Refs returns every discovered reference of a run ordered by ascending
// match date, ties broken by match id.
func (s *Store) Refs(ctx context.Context, runID string) ([]types.MatchRef, error) {
	return s.queryRefs(ctx,
		`SELECT match_id, url, match_date, home_team, away_team, league, season, status
		 FROM match_refs WHERE run_id = ?
		 ORDER BY match_date, match_id`, runID)
}

// PendingRefs returns the references not yet extracted, in the same
// order as Refs. Failed references are excluded; RetryableRefs picks
// those up.
func (s *Store) PendingRefs(ctx context.Context, runID string) ([]types.MatchRef, error) {
	return s.queryRefs(ctx,
		`SELECT match_id, url, match_date, home_team, away_team, league, season, status
		 FROM match_refs WHERE run_id = ? AND status = ?
		 ORDER BY match_date, match_id`, runID, string(types.RefDiscovered))
}

// RetryableRefs returns references whose extraction failed.
func (s *Store) RetryableRefs(ctx context.Context, runID string) ([]types.MatchRef, error) {
	return s.queryRefs(ctx,
		`SELECT match_id, url, match_date, home_team, away_team, league, season, status
		 FROM match_refs WHERE run_id = ? AND status = ?
		 ORDER BY match_date, match_id`, runID, string(types.RefFailed))
}

func (s *Store) queryRefs(ctx context.Context, query string, args ...any) ([]types.MatchRef, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying match refs: %w", err)
	}
	defer rows.Close()

	var refs []types.MatchRef
	for rows.Next() {
		var ref types.MatchRef
		var matchDate, status string
		if err := rows.Scan(&ref.MatchID, &ref.URL, &matchDate, &ref.HomeTeam,
			&ref.AwayTeam, &ref.League, &ref.Season, &status); err != nil {
			return nil, fmt.Errorf("scanning match ref: %w", err)
		}
		ref.Status = types.RefStatus(status)
		if ref.MatchDate, err = time.Parse(types.DateFormat, matchDate); err != nil {
			return nil, fmt.Errorf("parsing match date: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// UpdateRefStatus records the extraction outcome of one match.
func (s *Store) UpdateRefStatus(ctx context.Context, runID, matchID string, status types.RefStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE match_refs SET status = ? WHERE run_id = ? AND match_id = ?`,
		string(status), runID, matchID)
	if err != nil {
		return fmt.Errorf("updating match %s status: %w", matchID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("match %s not found in run %s", matchID, runID)
	}
	return nil
}
