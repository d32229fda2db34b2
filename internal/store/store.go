// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists runs, discovery progress, raw match records,
// and feature rows in a SQLite database. It is the single durable
// artifact holder of the pipeline; only one run writes at a time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lstanic/pitchfeed/pkg/types"
)

const (
	dbFile     = "pitchfeed.db"
	exportsDir = "exports"
)

// Store manages the run database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// NewStore opens or creates the run database at dataDir/pitchfeed.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Busy timeout covers concurrent extraction sessions writing batches.
	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			country TEXT NOT NULL,
			league TEXT NOT NULL,
			season TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT PRIMARY KEY REFERENCES runs(id),
			cursor TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS match_refs (
			run_id TEXT NOT NULL REFERENCES runs(id),
			match_id TEXT NOT NULL,
			url TEXT NOT NULL,
			match_date TEXT NOT NULL,
			home_team TEXT,
			away_team TEXT,
			league TEXT,
			season TEXT,
			status TEXT NOT NULL,
			discovered_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, match_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_refs_order ON match_refs(run_id, match_date, match_id)`,
		`CREATE TABLE IF NOT EXISTS raw_records (
			run_id TEXT NOT NULL REFERENCES runs(id),
			match_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			player_name TEXT,
			team TEXT,
			home INTEGER NOT NULL,
			position TEXT,
			match_date TEXT,
			score TEXT,
			rating TEXT,
			stats TEXT NOT NULL,
			PRIMARY KEY (run_id, match_id, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS feature_rows (
			run_id TEXT NOT NULL REFERENCES runs(id),
			player_id TEXT NOT NULL,
			date TEXT NOT NULL,
			position INTEGER NOT NULL,
			home INTEGER NOT NULL,
			minutes_scaled REAL NOT NULL,
			goals_for REAL NOT NULL,
			goals_against REAL NOT NULL,
			rating REAL NOT NULL,
			stats TEXT NOT NULL,
			PRIMARY KEY (run_id, player_id, date)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// CreateRun records a new run with its selection criteria.
func (s *Store) CreateRun(ctx context.Context, run types.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, country, league, season, start_date, end_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Criteria.Country, run.Criteria.League, run.Criteria.Season,
		run.Criteria.StartDate.Format(types.DateFormat),
		run.Criteria.EndDate.Format(types.DateFormat),
		string(run.Status), run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (types.Run, error) {
	var run types.Run
	var start, end, created, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, country, league, season, start_date, end_date, status, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Criteria.Country, &run.Criteria.League, &run.Criteria.Season,
		&start, &end, &status, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Run{}, fmt.Errorf("run %s not found", id)
		}
		return types.Run{}, fmt.Errorf("loading run %s: %w", id, err)
	}

	run.Status = types.RunStatus(status)
	if run.Criteria.StartDate, err = time.Parse(types.DateFormat, start); err != nil {
		return types.Run{}, fmt.Errorf("parsing run start date: %w", err)
	}
	if run.Criteria.EndDate, err = time.Parse(types.DateFormat, end); err != nil {
		return types.Run{}, fmt.Errorf("parsing run end date: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return types.Run{}, fmt.Errorf("parsing run created_at: %w", err)
	}
	return run, nil
}

// UpdateRunStatus advances a run to the given stage.
func (s *Store) UpdateRunStatus(ctx context.Context, id string, status types.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating run %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// SaveBatch persists one extracted match batch in a single transaction
// and marks the reference extracted. A failed transaction leaves no
// partial rows behind, so only whole batches are ever durable.
func (s *Store) SaveBatch(ctx context.Context, runID string, batch types.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO raw_records
		 (run_id, match_id, player_id, player_name, team, home, position, match_date, score, rating, stats)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range batch.Records {
		statsJSON, err := json.Marshal(rec.Stats)
		if err != nil {
			return fmt.Errorf("marshaling stats for player %s: %w", rec.PlayerID, err)
		}
		home := 0
		if rec.Home {
			home = 1
		}
		_, err = stmt.ExecContext(ctx,
			runID, rec.MatchID, rec.PlayerID, rec.PlayerName, rec.Team, home,
			rec.Position, rec.MatchDate.Format(types.DateFormat), rec.Score,
			rec.Rating, string(statsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s/%s: %w", rec.MatchID, rec.PlayerID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE match_refs SET status = ? WHERE run_id = ? AND match_id = ?`,
		string(types.RefExtracted), runID, batch.Ref.MatchID,
	); err != nil {
		return fmt.Errorf("marking match %s extracted: %w", batch.Ref.MatchID, err)
	}

	return tx.Commit()
}

// Batches returns all persisted batches of a run in discovery order
// (ascending match date, then match id), rows grouped per match.
func (s *Store) Batches(ctx context.Context, runID string) ([]types.Batch, error) {
	refs, err := s.Refs(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT match_id, player_id, player_name, team, home, position, match_date, score, rating, stats
		 FROM raw_records WHERE run_id = ?
		 ORDER BY match_date, match_id, player_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying raw records: %w", err)
	}
	defer rows.Close()

	byMatch := make(map[string][]types.RawRecord)
	for rows.Next() {
		rec, err := scanRawRecord(rows)
		if err != nil {
			return nil, err
		}
		byMatch[rec.MatchID] = append(byMatch[rec.MatchID], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var batches []types.Batch
	for _, ref := range refs {
		recs, ok := byMatch[ref.MatchID]
		if !ok {
			continue
		}
		batches = append(batches, types.Batch{Ref: ref, Records: recs})
	}
	return batches, nil
}

// Dataset returns the run's raw rows flattened in discovery order.
func (s *Store) Dataset(ctx context.Context, runID string) (types.Dataset, error) {
	batches, err := s.Batches(ctx, runID)
	if err != nil {
		return types.Dataset{}, err
	}
	ds := types.Dataset{RunID: runID}
	for _, b := range batches {
		ds.Records = append(ds.Records, b.Records...)
	}
	return ds, nil
}

func scanRawRecord(rows *sql.Rows) (types.RawRecord, error) {
	var rec types.RawRecord
	var home int
	var matchDate, statsJSON string
	if err := rows.Scan(&rec.MatchID, &rec.PlayerID, &rec.PlayerName, &rec.Team,
		&home, &rec.Position, &matchDate, &rec.Score, &rec.Rating, &statsJSON); err != nil {
		return types.RawRecord{}, fmt.Errorf("scanning raw record: %w", err)
	}
	rec.Home = home == 1
	if matchDate != "" {
		d, err := time.Parse(types.DateFormat, matchDate)
		if err != nil {
			return types.RawRecord{}, fmt.Errorf("parsing record date: %w", err)
		}
		rec.MatchDate = d
	}
	if err := json.Unmarshal([]byte(statsJSON), &rec.Stats); err != nil {
		return types.RawRecord{}, fmt.Errorf("parsing record stats: %w", err)
	}
	return rec, nil
}

// SaveFeatureTable replaces the run's feature rows with the given table
// in a single transaction. Re-running normalization rebuilds from
// scratch rather than merging.
func (s *Store) SaveFeatureTable(ctx context.Context, table types.FeatureTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM feature_rows WHERE run_id = ?`, table.RunID); err != nil {
		return fmt.Errorf("clearing previous feature rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO feature_rows
		 (run_id, player_id, date, position, home, minutes_scaled, goals_for, goals_against, rating, stats)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		statsJSON, err := json.Marshal(row.Stats)
		if err != nil {
			return fmt.Errorf("marshaling features for player %s: %w", row.PlayerID, err)
		}
		_, err = stmt.ExecContext(ctx,
			table.RunID, row.PlayerID, row.Date.Format(types.DateFormat),
			row.Position, row.Home, row.MinutesScaled,
			row.GoalsFor, row.GoalsAgainst, row.Rating, string(statsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting feature row %s/%s: %w",
				row.PlayerID, row.Date.Format(types.DateFormat), err)
		}
	}

	return tx.Commit()
}
