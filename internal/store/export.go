// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/lstanic/pitchfeed/pkg/types"
)

// ExportPath returns the path of a named export artifact under the
// store's data directory.
func (s *Store) ExportPath(name string) string {
	return filepath.Join(s.dataDir, exportsDir, name)
}

// ExportRawCSV writes the raw dataset as CSV. Identity columns come
// first, then the union of all stat names in alphabetical order; a
// record missing a stat gets an empty cell.
func (s *Store) ExportRawCSV(dataset types.Dataset) (string, error) {
	statCols := rawStatColumns(dataset.Records)
	header := append([]string{
		"match_id", "player_id", "player_name", "team", "side",
		"position", "match_date", "score", types.StatRating,
	}, statCols...)

	rows := make([][]string, 0, len(dataset.Records))
	for _, rec := range dataset.Records {
		side := "away"
		if rec.Home {
			side = "home"
		}
		row := []string{
			rec.MatchID, rec.PlayerID, rec.PlayerName, rec.Team, side,
			rec.Position, rec.MatchDate.Format(types.DateFormat), rec.Score, rec.Rating,
		}
		for _, col := range statCols {
			row = append(row, rec.Stats[col])
		}
		rows = append(rows, row)
	}

	path := s.ExportPath(dataset.RunID + "-raw.csv")
	if err := WriteCSV(path, header, rows); err != nil {
		return "", err
	}
	return path, nil
}

// ExportFeatureCSV writes the feature table as CSV with the table's
// column order.
func (s *Store) ExportFeatureCSV(table types.FeatureTable) (string, error) {
	header := append([]string{
		"player_id", "date", "position", "home",
		"minutes_scaled", "goals_for", "goals_against", types.StatRating,
	}, table.Columns...)

	rows := make([][]string, 0, len(table.Rows))
	for _, fr := range table.Rows {
		row := []string{
			fr.PlayerID, fr.Date.Format(types.DateFormat),
			strconv.Itoa(fr.Position), strconv.Itoa(fr.Home),
			formatFloat(fr.MinutesScaled), formatFloat(fr.GoalsFor),
			formatFloat(fr.GoalsAgainst), formatFloat(fr.Rating),
		}
		for _, col := range table.Columns {
			row = append(row, formatFloat(fr.Stats[col]))
		}
		rows = append(rows, row)
	}

	path := s.ExportPath(table.RunID + "-features.csv")
	if err := WriteCSV(path, header, rows); err != nil {
		return "", err
	}
	return path, nil
}

func rawStatColumns(records []types.RawRecord) []string {
	seen := make(map[string]bool)
	for _, rec := range records {
		for name := range rec.Stats {
			seen[name] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes a CSV file atomically, through a temporary file
// renamed into place so readers never see a half-written artifact.
func WriteCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving export into place: %w", err)
	}
	return nil
}
