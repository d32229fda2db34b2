// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns the raw dataset into the canonical feature
// table: one fully numeric row per (player, date). The steps run in a
// fixed order; each is specified independently and the order matters
// for correctness, not performance.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lstanic/pitchfeed/pkg/types"
)

// DuplicateKeyError reports two feature rows sharing (player_id, date).
// The aggregator's same-match dedup makes this unreachable for
// re-scraped matches; seeing it means two different matches claim the
// same player on one date, which is drift worth failing on.
type DuplicateKeyError struct {
	PlayerID string
	Date     time.Time
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate feature row for player %s on %s",
		e.PlayerID, e.Date.Format(types.DateFormat))
}

const defaultMaxMinutes = 90

// artifactColumns are source presentation columns the projection
// drops: free-text notes, the rating column duplicated from the
// ratings panel, and composites duplicating stats already present in
// decomposed form.
var artifactColumns = map[string]bool{
	"sofascore_rating":  true,
	"notes_attack":      true,
	"notes_defence":     true,
	"notes_passing":     true,
	"notes_goalkeeper":  true,
	"duels_won":         true,
	"defensive_actions": true,
}

// Normalize transforms a raw dataset into the feature table. It never
// mutates the dataset; a failed pass leaves the raw artifact intact
// for retry. Steps: column projection, ratio decomposition,
// categorical encoding, per-minute rate normalization (zero-minute
// rows are excluded, not zero-filled), minutes rescaling into (0, 1],
// and (player_id, date) key enforcement.
func Normalize(ds types.Dataset, cfg types.NormalizationConfig) (types.FeatureTable, error) {
	maxMinutes := cfg.MaxMinutes
	if maxMinutes <= 0 {
		maxMinutes = defaultMaxMinutes
	}
	codes := cfg.PositionCodes
	if codes == nil {
		codes = DefaultPositionCodes()
	}

	type rowKey struct {
		playerID string
		date     string
	}
	seen := make(map[rowKey]bool)
	colSet := make(map[string]bool)
	var rows []types.FeatureRow

	for _, rec := range ds.Records {
		id := recordIdentity{playerID: rec.PlayerID, matchID: rec.MatchID}

		// Projection and ratio decomposition over the scraped cells.
		stats := make(map[string]float64)
		var minutes float64
		for header, cell := range rec.Stats {
			key := StatKey(header)
			if key == "" || artifactColumns[key] {
				continue
			}
			if key == types.StatMinutes {
				m, err := parseMinutes(cell)
				if err != nil {
					return types.FeatureTable{}, fmt.Errorf(
						"player %s match %s: unreadable minutes %q: %w",
						rec.PlayerID, rec.MatchID, cell, err)
				}
				minutes = m
				continue
			}
			if successful, attempted, ok := ParseRatio(cell); ok {
				stats[key+"_successful"] = successful
				stats[key+"_attempted"] = attempted
				continue
			}
			stats[key] = parseNumber(cell)
		}

		// Categorical encoding runs before the minutes filter so an
		// unknown category fails the pass even on a benched row.
		position, err := positionCode(id, rec.Position, codes)
		if err != nil {
			return types.FeatureTable{}, err
		}

		// Zero minutes means every rate is undefined; the row is
		// excluded rather than zero-filled.
		if minutes == 0 {
			continue
		}
		for key, v := range stats {
			stats[key] = v / minutes
		}

		scaled := minutes / maxMinutes
		if scaled > 1 {
			// Extra time beyond the configured competition maximum.
			scaled = 1
		}

		goalsFor, goalsAgainst, err := goals(rec.Score, rec.Home)
		if err != nil {
			return types.FeatureTable{}, fmt.Errorf(
				"player %s match %s: %w", rec.PlayerID, rec.MatchID, err)
		}

		key := rowKey{playerID: rec.PlayerID, date: rec.MatchDate.Format(types.DateFormat)}
		if seen[key] {
			return types.FeatureTable{}, &DuplicateKeyError{
				PlayerID: rec.PlayerID, Date: rec.MatchDate}
		}
		seen[key] = true

		for name := range stats {
			colSet[name] = true
		}
		rows = append(rows, types.FeatureRow{
			PlayerID:      rec.PlayerID,
			Date:          rec.MatchDate,
			Position:      position,
			Home:          homeCode(rec.Home),
			MinutesScaled: scaled,
			GoalsFor:      goalsFor,
			GoalsAgainst:  goalsAgainst,
			Rating:        parseNumber(rec.Rating),
			Stats:         stats,
		})
	}

	columns := make([]string, 0, len(colSet))
	for name := range colSet {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	// Every row carries every column; stats a player's panels never
	// showed are zero rates.
	for _, row := range rows {
		for _, name := range columns {
			if _, ok := row.Stats[name]; !ok {
				row.Stats[name] = 0
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	return types.FeatureTable{RunID: ds.RunID, Columns: columns, Rows: rows}, nil
}

// goals reads the final score from the player's team's perspective.
func goals(score string, home bool) (goalsFor, goalsAgainst float64, err error) {
	left, right, ok := strings.Cut(strings.TrimSpace(score), "-")
	if !ok {
		return 0, 0, fmt.Errorf("unreadable score %q", score)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("unreadable score %q", score)
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("unreadable score %q", score)
	}
	if home {
		return h, a, nil
	}
	return a, h, nil
}
