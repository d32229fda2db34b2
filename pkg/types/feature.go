// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FeatureRow is one canonical player-match record: fully numeric,
// keyed uniquely by (PlayerID, Date) across the whole feature table.
type FeatureRow struct {
	// PlayerID is the source player identifier.
	PlayerID string `json:"player_id" yaml:"player_id"`

	// Date is the match date at day precision; with PlayerID it forms
	// the table's unique key.
	Date time.Time `json:"date" yaml:"date"`

	// Position is the integer position code (see the normalizer's
	// lookup table; goalkeeper 0 through forward 3).
	Position int `json:"position" yaml:"position"`

	// Home is 1 for the home side, 0 for the away side.
	Home int `json:"home" yaml:"home"`

	// MinutesScaled is minutes played rescaled into (0, 1] against the
	// competition's maximum.
	MinutesScaled float64 `json:"minutes_scaled" yaml:"minutes_scaled"`

	// GoalsFor and GoalsAgainst are the final score from the player's
	// team's perspective. Match context, not per-minute rates.
	GoalsFor     float64 `json:"goals_for" yaml:"goals_for"`
	GoalsAgainst float64 `json:"goals_against" yaml:"goals_against"`

	// Rating is the source's match rating, 0 when the player was unrated.
	Rating float64 `json:"rating" yaml:"rating"`

	// Stats maps canonical stat columns (decomposed ratios included) to
	// per-minute rates.
	Stats map[string]float64 `json:"stats" yaml:"stats"`
}

// FeatureTable is the normalizer's output artifact for one run.
type FeatureTable struct {
	// RunID is the owning run's UUID.
	RunID string `json:"run_id" yaml:"run_id"`

	// Columns is the stat column order used for tabular export. Fixed
	// by the normalizer's projection, identical for every row.
	Columns []string `json:"columns" yaml:"columns"`

	// Rows holds every canonical record, ordered by (Date, PlayerID).
	Rows []FeatureRow `json:"rows" yaml:"rows"`
}
