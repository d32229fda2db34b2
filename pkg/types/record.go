// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Well-known canonical stat keys. The normalizer lowercases source
// column headers into snake_case keys; these consts name the ones the
// pipeline treats specially.
const (
	StatMinutes = "minutes_played"
	StatRating  = "rating"
)

// RawRecord is one player's unnormalized row from a single match page:
// identity and match context as typed fields, every scraped statistic
// as raw cell text keyed by its source column header. Immutable once
// written.
type RawRecord struct {
	// MatchID is the source match identifier the row was scraped from.
	MatchID string `json:"match_id" yaml:"match_id"`

	// PlayerID is the source player identifier.
	PlayerID string `json:"player_id" yaml:"player_id"`

	// PlayerName is the display name as scraped.
	PlayerName string `json:"player_name" yaml:"player_name"`

	// Team is the player's team name for this match.
	Team string `json:"team" yaml:"team"`

	// Home reports whether the player's team was the home side.
	Home bool `json:"home" yaml:"home"`

	// Position is the raw position letter from the lineup (e.g. "M").
	Position string `json:"position" yaml:"position"`

	// MatchDate is the match date from the page header.
	MatchDate time.Time `json:"match_date" yaml:"match_date"`

	// Score is the final score as "home-away" (e.g. "2-1").
	Score string `json:"score" yaml:"score"`

	// Rating is the cell text from the ratings panel, empty when the
	// player was unrated.
	Rating string `json:"rating,omitempty" yaml:"rating,omitempty"`

	// Stats maps source column headers to raw cell text exactly as
	// presented (including ratio forms like "3/5"); canonical naming
	// is the normalizer's concern.
	Stats map[string]string `json:"stats" yaml:"stats"`
}

// Batch is the extraction result for one match: one RawRecord per
// player that appeared.
type Batch struct {
	Ref     MatchRef    `json:"ref" yaml:"ref"`
	Records []RawRecord `json:"records" yaml:"records"`
}

// Dataset is the concatenation of all extracted batches of a run, in
// discovery order. Write-once per run.
type Dataset struct {
	// RunID is the owning run's UUID.
	RunID string `json:"run_id" yaml:"run_id"`

	// Records holds every raw row in discovery order.
	Records []RawRecord `json:"records" yaml:"records"`
}
