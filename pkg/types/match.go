// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// DateFormat is the day-precision layout used for match dates in
// artifacts, exports, and the run store.
const DateFormat = "2006-01-02"

// Criteria selects the matches a discovery run enumerates. Immutable
// once a run starts; a changed selection is a new run.
type Criteria struct {
	// Country is the source's country slug (e.g. "england").
	Country string `json:"country" yaml:"country"`

	// League is the source's league slug (e.g. "premier-league").
	League string `json:"league" yaml:"league"`

	// Season is the season label as the source spells it (e.g. "23/24").
	Season string `json:"season" yaml:"season"`

	// StartDate is the inclusive lower bound of the match-date window.
	StartDate time.Time `json:"start_date" yaml:"start_date"`

	// EndDate is the inclusive upper bound of the match-date window.
	EndDate time.Time `json:"end_date" yaml:"end_date"`
}

// Validate checks that the selection is complete and the date window is
// well-formed.
func (c Criteria) Validate() error {
	if c.Country == "" || c.League == "" || c.Season == "" {
		return fmt.Errorf("criteria requires country, league, and season")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("criteria requires a start and end date")
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("criteria end date %s precedes start date %s",
			c.EndDate.Format(DateFormat), c.StartDate.Format(DateFormat))
	}
	return nil
}

// RefStatus tracks a discovered match through the extraction stage.
type RefStatus string

const (
	RefDiscovered RefStatus = "discovered"
	RefExtracted  RefStatus = "extracted"
	RefFailed     RefStatus = "failed"
)

// MatchRef locates one scrapeable match. Produced by discovery;
// match IDs are unique within a run.
type MatchRef struct {
	// MatchID is the source-assigned match identifier.
	MatchID string `json:"match_id" yaml:"match_id"`

	// URL is the absolute match page URL.
	URL string `json:"url" yaml:"url"`

	// MatchDate is the scheduled match date at day precision.
	MatchDate time.Time `json:"match_date" yaml:"match_date"`

	// HomeTeam and AwayTeam are the team names as listed on the fixture page.
	HomeTeam string `json:"home_team" yaml:"home_team"`
	AwayTeam string `json:"away_team" yaml:"away_team"`

	// League and Season echo the criteria the match was discovered under.
	League string `json:"league" yaml:"league"`
	Season string `json:"season" yaml:"season"`

	// Status tracks whether the match has been extracted.
	Status RefStatus `json:"status" yaml:"status"`
}

// RunStatus tracks a run through the pipeline stages.
type RunStatus string

const (
	RunDiscovering RunStatus = "discovering"
	RunDiscovered  RunStatus = "discovered"
	RunExtracted   RunStatus = "extracted"
	RunAggregated  RunStatus = "aggregated"
	RunNormalized  RunStatus = "normalized"
)

// Run identifies one end-to-end pipeline execution and owns its
// checkpoint, raw dataset, and feature table artifacts.
type Run struct {
	// ID is the run's UUID, assigned at discovery start.
	ID string `json:"id" yaml:"id"`

	// Criteria is the selection the run was started with.
	Criteria Criteria `json:"criteria" yaml:"criteria"`

	// Status is the last completed pipeline stage.
	Status RunStatus `json:"status" yaml:"status"`

	// CreatedAt is the discovery start time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
