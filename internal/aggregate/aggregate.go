// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate merges extracted match batches into one raw
// dataset, the run's durable input to normalization.
package aggregate

import (
	"fmt"

	"github.com/lstanic/pitchfeed/pkg/types"
)

// MalformedBatchError reports a record without the keys every
// downstream stage depends on. A batch that passed extraction never
// triggers it; seeing one means the store artifact was tampered with
// or a scraper bug slipped through.
type MalformedBatchError struct {
	MatchID string
	Index   int
	Field   string
}

func (e *MalformedBatchError) Error() string {
	return fmt.Sprintf("batch %s: record %d missing %s", e.MatchID, e.Index, e.Field)
}

type recordKey struct {
	matchID  string
	playerID string
}

// Aggregate concatenates batches in discovery order into one dataset.
// Every record must carry a match and player id. Records sharing a
// (match_id, player_id) pair collapse to the first occurrence, so an
// overlapping re-scrape cannot produce same-match duplicates
// downstream.
func Aggregate(runID string, batches []types.Batch) (types.Dataset, error) {
	ds := types.Dataset{RunID: runID}
	seen := make(map[recordKey]bool)

	for _, batch := range batches {
		for i, rec := range batch.Records {
			if rec.MatchID == "" {
				return types.Dataset{}, &MalformedBatchError{
					MatchID: batch.Ref.MatchID, Index: i, Field: "match_id"}
			}
			if rec.PlayerID == "" {
				return types.Dataset{}, &MalformedBatchError{
					MatchID: batch.Ref.MatchID, Index: i, Field: "player_id"}
			}

			key := recordKey{rec.MatchID, rec.PlayerID}
			if seen[key] {
				continue
			}
			seen[key] = true
			ds.Records = append(ds.Records, rec)
		}
	}
	return ds, nil
}
