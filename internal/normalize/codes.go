// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "fmt"

// UnknownCategoryError reports a categorical value missing from the
// lookup table. Normalization fails loudly instead of defaulting so
// source-schema drift surfaces on the first unrecognized value.
type UnknownCategoryError struct {
	Field    string
	Value    string
	PlayerID string
	MatchID  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s %q for player %s in match %s",
		e.Field, e.Value, e.PlayerID, e.MatchID)
}

// DefaultPositionCodes maps the source's position letters to integer
// codes, goalkeeper through forward.
func DefaultPositionCodes() map[string]int {
	return map[string]int{
		"G": 0,
		"D": 1,
		"M": 2,
		"F": 3,
	}
}

// positionCode encodes a raw position through the lookup table.
func positionCode(rec recordIdentity, raw string, codes map[string]int) (int, error) {
	code, ok := codes[raw]
	if !ok {
		return 0, &UnknownCategoryError{
			Field: "position", Value: raw,
			PlayerID: rec.playerID, MatchID: rec.matchID,
		}
	}
	return code, nil
}

// homeCode encodes the home/away side as a binary field.
func homeCode(home bool) int {
	if home {
		return 1
	}
	return 0
}

// recordIdentity carries the keys an error message needs.
type recordIdentity struct {
	playerID string
	matchID  string
}
