// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// The source encodes success ratios two ways: "3/5" is
// successful/attempted, "26 (21)" is attempted (successful). Both
// decompose to the same pair.
var (
	slashPattern    = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	compoundPattern = regexp.MustCompile(`^(\d+)\s*\((\d+)\)$`)
)

// ParseRatio decomposes a ratio-encoded cell into its successful and
// attempted counts. ok is false when the cell is not ratio-encoded.
// "0/0" decomposes to (0, 0); attempted never divides anything here.
func ParseRatio(cell string) (successful, attempted float64, ok bool) {
	cell = strings.TrimSpace(cell)
	if m := slashPattern.FindStringSubmatch(cell); m != nil {
		successful, _ = strconv.ParseFloat(m[1], 64)
		attempted, _ = strconv.ParseFloat(m[2], 64)
		return successful, attempted, true
	}
	if m := compoundPattern.FindStringSubmatch(cell); m != nil {
		attempted, _ = strconv.ParseFloat(m[1], 64)
		successful, _ = strconv.ParseFloat(m[2], 64)
		return successful, attempted, true
	}
	return 0, 0, false
}

// FormatRatio rebuilds the slash form from a decomposed pair, the
// inverse of ParseRatio for slash-encoded inputs.
func FormatRatio(successful, attempted float64) string {
	return strconv.FormatFloat(successful, 'f', -1, 64) + "/" +
		strconv.FormatFloat(attempted, 'f', -1, 64)
}

// parseMinutes reads the minutes-played cell, tolerating the source's
// trailing minute mark ("90'").
func parseMinutes(cell string) (float64, error) {
	cell = strings.TrimSuffix(strings.TrimSpace(cell), "'")
	if cell == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cell, 64)
}

// parseNumber reads a plain numeric cell. Cells the source leaves
// empty or dashed coerce to zero, matching the raw table's semantics
// of "did not record this stat".
func parseNumber(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0
	}
	return v
}

var nonKeyPattern = regexp.MustCompile(`[^a-z0-9]+`)

// StatKey canonicalizes a source column header into a stable column
// name: "Minutes played" becomes "minutes_played", "Expected Goals
// (xG)" becomes "expected_goals_xg".
func StatKey(header string) string {
	k := strings.ToLower(strings.TrimSpace(header))
	k = nonKeyPattern.ReplaceAllString(k, "_")
	return strings.Trim(k, "_")
}
