// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lstanic/pitchfeed/pkg/types"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func rawRecord(playerID, matchID string, mutate func(*types.RawRecord)) types.RawRecord {
	rec := types.RawRecord{
		MatchID:    matchID,
		PlayerID:   playerID,
		PlayerName: "Player " + playerID,
		Team:       "Arsenal",
		Home:       true,
		Position:   "M",
		MatchDate:  day(9),
		Score:      "2-1",
		Rating:     "7.4",
		Stats: map[string]string{
			"Minutes played": "90'",
			"Goals":          "1",
			"Passes":         "45",
		},
	}
	if mutate != nil {
		mutate(&rec)
	}
	return rec
}

func dataset(records ...types.RawRecord) types.Dataset {
	return types.Dataset{RunID: "run-1", Records: records}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		cell       string
		successful float64
		attempted  float64
		ok         bool
	}{
		{"3/5", 3, 5, true},
		{"0/0", 0, 0, true},
		{"26 (21)", 21, 26, true},
		{"12(9)", 9, 12, true},
		{" 3 / 5 ", 3, 5, true},
		{"45", 0, 0, false},
		{"7.4", 0, 0, false},
		{"", 0, 0, false},
		{"a/b", 0, 0, false},
	}
	for _, tt := range tests {
		successful, attempted, ok := ParseRatio(tt.cell)
		if ok != tt.ok || successful != tt.successful || attempted != tt.attempted {
			t.Errorf("ParseRatio(%q) = (%v, %v, %v), want (%v, %v, %v)",
				tt.cell, successful, attempted, ok, tt.successful, tt.attempted, tt.ok)
		}
	}
}

func TestParseRatioInverse(t *testing.T) {
	for _, cell := range []string{"3/5", "0/0", "21/26", "0/12"} {
		successful, attempted, ok := ParseRatio(cell)
		if !ok {
			t.Fatalf("ParseRatio(%q) not recognized", cell)
		}
		if got := FormatRatio(successful, attempted); got != cell {
			t.Errorf("FormatRatio(ParseRatio(%q)) = %q", cell, got)
		}
	}
}

func TestStatKey(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Minutes played", "minutes_played"},
		{"Accurate passes", "accurate_passes"},
		{"Expected Goals (xG)", "expected_goals_xg"},
		{"  Goals  ", "goals"},
	}
	for _, tt := range tests {
		if got := StatKey(tt.header); got != tt.want {
			t.Errorf("statKey(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestNormalizeRates(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", nil))

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}

	row := table.Rows[0]
	if row.Stats["goals"] != 1.0/90 {
		t.Errorf("goals rate = %v, want %v", row.Stats["goals"], 1.0/90)
	}
	if row.Stats["passes"] != 45.0/90 {
		t.Errorf("passes rate = %v, want %v", row.Stats["passes"], 45.0/90)
	}
	if row.MinutesScaled != 1 {
		t.Errorf("minutes scaled = %v, want 1", row.MinutesScaled)
	}
	if row.Position != 2 || row.Home != 1 {
		t.Errorf("position/home = %d/%d, want 2/1", row.Position, row.Home)
	}
	if row.Rating != 7.4 {
		t.Errorf("rating = %v, want 7.4", row.Rating)
	}
}

func TestNormalizeExcludesZeroMinutes(t *testing.T) {
	ds := dataset(
		rawRecord("p1", "m1", nil),
		rawRecord("p2", "m1", func(r *types.RawRecord) {
			r.Stats["Minutes played"] = "0'"
		}),
	)

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(table.Rows))
	}
	if table.Rows[0].PlayerID != "p1" {
		t.Errorf("surviving row is %s, want p1", table.Rows[0].PlayerID)
	}
}

func TestNormalizeRatioDecomposition(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Stats["Accurate passes"] = "3/5"
		r.Stats["Crosses"] = "8 (2)"
	}))

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	row := table.Rows[0]

	if row.Stats["accurate_passes_successful"] != 3.0/90 {
		t.Errorf("successful rate = %v, want %v", row.Stats["accurate_passes_successful"], 3.0/90)
	}
	if row.Stats["accurate_passes_attempted"] != 5.0/90 {
		t.Errorf("attempted rate = %v, want %v", row.Stats["accurate_passes_attempted"], 5.0/90)
	}
	if row.Stats["crosses_successful"] != 2.0/90 || row.Stats["crosses_attempted"] != 8.0/90 {
		t.Errorf("compound decomposition = %v/%v, want %v/%v",
			row.Stats["crosses_successful"], row.Stats["crosses_attempted"], 2.0/90, 8.0/90)
	}
	if _, ok := row.Stats["accurate_passes"]; ok {
		t.Error("undecomposed accurate_passes column survived")
	}
}

func TestNormalizeZeroRatio(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Stats["Accurate passes"] = "0/0"
	}))

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	row := table.Rows[0]
	if row.Stats["accurate_passes_successful"] != 0 || row.Stats["accurate_passes_attempted"] != 0 {
		t.Errorf("0/0 decomposed to %v/%v, want 0/0",
			row.Stats["accurate_passes_successful"], row.Stats["accurate_passes_attempted"])
	}
}

func TestNormalizeUnknownPosition(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Position = "LWB"
	}))

	_, err := Normalize(ds, types.NormalizationConfig{})
	var catErr *UnknownCategoryError
	if !errors.As(err, &catErr) {
		t.Fatalf("got %v, want UnknownCategoryError", err)
	}
	if catErr.Value != "LWB" || catErr.PlayerID != "p1" {
		t.Errorf("error carries %q/%s, want LWB/p1", catErr.Value, catErr.PlayerID)
	}
}

func TestNormalizeUnknownPositionOnBenchedRow(t *testing.T) {
	// Encoding runs before the minutes filter: an unknown category
	// fails the pass even when the row would be excluded later.
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Position = "??"
		r.Stats["Minutes played"] = "0'"
	}))

	_, err := Normalize(ds, types.NormalizationConfig{})
	var catErr *UnknownCategoryError
	if !errors.As(err, &catErr) {
		t.Fatalf("got %v, want UnknownCategoryError", err)
	}
}

func TestNormalizePositionOverride(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Position = "GK"
	}))

	table, err := Normalize(ds, types.NormalizationConfig{
		PositionCodes: map[string]int{"GK": 0, "OUT": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[0].Position != 0 {
		t.Errorf("position = %d, want 0", table.Rows[0].Position)
	}
}

func TestNormalizeDuplicateKey(t *testing.T) {
	// Same player on the same date from two different matches.
	ds := dataset(
		rawRecord("p1", "m1", nil),
		rawRecord("p1", "m2", nil),
	)

	_, err := Normalize(ds, types.NormalizationConfig{})
	var dupErr *DuplicateKeyError
	if !errors.As(err, &dupErr) {
		t.Fatalf("got %v, want DuplicateKeyError", err)
	}
	if dupErr.PlayerID != "p1" {
		t.Errorf("error carries player %s, want p1", dupErr.PlayerID)
	}
}

func TestNormalizeMinutesRescaling(t *testing.T) {
	ds := dataset(
		rawRecord("p1", "m1", func(r *types.RawRecord) { r.Stats["Minutes played"] = "30'" }),
		rawRecord("p2", "m1", func(r *types.RawRecord) { r.Stats["Minutes played"] = "60'" }),
		rawRecord("p3", "m1", func(r *types.RawRecord) { r.Stats["Minutes played"] = "90'" }),
	)

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}

	var prev float64
	for _, row := range table.Rows {
		if row.MinutesScaled <= 0 || row.MinutesScaled > 1 {
			t.Errorf("minutes scaled %v outside (0, 1]", row.MinutesScaled)
		}
		if row.MinutesScaled <= prev {
			t.Errorf("rescaling not monotonic: %v after %v", row.MinutesScaled, prev)
		}
		prev = row.MinutesScaled
	}
}

func TestNormalizeExtraTimeClamps(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Stats["Minutes played"] = "120'"
	}))

	table, err := Normalize(ds, types.NormalizationConfig{MaxMinutes: 90})
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[0].MinutesScaled != 1 {
		t.Errorf("minutes scaled = %v, want clamped 1", table.Rows[0].MinutesScaled)
	}

	table, err = Normalize(ds, types.NormalizationConfig{MaxMinutes: 120})
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[0].MinutesScaled != 1 {
		t.Errorf("minutes scaled = %v, want 1 at cup maximum", table.Rows[0].MinutesScaled)
	}
}

func TestNormalizeGoalsContext(t *testing.T) {
	ds := dataset(
		rawRecord("p1", "m1", nil),
		rawRecord("p2", "m1", func(r *types.RawRecord) {
			r.Home = false
			r.Team = "Chelsea"
		}),
	)

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}

	byPlayer := make(map[string]types.FeatureRow)
	for _, row := range table.Rows {
		byPlayer[row.PlayerID] = row
	}
	if home := byPlayer["p1"]; home.GoalsFor != 2 || home.GoalsAgainst != 1 {
		t.Errorf("home goals = %v/%v, want 2/1", home.GoalsFor, home.GoalsAgainst)
	}
	if away := byPlayer["p2"]; away.GoalsFor != 1 || away.GoalsAgainst != 2 {
		t.Errorf("away goals = %v/%v, want 1/2", away.GoalsFor, away.GoalsAgainst)
	}
}

func TestNormalizeProjectionDropsArtifacts(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Stats["Sofascore Rating"] = "7.4"
		r.Stats["Notes Passing"] = "good game"
	}))

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	for _, col := range table.Columns {
		if col == "sofascore_rating" || col == "notes_passing" {
			t.Errorf("artifact column %s survived projection", col)
		}
	}
}

func TestNormalizeColumnsUniform(t *testing.T) {
	// A stat present on only one row is zero-filled on the others, so
	// every row carries the full column set.
	ds := dataset(
		rawRecord("p1", "m1", func(r *types.RawRecord) { r.Stats["Saves"] = "4" }),
		rawRecord("p2", "m1", nil),
	)

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range table.Rows {
		for _, col := range table.Columns {
			if _, ok := row.Stats[col]; !ok {
				t.Errorf("row %s missing column %s", row.PlayerID, col)
			}
		}
	}
}

func TestNormalizeUnratedPlayer(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Rating = ""
	}))

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[0].Rating != 0 {
		t.Errorf("unrated player rating = %v, want 0", table.Rows[0].Rating)
	}
}

func TestNormalizeMalformedScore(t *testing.T) {
	ds := dataset(rawRecord("p1", "m1", func(r *types.RawRecord) {
		r.Score = "postponed"
	}))

	if _, err := Normalize(ds, types.NormalizationConfig{}); err == nil {
		t.Fatal("expected error for malformed score")
	}
}

func TestNormalizeRowOrder(t *testing.T) {
	ds := dataset(
		rawRecord("p2", "m2", func(r *types.RawRecord) { r.MatchDate = day(16) }),
		rawRecord("p9", "m1", nil),
		rawRecord("p1", "m1", nil),
	)

	table, err := Normalize(ds, types.NormalizationConfig{})
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, row := range table.Rows {
		got = append(got, row.PlayerID)
	}
	want := []string{"p1", "p9", "p2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row order %v, want %v", got, want)
		}
	}
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		cell    string
		want    float64
		wantErr bool
	}{
		{"90'", 90, false},
		{"90", 90, false},
		{"0'", 0, false},
		{"", 0, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseMinutes(tt.cell)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMinutes(%q) error = %v, wantErr %v", tt.cell, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("parseMinutes(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}
