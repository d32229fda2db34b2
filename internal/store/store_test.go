// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lstanic/pitchfeed/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string) types.Run {
	return types.Run{
		ID: id,
		Criteria: types.Criteria{
			Country:   "england",
			League:    "premier-league",
			Season:    "23/24",
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		Status:    types.RunDiscovering,
		CreatedAt: time.Date(2024, 4, 1, 10, 30, 0, 0, time.UTC),
	}
}

func testRef(matchID, date string) types.MatchRef {
	d, _ := time.Parse(types.DateFormat, date)
	return types.MatchRef{
		MatchID:   matchID,
		URL:       "https://stats.example.com/match/" + matchID,
		MatchDate: d,
		HomeTeam:  "Arsenal",
		AwayTeam:  "Chelsea",
		League:    "premier-league",
		Season:    "23/24",
		Status:    types.RefDiscovered,
	}
}

func TestNewStoreCreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"runs", "checkpoints", "match_refs", "raw_records", "feature_rows"} {
		var name string
		err := s.db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := testRun("run-1")
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Criteria.Country != "england" || got.Criteria.League != "premier-league" ||
		got.Criteria.Season != "23/24" {
		t.Errorf("GetRun() criteria = %+v, want %+v", got.Criteria, run.Criteria)
	}
	if !got.Criteria.StartDate.Equal(run.Criteria.StartDate) ||
		!got.Criteria.EndDate.Equal(run.Criteria.EndDate) {
		t.Errorf("GetRun() window = %s..%s", got.Criteria.StartDate, got.Criteria.EndDate)
	}
	if got.Status != types.RunDiscovering {
		t.Errorf("GetRun() status = %q, want %q", got.Status, types.RunDiscovering)
	}

	if err := s.UpdateRunStatus(ctx, "run-1", types.RunExtracted); err != nil {
		t.Fatalf("UpdateRunStatus() error = %v", err)
	}
	got, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() after update error = %v", err)
	}
	if got.Status != types.RunExtracted {
		t.Errorf("status after update = %q, want %q", got.Status, types.RunExtracted)
	}

	if _, err := s.GetRun(ctx, "missing"); err == nil {
		t.Error("GetRun() on unknown run should fail")
	}
	if err := s.UpdateRunStatus(ctx, "missing", types.RunExtracted); err == nil {
		t.Error("UpdateRunStatus() on unknown run should fail")
	}
}

func TestSaveFixturePage(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	page1 := []types.MatchRef{testRef("m3", "2024-03-20"), testRef("m2", "2024-03-15")}
	if err := s.SaveFixturePage(ctx, "run-1", "page-2", page1); err != nil {
		t.Fatalf("SaveFixturePage() error = %v", err)
	}
	page2 := []types.MatchRef{testRef("m1", "2024-03-10")}
	if err := s.SaveFixturePage(ctx, "run-1", "page-3", page2); err != nil {
		t.Fatalf("SaveFixturePage() second page error = %v", err)
	}

	cursor, found, err := s.Checkpoint(ctx, "run-1")
	if err != nil {
		t.Fatalf("Checkpoint() error = %v", err)
	}
	if !found || cursor != "page-3" {
		t.Errorf("Checkpoint() = %q, %v, want page-3, true", cursor, found)
	}

	refs, err := s.Refs(ctx, "run-1")
	if err != nil {
		t.Fatalf("Refs() error = %v", err)
	}
	var ids []string
	for _, ref := range refs {
		ids = append(ids, ref.MatchID)
	}
	if strings.Join(ids, ",") != "m1,m2,m3" {
		t.Errorf("Refs() order = %v, want [m1 m2 m3]", ids)
	}
}

func TestSaveFixturePageRewalkIgnoresKnownRefs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	page := []types.MatchRef{testRef("m1", "2024-03-10"), testRef("m2", "2024-03-15")}
	if err := s.SaveFixturePage(ctx, "run-1", "page-2", page); err != nil {
		t.Fatalf("SaveFixturePage() error = %v", err)
	}
	// Resume re-walks the checkpointed page and sees the same matches.
	if err := s.SaveFixturePage(ctx, "run-1", "page-2", page); err != nil {
		t.Fatalf("SaveFixturePage() re-walk error = %v", err)
	}

	refs, err := s.Refs(ctx, "run-1")
	if err != nil {
		t.Fatalf("Refs() error = %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("Refs() after re-walk = %d refs, want 2", len(refs))
	}
}

func TestClearCheckpoint(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := s.SaveFixturePage(ctx, "run-1", "page-2", nil); err != nil {
		t.Fatalf("SaveFixturePage() error = %v", err)
	}
	if err := s.ClearCheckpoint(ctx, "run-1"); err != nil {
		t.Fatalf("ClearCheckpoint() error = %v", err)
	}
	if _, found, _ := s.Checkpoint(ctx, "run-1"); found {
		t.Error("Checkpoint() still found after clear")
	}
}

func TestRefStatusTransitions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	refs := []types.MatchRef{
		testRef("m1", "2024-03-10"),
		testRef("m2", "2024-03-15"),
		testRef("m3", "2024-03-20"),
	}
	if err := s.SaveFixturePage(ctx, "run-1", "done", refs); err != nil {
		t.Fatalf("SaveFixturePage() error = %v", err)
	}

	if err := s.UpdateRefStatus(ctx, "run-1", "m1", types.RefExtracted); err != nil {
		t.Fatalf("UpdateRefStatus() error = %v", err)
	}
	if err := s.UpdateRefStatus(ctx, "run-1", "m2", types.RefFailed); err != nil {
		t.Fatalf("UpdateRefStatus() error = %v", err)
	}

	pending, err := s.PendingRefs(ctx, "run-1")
	if err != nil {
		t.Fatalf("PendingRefs() error = %v", err)
	}
	if len(pending) != 1 || pending[0].MatchID != "m3" {
		t.Errorf("PendingRefs() = %+v, want only m3", pending)
	}

	retryable, err := s.RetryableRefs(ctx, "run-1")
	if err != nil {
		t.Fatalf("RetryableRefs() error = %v", err)
	}
	if len(retryable) != 1 || retryable[0].MatchID != "m2" {
		t.Errorf("RetryableRefs() = %+v, want only m2", retryable)
	}

	if err := s.UpdateRefStatus(ctx, "run-1", "nope", types.RefExtracted); err == nil {
		t.Error("UpdateRefStatus() on unknown match should fail")
	}
}

func TestSaveBatchRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	ref := testRef("m1", "2024-03-10")
	if err := s.SaveFixturePage(ctx, "run-1", "done", []types.MatchRef{ref}); err != nil {
		t.Fatalf("SaveFixturePage() error = %v", err)
	}

	batch := types.Batch{
		Ref: ref,
		Records: []types.RawRecord{
			{
				MatchID:    "m1",
				PlayerID:   "771",
				PlayerName: "Bukayo Saka",
				Team:       "Arsenal",
				Home:       true,
				Position:   "F",
				MatchDate:  ref.MatchDate,
				Score:      "2-1",
				Rating:     "7.8",
				Stats:      map[string]string{"minutes_played": "90'", "Shots on target": "3/5"},
			},
			{
				MatchID:   "m1",
				PlayerID:  "802",
				Team:      "Chelsea",
				Home:      false,
				Position:  "G",
				MatchDate: ref.MatchDate,
				Score:     "2-1",
				Stats:     map[string]string{"minutes_played": "90'", "Saves": "4"},
			},
		},
	}
	if err := s.SaveBatch(ctx, "run-1", batch); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	ds, err := s.Dataset(ctx, "run-1")
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("Dataset() = %d records, want 2", len(ds.Records))
	}
	got := ds.Records[0]
	if got.PlayerID != "771" || !got.Home || got.Stats["Shots on target"] != "3/5" {
		t.Errorf("round-tripped record = %+v", got)
	}
	if ds.Records[1].Home {
		t.Error("away record came back as home")
	}

	refs, err := s.Refs(ctx, "run-1")
	if err != nil {
		t.Fatalf("Refs() error = %v", err)
	}
	if refs[0].Status != types.RefExtracted {
		t.Errorf("ref status after SaveBatch = %q, want %q", refs[0].Status, types.RefExtracted)
	}
}

func TestBatchesDiscoveryOrder(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	// Walked newest first, as the fixture pages list them.
	refs := []types.MatchRef{
		testRef("m9", "2024-03-20"),
		testRef("m2", "2024-03-10"),
		testRef("m5", "2024-03-10"),
	}
	if err := s.SaveFixturePage(ctx, "run-1", "done", refs); err != nil {
		t.Fatalf("SaveFixturePage() error = %v", err)
	}
	for _, ref := range refs {
		batch := types.Batch{Ref: ref, Records: []types.RawRecord{{
			MatchID:   ref.MatchID,
			PlayerID:  "p1",
			MatchDate: ref.MatchDate,
			Stats:     map[string]string{},
		}}}
		if err := s.SaveBatch(ctx, "run-1", batch); err != nil {
			t.Fatalf("SaveBatch(%s) error = %v", ref.MatchID, err)
		}
	}

	batches, err := s.Batches(ctx, "run-1")
	if err != nil {
		t.Fatalf("Batches() error = %v", err)
	}
	var order []string
	for _, b := range batches {
		order = append(order, b.Ref.MatchID)
	}
	if strings.Join(order, ",") != "m2,m5,m9" {
		t.Errorf("Batches() order = %v, want date then id ascending", order)
	}
}

func TestSaveFeatureTableReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	first := types.FeatureTable{
		RunID:   "run-1",
		Columns: []string{"shots_on_target"},
		Rows: []types.FeatureRow{
			{PlayerID: "771", Date: date, Position: 3, Home: 1, MinutesScaled: 1.0,
				Rating: 7.8, Stats: map[string]float64{"shots_on_target": 0.033}},
			{PlayerID: "802", Date: date, Position: 0, MinutesScaled: 1.0,
				Stats: map[string]float64{"shots_on_target": 0}},
		},
	}
	if err := s.SaveFeatureTable(ctx, first); err != nil {
		t.Fatalf("SaveFeatureTable() error = %v", err)
	}

	second := first
	second.Rows = first.Rows[:1]
	if err := s.SaveFeatureTable(ctx, second); err != nil {
		t.Fatalf("SaveFeatureTable() replace error = %v", err)
	}

	summary, err := s.Summary(ctx, "run-1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.FeatureRows != 1 {
		t.Errorf("feature rows after replace = %d, want 1", summary.FeatureRows)
	}
}

func TestSummary(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run-1")); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	refs := []types.MatchRef{
		testRef("m1", "2024-03-10"),
		testRef("m2", "2024-03-15"),
		testRef("m3", "2024-03-20"),
	}
	if err := s.SaveFixturePage(ctx, "run-1", "done", refs); err != nil {
		t.Fatalf("SaveFixturePage() error = %v", err)
	}
	if err := s.UpdateRefStatus(ctx, "run-1", "m1", types.RefExtracted); err != nil {
		t.Fatalf("UpdateRefStatus() error = %v", err)
	}
	if err := s.UpdateRefStatus(ctx, "run-1", "m2", types.RefFailed); err != nil {
		t.Fatalf("UpdateRefStatus() error = %v", err)
	}

	summary, err := s.Summary(ctx, "run-1")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Discovered != 3 || summary.Extracted != 1 || summary.Failed != 1 {
		t.Errorf("Summary() = %+v, want 3 discovered, 1 extracted, 1 failed", summary)
	}
	if summary.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", summary.Pending())
	}
	if len(summary.FailedIDs) != 1 || summary.FailedIDs[0] != "m2" {
		t.Errorf("FailedIDs = %v, want [m2]", summary.FailedIDs)
	}
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := testRun("run-old")
	older.CreatedAt = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	newer := testRun("run-new")
	newer.CreatedAt = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	for _, run := range []types.Run{older, newer} {
		if err := s.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun(%s) error = %v", run.ID, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-new" {
		t.Errorf("ListRuns() = %+v, want run-new first", runs)
	}
}

func TestExportRawCSV(t *testing.T) {
	s := testStore(t)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	ds := types.Dataset{
		RunID: "run-1",
		Records: []types.RawRecord{
			{MatchID: "m1", PlayerID: "771", PlayerName: "Bukayo Saka", Team: "Arsenal",
				Home: true, Position: "F", MatchDate: date, Score: "2-1", Rating: "7.8",
				Stats: map[string]string{"Shots on target": "3/5", "Passes": "26 (21)"}},
			{MatchID: "m1", PlayerID: "802", Team: "Chelsea", Position: "G",
				MatchDate: date, Score: "2-1",
				Stats: map[string]string{"Saves": "4"}},
		},
	}

	path, err := s.ExportRawCSV(ds)
	if err != nil {
		t.Fatalf("ExportRawCSV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	wantHeader := "match_id,player_id,player_name,team,side,position,match_date,score,rating,Passes,Saves,Shots on target"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}
	if len(rows) != 3 {
		t.Fatalf("export has %d rows, want 3", len(rows))
	}
	// First record has no Saves stat, cell stays empty.
	if rows[1][10] != "" {
		t.Errorf("missing stat cell = %q, want empty", rows[1][10])
	}
	if rows[1][4] != "home" || rows[2][4] != "away" {
		t.Errorf("side cells = %q, %q", rows[1][4], rows[2][4])
	}
}

func TestExportFeatureCSV(t *testing.T) {
	s := testStore(t)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	table := types.FeatureTable{
		RunID:   "run-1",
		Columns: []string{"saves", "shots_on_target"},
		Rows: []types.FeatureRow{
			{PlayerID: "771", Date: date, Position: 3, Home: 1, MinutesScaled: 1,
				GoalsFor: 2, GoalsAgainst: 1, Rating: 7.8,
				Stats: map[string]float64{"saves": 0, "shots_on_target": 0.0333}},
		},
	}

	path, err := s.ExportFeatureCSV(table)
	if err != nil {
		t.Fatalf("ExportFeatureCSV() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines, want 2", len(lines))
	}
	wantHeader := "player_id,date,position,home,minutes_scaled,goals_for,goals_against,rating,saves,shots_on_target"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}
	if lines[1] != "771,2024-03-10,3,1,1,2,1,7.8,0,0.0333" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriteCSVLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	if err := WriteCSV(path, []string{"a", "b"}, [][]string{{"1", "2"}}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.csv" {
		t.Errorf("directory contents = %v, want only out.csv", entries)
	}
}
