// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package teamform derives trailing-form features per (team, date)
// from the aggregated raw dataset: results and shot volumes of a
// team's previous matches combined under exponential time-decay
// weights, most recent match weighted heaviest.
package teamform

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lstanic/pitchfeed/internal/normalize"
	"github.com/lstanic/pitchfeed/internal/store"
	"github.com/lstanic/pitchfeed/pkg/types"
)

const (
	defaultWindow = 5
	defaultDecay  = 0.35
)

// FormRow is one team's trailing form entering the match on Date,
// computed from up to Window earlier matches. A team's first match of
// a run has no history and emits no row.
type FormRow struct {
	Team string
	Date time.Time

	// Matches is how many prior matches the window actually held.
	Matches int

	// Decay-weighted averages over the window.
	GoalsFor      float64
	GoalsAgainst  float64
	GoalDiff      float64
	Shots         float64
	ShotsOnTarget float64

	// Result counts over the window, unweighted, with points as
	// 3*wins + draws.
	Wins   int
	Draws  int
	Losses int
	Points int
}

// teamMatch is one team's side of one match, summed from player rows.
type teamMatch struct {
	team          string
	date          time.Time
	goalsFor      float64
	goalsAgainst  float64
	shots         float64
	shotsOnTarget float64
}

// Stat keys summed into team shot volumes; the first key present on a
// player row wins.
var (
	shotKeys        = []string{"total_shots", "shots"}
	shotOnTargetKey = "shots_on_target"
)

// Derive computes form rows for every team match with at least one
// earlier match in the dataset. Rows come back ordered by date, then
// team.
func Derive(ds types.Dataset, cfg types.TeamFormConfig) []FormRow {
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	decay := cfg.Decay
	if decay <= 0 {
		decay = defaultDecay
	}

	history := teamMatches(ds.Records)

	var rows []FormRow
	for team, matches := range history {
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].date.Before(matches[j].date)
		})
		for i := 1; i < len(matches); i++ {
			start := i - window
			if start < 0 {
				start = 0
			}
			rows = append(rows, formRow(team, matches[i].date, matches[start:i], decay))
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].Team < rows[j].Team
	})
	return rows
}

// formRow aggregates a window of prior matches. The window arrives in
// ascending date order; weights run exp(-i*decay) with i = 0 at the
// most recent match, normalized by the weight sum.
func formRow(team string, date time.Time, window []teamMatch, decay float64) FormRow {
	row := FormRow{Team: team, Date: date, Matches: len(window)}

	var weightSum float64
	for i := len(window) - 1; i >= 0; i-- {
		m := window[i]
		w := math.Exp(-float64(len(window)-1-i) * decay)
		weightSum += w

		row.GoalsFor += w * m.goalsFor
		row.GoalsAgainst += w * m.goalsAgainst
		row.Shots += w * m.shots
		row.ShotsOnTarget += w * m.shotsOnTarget

		switch {
		case m.goalsFor > m.goalsAgainst:
			row.Wins++
		case m.goalsFor < m.goalsAgainst:
			row.Losses++
		default:
			row.Draws++
		}
	}

	row.GoalsFor /= weightSum
	row.GoalsAgainst /= weightSum
	row.Shots /= weightSum
	row.ShotsOnTarget /= weightSum
	row.GoalDiff = row.GoalsFor - row.GoalsAgainst
	row.Points = 3*row.Wins + row.Draws
	return row
}

// teamMatches folds player rows into per-team per-match aggregates.
// Rows without a team or an intelligible score are passed over; form
// is a derived convenience, not a validation gate.
func teamMatches(records []types.RawRecord) map[string][]teamMatch {
	type matchKey struct {
		team    string
		matchID string
	}
	byMatch := make(map[matchKey]*teamMatch)
	order := make(map[string][]*teamMatch)

	for _, rec := range records {
		if rec.Team == "" {
			continue
		}
		gf, ga, ok := scoreFor(rec.Score, rec.Home)
		if !ok {
			continue
		}

		key := matchKey{team: rec.Team, matchID: rec.MatchID}
		tm, seen := byMatch[key]
		if !seen {
			tm = &teamMatch{team: rec.Team, date: rec.MatchDate, goalsFor: gf, goalsAgainst: ga}
			byMatch[key] = tm
			order[rec.Team] = append(order[rec.Team], tm)
		}
		tm.shots += statValue(rec.Stats, shotKeys...)
		tm.shotsOnTarget += statValue(rec.Stats, shotOnTargetKey)
	}

	history := make(map[string][]teamMatch, len(order))
	for team, matches := range order {
		for _, tm := range matches {
			history[team] = append(history[team], *tm)
		}
	}
	return history
}

// statValue reads the first of the named canonical keys present among
// a record's raw cells. Absent or unreadable cells count zero.
func statValue(stats map[string]string, keys ...string) float64 {
	for header, cell := range stats {
		canonical := normalize.StatKey(header)
		for _, key := range keys {
			if canonical != key {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return 0
			}
			return v
		}
	}
	return 0
}

func scoreFor(score string, home bool) (gf, ga float64, ok bool) {
	left, right, found := strings.Cut(strings.TrimSpace(score), "-")
	if !found {
		return 0, 0, false
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return 0, 0, false
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return 0, 0, false
	}
	if home {
		return h, a, true
	}
	return a, h, true
}

// Export writes the form rows as the run's team form CSV artifact and
// returns its path.
func Export(st *store.Store, runID string, rows []FormRow) (string, error) {
	header := []string{
		"team", "date", "matches", "avg_goals_for", "avg_goals_against",
		"avg_goal_diff", "avg_shots", "avg_shots_on_target",
		"wins", "draws", "losses", "points",
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			row.Team, row.Date.Format(types.DateFormat), strconv.Itoa(row.Matches),
			formatFloat(row.GoalsFor), formatFloat(row.GoalsAgainst),
			formatFloat(row.GoalDiff), formatFloat(row.Shots), formatFloat(row.ShotsOnTarget),
			strconv.Itoa(row.Wins), strconv.Itoa(row.Draws), strconv.Itoa(row.Losses),
			strconv.Itoa(row.Points),
		})
	}

	path := st.ExportPath(runID + "-teamform.csv")
	if err := store.WriteCSV(path, header, out); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
