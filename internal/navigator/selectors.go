// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package navigator

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// SelectorTable maps logical element names to CSS selectors and
// attribute names. Every markup lookup in the pipeline goes through a
// table entry, so when the source's presentation changes only the table
// needs updating. A replacement table loads from YAML at run start.
type SelectorTable struct {
	// Root is the structural element every valid page must contain.
	// Open fails with NavigationError when it is absent.
	Root string `yaml:"root"`

	// Selectors maps logical names to CSS selectors.
	Selectors map[string]string `yaml:"selectors"`

	// Attrs maps logical names to markup attribute names.
	Attrs map[string]string `yaml:"attrs"`
}

// Logical selector names used by discovery and extraction.
const (
	SelFixtureList  = "fixture_list"
	SelFixtureGroup = "fixture_group"
	SelMatchLink    = "match_link"
	SelLinkHome     = "link_home_team"
	SelLinkAway     = "link_away_team"
	SelPreviousPage = "previous_page"

	SelMatchHeader = "match_header"
	SelMatchDate   = "match_date"
	SelMatchScore  = "match_score"
	SelHomeTeam    = "home_team"
	SelAwayTeam    = "away_team"

	SelStatPanels     = "stat_panels"
	SelStatHeaders    = "stat_header_cells"
	SelStatRows       = "stat_rows"
	SelPlayerCell     = "player_cell"
	SelPlayerPosition = "player_position"
	SelStatCells      = "stat_cells"

	SelRatingsTable = "ratings_table"
	SelRatingRows   = "rating_rows"
	SelRatingValue  = "rating_value"
)

// Logical attribute names.
const (
	AttrMatchID       = "match_id"
	AttrGroupDate     = "group_date"
	AttrRowTeam       = "row_team"
	AttrRowSide       = "row_side"
	AttrPanelCategory = "panel_category"
)

// DefaultSelectorTable returns the table matching the source's current
// markup.
func DefaultSelectorTable() SelectorTable {
	return SelectorTable{
		Root: "main#app",
		Selectors: map[string]string{
			SelFixtureList:  "section.fixture-list",
			SelFixtureGroup: "section.fixture-group",
			SelMatchLink:    "a.match-link",
			SelLinkHome:     "span.team--home",
			SelLinkAway:     "span.team--away",
			SelPreviousPage: "a.pager-previous",

			SelMatchHeader: "header.match-header",
			SelMatchDate:   "span.match-header__date",
			SelMatchScore:  "span.match-header__score",
			SelHomeTeam:    "span.match-header__team--home",
			SelAwayTeam:    "span.match-header__team--away",

			SelStatPanels:     "section.player-stats section.stat-panel",
			SelStatHeaders:    "thead th",
			SelStatRows:       "tbody tr.stat-row",
			SelPlayerCell:     "td.player-cell a",
			SelPlayerPosition: "td.player-cell span.pos",
			SelStatCells:      "td",

			SelRatingsTable: "section.player-ratings table",
			SelRatingRows:   "tr.rating-row",
			SelRatingValue:  "td.rating",
		},
		Attrs: map[string]string{
			AttrMatchID:       "data-match-id",
			AttrGroupDate:     "data-date",
			AttrRowTeam:       "data-team",
			AttrRowSide:       "data-side",
			AttrPanelCategory: "data-category",
		},
	}
}

// LoadSelectorTable reads a replacement table from a YAML file. Entries
// missing from the file fall back to the defaults, so a drift fix only
// needs to list the selectors that changed.
func LoadSelectorTable(path string) (SelectorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorTable{}, fmt.Errorf("reading selector table: %w", err)
	}

	var loaded SelectorTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return SelectorTable{}, fmt.Errorf("parsing selector table %s: %w", path, err)
	}

	table := DefaultSelectorTable()
	if loaded.Root != "" {
		table.Root = loaded.Root
	}
	for name, sel := range loaded.Selectors {
		table.Selectors[name] = sel
	}
	for name, attr := range loaded.Attrs {
		table.Attrs[name] = attr
	}
	return table, nil
}

// Selector returns the CSS selector registered under name.
func (t SelectorTable) Selector(name string) (string, bool) {
	sel, ok := t.Selectors[name]
	return sel, ok
}

// Attr returns the attribute name registered under name, or "" when
// the table has no entry.
func (t SelectorTable) Attr(name string) string {
	return t.Attrs[name]
}
