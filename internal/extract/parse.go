// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lstanic/pitchfeed/internal/navigator"
	"github.com/lstanic/pitchfeed/pkg/types"
)

// parseMatch reads one match page into per-player records. Every stat
// category panel present is walked and merged into the player's record
// by player id; the separately rendered ratings table joins last.
// Stats keep the source's column names; naming is the normalizer's
// concern.
func (e *Extractor) parseMatch(page *navigator.Page, ref types.MatchRef) ([]types.RawRecord, error) {
	header, err := page.Locate(navigator.SelMatchHeader)
	if err != nil {
		return nil, err
	}
	scope := header.First()

	dateSel, err := page.Within(scope, navigator.SelMatchDate)
	if err != nil {
		return nil, err
	}
	dateText := strings.TrimSpace(dateSel.First().Text())
	matchDate, err := time.Parse(types.DateFormat, dateText)
	if err != nil {
		return nil, fmt.Errorf("parsing match date %q: %w", dateText, err)
	}

	scoreSel, err := page.Within(scope, navigator.SelMatchScore)
	if err != nil {
		return nil, err
	}
	score := strings.TrimSpace(scoreSel.First().Text())

	homeName := strings.TrimSpace(page.WithinOptional(scope, navigator.SelHomeTeam).First().Text())
	if homeName == "" {
		homeName = ref.HomeTeam
	}

	panels, err := page.Locate(navigator.SelStatPanels)
	if err != nil {
		return nil, err
	}

	teamAttr := page.AttrName(navigator.AttrRowTeam)
	sideAttr := page.AttrName(navigator.AttrRowSide)

	byPlayer := make(map[string]*types.RawRecord)
	var order []string

	panels.Each(func(_ int, panel *goquery.Selection) {
		columns := statColumns(page, panel)
		if len(columns) == 0 {
			e.log.Warn("stat panel without header row, skipping", "url", page.URL)
			return
		}

		page.WithinOptional(panel, navigator.SelStatRows).Each(func(_ int, row *goquery.Selection) {
			link := page.WithinOptional(row, navigator.SelPlayerCell).First()
			id := playerID(link)
			if id == "" {
				e.log.Warn("stat row without player link, skipping", "url", page.URL)
				return
			}

			rec, ok := byPlayer[id]
			if !ok {
				rec = &types.RawRecord{
					MatchID:   ref.MatchID,
					PlayerID:  id,
					MatchDate: matchDate,
					Score:     score,
					Stats:     make(map[string]string),
				}
				byPlayer[id] = rec
				order = append(order, id)
			}
			if rec.PlayerName == "" {
				rec.PlayerName = strings.TrimSpace(link.Text())
			}
			if rec.Position == "" {
				rec.Position = strings.TrimSpace(page.WithinOptional(row, navigator.SelPlayerPosition).First().Text())
			}
			if rec.Team == "" {
				rec.Team = strings.TrimSpace(row.AttrOr(teamAttr, ""))
			}
			side := row.AttrOr(sideAttr, "")
			if side == "home" || (side == "" && rec.Team != "" && rec.Team == homeName) {
				rec.Home = true
			}

			// Cell 0 is the player cell; the rest line up with the
			// panel's header columns.
			page.WithinOptional(row, navigator.SelStatCells).Each(func(i int, cell *goquery.Selection) {
				if i == 0 || i > len(columns) {
					return
				}
				name := columns[i-1]
				if name == "" {
					return
				}
				rec.Stats[name] = strings.TrimSpace(cell.Text())
			})
		})
	})

	if len(order) == 0 {
		return nil, fmt.Errorf("no player rows on %s", page.URL)
	}

	// Unrated players (brief substitute appearances) keep an empty
	// rating rather than failing the row.
	ratings := parseRatings(page)
	records := make([]types.RawRecord, 0, len(order))
	for _, id := range order {
		rec := byPlayer[id]
		rec.Rating = ratings[id]
		records = append(records, *rec)
	}
	return records, nil
}

// statColumns reads a panel's header cells, skipping the leading
// player column.
func statColumns(page *navigator.Page, panel *goquery.Selection) []string {
	var cols []string
	page.WithinOptional(panel, navigator.SelStatHeaders).Each(func(i int, th *goquery.Selection) {
		if i == 0 {
			return
		}
		cols = append(cols, strings.TrimSpace(th.Text()))
	})
	return cols
}

// parseRatings reads the ratings panel into a player id to rating map.
// The panel is legitimately absent on matches the source has not rated.
func parseRatings(page *navigator.Page) map[string]string {
	ratings := make(map[string]string)
	table := page.Optional(navigator.SelRatingsTable)
	page.WithinOptional(table, navigator.SelRatingRows).Each(func(_ int, row *goquery.Selection) {
		id := playerID(page.WithinOptional(row, navigator.SelPlayerCell).First())
		if id == "" {
			return
		}
		if val := strings.TrimSpace(page.WithinOptional(row, navigator.SelRatingValue).First().Text()); val != "" {
			ratings[id] = val
		}
	})
	return ratings
}

// playerID derives the source player identifier from a roster link,
// the last path segment of its href.
func playerID(link *goquery.Selection) string {
	href, ok := link.Attr("href")
	if !ok {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	seg := path.Base(u.Path)
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}
