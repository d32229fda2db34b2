// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package navigator

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const playerPanelPage = `<html><body><main id="app">
<section class="player-stats">
  <section class="stat-panel" data-category="general">
    <table>
      <thead><tr><th>Player</th><th>Minutes played</th></tr></thead>
      <tbody>
        <tr class="stat-row" data-team="Arsenal" data-side="home">
          <td class="player-cell"><a href="/player/771">Saka</a><span class="pos">F</span></td>
          <td>90'</td>
        </tr>
      </tbody>
    </table>
  </section>
</section>
</main></body></html>`

func testPageFrom(t *testing.T, html string) *Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return &Page{URL: "http://test/page", doc: doc, table: DefaultSelectorTable()}
}

func TestLocateFindsElements(t *testing.T) {
	p := testPageFrom(t, playerPanelPage)

	panels, err := p.Locate(SelStatPanels)
	if err != nil {
		t.Fatal(err)
	}
	if panels.Length() != 1 {
		t.Errorf("panels = %d, want 1", panels.Length())
	}
}

func TestLocateMissingIsElementNotFound(t *testing.T) {
	p := testPageFrom(t, playerPanelPage)

	_, err := p.Locate(SelRatingsTable)
	var notFound *ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *ElementNotFoundError", err)
	}
	if notFound.Name != SelRatingsTable {
		t.Errorf("name = %q, want %q", notFound.Name, SelRatingsTable)
	}
}

func TestLocateUnknownNameIsPlainError(t *testing.T) {
	p := testPageFrom(t, playerPanelPage)

	_, err := p.Locate("no_such_entry")
	if err == nil {
		t.Fatal("expected error")
	}
	var notFound *ElementNotFoundError
	if errors.As(err, &notFound) {
		t.Error("unknown table entry should not be ElementNotFoundError")
	}
}

func TestOptionalAbsentReturnsEmpty(t *testing.T) {
	p := testPageFrom(t, playerPanelPage)

	if got := p.Optional(SelRatingsTable); got.Length() != 0 {
		t.Errorf("optional match count = %d, want 0", got.Length())
	}
}

func TestWithinScopesLookup(t *testing.T) {
	p := testPageFrom(t, playerPanelPage)

	panels, err := p.Locate(SelStatPanels)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := p.Within(panels.First(), SelStatRows)
	if err != nil {
		t.Fatal(err)
	}
	if rows.Length() != 1 {
		t.Fatalf("rows = %d, want 1", rows.Length())
	}

	cell, err := p.Within(rows.First(), SelPlayerCell)
	if err != nil {
		t.Fatal(err)
	}
	if got := cell.AttrOr("href", ""); got != "/player/771" {
		t.Errorf("href = %q, want /player/771", got)
	}
	if got := rows.First().AttrOr(p.AttrName(AttrRowSide), ""); got != "home" {
		t.Errorf("side = %q, want home", got)
	}
}

func TestTextTrims(t *testing.T) {
	p := testPageFrom(t, `<main id="app"><span class="match-header__score">
		2-1
	</span></main>`)

	got, err := p.Text(SelMatchScore)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2-1" {
		t.Errorf("text = %q, want %q", got, "2-1")
	}
}
