// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package navigator

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is one parsed document of the session. Element lookups resolve
// logical names through the session's selector table.
type Page struct {
	URL   string
	doc   *goquery.Document
	table SelectorTable
}

// Locate returns the elements matching the named selector. It fails
// with *ElementNotFoundError when the selector matches nothing, which
// on a reachable page means the source's markup has drifted.
func (p *Page) Locate(name string) (*goquery.Selection, error) {
	sel, ok := p.table.Selector(name)
	if !ok {
		return nil, fmt.Errorf("selector table has no entry %q", name)
	}
	found := p.doc.Find(sel)
	if found.Length() == 0 {
		return nil, &ElementNotFoundError{Name: name, Selector: sel, URL: p.URL}
	}
	return found, nil
}

// Optional returns the elements matching the named selector, possibly
// none. For elements that are legitimately absent on some pages.
func (p *Page) Optional(name string) *goquery.Selection {
	sel, ok := p.table.Selector(name)
	if !ok {
		return p.doc.Find("")
	}
	return p.doc.Find(sel)
}

// Within resolves the named selector inside an already located scope.
func (p *Page) Within(scope *goquery.Selection, name string) (*goquery.Selection, error) {
	sel, ok := p.table.Selector(name)
	if !ok {
		return nil, fmt.Errorf("selector table has no entry %q", name)
	}
	found := scope.Find(sel)
	if found.Length() == 0 {
		return nil, &ElementNotFoundError{Name: name, Selector: sel, URL: p.URL}
	}
	return found, nil
}

// WithinOptional resolves the named selector inside a scope, allowing
// zero matches.
func (p *Page) WithinOptional(scope *goquery.Selection, name string) *goquery.Selection {
	sel, ok := p.table.Selector(name)
	if !ok {
		return scope.Find("")
	}
	return scope.Find(sel)
}

// Text returns the trimmed text of the first element matching the
// named selector.
func (p *Page) Text(name string) (string, error) {
	found, err := p.Locate(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(found.First().Text()), nil
}

// AttrName returns the markup attribute registered under the logical
// name, for use with goquery's AttrOr.
func (p *Page) AttrName(name string) string {
	return p.table.Attr(name)
}
