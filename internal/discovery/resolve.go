// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/lstanic/pitchfeed/pkg/types"
)

// nonSlugPattern matches character runs that cannot appear in a source
// path segment.
var nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a criteria value and collapses everything else
// into single dashes: "Premier League" becomes "premier-league", season
// "23/24" becomes "23-24".
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FixturesPath returns the league/season fixtures path the walk starts
// from, relative to the source's base URL.
func FixturesPath(c types.Criteria) string {
	return fmt.Sprintf("/football/%s/%s/%s/fixtures",
		Slugify(c.Country), Slugify(c.League), Slugify(c.Season))
}

// matchID derives the source identifier from a match link when the
// link carries no id attribute: the last path segment of the href.
func matchID(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	seg := path.Base(u.Path)
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}
