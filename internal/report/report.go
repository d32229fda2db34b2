// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a run's state as a markdown summary: the
// selection, discovery and extraction counters, and the feature table
// row count, plus the ids of failed matches so an operator can retry
// them after a selector fix.
package report

import (
	"fmt"
	"strings"

	"github.com/lstanic/pitchfeed/internal/store"
	"github.com/lstanic/pitchfeed/pkg/types"
)

// Render produces the markdown report for one run summary.
func Render(s store.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", s.Run.ID)
	fmt.Fprintf(&b, "- Selection: %s / %s, season %s\n",
		s.Run.Criteria.Country, s.Run.Criteria.League, s.Run.Criteria.Season)
	fmt.Fprintf(&b, "- Window: %s to %s\n",
		s.Run.Criteria.StartDate.Format(types.DateFormat),
		s.Run.Criteria.EndDate.Format(types.DateFormat))
	fmt.Fprintf(&b, "- Status: %s\n", s.Run.Status)
	fmt.Fprintf(&b, "- Started: %s\n\n", s.Run.CreatedAt.Format("2006-01-02 15:04 MST"))

	fmt.Fprintf(&b, "## Matches\n\n")
	fmt.Fprintf(&b, "| Discovered | Extracted | Failed | Pending |\n")
	fmt.Fprintf(&b, "|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n",
		s.Discovered, s.Extracted, s.Failed, s.Pending())

	fmt.Fprintf(&b, "## Artifacts\n\n")
	fmt.Fprintf(&b, "- Raw records: %d\n", s.RawRecords)
	fmt.Fprintf(&b, "- Feature rows: %d\n", s.FeatureRows)

	if len(s.FailedIDs) > 0 {
		fmt.Fprintf(&b, "\n## Failed matches\n\n")
		for _, id := range s.FailedIDs {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	return b.String()
}
