// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery walks a league's fixture pages and records the
// match references falling inside a run's date window. The walk goes
// backwards from the most recent fixtures via the previous-page
// control and checkpoints every page, so an interrupted run resumes
// from its cursor instead of restarting.
package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lstanic/pitchfeed/internal/metrics"
	"github.com/lstanic/pitchfeed/internal/navigator"
	"github.com/lstanic/pitchfeed/internal/store"
	"github.com/lstanic/pitchfeed/pkg/types"
)

// AbortedError reports that discovery could not start because the
// league landing page was unreachable. Failures past the landing page
// stop the walk with the checkpoint intact instead.
type AbortedError struct {
	Criteria types.Criteria
	Err      error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("discovery aborted for %s/%s season %s: %v",
		e.Criteria.Country, e.Criteria.League, e.Criteria.Season, e.Err)
}

func (e *AbortedError) Unwrap() error { return e.Err }

// Summary counts what one discovery walk produced.
type Summary struct {
	// Pages is the number of fixture pages walked.
	Pages int

	// Matches is the number of references recorded on those pages.
	Matches int

	// Skipped counts fixture groups and match links dropped as
	// unreadable.
	Skipped int
}

// HasFailures reports whether the walk dropped any groups or links.
func (s Summary) HasFailures() bool { return s.Skipped > 0 }

// Discoverer walks fixture pages for one run.
type Discoverer struct {
	session *navigator.Session
	store   *store.Store
	cfg     types.DiscoveryConfig
	log     *slog.Logger
}

// New returns a Discoverer using the given session and run store.
func New(session *navigator.Session, st *store.Store, cfg types.DiscoveryConfig, log *slog.Logger) *Discoverer {
	if log == nil {
		log = slog.Default()
	}
	return &Discoverer{session: session, store: st, cfg: cfg, log: log}
}

// Discover walks the league's fixture pages backwards from the most
// recent and records every match dated inside the run's window. Each
// page's references are saved with the next cursor in one transaction.
// A page budget (MaxPages > 0) stops the walk early with the
// checkpoint kept, for later resume. Progress lines go to w.
func (d *Discoverer) Discover(ctx context.Context, run types.Run, w io.Writer) (Summary, error) {
	var summary Summary

	target := FixturesPath(run.Criteria)
	cursor, resuming, err := d.store.Checkpoint(ctx, run.ID)
	if err != nil {
		return summary, err
	}
	if resuming {
		target = cursor
		d.log.Info("resuming discovery", "run", run.ID, "cursor", cursor)
	}

	for {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		page, err := d.session.Open(ctx, target)
		if err != nil {
			if summary.Pages == 0 && !resuming {
				return summary, &AbortedError{Criteria: run.Criteria, Err: err}
			}
			// Checkpoint still points here; a resume retries this page.
			return summary, fmt.Errorf("opening fixture page %s: %w", target, err)
		}

		refs, older, skipped := d.collectPage(page, run.Criteria)
		summary.Pages++
		summary.Matches += len(refs)
		summary.Skipped += skipped
		metrics.FixturePages.Inc()
		metrics.MatchesDiscovered.Add(float64(len(refs)))

		next, more := previousPage(page)
		walkDone := older || !more

		cursor := next
		if walkDone {
			cursor = target
		}
		if err := d.store.SaveFixturePage(ctx, run.ID, cursor, refs); err != nil {
			return summary, fmt.Errorf("checkpointing page %s: %w", target, err)
		}
		fmt.Fprintf(w, "  %s: %d matches\n", target, len(refs))

		if walkDone {
			break
		}
		if d.cfg.MaxPages > 0 && summary.Pages >= d.cfg.MaxPages {
			fmt.Fprintf(w, "Page budget reached after %d pages, %d matches; resume to continue\n",
				summary.Pages, summary.Matches)
			return summary, nil
		}
		target = next
	}

	if err := d.store.ClearCheckpoint(ctx, run.ID); err != nil {
		return summary, err
	}
	if err := d.store.UpdateRunStatus(ctx, run.ID, types.RunDiscovered); err != nil {
		return summary, err
	}
	fmt.Fprintf(w, "Discovery complete: %d pages, %d matches, %d skipped\n",
		summary.Pages, summary.Matches, summary.Skipped)
	return summary, nil
}

// collectPage reads the fixture groups of one page. Groups newer than
// the window are passed over (the walk has not reached the window
// yet); a group older than the window start flags the walk as done.
// An unreadable group or link is logged and skipped.
func (d *Discoverer) collectPage(page *navigator.Page, criteria types.Criteria) (refs []types.MatchRef, older bool, skipped int) {
	dateAttr := page.AttrName(navigator.AttrGroupDate)
	idAttr := page.AttrName(navigator.AttrMatchID)

	page.Optional(navigator.SelFixtureGroup).Each(func(_ int, group *goquery.Selection) {
		raw, ok := group.Attr(dateAttr)
		if !ok {
			d.log.Warn("fixture group without date, skipping", "url", page.URL)
			skipped++
			return
		}
		date, err := time.Parse(types.DateFormat, raw)
		if err != nil {
			d.log.Warn("fixture group date unreadable, skipping", "url", page.URL, "date", raw)
			skipped++
			return
		}
		if date.After(criteria.EndDate) {
			return
		}
		if date.Before(criteria.StartDate) {
			older = true
			return
		}

		page.WithinOptional(group, navigator.SelMatchLink).Each(func(_ int, link *goquery.Selection) {
			href := strings.TrimSpace(link.AttrOr("href", ""))
			if href == "" {
				d.log.Warn("match link without href, skipping", "url", page.URL, "date", raw)
				skipped++
				return
			}
			id := link.AttrOr(idAttr, "")
			if id == "" {
				id = matchID(href)
			}
			if id == "" {
				d.log.Warn("match link without identifier, skipping", "url", page.URL, "href", href)
				skipped++
				return
			}
			refs = append(refs, types.MatchRef{
				MatchID:   id,
				URL:       href,
				MatchDate: date,
				HomeTeam:  strings.TrimSpace(page.WithinOptional(link, navigator.SelLinkHome).First().Text()),
				AwayTeam:  strings.TrimSpace(page.WithinOptional(link, navigator.SelLinkAway).First().Text()),
				League:    criteria.League,
				Season:    criteria.Season,
				Status:    types.RefDiscovered,
			})
		})
	})
	return refs, older, skipped
}

func previousPage(page *navigator.Page) (string, bool) {
	href := strings.TrimSpace(page.Optional(navigator.SelPreviousPage).First().AttrOr("href", ""))
	if href == "" {
		return "", false
	}
	return href, true
}
