// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors exposed while a
// long-running scrape is in flight (see the --metrics-addr flag).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageFetches counts real page fetches against the source (cache
	// misses only).
	PageFetches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchfeed",
		Subsystem: "navigator",
		Name:      "page_fetches_total",
		Help:      "Pages fetched from the source.",
	})

	// PageCacheHits counts page opens served from the in-memory cache.
	PageCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchfeed",
		Subsystem: "navigator",
		Name:      "page_cache_hits_total",
		Help:      "Page opens served from the session cache.",
	})

	// FetchRetries counts transient-failure retries across all fetches.
	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchfeed",
		Subsystem: "navigator",
		Name:      "fetch_retries_total",
		Help:      "Transient fetch failures that were retried.",
	})

	// FixturePages counts fixture pages walked during discovery.
	FixturePages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchfeed",
		Subsystem: "discovery",
		Name:      "fixture_pages_total",
		Help:      "Fixture pages walked during discovery.",
	})

	// MatchesDiscovered counts match references checkpointed.
	MatchesDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchfeed",
		Subsystem: "discovery",
		Name:      "matches_total",
		Help:      "Match references discovered and checkpointed.",
	})

	// MatchesExtracted counts matches fully extracted.
	MatchesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchfeed",
		Subsystem: "extract",
		Name:      "matches_total",
		Help:      "Matches extracted successfully.",
	})

	// MatchesFailed counts matches abandoned after the retry.
	MatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pitchfeed",
		Subsystem: "extract",
		Name:      "failures_total",
		Help:      "Matches that failed extraction after retrying.",
	})
)
