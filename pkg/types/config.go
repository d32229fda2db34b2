package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that talk to the source.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. The
	// source rejects obvious non-browser agents, so the default is a
	// desktop browser string.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// NavigatorConfig holds settings for the session navigator.
type NavigatorConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the source root (default: the public site). Tests point
	// it at an httptest server.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// SelectorFile is an optional path to a YAML selector table that
	// replaces the built-in one when the source's markup drifts.
	SelectorFile string `json:"selector_file,omitempty" yaml:"selector_file,omitempty"`

	// RequestDelay is the minimum pause between consecutive real fetches
	// (default 1s). Cache hits do not pause.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxAttempts bounds transient-failure retries per fetch (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// CacheTTL is how long fetched pages stay in the in-memory page
	// cache (default 5m). Zero disables caching.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// ProxyURL optionally routes session traffic through a proxy.
	// Usually supplied via .secrets/proxy_url rather than config.
	ProxyURL string `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty"`

	// SessionCookie optionally seeds the cookie jar with a pre-warmed
	// session. Usually supplied via .secrets/session_cookie.
	SessionCookie string `json:"session_cookie,omitempty" yaml:"session_cookie,omitempty"`
}

// DiscoveryConfig holds settings for the match discovery stage.
type DiscoveryConfig struct {
	// MaxPages bounds the backwards fixture-page walk as a safety stop
	// (default 200). The date window is the real terminator.
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// ExtractionConfig holds settings for the match extraction stage.
type ExtractionConfig struct {
	// MatchDelay is the pause between consecutive match extractions
	// (default 2s).
	MatchDelay time.Duration `json:"match_delay" yaml:"match_delay"`

	// Sessions is the number of independent scraping sessions. Above 1,
	// the discovered matches are split into disjoint partitions, one
	// session each (default 1).
	Sessions int `json:"sessions" yaml:"sessions"`
}

// NormalizationConfig holds settings for the normalization stage.
type NormalizationConfig struct {
	// MaxMinutes is the competition's maximum possible minutes, the
	// scale reference for minutes rescaling (default 90; cup
	// competitions with extra time use 120).
	MaxMinutes float64 `json:"max_minutes" yaml:"max_minutes"`

	// PositionCodes optionally replaces the built-in position lookup
	// table, for sources that spell positions differently.
	PositionCodes map[string]int `json:"position_codes,omitempty" yaml:"position_codes,omitempty"`
}

// TeamFormConfig holds settings for the team form derivation stage.
type TeamFormConfig struct {
	// Window is the number of trailing matches per form row (default 5).
	Window int `json:"window" yaml:"window"`

	// Decay is the exponential decay rate lambda; match i back in time
	// weighs exp(-i*lambda) (default 0.35).
	Decay float64 `json:"decay" yaml:"decay"`
}

// StoreConfig holds settings for the run store.
type StoreConfig struct {
	// DataDir is the base directory holding the run database and the
	// exports/ directory (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Navigator     NavigatorConfig     `json:"navigator" yaml:"navigator"`
	Discovery     DiscoveryConfig     `json:"discovery" yaml:"discovery"`
	Extraction    ExtractionConfig    `json:"extraction" yaml:"extraction"`
	Normalization NormalizationConfig `json:"normalization" yaml:"normalization"`
	TeamForm      TeamFormConfig      `json:"team_form" yaml:"team_form"`
	Store         StoreConfig         `json:"store" yaml:"store"`
}
