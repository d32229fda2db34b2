// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package navigator drives the HTTP session against the data source:
// page fetching with pacing, caching, and transient retries, plus
// element location through a data-driven selector table. It carries no
// business data; discovery and extraction sit on top of it.
package navigator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"

	"github.com/lstanic/pitchfeed/internal/httputil"
	"github.com/lstanic/pitchfeed/internal/metrics"
	"github.com/lstanic/pitchfeed/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Session is the exclusively owned scraping session for one run (or one
// partition of a run). It holds mutable state (cookies, page cache,
// pacing) and is not safe for concurrent use; parallel runs use one
// Session per partition.
type Session struct {
	cfg   types.NavigatorConfig
	base  *url.URL
	http  *resty.Client
	table SelectorTable
	cache *ttlcache.Cache[string, string]
	pacer *Pacer
	clock clockwork.Clock
	log   *slog.Logger
}

// NewSession builds a session from the navigator configuration. The
// caller owns the session and must Close it when the run ends.
func NewSession(cfg types.NavigatorConfig, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("navigator requires a base URL")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %s: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	table := DefaultSelectorTable()
	if cfg.SelectorFile != "" {
		table, err = LoadSelectorTable(cfg.SelectorFile)
		if err != nil {
			return nil, err
		}
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(cfg.Timeout)
	if cfg.ProxyURL != "" {
		client.SetProxy(cfg.ProxyURL)
	}
	for _, c := range parseCookies(cfg.SessionCookie) {
		client.SetCookie(c)
	}

	var cache *ttlcache.Cache[string, string]
	if cfg.CacheTTL > 0 {
		cache = ttlcache.New(
			ttlcache.WithTTL[string, string](cfg.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		)
		go cache.Start()
	}

	clock := clockwork.NewRealClock()
	return &Session{
		cfg:   cfg,
		base:  base,
		http:  client,
		table: table,
		cache: cache,
		pacer: NewPacer(clock, cfg.RequestDelay),
		clock: clock,
		log:   log,
	}, nil
}

// Table returns the active selector table.
func (s *Session) Table() SelectorTable { return s.table }

// Close releases the session's resources. The session must not be used
// afterwards.
func (s *Session) Close() {
	if s.cache != nil {
		s.cache.Stop()
	}
	s.http.GetClient().CloseIdleConnections()
}

// Open fetches target (absolute, or relative to the base URL) and
// returns the parsed page. Recent pages come from the session cache
// without touching the source. Transient failures retry under the
// backoff policy; a structural or non-transient failure returns
// *NavigationError.
func (s *Session) Open(ctx context.Context, target string) (*Page, error) {
	full, err := s.resolve(target)
	if err != nil {
		return nil, &NavigationError{URL: target, Err: err}
	}

	if s.cache != nil {
		if item := s.cache.Get(full); item != nil {
			metrics.PageCacheHits.Inc()
			s.log.DebugContext(ctx, "page cache hit", "url", full)
			return s.parse(full, item.Value())
		}
	}

	body, err := s.fetch(ctx, full)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(full, body, ttlcache.DefaultTTL)
	}
	return s.parse(full, body)
}

// Forget evicts target's cached page, if any, so the next Open fetches
// fresh content. Callers use it when a 200 body turned out to be
// unreadable, such as an interstitial or half-rendered page.
func (s *Session) Forget(target string) {
	if s.cache == nil {
		return
	}
	if full, err := s.resolve(target); err == nil {
		s.cache.Delete(full)
	}
}

// fetch downloads one page with pacing and transient retries.
func (s *Session) fetch(ctx context.Context, full string) (string, error) {
	bo := httputil.NewBackOff(ctx, s.cfg.MaxAttempts)

	var (
		lastStatus int
		lastErr    error
	)
	for {
		if err := s.pacer.Wait(ctx); err != nil {
			return "", err
		}

		metrics.PageFetches.Inc()
		resp, err := s.http.R().SetContext(ctx).Get(full)

		var retryAfter time.Duration
		switch {
		case err != nil:
			lastStatus, lastErr = 0, err
		case resp.StatusCode() == http.StatusOK:
			s.log.DebugContext(ctx, "fetched page", "url", full, "bytes", len(resp.Body()))
			return resp.String(), nil
		case httputil.IsTransient(resp.StatusCode()):
			lastStatus, lastErr = resp.StatusCode(), nil
			retryAfter = httputil.RetryAfter(resp.RawResponse)
		default:
			return "", &NavigationError{URL: full, Status: resp.StatusCode()}
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return "", &NavigationError{URL: full, Status: lastStatus, Err: lastErr}
		}
		if retryAfter > wait {
			wait = retryAfter
		}

		metrics.FetchRetries.Inc()
		s.log.WarnContext(ctx, "retrying fetch", "url", full, "status", lastStatus, "wait", wait)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.clock.After(wait):
		}
	}
}

// parse builds a Page and verifies the structural root is present.
func (s *Session) parse(full, body string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &NavigationError{URL: full, Err: fmt.Errorf("parsing page: %w", err)}
	}
	if s.table.Root != "" && doc.Find(s.table.Root).Length() == 0 {
		return nil, &NavigationError{URL: full, Err: fmt.Errorf("structural root %q absent", s.table.Root)}
	}
	return &Page{URL: full, doc: doc, table: s.table}, nil
}

// resolve joins target against the base URL and rejects foreign hosts.
func (s *Session) resolve(target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing target: %w", err)
	}
	full := s.base.ResolveReference(ref)
	if full.Hostname() != s.base.Hostname() {
		return "", fmt.Errorf("target host %s outside session domain %s", full.Hostname(), s.base.Hostname())
	}
	return full.String(), nil
}

// parseCookies splits a "name=value; name2=value2" string into cookies.
// Malformed fragments are dropped.
func parseCookies(raw string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}
