// Package httpcache is a caching http.RoundTripper with per-route
// strategies: cache-first for map tiles, network-first for the stories API,
// stale-while-revalidate for story images, pass-through for everything else.
// The background worker owns cache maintenance (sweeping expired entries);
// request handling and maintenance may run from different goroutines.
package httpcache

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Strategy selects how a route's responses are cached and served.
type Strategy int

const (
	// PassThrough disables caching for the route.
	PassThrough Strategy = iota
	// CacheFirst serves a cached response when present and only then
	// touches the network.
	CacheFirst
	// NetworkFirst tries the network and falls back to the cache when the
	// network fails.
	NetworkFirst
	// StaleWhileRevalidate serves the cached response immediately and
	// refreshes it in the background.
	StaleWhileRevalidate
)

// Rule binds a URL predicate to a strategy.
type Rule struct {
	Match    func(u *url.URL) bool
	Strategy Strategy
	TTL      time.Duration
}

// tileHosts mirrors the map-tile providers the app renders from.
var tileHosts = []string{
	"tile.openstreetmap.org",
	"stadiamaps.com",
	"opentopomap.org",
	"basemaps",
	"arcgisonline.com",
}

// DefaultRules builds the strategy table for an API rooted at apiBase.
func DefaultRules(apiBase *url.URL) []Rule {
	return []Rule{
		{
			Match: func(u *url.URL) bool {
				for _, h := range tileHosts {
					if strings.Contains(u.Hostname(), h) {
						return true
					}
				}
				return false
			},
			Strategy: CacheFirst,
			TTL:      24 * time.Hour,
		},
		{
			Match: func(u *url.URL) bool {
				return u.Host == apiBase.Host && strings.HasPrefix(u.Path, apiBase.Path+"/stories")
			},
			Strategy: NetworkFirst,
			TTL:      time.Hour,
		},
		{
			Match: func(u *url.URL) bool {
				return u.Host == apiBase.Host && strings.Contains(u.Path, "/images/")
			},
			Strategy: StaleWhileRevalidate,
			TTL:      12 * time.Hour,
		},
	}
}

type entry struct {
	status   int
	header   http.Header
	body     []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.storedAt) > e.ttl
}

// Transport implements http.RoundTripper. Only GET responses with status 200
// are cached.
type Transport struct {
	base  http.RoundTripper
	rules []Rule

	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time
}

var _ http.RoundTripper = (*Transport)(nil)

// New wraps base (nil means http.DefaultTransport) with the given rules.
func New(base http.RoundTripper, rules []Rule) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:    base,
		rules:   rules,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (t *Transport) strategyFor(u *url.URL) (Strategy, time.Duration) {
	for _, r := range t.rules {
		if r.Match(u) {
			return r.Strategy, r.TTL
		}
	}
	return PassThrough, 0
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.base.RoundTrip(req)
	}

	strategy, ttl := t.strategyFor(req.URL)
	key := req.URL.String()

	switch strategy {
	case CacheFirst:
		if resp := t.cached(req, key); resp != nil {
			return resp, nil
		}
		return t.fetchAndStore(req, key, ttl)

	case NetworkFirst:
		resp, err := t.fetchAndStore(req, key, ttl)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if cached := t.cached(req, key); cached != nil {
			if resp != nil {
				_ = resp.Body.Close()
			}
			return cached, nil
		}
		return resp, err

	case StaleWhileRevalidate:
		if resp := t.cached(req, key); resp != nil {
			go func() {
				refresh := req.Clone(req.Context())
				r, err := t.fetchAndStore(refresh, key, ttl)
				if err == nil {
					_, _ = io.Copy(io.Discard, r.Body)
					_ = r.Body.Close()
				}
			}()
			return resp, nil
		}
		return t.fetchAndStore(req, key, ttl)

	default:
		return t.base.RoundTrip(req)
	}
}

// cached returns a response served from the cache, or nil.
func (t *Transport) cached(req *http.Request, key string) *http.Response {
	t.mu.Lock()
	e, ok := t.entries[key]
	if ok && e.expired(t.now()) {
		delete(t.entries, key)
		ok = false
	}
	t.mu.Unlock()
	if !ok {
		return nil
	}

	header := e.header.Clone()
	header.Set("X-From-Cache", "1")
	return &http.Response{
		StatusCode:    e.status,
		Status:        http.StatusText(e.status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}

func (t *Transport) fetchAndStore(req *http.Request, key string, ttl time.Duration) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.entries[key] = &entry{
		status:   resp.StatusCode,
		header:   resp.Header.Clone(),
		body:     body,
		storedAt: t.now(),
		ttl:      ttl,
	}
	t.mu.Unlock()

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// Sweep drops expired entries and reports how many were removed. The
// background worker calls it on a timer.
func (t *Transport) Sweep() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, e := range t.entries {
		if e.expired(now) {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached responses.
func (t *Transport) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
