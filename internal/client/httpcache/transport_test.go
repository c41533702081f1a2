package httpcache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func get(t *testing.T, c *http.Client, rawurl string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(rawurl)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestCacheFirstServesFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("tile-bytes"))
	}))
	t.Cleanup(srv.Close)

	tr := New(srv.Client().Transport, []Rule{
		{Match: func(u *url.URL) bool { return true }, Strategy: CacheFirst, TTL: time.Hour},
	})
	c := &http.Client{Transport: tr}

	_, body := get(t, c, srv.URL+"/z/1/2.png")
	require.Equal(t, "tile-bytes", body)
	require.Equal(t, int32(1), hits.Load())

	resp, body := get(t, c, srv.URL+"/z/1/2.png")
	require.Equal(t, "tile-bytes", body)
	require.Equal(t, int32(1), hits.Load(), "second read must come from cache")
	require.Equal(t, "1", resp.Header.Get("X-From-Cache"))
}

func TestNetworkFirstFallsBackWhenServerDies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"listStory":[]}`))
	}))

	tr := New(srv.Client().Transport, []Rule{
		{Match: func(u *url.URL) bool { return true }, Strategy: NetworkFirst, TTL: time.Hour},
	})
	c := &http.Client{Transport: tr}

	_, body := get(t, c, srv.URL+"/v1/stories")
	require.Equal(t, `{"listStory":[]}`, body)

	srv.Close()

	resp, body := get(t, c, srv.URL+"/v1/stories")
	require.Equal(t, `{"listStory":[]}`, body, "offline read must serve the last good response")
	require.Equal(t, "1", resp.Header.Get("X-From-Cache"))
}

func TestNetworkFirstPrefersFreshResponse(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			_, _ = w.Write([]byte("v1"))
			return
		}
		_, _ = w.Write([]byte("v2"))
	}))
	t.Cleanup(srv.Close)

	tr := New(srv.Client().Transport, []Rule{
		{Match: func(u *url.URL) bool { return true }, Strategy: NetworkFirst, TTL: time.Hour},
	})
	c := &http.Client{Transport: tr}

	_, body := get(t, c, srv.URL)
	require.Equal(t, "v1", body)
	_, body = get(t, c, srv.URL)
	require.Equal(t, "v2", body, "network-first must not pin stale data while online")
}

func TestStaleWhileRevalidateRefreshesInBackground(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			_, _ = w.Write([]byte("old"))
			return
		}
		_, _ = w.Write([]byte("new"))
	}))
	t.Cleanup(srv.Close)

	tr := New(srv.Client().Transport, []Rule{
		{Match: func(u *url.URL) bool { return true }, Strategy: StaleWhileRevalidate, TTL: time.Hour},
	})
	c := &http.Client{Transport: tr}

	_, body := get(t, c, srv.URL+"/images/1.jpg")
	require.Equal(t, "old", body)

	_, body = get(t, c, srv.URL+"/images/1.jpg")
	require.Equal(t, "old", body, "stale copy is served immediately")

	require.Eventually(t, func() bool {
		return n.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond, "background refresh must hit the network")
}

func TestPassThroughNeverCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	tr := New(srv.Client().Transport, nil)
	c := &http.Client{Transport: tr}

	get(t, c, srv.URL)
	get(t, c, srv.URL)
	require.Equal(t, int32(2), hits.Load())
	require.Zero(t, tr.Len())
}

func TestNonGetBypassesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	tr := New(srv.Client().Transport, []Rule{
		{Match: func(u *url.URL) bool { return true }, Strategy: CacheFirst, TTL: time.Hour},
	})
	c := &http.Client{Transport: tr}

	_, err := c.Post(srv.URL, "text/plain", nil)
	require.NoError(t, err)
	_, err = c.Post(srv.URL, "text/plain", nil)
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
	require.Zero(t, tr.Len())
}

func TestSweepDropsExpiredEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	t.Cleanup(srv.Close)

	tr := New(srv.Client().Transport, []Rule{
		{Match: func(u *url.URL) bool { return true }, Strategy: CacheFirst, TTL: time.Minute},
	})
	base := time.Now()
	tr.now = func() time.Time { return base }
	c := &http.Client{Transport: tr}

	get(t, c, srv.URL+"/a")
	get(t, c, srv.URL+"/b")
	require.Equal(t, 2, tr.Len())

	require.Zero(t, tr.Sweep(), "fresh entries survive a sweep")

	tr.now = func() time.Time { return base.Add(2 * time.Minute) }
	require.Equal(t, 2, tr.Sweep())
	require.Zero(t, tr.Len())
}

func TestDefaultRulesRouting(t *testing.T) {
	api, err := url.Parse("https://api.narratlas.test/v1")
	require.NoError(t, err)
	rules := DefaultRules(api)

	tr := New(http.DefaultTransport, rules)

	cases := []struct {
		rawurl string
		want   Strategy
	}{
		{"https://a.tile.openstreetmap.org/4/8/5.png", CacheFirst},
		{"https://api.narratlas.test/v1/stories?page=1", NetworkFirst},
		{"https://api.narratlas.test/v1/stories/story-1", NetworkFirst},
		{"https://api.narratlas.test/images/photo-1.jpg", StaleWhileRevalidate},
		{"https://example.com/other", PassThrough},
		{"https://other.host/v1/stories", PassThrough},
	}
	for _, tc := range cases {
		u, err := url.Parse(tc.rawurl)
		require.NoError(t, err)
		got, _ := tr.strategyFor(u)
		require.Equal(t, tc.want, got, tc.rawurl)
	}
}
