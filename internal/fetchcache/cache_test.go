package fetchcache

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, opts...)
}

// countingServer serves JSON until failAfter calls have been made, then
// returns 503 for every later call.
type countingServer struct {
	calls     atomic.Int64
	failAfter int64
	body      string
	srv       *httptest.Server
}

func newCountingServer(t *testing.T, body string, failAfter int64) *countingServer {
	t.Helper()
	cs := &countingServer{failAfter: failAfter, body: body}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := cs.calls.Add(1)
		if cs.failAfter > 0 && n > cs.failAfter {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cs.body))
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func TestFetch_FreshEntryShortCircuits(t *testing.T) {
	cache := newTestCache(t)
	server := newCountingServer(t, `{"results": [{"id": 1}]}`, 0)

	req := Request{
		Service:    "hr",
		Endpoint:   server.srv.URL,
		KeySuffix:  "1",
		FreshTTL:   time.Minute,
		MaxRetries: 2,
		AllowStale: true,
	}

	first := cache.Fetch(context.Background(), req)
	if first == nil {
		t.Fatal("first fetch returned no data")
	}
	second := cache.Fetch(context.Background(), req)
	if !bytes.Equal(first, second) {
		t.Errorf("second fetch payload differs: %s vs %s", first, second)
	}
	if got := server.calls.Load(); got != 1 {
		t.Errorf("network calls: want exactly 1, got %d", got)
	}
}

func TestFetch_StopsRetryingOnSuccess(t *testing.T) {
	cache := newTestCache(t)
	server := newCountingServer(t, `{"ok": true}`, 0)

	payload := cache.Fetch(context.Background(), Request{
		Service:    "hr",
		Endpoint:   server.srv.URL,
		KeySuffix:  "2",
		FreshTTL:   time.Minute,
		MaxRetries: 5,
		AllowStale: false,
	})
	if payload == nil {
		t.Fatal("fetch returned no data")
	}
	if got := server.calls.Load(); got != 1 {
		t.Errorf("a 200 must stop the retry loop: want 1 call, got %d", got)
	}
}

func TestFetch_StaleFallbackAfterFailures(t *testing.T) {
	cache := newTestCache(t)
	// One successful call populates the cache, everything after fails.
	server := newCountingServer(t, `{"results": [{"id": 7}]}`, 1)

	req := Request{
		Service:    "hr",
		Endpoint:   server.srv.URL,
		KeySuffix:  "3",
		FreshTTL:   time.Millisecond,
		MaxRetries: 2,
		AllowStale: true,
	}

	first := cache.Fetch(context.Background(), req)
	if first == nil {
		t.Fatal("first fetch returned no data")
	}

	// Let the fresh TTL lapse so the next fetch goes to the network.
	time.Sleep(5 * time.Millisecond)

	stale := cache.Fetch(context.Background(), req)
	if stale == nil {
		t.Fatal("stale fallback expected, got no data")
	}
	if !bytes.Equal(first, stale) {
		t.Errorf("stale payload differs from original: %s vs %s", first, stale)
	}
	// 1 initial success + 2 failed retry attempts.
	if got := server.calls.Load(); got != 3 {
		t.Errorf("network calls: want 3, got %d", got)
	}
}

func TestFetch_FailedFetchPreservesEntry(t *testing.T) {
	cache := newTestCache(t)
	server := newCountingServer(t, `{"v": 1}`, 1)

	req := Request{
		Service:    "hr",
		Endpoint:   server.srv.URL,
		KeySuffix:  "4",
		FreshTTL:   time.Millisecond,
		MaxRetries: 2,
		AllowStale: true,
	}

	first := cache.Fetch(context.Background(), req)
	time.Sleep(5 * time.Millisecond)

	// Two consecutive failing rounds; the entry must survive both.
	for i := 0; i < 2; i++ {
		if got := cache.Fetch(context.Background(), req); !bytes.Equal(first, got) {
			t.Fatalf("round %d: stale entry lost or changed: %s", i, got)
		}
	}
}

func TestFetch_NoDataWhenNoFallback(t *testing.T) {
	cache := newTestCache(t)
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	payload := cache.Fetch(context.Background(), Request{
		Service:    "hr",
		Endpoint:   failing.URL,
		KeySuffix:  "5",
		FreshTTL:   time.Minute,
		MaxRetries: 3,
		AllowStale: true,
	})
	if payload != nil {
		t.Fatalf("want no data, got %s", payload)
	}
}

func TestFetch_InvalidJSONBodyIsAFailure(t *testing.T) {
	cache := newTestCache(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	payload := cache.Fetch(context.Background(), Request{
		Service:    "hr",
		Endpoint:   srv.URL,
		KeySuffix:  "6",
		FreshTTL:   time.Minute,
		MaxRetries: 1,
		AllowStale: false,
	})
	if payload != nil {
		t.Fatalf("invalid JSON must not be returned or cached, got %s", payload)
	}
}

func TestFetch_ForwardsHeaders(t *testing.T) {
	cache := newTestCache(t)
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer token123")
	cache.Fetch(context.Background(), Request{
		Service:    "hr",
		Endpoint:   srv.URL,
		KeySuffix:  "7",
		FreshTTL:   time.Minute,
		MaxRetries: 1,
		Header:     header,
	})
	if gotAuth != "Bearer token123" {
		t.Errorf("Authorization header: want Bearer token123, got %q", gotAuth)
	}
}

func TestFetch_CancelledContextAbandonsWithoutCaching(t *testing.T) {
	cache := newTestCache(t)
	server := newCountingServer(t, `{}`, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := cache.Fetch(ctx, Request{
		Service:    "hr",
		Endpoint:   server.srv.URL,
		KeySuffix:  "8",
		FreshTTL:   time.Minute,
		MaxRetries: 3,
		AllowStale: false,
	})
	if payload != nil {
		t.Fatalf("cancelled fetch should return no data, got %s", payload)
	}
	if got := server.calls.Load(); got != 0 {
		t.Errorf("cancelled fetch should not reach the network, got %d calls", got)
	}
}
