// Package fetchcache implements a read-through cache with retry and
// stale-fallback for unreliable downstream HTTP dependencies.
//
// Policy: a fresh cache entry short-circuits the network entirely. When
// no fresh entry exists the downstream is attempted up to MaxRetries
// times; the first 200 wins and refreshes the cache. When every attempt
// fails, a stale entry (expired fresh TTL) is served if allowed.
// Failure is always communicated to the caller as "no data" — never as
// an error — so a downstream outage can only degrade data, not requests.
package fetchcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// entry is the JSON envelope stored in redis. Entries carry their own
// freshness deadline and are stored without a redis TTL: an entry past
// FreshUntil is stale but remains readable for fallback until a
// successful fetch overwrites it.
type entry struct {
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  time.Time       `json:"fetched_at"`
	FreshUntil time.Time       `json:"fresh_until"`
}

// Request describes one fetch-with-cache call.
type Request struct {
	// Service is the logical downstream name, used for the cache key
	// and metric labels.
	Service string

	// Endpoint is the full URL to GET.
	Endpoint string

	// KeySuffix distinguishes entries within a service, e.g. a
	// principal identifier.
	KeySuffix string

	// FreshTTL is how long a successful response short-circuits
	// further network calls.
	FreshTTL time.Duration

	// MaxRetries is the total number of attempts (not additional
	// retries). Must be at least 1.
	MaxRetries int

	// AllowStale enables serving an expired entry after all attempts
	// fail.
	AllowStale bool

	// Header is copied onto each outgoing request.
	Header http.Header
}

// Notifier receives best-effort outage alerts. Implementations must not
// block the caller.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Cache is a fetch-with-cache client over a shared redis store.
// Concurrent fetches for the same key may race and both hit the
// downstream; that is acceptable because the fetch is idempotent and the
// last successful write wins.
type Cache struct {
	rdb         *redis.Client
	httpClient  *http.Client
	callTimeout time.Duration
	notifier    Notifier
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient overrides the HTTP client used for downstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Cache) { c.httpClient = hc }
}

// WithCallTimeout sets the fixed per-attempt timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Cache) { c.callTimeout = d }
}

// WithNotifier sets an alert notifier invoked when all attempts fail.
func WithNotifier(n Notifier) Option {
	return func(c *Cache) { c.notifier = n }
}

// New creates a Cache backed by the given redis client.
func New(rdb *redis.Client, opts ...Option) *Cache {
	c := &Cache{
		rdb:         rdb,
		httpClient:  &http.Client{},
		callTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch runs the fetch-with-cache policy and returns the payload, or nil
// when no data could be produced. It never returns an error: all
// failures are logged, counted, and absorbed into the nil result.
func (c *Cache) Fetch(ctx context.Context, req Request) json.RawMessage {
	logger := zerolog.Ctx(ctx)
	key := req.Service + ":" + req.KeySuffix

	if e, ok := c.get(ctx, key); ok && time.Now().Before(e.FreshUntil) {
		cacheHits.WithLabelValues(req.Service).Inc()
		return e.Payload
	}
	cacheMisses.WithLabelValues(req.Service).Inc()

	var lastErr error
	for attempt := 0; attempt < req.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			// Caller gave up; abandon without touching the cache.
			lastErr = ctx.Err()
			break
		}

		payload, err := c.attempt(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}

		c.put(ctx, key, entry{
			Payload:    payload,
			FetchedAt:  time.Now(),
			FreshUntil: time.Now().Add(req.FreshTTL),
		})
		return payload
	}

	if req.AllowStale {
		if e, ok := c.get(ctx, key); ok {
			staleFallbacks.WithLabelValues(req.Service).Inc()
			logger.Warn().
				Str("service", req.Service).
				Str("cache_key", key).
				AnErr("last_error", lastErr).
				Time("fetched_at", e.FetchedAt).
				Msg("Downstream unavailable, serving stale cache entry")
			return e.Payload
		}
	}

	fetchFailures.WithLabelValues(req.Service).Inc()
	logger.Error().
		Str("service", req.Service).
		Str("cache_key", key).
		Int("attempts", req.MaxRetries).
		AnErr("last_error", lastErr).
		Msg("Downstream fetch failed with no cached fallback")

	if c.notifier != nil {
		msg := fmt.Sprintf("fetch failed for %s (%s) after %d attempts", req.Service, key, req.MaxRetries)
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = c.notifier.Notify(nctx, msg)
		}()
	}

	return nil
}

// attempt performs one network call with the fixed per-call timeout.
// Returns the response body only for a complete 200 response with a
// valid JSON body; everything else is an error for the caller to count.
func (c *Cache) attempt(ctx context.Context, req Request) (json.RawMessage, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, req.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", req.Service, resp.StatusCode)
	}

	// A read error here includes cancellation mid-body; the partial
	// response is discarded, never cached.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s returned invalid JSON body", req.Service)
	}

	return body, nil
}

func (c *Cache) get(ctx context.Context, key string) (entry, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("cache_key", key).Msg("Cache read failed")
		}
		return entry{}, false
	}

	var e entry
	if err := json.Unmarshal(val, &e); err != nil {
		return entry{}, false
	}
	return e, true
}

// put stores the envelope with no redis expiry so the entry can serve as
// stale fallback indefinitely. Only successful fetches reach here; a
// failed fetch never invalidates or shortens an existing entry.
func (c *Cache) put(ctx context.Context, key string, e entry) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("cache_key", key).Msg("Cache write failed")
	}
}
