package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/codeready-toolchain/nurseresearch/pkg/breaker"
	"github.com/codeready-toolchain/nurseresearch/pkg/httpcache"
	"github.com/codeready-toolchain/nurseresearch/pkg/telemetry"
)

// RateLimit configures a per-endpoint token bucket. Vendor-appropriate fill
// rates sit in front of the cache, per §5's backoff policy — e.g. 3 req/s
// for PubMed.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// Fetcher is the shared HTTP path every concrete adapter calls through: rate
// limit, then cache lookup, then breaker-guarded HTTP call, then cache
// store. Adapters never construct their own *http.Client.
type Fetcher struct {
	http     *http.Client
	cache    *httpcache.Client
	breakers *breaker.Registry

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limits   map[string]RateLimit
}

// NewFetcher builds a Fetcher shared by every adapter in the registry.
func NewFetcher(httpClient *http.Client, cache *httpcache.Client, breakers *breaker.Registry) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		http:     httpClient,
		cache:    cache,
		breakers: breakers,
		limiters: make(map[string]*rate.Limiter),
		limits:   make(map[string]RateLimit),
	}
}

// SetRateLimit configures endpoint's token bucket before first use.
func (f *Fetcher) SetRateLimit(endpoint string, rl RateLimit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits[endpoint] = rl
}

func (f *Fetcher) limiterFor(endpoint string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[endpoint]; ok {
		return l
	}
	rl := f.limits[endpoint]
	if rl.RequestsPerSecond <= 0 {
		rl.RequestsPerSecond = 2
	}
	if rl.Burst <= 0 {
		rl.Burst = 1
	}
	l := rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)
	f.limiters[endpoint] = l
	return l
}

// GetJSON performs a rate-limited, cached, breaker-guarded GET and returns
// the raw response body along with whether it was served from cache.
// Exceeding the rate sleeps the caller up to ctx's deadline, per §5.
func (f *Fetcher) GetJSON(ctx context.Context, endpoint, rawURL string, query url.Values, header http.Header) ([]byte, bool, error) {
	ctx, end := telemetry.StartToolCall(ctx, endpoint, http.MethodGet)
	var err error
	defer func() { end(err) }()

	if header == nil {
		header = http.Header{}
	}

	key := httpcache.Key(http.MethodGet, rawURL, query, header, nil)
	if f.cache != nil {
		if entry, ok := f.cache.Lookup(key); ok {
			telemetry.RecordCacheLookup(ctx, endpoint, true)
			return entry.Body, true, nil
		}
	}
	telemetry.RecordCacheLookup(ctx, endpoint, false)

	if err = f.limiterFor(endpoint).Wait(ctx); err != nil {
		err = &ToolError{Tool: endpoint, Kind: ErrKindTimeout, Err: err}
		return nil, false, err
	}

	fullURL := rawURL
	if len(query) > 0 {
		fullURL = rawURL + "?" + query.Encode()
	}

	var statusCode int
	body, err := breaker.Call(ctx, f.breakers, endpoint, ClassifyCallError,
		func(ctx context.Context) ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return nil, err
			}
			for k, vs := range header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
			resp, err := f.http.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}
			statusCode = resp.StatusCode
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return b, &ToolError{Tool: endpoint, Kind: ErrKindUpstream, StatusCode: resp.StatusCode, Err: fmt.Errorf("status %d", resp.StatusCode)}
			}
			return b, nil
		})

	if err != nil {
		if err == breaker.ErrCircuitOpen {
			telemetry.RecordBreakerRejection(ctx, endpoint)
			return nil, false, &ToolError{Tool: endpoint, Kind: ErrKindCircuitOpen, Err: err}
		}
		return nil, false, err
	}

	if f.cache != nil {
		_ = f.cache.Store(endpoint, key, httpcache.Entry{StatusCode: statusCode, Body: body})
	}
	return body, false, nil
}
