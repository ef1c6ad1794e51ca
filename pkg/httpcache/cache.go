// Package httpcache provides a transparent response cache (C2) shared across
// every tool adapter in a project installation. Only 2xx responses are
// cached; TTL defaults to 24h and is configurable per endpoint.
package httpcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL is applied when an endpoint has no override.
const DefaultTTL = 24 * time.Hour

// relevantHeaders lists the request headers that participate in the cache
// key. Authorization/credential headers are deliberately excluded — two
// identical requests with different API keys should hit the same cache entry.
var relevantHeaders = []string{"Accept", "Accept-Language"}

// Entry is a cached HTTP response.
type Entry struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// Backend persists cache entries beyond process lifetime (e.g. the project's
// embedded store). The in-memory LRU in Client is always consulted first;
// Backend is the durable tier behind it.
type Backend interface {
	Get(key string) (Entry, bool, error)
	Set(key string, e Entry, ttl time.Duration) error
}

// Client is the cached HTTP layer every tool adapter calls through.
type Client struct {
	mem     *lru.LRU[string, Entry]
	backend Backend
	ttls    map[string]time.Duration // endpoint -> override TTL
}

// New creates a Client. memCapacity bounds the number of hot entries kept
// in-process; backend may be nil (memory-only, e.g. for tests).
func New(memCapacity int, backend Backend) *Client {
	return &Client{
		mem:     lru.NewLRU[string, Entry](memCapacity, nil, DefaultTTL),
		backend: backend,
		ttls:    make(map[string]time.Duration),
	}
}

// SetTTL overrides the TTL for a named endpoint (e.g. "pubmed").
func (c *Client) SetTTL(endpoint string, ttl time.Duration) {
	c.ttls[endpoint] = ttl
}

func (c *Client) ttlFor(endpoint string) time.Duration {
	if ttl, ok := c.ttls[endpoint]; ok {
		return ttl
	}
	return DefaultTTL
}

// Key computes the cache fingerprint for a request: hash of
// (method, url, sorted query params, sorted relevant headers, body).
func Key(method, url string, query map[string][]string, header http.Header, body []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vs := append([]string(nil), query[k]...)
		sort.Strings(vs)
		h.Write([]byte(k))
		for _, v := range vs {
			h.Write([]byte{'='})
			h.Write([]byte(v))
		}
		h.Write([]byte{'&'})
	}

	for _, name := range relevantHeaders {
		v := header.Get(name)
		if v == "" {
			continue
		}
		h.Write([]byte(name))
		h.Write([]byte{':'})
		h.Write([]byte(v))
		h.Write([]byte{';'})
	}

	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns a cached entry for key if present and fresh in either tier.
// A backend hit is promoted into the in-memory tier.
func (c *Client) Lookup(key string) (Entry, bool) {
	if e, ok := c.mem.Get(key); ok {
		return e, true
	}
	if c.backend == nil {
		return Entry{}, false
	}
	e, ok, err := c.backend.Get(key)
	if err != nil || !ok {
		return Entry{}, false
	}
	c.mem.Add(key, e)
	return e, true
}

// Store saves a 2xx response under key for endpoint's TTL. Non-2xx responses
// must never be passed here — call sites check StatusCode first.
func (c *Client) Store(endpoint, key string, e Entry) error {
	if e.StatusCode < 200 || e.StatusCode >= 300 {
		return nil
	}
	e.StoredAt = time.Now()
	ttl := c.ttlFor(endpoint)
	c.mem.Add(key, e)
	if c.backend == nil {
		return nil
	}
	return c.backend.Set(key, e, ttl)
}

// MarshalHeader/UnmarshalHeader let Backend implementations persist
// http.Header as JSON without pulling net/http into the storage layer.
func MarshalHeader(h http.Header) ([]byte, error) { return json.Marshal(h) }
func UnmarshalHeader(b []byte) (http.Header, error) {
	var h http.Header
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, err
	}
	return h, nil
}
