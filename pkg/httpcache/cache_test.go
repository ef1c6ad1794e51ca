package httpcache

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	entries map[string]Entry
}

func newMemBackend() *memBackend { return &memBackend{entries: map[string]Entry{}} }

func (b *memBackend) Get(key string) (Entry, bool, error) {
	e, ok := b.entries[key]
	return e, ok, nil
}

func (b *memBackend) Set(key string, e Entry, ttl time.Duration) error {
	b.entries[key] = e
	return nil
}

func TestKey_StableUnderQueryReorderingAndHeaderOrder(t *testing.T) {
	h1 := http.Header{"Accept": []string{"application/json"}}
	h2 := http.Header{"Accept": []string{"application/json"}}

	k1 := Key("GET", "https://api.example.org/search",
		map[string][]string{"term": {"nursing"}, "db": {"pubmed"}}, h1, nil)
	k2 := Key("GET", "https://api.example.org/search",
		map[string][]string{"db": {"pubmed"}, "term": {"nursing"}}, h2, nil)

	assert.Equal(t, k1, k2)
}

func TestKey_ChangesWithBody(t *testing.T) {
	h := http.Header{}
	k1 := Key("POST", "https://api.example.org/x", nil, h, []byte(`{"a":1}`))
	k2 := Key("POST", "https://api.example.org/x", nil, h, []byte(`{"a":2}`))
	assert.NotEqual(t, k1, k2)
}

func TestClient_StoresOnly2xx(t *testing.T) {
	c := New(16, nil)
	key := Key("GET", "https://x", nil, http.Header{}, nil)

	require.NoError(t, c.Store("pubmed", key, Entry{StatusCode: 404, Body: []byte("nope")}))
	_, ok := c.Lookup(key)
	assert.False(t, ok, "non-2xx responses must not be cached")

	require.NoError(t, c.Store("pubmed", key, Entry{StatusCode: 200, Body: []byte("ok")}))
	got, ok := c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, []byte("ok"), got.Body)
}

func TestClient_PromotesBackendHitIntoMemory(t *testing.T) {
	backend := newMemBackend()
	c := New(16, backend)
	key := Key("GET", "https://x", nil, http.Header{}, nil)

	require.NoError(t, backend.Set(key, Entry{StatusCode: 200, Body: []byte("from-backend")}, time.Hour))

	got, ok := c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, []byte("from-backend"), got.Body)

	// Clear the backend; the memory tier should still serve it.
	backend.entries = map[string]Entry{}
	got, ok = c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, []byte("from-backend"), got.Body)
}

func TestClient_PerEndpointTTLOverride(t *testing.T) {
	c := New(16, nil)
	c.SetTTL("arxiv", time.Minute)
	assert.Equal(t, time.Minute, c.ttlFor("arxiv"))
	assert.Equal(t, DefaultTTL, c.ttlFor("pubmed"))
}
