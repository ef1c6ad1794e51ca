package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/breaker"
	"github.com/codeready-toolchain/nurseresearch/pkg/httpcache"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(http.DefaultClient, httpcache.New(16, nil), breaker.NewRegistry())
}

func TestFetcher_GetJSON_CachesSecondCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := newTestFetcher()

	body1, hit1, err := f.GetJSON(context.Background(), "test", srv.URL, nil, nil)
	require.NoError(t, err)
	assert.False(t, hit1)
	assert.JSONEq(t, `{"ok":true}`, string(body1))

	body2, hit2, err := f.GetJSON(context.Background(), "test", srv.URL, nil, nil)
	require.NoError(t, err)
	assert.True(t, hit2)
	assert.Equal(t, body1, body2)
	assert.Equal(t, 1, calls, "second call must be served from cache, not hit the server again")
}

func TestFetcher_GetJSON_DoesNotCacheErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher()
	f.breakers.Configure("test", breaker.Config{FailMax: 10})

	_, hit, err := f.GetJSON(context.Background(), "test", srv.URL, nil, nil)
	require.Error(t, err)
	assert.False(t, hit)

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrKindUpstream, te.Kind)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestFetcher_GetJSON_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher()
	f.breakers.Configure("flaky", breaker.Config{FailMax: 2})

	for i := 0; i < 2; i++ {
		_, _, err := f.GetJSON(context.Background(), "flaky", srv.URL, nil, nil)
		require.Error(t, err)
	}

	_, _, err := f.GetJSON(context.Background(), "flaky", srv.URL, nil, nil)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrKindCircuitOpen, te.Kind)
}
