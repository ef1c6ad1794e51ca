package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentAdapter_RejectsDisallowedDomain(t *testing.T) {
	adapter := NewDocumentAdapter(newTestFetcher(), "", []string{"raw.githubusercontent.com"})
	_, err := adapter.Invoke(context.Background(), Request{
		Method: "fetch",
		Params: map[string]any{"url": "https://evil.example.com/payload.md"},
	})
	require.Error(t, err)

	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrKindUpstream, te.Kind)
}

func TestDocumentAdapter_RequiresURL(t *testing.T) {
	adapter := NewDocumentAdapter(newTestFetcher(), "", nil)
	_, err := adapter.Invoke(context.Background(), Request{Method: "fetch", Params: map[string]any{}})
	require.Error(t, err)
}

func TestSemanticScholarAdapter_DisabledWithoutKey(t *testing.T) {
	adapter := NewSemanticScholarAdapter(newTestFetcher(), "")
	result, err := adapter.Invoke(context.Background(), Request{Method: "search", Params: map[string]any{"term": "x"}})
	require.NoError(t, err)
	assert.True(t, result.Disabled)
}

func TestWebSearchAdapter_DisabledWithoutAnyKey(t *testing.T) {
	adapter := NewWebSearchAdapter(newTestFetcher(), "", "")
	result, err := adapter.Invoke(context.Background(), Request{Method: "search", Params: map[string]any{"term": "x"}})
	require.NoError(t, err)
	assert.True(t, result.Disabled)
}
