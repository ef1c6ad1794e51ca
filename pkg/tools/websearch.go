package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// WebSearchAdapter wraps a generic search provider (SerpAPI or Exa,
// selected by which key is configured). Per §4.4 of the pack this is the
// lowest-trust, fully optional source: it only ever contributes to the
// Nursing Multi-Source Agent, and only when every bibliographic source has
// already been tried. Absence of both keys is not an error — Invoke
// degrades to Result{Disabled: true}.
type WebSearchAdapter struct {
	fetcher    *Fetcher
	serpAPIKey string
	exaAPIKey  string
}

func NewWebSearchAdapter(fetcher *Fetcher, serpAPIKey, exaAPIKey string) *WebSearchAdapter {
	fetcher.SetRateLimit("websearch", RateLimit{RequestsPerSecond: 1, Burst: 1})
	return &WebSearchAdapter{fetcher: fetcher, serpAPIKey: serpAPIKey, exaAPIKey: exaAPIKey}
}

func (a *WebSearchAdapter) Name() string      { return "websearch" }
func (a *WebSearchAdapter) Methods() []string { return []string{"search"} }

func (a *WebSearchAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	if a.serpAPIKey == "" && a.exaAPIKey == "" {
		return Result{Disabled: true}, nil
	}
	if req.Method != "search" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
	term, _ := req.Params["term"].(string)
	if term == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("search requires a non-empty term")}
	}

	if a.serpAPIKey != "" {
		return a.searchSerpAPI(ctx, term)
	}
	return a.searchExa(ctx, term)
}

func (a *WebSearchAdapter) searchSerpAPI(ctx context.Context, term string) (Result, error) {
	q := url.Values{}
	q.Set("q", term)
	q.Set("api_key", a.serpAPIKey)
	q.Set("engine", "google")

	body, hit, err := a.fetcher.GetJSON(ctx, "websearch", "https://serpapi.com/search", q, nil)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		OrganicResults []struct {
			Title string `json:"title"`
			Link  string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode serpapi response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		if r.Link == "" {
			continue
		}
		findings = append(findings, models.Finding{
			AgentSource:    a.Name(),
			Kind:           models.KindArticle,
			IdentifierKind: models.IdentifierURL,
			Identifier:     r.Link,
			Title:          r.Title,
			Abstract:       r.Snippet,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}

func (a *WebSearchAdapter) searchExa(ctx context.Context, term string) (Result, error) {
	q := url.Values{}
	q.Set("query", term)
	header := map[string][]string{"x-api-key": {a.exaAPIKey}}

	body, hit, err := a.fetcher.GetJSON(ctx, "websearch", "https://api.exa.ai/search", q, header)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode exa response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		findings = append(findings, models.Finding{
			AgentSource:    a.Name(),
			Kind:           models.KindArticle,
			IdentifierKind: models.IdentifierURL,
			Identifier:     r.URL,
			Title:          r.Title,
			Abstract:       r.Text,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}
