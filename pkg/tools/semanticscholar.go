package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// SemanticScholarAdapter wraps the Semantic Scholar Academic Graph API.
// Optional: degrades to Result{Disabled: true} when no API key is
// configured, since the public rate limit is too low to serve reliably.
type SemanticScholarAdapter struct {
	fetcher *Fetcher
	baseURL string
	apiKey  string
}

func NewSemanticScholarAdapter(fetcher *Fetcher, apiKey string) *SemanticScholarAdapter {
	fetcher.SetRateLimit("semanticscholar", RateLimit{RequestsPerSecond: 1, Burst: 1})
	return &SemanticScholarAdapter{fetcher: fetcher, baseURL: "https://api.semanticscholar.org/graph/v1/paper/search", apiKey: apiKey}
}

func (a *SemanticScholarAdapter) Name() string      { return "semanticscholar" }
func (a *SemanticScholarAdapter) Methods() []string { return []string{"search"} }

func (a *SemanticScholarAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	if a.apiKey == "" {
		return Result{Disabled: true}, nil
	}
	if req.Method != "search" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
	term, _ := req.Params["term"].(string)
	if term == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("search requires a non-empty term")}
	}
	limit := 20
	if v, ok := req.Params["max_results"].(int); ok && v > 0 {
		limit = v
	}

	q := url.Values{}
	q.Set("query", term)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", "title,externalIds,authors,venue,year,abstract")

	header := map[string][]string{"x-api-key": {a.apiKey}}
	body, hit, err := a.fetcher.GetJSON(ctx, "semanticscholar", a.baseURL, q, header)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Data []struct {
			Title        string `json:"title"`
			Abstract     string `json:"abstract"`
			Venue        string `json:"venue"`
			Year         int    `json:"year"`
			ExternalIDs  map[string]string `json:"externalIds"`
			Authors      []struct {
				Name string `json:"name"`
			} `json:"authors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode search response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		doi := p.ExternalIDs["DOI"]
		if doi == "" {
			continue // DOI is the only identifier this adapter normalizes
		}
		authors := make([]string, 0, len(p.Authors))
		for _, au := range p.Authors {
			authors = append(authors, au.Name)
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindArticle,
			IdentifierKind:  models.IdentifierDOI,
			Identifier:      doi,
			Title:           p.Title,
			Authors:         authors,
			JournalOrSource: p.Venue,
			Date:            strconv.Itoa(p.Year),
			Abstract:        p.Abstract,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}
