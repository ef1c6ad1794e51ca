package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// CoreAdapter wraps the CORE aggregator's /search/works endpoint. Optional:
// requires an API key; degrades to Result{Disabled: true} without one.
type CoreAdapter struct {
	fetcher *Fetcher
	baseURL string
	apiKey  string
}

func NewCoreAdapter(fetcher *Fetcher, apiKey string) *CoreAdapter {
	fetcher.SetRateLimit("core", RateLimit{RequestsPerSecond: 1, Burst: 1})
	return &CoreAdapter{fetcher: fetcher, baseURL: "https://api.core.ac.uk/v3/search/works", apiKey: apiKey}
}

func (a *CoreAdapter) Name() string      { return "core" }
func (a *CoreAdapter) Methods() []string { return []string{"search"} }

func (a *CoreAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
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
	q.Set("q", term)
	q.Set("limit", strconv.Itoa(limit))

	header := map[string][]string{"Authorization": {"Bearer " + a.apiKey}}
	body, hit, err := a.fetcher.GetJSON(ctx, "core", a.baseURL, q, header)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Results []struct {
			DOI          string   `json:"doi"`
			Title        string   `json:"title"`
			Authors      []string `json:"authors"`
			PublishedIn  string   `json:"publisher"`
			YearPub      int      `json:"yearPublished"`
			AbstractText string   `json:"abstract"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode core response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.DOI == "" {
			continue
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindArticle,
			IdentifierKind:  models.IdentifierDOI,
			Identifier:      r.DOI,
			Title:           r.Title,
			Authors:         r.Authors,
			JournalOrSource: r.PublishedIn,
			Date:            strconv.Itoa(r.YearPub),
			Abstract:        r.AbstractText,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}
