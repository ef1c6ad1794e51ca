package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// OpenFDAAdapter wraps the openFDA drug label API, used by the Nursing
// Multi-Source Agent (C7.4) specifically for medication-safety questions.
// Identifiers are normalized as URLs (openFDA has no DOI/PMID of its own).
type OpenFDAAdapter struct {
	fetcher *Fetcher
	baseURL string
}

func NewOpenFDAAdapter(fetcher *Fetcher) *OpenFDAAdapter {
	fetcher.SetRateLimit("openfda", RateLimit{RequestsPerSecond: 2, Burst: 4})
	return &OpenFDAAdapter{fetcher: fetcher, baseURL: "https://api.fda.gov/drug/label.json"}
}

func (a *OpenFDAAdapter) Name() string      { return "openfda" }
func (a *OpenFDAAdapter) Methods() []string { return []string{"search"} }

func (a *OpenFDAAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	if req.Method != "search" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
	drug, _ := req.Params["drug_name"].(string)
	if drug == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("search requires drug_name")}
	}

	q := url.Values{}
	q.Set("search", fmt.Sprintf("openfda.brand_name:%q", drug))
	q.Set("limit", "5")

	body, hit, err := a.fetcher.GetJSON(ctx, "openfda", a.baseURL, q, nil)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Results []struct {
			ID      string   `json:"id"`
			Warnings []string `json:"warnings"`
			OpenFDA struct {
				BrandName []string `json:"brand_name"`
			} `json:"openfda"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode openfda response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.ID == "" {
			continue
		}
		title := drug
		if len(r.OpenFDA.BrandName) > 0 {
			title = r.OpenFDA.BrandName[0]
		}
		abstract := ""
		if len(r.Warnings) > 0 {
			abstract = r.Warnings[0]
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindGuideline,
			IdentifierKind:  models.IdentifierURL,
			Identifier:      "https://api.fda.gov/drug/label.json?id=" + r.ID,
			Title:           title,
			JournalOrSource: "openFDA drug label",
			Abstract:        abstract,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}
