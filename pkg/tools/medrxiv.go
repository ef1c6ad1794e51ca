package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// MedRxivAdapter wraps medRxiv's details-by-date-range API, filtered
// client-side by term since the vendor API has no free-text search. It
// contributes preprints to the Nursing Multi-Source Agent (C7.4).
type MedRxivAdapter struct {
	fetcher *Fetcher
	baseURL string
}

func NewMedRxivAdapter(fetcher *Fetcher) *MedRxivAdapter {
	fetcher.SetRateLimit("medrxiv", RateLimit{RequestsPerSecond: 1, Burst: 1})
	return &MedRxivAdapter{fetcher: fetcher, baseURL: "https://api.biorxiv.org/details/medrxiv"}
}

func (a *MedRxivAdapter) Name() string      { return "medrxiv" }
func (a *MedRxivAdapter) Methods() []string { return []string{"search"} }

// Invoke handles method "search" with params {"term": string, "date_range": string}.
// date_range defaults to the last 30 days in "YYYY-MM-DD/YYYY-MM-DD" form,
// which callers are expected to supply; this adapter does not compute dates
// itself (no wall-clock access below the agent layer).
func (a *MedRxivAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	if req.Method != "search" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
	term, _ := req.Params["term"].(string)
	dateRange, _ := req.Params["date_range"].(string)
	if term == "" || dateRange == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("search requires term and date_range")}
	}

	body, hit, err := a.fetcher.GetJSON(ctx, "medrxiv", a.baseURL+"/"+dateRange, nil, nil)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Collection []struct {
			DOI     string `json:"doi"`
			Title   string `json:"title"`
			Authors string `json:"authors"`
			Date    string `json:"date"`
			Abstract string `json:"abstract"`
		} `json:"collection"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode medrxiv response: %w", err)}
	}

	lowerTerm := strings.ToLower(term)
	findings := make([]models.Finding, 0)
	for _, p := range parsed.Collection {
		if p.DOI == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Title), lowerTerm) &&
			!strings.Contains(strings.ToLower(p.Abstract), lowerTerm) {
			continue
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindPreprint,
			IdentifierKind:  models.IdentifierDOI,
			Identifier:      p.DOI,
			Title:           p.Title,
			Authors:         strings.Split(p.Authors, "; "),
			JournalOrSource: "medRxiv",
			Date:            p.Date,
			Abstract:        p.Abstract,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}
