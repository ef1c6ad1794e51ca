package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// ClinicalTrialsAdapter wraps the ClinicalTrials.gov v2 studies API. It
// contributes to the Nursing Multi-Source Agent's (C7.4) verified set.
type ClinicalTrialsAdapter struct {
	fetcher *Fetcher
	baseURL string
}

func NewClinicalTrialsAdapter(fetcher *Fetcher) *ClinicalTrialsAdapter {
	fetcher.SetRateLimit("clinicaltrials", RateLimit{RequestsPerSecond: 2, Burst: 2})
	return &ClinicalTrialsAdapter{fetcher: fetcher, baseURL: "https://clinicaltrials.gov/api/v2/studies"}
}

func (a *ClinicalTrialsAdapter) Name() string      { return "clinicaltrials" }
func (a *ClinicalTrialsAdapter) Methods() []string { return []string{"search"} }

func (a *ClinicalTrialsAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	if req.Method != "search" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
	term, _ := req.Params["term"].(string)
	if term == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("search requires a non-empty term")}
	}
	pageSize := 20
	if v, ok := req.Params["max_results"].(int); ok && v > 0 {
		pageSize = v
	}

	q := url.Values{}
	q.Set("query.term", term)
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))
	q.Set("format", "json")

	body, hit, err := a.fetcher.GetJSON(ctx, "clinicaltrials", a.baseURL, q, nil)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Studies []struct {
			ProtocolSection struct {
				IdentificationModule struct {
					NCTID      string `json:"nctId"`
					BriefTitle string `json:"briefTitle"`
				} `json:"identificationModule"`
				StatusModule struct {
					StartDateStruct struct {
						Date string `json:"date"`
					} `json:"startDateStruct"`
				} `json:"statusModule"`
				SponsorCollaboratorsModule struct {
					LeadSponsor struct {
						Name string `json:"name"`
					} `json:"leadSponsor"`
				} `json:"sponsorCollaboratorsModule"`
			} `json:"protocolSection"`
		} `json:"studies"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode studies response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(parsed.Studies))
	for _, s := range parsed.Studies {
		id := s.ProtocolSection.IdentificationModule.NCTID
		if id == "" {
			continue
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindTrial,
			IdentifierKind:  models.IdentifierNCT,
			Identifier:      id,
			Title:           strings.TrimSpace(s.ProtocolSection.IdentificationModule.BriefTitle),
			JournalOrSource: s.ProtocolSection.SponsorCollaboratorsModule.LeadSponsor.Name,
			Date:            s.ProtocolSection.StatusModule.StartDateStruct.Date,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}
