package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// PubMedAdapter wraps NCBI's E-utilities (esearch + efetch). It is the
// primary source for the PubMed agent (C7.2) and the Nursing Multi-Source
// agent (C7.4); per vendor policy every request carries a contact email.
type PubMedAdapter struct {
	fetcher      *Fetcher
	baseURL      string
	contactEmail string
}

// NewPubMedAdapter builds the adapter. contactEmail is required by NCBI's
// E-utilities usage policy; construction does not fail if it is empty, but
// every request will carry an empty tool= param and NCBI may rate-limit
// harder as a result.
func NewPubMedAdapter(fetcher *Fetcher, contactEmail string) *PubMedAdapter {
	fetcher.SetRateLimit("pubmed", RateLimit{RequestsPerSecond: 3, Burst: 3})
	return &PubMedAdapter{
		fetcher:      fetcher,
		baseURL:      "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		contactEmail: contactEmail,
	}
}

func (a *PubMedAdapter) Name() string     { return "pubmed" }
func (a *PubMedAdapter) Methods() []string { return []string{"search"} }

// Invoke handles method "search" with params {"term": string, "max_results": int}.
func (a *PubMedAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	if req.Method != "search" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
	term, _ := req.Params["term"].(string)
	if term == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("search requires a non-empty term")}
	}
	maxResults := 20
	if v, ok := req.Params["max_results"].(int); ok && v > 0 {
		maxResults = v
	}

	pmids, cacheHit, err := a.esearch(ctx, term, maxResults)
	if err != nil {
		return Result{}, err
	}
	if len(pmids) == 0 {
		return Result{Findings: nil, CacheHit: cacheHit}, nil
	}

	summaries, sumCacheHit, err := a.esummary(ctx, pmids)
	if err != nil {
		return Result{}, err
	}

	return Result{Findings: summaries, CacheHit: cacheHit && sumCacheHit}, nil
}

func (a *PubMedAdapter) esearch(ctx context.Context, term string, maxResults int) ([]string, bool, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "json")
	q.Set("term", term)
	q.Set("retmax", fmt.Sprintf("%d", maxResults))
	if a.contactEmail != "" {
		q.Set("email", a.contactEmail)
		q.Set("tool", "nurseresearch")
	}

	body, hit, err := a.fetcher.GetJSON(ctx, "pubmed", a.baseURL+"/esearch.fcgi", q, nil)
	if err != nil {
		return nil, false, err
	}

	var parsed struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode esearch response: %w", err)}
	}
	return parsed.ESearchResult.IDList, hit, nil
}

func (a *PubMedAdapter) esummary(ctx context.Context, pmids []string) ([]models.Finding, bool, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "json")
	q.Set("id", strings.Join(pmids, ","))
	if a.contactEmail != "" {
		q.Set("email", a.contactEmail)
		q.Set("tool", "nurseresearch")
	}

	body, hit, err := a.fetcher.GetJSON(ctx, "pubmed", a.baseURL+"/esummary.fcgi", q, nil)
	if err != nil {
		return nil, false, err
	}

	var parsed struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode esummary response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(pmids))
	for _, pmid := range pmids {
		raw, ok := parsed.Result[pmid]
		if !ok {
			continue
		}
		var doc struct {
			Title    string `json:"title"`
			FullJ    string `json:"fulljournalname"`
			PubDate  string `json:"pubdate"`
			Authors  []struct {
				Name string `json:"name"`
			} `json:"authors"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		authors := make([]string, 0, len(doc.Authors))
		for _, au := range doc.Authors {
			authors = append(authors, au.Name)
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindArticle,
			IdentifierKind:  models.IdentifierPMID,
			Identifier:      pmid,
			Title:           doc.Title,
			Authors:         authors,
			JournalOrSource: doc.FullJ,
			Date:            doc.PubDate,
			RawJSON:         string(raw),
		})
	}
	return findings, hit, nil
}
