package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// DOAJAdapter wraps the Directory of Open Access Journals search API. No
// credentials required; it is never disabled.
type DOAJAdapter struct {
	fetcher *Fetcher
	baseURL string
}

func NewDOAJAdapter(fetcher *Fetcher) *DOAJAdapter {
	fetcher.SetRateLimit("doaj", RateLimit{RequestsPerSecond: 2, Burst: 2})
	return &DOAJAdapter{fetcher: fetcher, baseURL: "https://doaj.org/api/search/articles"}
}

func (a *DOAJAdapter) Name() string      { return "doaj" }
func (a *DOAJAdapter) Methods() []string { return []string{"search"} }

func (a *DOAJAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	if req.Method != "search" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
	term, _ := req.Params["term"].(string)
	if term == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("search requires a non-empty term")}
	}

	pageSize := 20
	q := url.Values{}
	if v, ok := req.Params["max_results"].(int); ok && v > 0 {
		pageSize = v
	}
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))

	body, hit, err := a.fetcher.GetJSON(ctx, "doaj", a.baseURL+"/"+url.PathEscape(term), q, nil)
	if err != nil {
		return Result{}, err
	}

	var parsed struct {
		Results []struct {
			Bibjson struct {
				Title     string `json:"title"`
				Abstract  string `json:"abstract"`
				Year      string `json:"year"`
				Journal   struct {
					Title string `json:"title"`
				} `json:"journal"`
				Identifier []struct {
					Type string `json:"type"`
					ID   string `json:"id"`
				} `json:"identifier"`
				Author []struct {
					Name string `json:"name"`
				} `json:"author"`
			} `json:"bibjson"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode doaj response: %w", err)}
	}

	findings := make([]models.Finding, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		var doi string
		for _, id := range r.Bibjson.Identifier {
			if id.Type == "doi" {
				doi = id.ID
				break
			}
		}
		if doi == "" {
			continue
		}
		authors := make([]string, 0, len(r.Bibjson.Author))
		for _, au := range r.Bibjson.Author {
			authors = append(authors, au.Name)
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindArticle,
			IdentifierKind:  models.IdentifierDOI,
			Identifier:      doi,
			Title:           r.Bibjson.Title,
			Authors:         authors,
			JournalOrSource: r.Bibjson.Journal.Title,
			Date:            r.Bibjson.Year,
			Abstract:        r.Bibjson.Abstract,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}
