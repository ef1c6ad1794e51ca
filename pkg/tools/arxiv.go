package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// ArXivAdapter wraps arXiv's Atom export API. It is the sole source for
// the ArXiv Agent (C7.3).
type ArXivAdapter struct {
	fetcher *Fetcher
	baseURL string
}

func NewArXivAdapter(fetcher *Fetcher) *ArXivAdapter {
	fetcher.SetRateLimit("arxiv", RateLimit{RequestsPerSecond: 1, Burst: 1})
	return &ArXivAdapter{fetcher: fetcher, baseURL: "https://export.arxiv.org/api/query"}
}

func (a *ArXivAdapter) Name() string      { return "arxiv" }
func (a *ArXivAdapter) Methods() []string { return []string{"search"} }

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// Invoke handles method "search" with params {"term": string, "max_results": int}.
func (a *ArXivAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
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

	q := url.Values{}
	q.Set("search_query", "all:"+term)
	q.Set("max_results", fmt.Sprintf("%d", maxResults))

	body, hit, err := a.fetcher.GetJSON(ctx, "arxiv", a.baseURL, q, nil)
	if err != nil {
		return Result{}, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode arxiv feed: %w", err)}
	}

	findings := make([]models.Finding, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		id := extractArxivID(e.ID)
		if id == "" {
			continue
		}
		authors := make([]string, 0, len(e.Authors))
		for _, au := range e.Authors {
			authors = append(authors, au.Name)
		}
		findings = append(findings, models.Finding{
			AgentSource:     a.Name(),
			Kind:            models.KindPreprint,
			IdentifierKind:  models.IdentifierArXiv,
			Identifier:      id,
			Title:           strings.TrimSpace(e.Title),
			Authors:         authors,
			JournalOrSource: "arXiv",
			Date:            e.Published,
			Abstract:        strings.TrimSpace(e.Summary),
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}

// extractArxivID pulls the bare id (e.g. "2103.12345v2") out of an abs/
// URL such as "http://arxiv.org/abs/2103.12345v2".
func extractArxivID(absURL string) string {
	idx := strings.LastIndex(absURL, "/abs/")
	if idx == -1 {
		return ""
	}
	return absURL[idx+len("/abs/"):]
}
