package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/runbook"
)

// DocumentAdapter fetches source documents (study protocols, instrument
// PDFs rendered to text upstream, guideline pages) referenced by URL in an
// utterance or a prior finding. Every fetch goes through the same
// breaker+cache+rate-limit path as the bibliographic adapters, unlike the
// teacher's runbook service which kept its own bespoke in-memory cache.
type DocumentAdapter struct {
	fetcher        *Fetcher
	githubToken    string
	allowedDomains []string
}

func NewDocumentAdapter(fetcher *Fetcher, githubToken string, allowedDomains []string) *DocumentAdapter {
	fetcher.SetRateLimit("documents", RateLimit{RequestsPerSecond: 2, Burst: 2})
	return &DocumentAdapter{fetcher: fetcher, githubToken: githubToken, allowedDomains: allowedDomains}
}

func (a *DocumentAdapter) Name() string      { return "documents" }
func (a *DocumentAdapter) Methods() []string { return []string{"fetch", "list_markdown"} }

// Invoke handles:
//   - "fetch" with params {"url": string} — returns a single Finding
//     carrying the document's text in Abstract and the url as Identifier.
//   - "list_markdown" with params {"repo_url": string} — returns one
//     Finding per markdown file found (Title only, Identifier is the blob URL).
func (a *DocumentAdapter) Invoke(ctx context.Context, req Request) (Result, error) {
	switch req.Method {
	case "fetch":
		return a.fetch(ctx, req)
	case "list_markdown":
		return a.listMarkdown(ctx, req)
	default:
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("unknown method %q", req.Method)}
	}
}

func (a *DocumentAdapter) fetch(ctx context.Context, req Request) (Result, error) {
	rawURL, _ := req.Params["url"].(string)
	if rawURL == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("fetch requires a url")}
	}
	if err := runbook.ValidateRunbookURL(rawURL, a.allowedDomains); err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: err}
	}

	downloadURL := runbook.ConvertToRawURL(rawURL)
	header := http.Header{}
	a.setAuthHeader(header)

	body, hit, err := a.fetcher.GetJSON(ctx, "documents", downloadURL, nil, header)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Findings: []models.Finding{{
			AgentSource:    a.Name(),
			Kind:           models.KindGuideline,
			IdentifierKind: models.IdentifierURL,
			Identifier:     rawURL,
			Title:          rawURL,
			Abstract:       string(body),
		}},
		CacheHit: hit,
	}, nil
}

func (a *DocumentAdapter) listMarkdown(ctx context.Context, req Request) (Result, error) {
	repoURL, _ := req.Params["repo_url"].(string)
	if repoURL == "" {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("list_markdown requires repo_url")}
	}
	parts, err := runbook.ParseRepoURL(repoURL)
	if err != nil {
		return Result{}, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: err}
	}

	items, hit, err := a.listContentsRecursive(ctx, parts.Owner, parts.Repo, parts.Ref, parts.Path)
	if err != nil {
		return Result{}, err
	}

	findings := make([]models.Finding, 0, len(items))
	for _, item := range items {
		findings = append(findings, models.Finding{
			AgentSource:    a.Name(),
			Kind:           models.KindGuideline,
			IdentifierKind: models.IdentifierURL,
			Identifier:     item,
			Title:          item,
		})
	}
	return Result{Findings: findings, CacheHit: hit}, nil
}

type githubContentItem struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`
}

func (a *DocumentAdapter) listContentsRecursive(ctx context.Context, owner, repo, ref, path string) ([]string, bool, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s", owner, repo, path)
	header := http.Header{"Accept": []string{"application/vnd.github.v3+json"}}
	a.setAuthHeader(header)

	body, hit, err := a.fetcher.GetJSON(ctx, "documents", apiURL, refQuery(ref), header)
	if err != nil {
		return nil, false, err
	}

	var items []githubContentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, false, &ToolError{Tool: a.Name(), Kind: ErrKindUpstream, Err: fmt.Errorf("decode contents response: %w", err)}
	}

	allHit := hit
	var mdFiles []string
	for _, item := range items {
		switch item.Type {
		case "file":
			if strings.HasSuffix(strings.ToLower(item.Name), ".md") {
				mdFiles = append(mdFiles, item.HTMLURL)
			}
		case "dir":
			sub, subHit, err := a.listContentsRecursive(ctx, owner, repo, ref, item.Path)
			if err != nil {
				continue // best-effort listing: a broken subdirectory must not fail the whole scan
			}
			allHit = allHit && subHit
			mdFiles = append(mdFiles, sub...)
		}
	}
	return mdFiles, allHit, nil
}

func (a *DocumentAdapter) setAuthHeader(header http.Header) {
	if a.githubToken != "" {
		header.Set("Authorization", "Bearer "+a.githubToken)
	}
}

func refQuery(ref string) map[string][]string {
	if ref == "" {
		return nil
	}
	return map[string][]string{"ref": {ref}}
}
