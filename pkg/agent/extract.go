package agent

import (
	"regexp"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// Pattern specification for identifier extraction (§4.7), case-insensitive,
// covering every non-exhaustive surface form the spec names.
var (
	pmidPattern     = regexp.MustCompile(`(?i)PMID[:\s=,]*(\d+)`)
	pmidJSONPattern = regexp.MustCompile(`(?i)["']?pmid["']?\s*[:=,]\s*["']?(\d+)`)
	doiPattern      = regexp.MustCompile(`10\.\d{4,9}/[\w.\-()/:]+`)
	arxivPattern    = regexp.MustCompile(`(?i)arXiv:(\d{4}\.\d{4,5}(?:v\d+)?)`)
	arxivLegacy     = regexp.MustCompile(`(?i)arXiv:([a-z\-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)`)
	isoDatePattern  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// ExtractCitations extracts the cited set Cᴀ: every PMID, DOI, and ArXiv id
// surface form in text, deduplicated by (kind, identifier).
func ExtractCitations(text string) []models.CitationAssertion {
	seen := make(map[string]bool)
	var out []models.CitationAssertion

	add := func(kind models.IdentifierKind, id, surface string, offset int) {
		key := string(kind) + ":" + id
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, models.CitationAssertion{IdentifierKind: kind, Identifier: id, SurfaceForm: surface, Offset: offset})
	}

	for _, m := range pmidPattern.FindAllStringSubmatchIndex(text, -1) {
		add(models.IdentifierPMID, text[m[2]:m[3]], text[m[0]:m[1]], m[0])
	}
	for _, m := range pmidJSONPattern.FindAllStringSubmatchIndex(text, -1) {
		add(models.IdentifierPMID, text[m[2]:m[3]], text[m[0]:m[1]], m[0])
	}
	for _, m := range doiPattern.FindAllStringIndex(text, -1) {
		id := strings.TrimRight(text[m[0]:m[1]], ".,;)")
		add(models.IdentifierDOI, id, id, m[0])
	}
	for _, m := range arxivPattern.FindAllStringSubmatchIndex(text, -1) {
		add(models.IdentifierArXiv, text[m[2]:m[3]], text[m[0]:m[1]], m[0])
	}
	for _, m := range arxivLegacy.FindAllStringSubmatchIndex(text, -1) {
		add(models.IdentifierArXiv, text[m[2]:m[3]], text[m[0]:m[1]], m[0])
	}

	return out
}

// ExtractISODates returns every ISO date token (YYYY-MM-DD) in text, for the
// Timeline Agent's milestone-date grounding rule (§4.7 C7.5).
func ExtractISODates(text string) []string {
	return isoDatePattern.FindAllString(text, -1)
}

// Ground applies §4.7's verdict rule: hallucinated iff Cᴀ \ Vᴀ ≠ ∅;
// grounded iff Cᴀ ⊆ Vᴀ; refused iff the output is empty of citations and
// the text itself reads as a refusal.
func Ground(cited []models.CitationAssertion, verified map[string]bool, textIsRefusal bool) models.Verdict {
	if len(cited) == 0 {
		if textIsRefusal {
			return models.Verdict{Kind: models.VerdictRefused}
		}
		return models.Verdict{Kind: models.VerdictGrounded}
	}

	var unverified []string
	for _, c := range cited {
		if !verified[c.Identifier] {
			unverified = append(unverified, c.Identifier)
		}
	}
	if len(unverified) > 0 {
		return models.Verdict{Kind: models.VerdictHallucinate, Unverified: unverified}
	}
	return models.Verdict{Kind: models.VerdictGrounded}
}
