// Package gates implements the Quality Gates (C11): declarative checks run
// between workflow phases. Each gate returns (passed, reasons) and, when it
// fails, the caller is expected to log an audit decision entry rather than
// silently continue (§4.11).
package gates

import (
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// Result is what every gate returns.
type Result struct {
	Passed  bool
	Reasons []string
}

func fail(reasons ...string) Result { return Result{Passed: false, Reasons: reasons} }
func pass() Result                  { return Result{Passed: true} }

// PICOTFields is the minimal shape the PICOT gate checks: the artifact
// must carry a non-empty value for each of P, I, C, O, T plus the
// full question text used for the length/terminal-"?" checks.
type PICOTFields struct {
	Population   string
	Intervention string
	Comparison   string
	Outcome      string
	Timeframe    string
	Question     string
}

// picotMinLength is the §4.11 minimum character count for the full question.
const picotMinLength = 200

// PICOT checks that every PICOT element is populated and the composed
// question reads as one, ending in "?" and long enough to be substantive.
func PICOT(f PICOTFields) Result {
	var reasons []string
	if strings.TrimSpace(f.Population) == "" {
		reasons = append(reasons, "population is empty")
	}
	if strings.TrimSpace(f.Intervention) == "" {
		reasons = append(reasons, "intervention is empty")
	}
	if strings.TrimSpace(f.Comparison) == "" {
		reasons = append(reasons, "comparison is empty")
	}
	if strings.TrimSpace(f.Outcome) == "" {
		reasons = append(reasons, "outcome is empty")
	}
	if strings.TrimSpace(f.Timeframe) == "" {
		reasons = append(reasons, "timeframe is empty")
	}
	q := strings.TrimSpace(f.Question)
	if !strings.HasSuffix(q, "?") {
		reasons = append(reasons, "question does not end with '?'")
	}
	if len(q) < picotMinLength {
		reasons = append(reasons, "question is shorter than the minimum length")
	}
	if len(reasons) > 0 {
		return fail(reasons...)
	}
	return pass()
}

// minDistinctFindings is the §4.11 search-gate floor.
const minDistinctFindings = 3

// Search checks that a search phase turned up at least three distinct
// findings by normalized identifier across every search task that ran.
// The caller is responsible for the progressive-retry escalation (primary
// -> expanded -> tertiary terms) named in §4.11; this gate only reports
// whether the current result set clears the bar.
func Search(findings []models.Finding) Result {
	distinct := make(map[string]bool)
	for _, f := range findings {
		distinct[string(f.IdentifierKind)+":"+f.Identifier] = true
	}
	if len(distinct) < minDistinctFindings {
		return fail("fewer than 3 distinct findings across search tasks")
	}
	return pass()
}

// minGroundedFindings is the §4.11 validation-gate floor.
const minGroundedFindings = 3

// maxRetractionRate is the §4.11 validation-gate ceiling.
const maxRetractionRate = 0.20

// Validation checks that at least three findings graded by the Citation
// Validation agent came back grounded (i.e. were actually verifiable, not
// retracted) and that the overall retraction rate across the graded set
// stays under 20%.
func Validation(graded []agent.GradedFinding) Result {
	if len(graded) == 0 {
		return fail("no graded findings to validate")
	}
	grounded := 0
	retracted := 0
	for _, g := range graded {
		if g.Retracted {
			retracted++
			continue
		}
		grounded++
	}
	var reasons []string
	if grounded < minGroundedFindings {
		reasons = append(reasons, "fewer than 3 non-retracted graded findings")
	}
	rate := float64(retracted) / float64(len(graded))
	if rate >= maxRetractionRate {
		reasons = append(reasons, "retraction rate is 20% or higher")
	}
	if len(reasons) > 0 {
		return fail(reasons...)
	}
	return pass()
}

// synthMinLength and requiredSynthSections are the §4.11 synthesis-gate
// floor and the labeled sections the workflow requires.
const synthMinLength = 500

var requiredSynthSections = []string{"Evidence", "Strength", "Implications"}

// minSynthIdentifiers is the §4.11 synthesis-gate identifier floor.
const minSynthIdentifiers = 2

// Synthesis checks that the synthesis text carries every required labeled
// section, clears the minimum length, and cites at least two identifiers
// that are all present in validatedArticles (the only source of truth for
// what the synthesizer is allowed to reference).
func Synthesis(text string, cited []models.CitationAssertion, validatedArticles []models.Finding) Result {
	var reasons []string
	for _, section := range requiredSynthSections {
		if !strings.Contains(text, section) {
			reasons = append(reasons, "missing labeled section: "+section)
		}
	}
	if len(text) < synthMinLength {
		reasons = append(reasons, "synthesis text is shorter than the minimum length")
	}

	validated := make(map[string]bool, len(validatedArticles))
	for _, a := range validatedArticles {
		validated[string(a.IdentifierKind)+":"+a.Identifier] = true
	}
	allValidated := len(cited) > 0
	for _, c := range cited {
		if !validated[string(c.IdentifierKind)+":"+c.Identifier] {
			allValidated = false
		}
	}
	if len(cited) < minSynthIdentifiers {
		reasons = append(reasons, "fewer than 2 identifiers referenced")
	} else if !allValidated {
		reasons = append(reasons, "one or more referenced identifiers are not in validated_articles")
	}

	if len(reasons) > 0 {
		return fail(reasons...)
	}
	return pass()
}

// Analysis checks that the data-analysis artifact's §4.7 C7.6 fields are
// present and in range, reusing the Data Analysis agent's own field
// validation rather than duplicating it.
func Analysis(spec agent.AnalysisSpec) Result {
	if missing := agent.ValidateAnalysisSpec(spec); len(missing) > 0 {
		return fail(missing...)
	}
	return pass()
}
