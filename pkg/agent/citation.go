package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// CitationAgentKey is the registry key for the Citation Validation Agent (C7.7).
const CitationAgentKey = "citation_validation"

// EvidenceLevel is a position on the fixed 7-level evidence hierarchy,
// highest quality first.
type EvidenceLevel int

const (
	LevelSystematicReviewMetaAnalysis EvidenceLevel = 1
	LevelRCT                          EvidenceLevel = 2
	LevelControlledTrialNoRandom      EvidenceLevel = 3
	LevelCaseControlCohort            EvidenceLevel = 4
	LevelSystematicReviewQualitative  EvidenceLevel = 5
	LevelSingleDescriptiveStudy       EvidenceLevel = 6
	LevelExpertOpinion                EvidenceLevel = 7
)

// levelKeywords maps the rule-based keyword groups used to grade a finding's
// title/abstract onto a hierarchy level, checked in order (most specific
// first) so e.g. "randomized controlled trial" is never misclassified as a
// plain "trial".
var levelKeywords = []struct {
	level    EvidenceLevel
	keywords []string
}{
	{LevelSystematicReviewMetaAnalysis, []string{"meta-analysis", "meta analysis", "systematic review and meta-analysis"}},
	{LevelRCT, []string{"randomized controlled trial", "randomised controlled trial", "double-blind", "rct"}},
	{LevelControlledTrialNoRandom, []string{"controlled trial", "quasi-experimental"}},
	{LevelCaseControlCohort, []string{"cohort study", "case-control", "case control"}},
	{LevelSystematicReviewQualitative, []string{"systematic review", "qualitative synthesis"}},
	{LevelSingleDescriptiveStudy, []string{"cross-sectional", "descriptive study", "case series", "case report"}},
}

// CurrencyBand classifies how recent a finding is relative to now.
type CurrencyBand string

const (
	CurrencyCurrent  CurrencyBand = "current"  // <= 5 years
	CurrencyAging    CurrencyBand = "aging"    // 5-7 years
	CurrencyOutdated CurrencyBand = "outdated" // > 7 years
)

// GradedFinding is one finding after evidence-level, retraction, and
// currency grading.
type GradedFinding struct {
	models.Finding
	Level      EvidenceLevel
	Retracted  bool
	Currency   CurrencyBand
	QualityScore float64 // 0-1 composite of level, currency, and retraction
}

func gradeLevel(f models.Finding) EvidenceLevel {
	text := strings.ToLower(f.Title + " " + f.Abstract)
	for _, group := range levelKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				return group.level
			}
		}
	}
	return LevelExpertOpinion
}

// isRetracted is a keyword-based stand-in for a retraction-watch vendor
// lookup: no such adapter exists among the configured tool sources, so this
// checks the finding's own title/abstract/notes text for a retraction
// notice, which is how PubMed and most publishers flag retracted articles
// in the record itself.
func isRetracted(f models.Finding) bool {
	text := strings.ToLower(f.Title + " " + f.Abstract + " " + f.Notes)
	return strings.Contains(text, "retracted") || strings.Contains(text, "retraction of")
}

func gradeCurrency(f models.Finding, now time.Time) CurrencyBand {
	year := parseYear(f.Date)
	if year == 0 {
		return CurrencyOutdated
	}
	age := now.Year() - year
	switch {
	case age <= 5:
		return CurrencyCurrent
	case age <= 7:
		return CurrencyAging
	default:
		return CurrencyOutdated
	}
}

func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

func qualityScore(level EvidenceLevel, currency CurrencyBand, retracted bool) float64 {
	if retracted {
		return 0
	}
	levelScore := (8 - float64(level)) / 7 // level 1 -> 1.0, level 7 -> ~0.14
	currencyScore := map[CurrencyBand]float64{CurrencyCurrent: 1.0, CurrencyAging: 0.6, CurrencyOutdated: 0.3}[currency]
	return levelScore*0.7 + currencyScore*0.3
}

// GradeFindings applies the rule-based hierarchy, retraction check, and
// currency/quality scoring to a set of findings. Never invents identifiers:
// the output set is exactly the input set, annotated.
func GradeFindings(findings []models.Finding, now time.Time) []GradedFinding {
	out := make([]GradedFinding, len(findings))
	for i, f := range findings {
		level := gradeLevel(f)
		retracted := isRetracted(f)
		currency := gradeCurrency(f, now)
		out[i] = GradedFinding{Finding: f, Level: level, Retracted: retracted, Currency: currency, QualityScore: qualityScore(level, currency, retracted)}
	}
	return out
}

// citationController is deterministic: it never calls an external tool and
// never consults the LLM to decide facts, only (optionally) to phrase the
// already-graded summary. Grading happens entirely in Go.
type citationController struct {
	LLM llm.Client
}

func (c *citationController) Run(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, error) {
	raw, _ := in.Params["articles"].([]models.Finding)
	if len(raw) == 0 {
		return &RunOutput{Text: "No articles were provided to validate.", Verified: map[string]bool{}, IsRefusal: true}, nil
	}

	graded := GradeFindings(raw, time.Now())

	verified := make(map[string]bool, len(graded))
	validated := make([]models.Finding, 0, len(graded))
	var b strings.Builder
	for _, g := range graded {
		verified[g.Identifier] = true
		fmt.Fprintf(&b, "- %s: level %d, %s, retracted=%v, quality=%.2f\n", g.Identifier, g.Level, g.Currency, g.Retracted, g.QualityScore)
		if !g.Retracted {
			validated = append(validated, g.Finding)
		}
	}

	return &RunOutput{
		Text:      b.String(),
		Verified:  verified,
		Artifacts: map[string]any{"validated_articles": validated, "graded_findings": graded},
	}, nil
}

// NewCitationAgent builds the Citation Validation Agent (C7.7). Its
// grounding check is a pass-through: it only ever reports on identifiers it
// was handed, so Cᴀ ⊆ Vᴀ by construction, and Ground degenerates into a
// safety net against a future code change accidentally introducing an
// invented identifier.
func NewCitationAgent(client llm.Client, auditLog *audit.Logger) *Core {
	controller := &citationController{LLM: client}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		cited := ExtractCitations(out.Text)
		return Ground(cited, out.Verified, out.IsRefusal)
	}
	return New(CitationAgentKey, "Citation Validation Agent", ModelConfig{Model: client.Model(), MaxTokens: 2048}, controller, grounding, auditLog)
}
