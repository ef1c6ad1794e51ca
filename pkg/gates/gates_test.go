package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

func validPICOT() PICOTFields {
	return PICOTFields{
		Population: "adult inpatients at fall risk", Intervention: "hourly rounding",
		Comparison: "standard care", Outcome: "fall incidence", Timeframe: "90 days",
		Question: "In adult inpatients at fall risk, does hourly rounding compared to standard care reduce fall incidence over a 90 day period, accounting for unit staffing ratios and baseline fall history across the study cohort?",
	}
}

func TestPICOT_ValidFieldsPass(t *testing.T) {
	assert.True(t, PICOT(validPICOT()).Passed)
}

func TestPICOT_MissingElementFails(t *testing.T) {
	f := validPICOT()
	f.Comparison = ""
	r := PICOT(f)
	assert.False(t, r.Passed)
	assert.Contains(t, r.Reasons, "comparison is empty")
}

func TestPICOT_QuestionMissingTerminalMarkFails(t *testing.T) {
	f := validPICOT()
	f.Question = f.Question[:len(f.Question)-1]
	r := PICOT(f)
	assert.False(t, r.Passed)
	assert.Contains(t, r.Reasons, "question does not end with '?'")
}

func TestPICOT_ShortQuestionFails(t *testing.T) {
	f := validPICOT()
	f.Question = "Does it work?"
	r := PICOT(f)
	assert.False(t, r.Passed)
	assert.Contains(t, r.Reasons, "question is shorter than the minimum length")
}

func findings(n int) []models.Finding {
	out := make([]models.Finding, n)
	for i := range out {
		out[i] = models.Finding{IdentifierKind: models.IdentifierPMID, Identifier: string(rune('A' + i))}
	}
	return out
}

func TestSearch_ThreeDistinctFindingsPasses(t *testing.T) {
	assert.True(t, Search(findings(3)).Passed)
}

func TestSearch_FewerThanThreeFails(t *testing.T) {
	r := Search(findings(2))
	assert.False(t, r.Passed)
}

func TestSearch_DuplicateIdentifiersDoNotCountTwice(t *testing.T) {
	dupes := []models.Finding{
		{IdentifierKind: models.IdentifierPMID, Identifier: "1"},
		{IdentifierKind: models.IdentifierPMID, Identifier: "1"},
		{IdentifierKind: models.IdentifierPMID, Identifier: "2"},
	}
	assert.False(t, Search(dupes).Passed)
}

func TestValidation_EnoughGroundedLowRetractionPasses(t *testing.T) {
	graded := []agent.GradedFinding{{}, {}, {}, {}}
	assert.True(t, Validation(graded).Passed)
}

func TestValidation_TooFewGroundedFails(t *testing.T) {
	graded := []agent.GradedFinding{{}, {Retracted: true}}
	assert.False(t, Validation(graded).Passed)
}

func TestValidation_HighRetractionRateFails(t *testing.T) {
	graded := []agent.GradedFinding{
		{Retracted: true}, {Retracted: true}, {}, {}, {},
	}
	r := Validation(graded)
	assert.False(t, r.Passed)
}

func validatedArticles() []models.Finding {
	return []models.Finding{
		{IdentifierKind: models.IdentifierPMID, Identifier: "1234567"},
		{IdentifierKind: models.IdentifierPMID, Identifier: "7654321"},
	}
}

func TestSynthesis_CompleteTextPasses(t *testing.T) {
	text := "Evidence: strong RCT support. Strength: moderate. Implications: adopt with monitoring. " +
		"This synthesis draws on PMID: 1234567 and PMID: 7654321 to support the recommendation across " +
		"the full cohort, weighing both the magnitude and consistency of the observed effect over time."
	cited := []models.CitationAssertion{
		{IdentifierKind: models.IdentifierPMID, Identifier: "1234567"},
		{IdentifierKind: models.IdentifierPMID, Identifier: "7654321"},
	}
	r := Synthesis(text, cited, validatedArticles())
	assert.True(t, r.Passed)
}

func TestSynthesis_MissingSectionFails(t *testing.T) {
	text := "Strength: moderate. Implications: adopt with monitoring, citing PMID: 1234567 and PMID: 7654321 " +
		"across a broad cohort with careful attention to confounding variables and baseline risk factors."
	cited := []models.CitationAssertion{
		{IdentifierKind: models.IdentifierPMID, Identifier: "1234567"},
		{IdentifierKind: models.IdentifierPMID, Identifier: "7654321"},
	}
	r := Synthesis(text, cited, validatedArticles())
	assert.False(t, r.Passed)
	assert.Contains(t, r.Reasons, "missing labeled section: Evidence")
}

func TestSynthesis_CitingUnvalidatedArticleFails(t *testing.T) {
	text := "Evidence: strong. Strength: moderate. Implications: adopt, citing PMID: 1234567 and PMID: 9999999 " +
		"across a broad cohort with careful attention to confounding variables and baseline risk factors too."
	cited := []models.CitationAssertion{
		{IdentifierKind: models.IdentifierPMID, Identifier: "1234567"},
		{IdentifierKind: models.IdentifierPMID, Identifier: "9999999"},
	}
	r := Synthesis(text, cited, validatedArticles())
	assert.False(t, r.Passed)
}

func TestAnalysis_CompleteSpecPasses(t *testing.T) {
	spec := agent.AnalysisSpec{
		Design: "pre-post quasi-experimental", PrimaryOutcomeMetric: "falls per 1000 patient-days",
		AssumedEffect: 0.5, Alpha: 0.05, Power: 0.8, Confidence: 0.7, SampleSizeN: 64,
	}
	assert.True(t, Analysis(spec).Passed)
}

func TestAnalysis_MissingFieldFails(t *testing.T) {
	spec := agent.AnalysisSpec{PrimaryOutcomeMetric: "falls per 1000 patient-days", AssumedEffect: 0.5, Alpha: 0.05, Power: 0.8, Confidence: 0.7, SampleSizeN: 64}
	r := Analysis(spec)
	assert.False(t, r.Passed)
	assert.Contains(t, r.Reasons, "design")
}
