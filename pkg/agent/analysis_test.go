package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSampleSize_ReasonableForStandardDesign(t *testing.T) {
	n := computeSampleSize(0.05, 0.8, 0.5)
	// Textbook two-sample comparison at alpha=.05/power=.8/d=.5 lands near 63-64 per group.
	assert.InDelta(t, 63, n, 3)
}

func TestComputeSampleSize_ZeroEffectIsUndefined(t *testing.T) {
	assert.Equal(t, 0, computeSampleSize(0.05, 0.8, 0))
}

func TestDataAnalysisGrounding_MissingFieldIsHallucination(t *testing.T) {
	a := NewDataAnalysisAgent(&fakeLLM{}, newTestLogger(t))
	verdict := a.Grounding(&RunOutput{Artifacts: map[string]any{"analysis_spec": AnalysisSpec{
		Design: "", PrimaryOutcomeMetric: "falls per 1000 patient-days", AssumedEffect: 0.5, Alpha: 0.05, Power: 0.8, Confidence: 0.7, SampleSizeN: 64,
	}}}, nil)
	assert.Equal(t, "hallucinated", string(verdict.Kind))
	assert.Contains(t, verdict.Unverified, "design")
}

func TestDataAnalysisGrounding_ValidSpecIsGrounded(t *testing.T) {
	a := NewDataAnalysisAgent(&fakeLLM{}, newTestLogger(t))
	verdict := a.Grounding(&RunOutput{Artifacts: map[string]any{"analysis_spec": AnalysisSpec{
		Design: "pre-post quasi-experimental", PrimaryOutcomeMetric: "falls per 1000 patient-days",
		AssumedEffect: 0.5, Alpha: 0.05, Power: 0.8, Confidence: 0.7, SampleSizeN: 64,
	}}}, nil)
	assert.Equal(t, "grounded", string(verdict.Kind))
}
