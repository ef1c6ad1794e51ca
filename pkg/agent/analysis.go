package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

// DataAnalysisAgentKey is the registry key for the Data Analysis Agent (C7.6).
const DataAnalysisAgentKey = "data_analysis"

const analysisSystemPrompt = `You help a nurse researcher scope the statistical design
of a study: study design, primary outcome metric, the effect size they expect to detect,
and the significance/power they want. Reply with ONLY a JSON object, no prose, with these
keys: design (string), primary_outcome_metric (string), assumed_effect (number, the
standardized effect size such as Cohen's d), alpha (number), power (number), confidence
(number 0-1, your confidence this design is adequately specified), and optionally
sample_size_justification (string) when you believe a feasibility constraint should
override the computed sample size.`

// AnalysisSpec is the structured output this agent's controller produces:
// the fields the C7.6 feasibility check (§4.7) validates.
type AnalysisSpec struct {
	Design                  string  `json:"design"`
	PrimaryOutcomeMetric    string  `json:"primary_outcome_metric"`
	AssumedEffect           float64 `json:"assumed_effect"`
	Alpha                   float64 `json:"alpha"`
	Power                   float64 `json:"power"`
	Confidence              float64 `json:"confidence"`
	SampleSizeJustification string  `json:"sample_size_justification,omitempty"`
	SampleSizeN             int     `json:"sample_size_n"`
}

// computeSampleSize is the deterministic statistics tool: a standard normal
// approximation for a two-sample comparison, n per group =
// 2*(z_alpha/2 + z_power)^2 / effect^2.
func computeSampleSize(alpha, power, effect float64) int {
	if effect <= 0 {
		return 0
	}
	zAlpha := invNormalCDF(1 - alpha/2)
	zPower := invNormalCDF(power)
	n := 2 * math.Pow(zAlpha+zPower, 2) / (effect * effect)
	return int(math.Ceil(n))
}

// invNormalCDF is Acklam's rational approximation to the inverse standard
// normal CDF, accurate to about 1.15e-9 — more than sufficient for a sample
// size estimate.
func invNormalCDF(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	a := []float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02, 1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := []float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02, 6.680131188771972e+01, -1.328068155288572e+01}
	c := []float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00, -2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := []float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00, 3.754408661907416e+00}

	pLow := 0.02425
	pHigh := 1 - pLow

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= pHigh:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}

type analysisController struct {
	LLM llm.Client
}

func (a *analysisController) Run(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, error) {
	resp, err := a.LLM.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "system", Content: analysisSystemPrompt}, {Role: "user", Content: in.Query}},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("llm complete: %w", err)
	}

	var spec AnalysisSpec
	text := strings.TrimSpace(resp.Content)
	if err := json.Unmarshal([]byte(text), &spec); err != nil {
		return &RunOutput{Text: "I couldn't produce a structured analysis design from that input.", IsRefusal: true}, nil
	}

	if spec.SampleSizeJustification == "" {
		spec.SampleSizeN = computeSampleSize(spec.Alpha, spec.Power, spec.AssumedEffect)
	}

	out, _ := json.MarshalIndent(spec, "", "  ")
	return &RunOutput{
		Text:      string(out),
		Artifacts: map[string]any{"analysis_spec": spec},
	}, nil
}

// NewDataAnalysisAgent builds the Data Analysis Agent. It has no external
// tools; its grounding is a feasibility check over structured fields rather
// than an identifier match (§4.7 C7.6).
// ValidateAnalysisSpec is the C7.6 feasibility check: which required
// fields are missing or out of range. An empty result means spec is
// complete. Shared by this agent's grounding rule and the Analysis gate
// (§4.11), so both apply the exact same field list.
func ValidateAnalysisSpec(spec AnalysisSpec) []string {
	var missing []string
	if spec.Design == "" {
		missing = append(missing, "design")
	}
	if spec.PrimaryOutcomeMetric == "" {
		missing = append(missing, "primary_outcome_metric")
	}
	if spec.AssumedEffect <= 0 {
		missing = append(missing, "assumed_effect")
	}
	if spec.Alpha <= 0 || spec.Alpha >= 1 {
		missing = append(missing, "alpha")
	}
	if spec.Power <= 0 || spec.Power >= 1 {
		missing = append(missing, "power")
	}
	if spec.Confidence < 0 || spec.Confidence > 1 {
		missing = append(missing, "confidence")
	}
	if (spec.SampleSizeN < 10 || spec.SampleSizeN > 2000) && spec.SampleSizeJustification == "" {
		missing = append(missing, "sample_size_n")
	}
	return missing
}

func NewDataAnalysisAgent(client llm.Client, auditLog *audit.Logger) *Core {
	controller := &analysisController{LLM: client}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		spec, ok := out.Artifacts["analysis_spec"].(AnalysisSpec)
		if !ok {
			return models.Verdict{Kind: models.VerdictHallucinate, Unverified: []string{"analysis_spec"}}
		}
		if missing := ValidateAnalysisSpec(spec); len(missing) > 0 {
			return models.Verdict{Kind: models.VerdictHallucinate, Unverified: missing}
		}
		return models.Verdict{Kind: models.VerdictGrounded}
	}
	return New(DataAnalysisAgentKey, "Data Analysis Agent", ModelConfig{Model: client.Model(), MaxTokens: 1024}, controller, grounding, auditLog)
}
