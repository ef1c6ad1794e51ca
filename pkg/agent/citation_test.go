package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/nurseresearch/pkg/models"
)

func TestGradeFindings_ClassifiesLevelAndRetraction(t *testing.T) {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	findings := []models.Finding{
		{Identifier: "1", Title: "A randomized controlled trial of fall prevention", Date: "2025-01-01"},
		{Identifier: "2", Title: "Retraction of: a cohort study", Date: "2024-01-01"},
		{Identifier: "3", Title: "Expert commentary on practice", Date: "2015-01-01"},
	}

	graded := GradeFindings(findings, now)

	assert.Equal(t, LevelRCT, graded[0].Level)
	assert.False(t, graded[0].Retracted)
	assert.Equal(t, CurrencyCurrent, graded[0].Currency)

	assert.True(t, graded[1].Retracted)
	assert.Equal(t, 0.0, graded[1].QualityScore)

	assert.Equal(t, LevelExpertOpinion, graded[2].Level)
	assert.Equal(t, CurrencyOutdated, graded[2].Currency)
}

func TestCitationController_NeverInventsIdentifiers(t *testing.T) {
	controller := &citationController{}
	in := Input{Params: map[string]any{"articles": []models.Finding{
		{Identifier: "123", Title: "A systematic review", Date: "2024-06-01"},
	}}}

	out, err := controller.Run(context.Background(), in, nil)

	assert.NoError(t, err)
	assert.True(t, out.Verified["123"])
	cited := ExtractCitations(out.Text)
	for _, c := range cited {
		assert.True(t, out.Verified[c.Identifier])
	}
}

func TestCitationController_EmptyInputRefuses(t *testing.T) {
	controller := &citationController{}
	out, err := controller.Run(context.Background(), Input{}, nil)
	assert.NoError(t, err)
	assert.True(t, out.IsRefusal)
}
