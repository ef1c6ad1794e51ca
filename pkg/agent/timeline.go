package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/models"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
)

// TimelineAgentKey is the registry key for the Timeline Agent (C7.5).
const TimelineAgentKey = "timeline_planner"

const timelineSystemPrompt = `You help a nurse researcher plan and track the project
timeline: IRB submission, data collection, analysis, and dissemination milestones. The
current milestones for this project are listed below as your only source of dates —
never state a date that isn't in that list.

Current milestones:
%s`

// timelineController looks up the project's milestones from the store
// before every LLM call, so a date in the reply can always be checked
// against what was actually read this turn (§4.7 C7.5: "any ISO date in the
// reply must be present there, else must call the milestone tool first").
// Milestones live in the Project Store, not behind a tools.Adapter — unlike
// the bibliographic sources, there is no external vendor here, so this
// agent reads the store directly instead of going through the tool-calling
// loop's LLM-initiated tool_use protocol.
type timelineController struct {
	Store *store.Store
	LLM   llm.Client
}

func (t *timelineController) Run(ctx context.Context, in Input, cc *convo.Context) (*RunOutput, error) {
	milestones, err := t.Store.ListMilestones(ctx, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	verified := make(map[string]bool, len(milestones))
	var listing strings.Builder
	if len(milestones) == 0 {
		listing.WriteString("(none recorded yet)")
	}
	for _, m := range milestones {
		date := m.DueDate.Format("2006-01-02")
		verified[date] = true
		fmt.Fprintf(&listing, "- %s: %s (%s)\n", date, m.Name, m.Status)
	}

	prompt := fmt.Sprintf(timelineSystemPrompt, listing.String())
	resp, err := t.LLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{{Role: "system", Content: prompt}, {Role: "user", Content: in.Query}},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("llm complete: %w", err)
	}

	return &RunOutput{Text: resp.Content, Verified: verified}, nil
}

// NewTimelineAgent builds the Timeline Agent. Vᴀ is the set of ISO dates
// currently in the milestones table, read fresh every turn.
func NewTimelineAgent(client llm.Client, s *store.Store, auditLog *audit.Logger) *Core {
	controller := &timelineController{Store: s, LLM: client}
	grounding := func(out *RunOutput, cc *convo.Context) models.Verdict {
		dates := ExtractISODates(out.Text)
		if len(dates) == 0 {
			return models.Verdict{Kind: models.VerdictGrounded}
		}
		var unverified []string
		for _, d := range dates {
			if !out.Verified[d] {
				unverified = append(unverified, d)
			}
		}
		if len(unverified) > 0 {
			return models.Verdict{Kind: models.VerdictHallucinate, Unverified: unverified}
		}
		return models.Verdict{Kind: models.VerdictGrounded}
	}
	return New(TimelineAgentKey, "Timeline Agent", ModelConfig{Model: client.Model(), MaxTokens: 2048}, controller, grounding, auditLog)
}
