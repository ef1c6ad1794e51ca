// Package convo implements the Conversation Context (C10): a bounded,
// persisted per-project message history plus a typed artifact map keyed by
// semantic role, whose phase is always derived from artifact presence
// rather than set directly by callers.
package convo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codeready-toolchain/nurseresearch/pkg/store"
)

// Phase is the conversation's current stage, a pure function of which
// artifact roles are present (§3, §4.10).
type Phase string

const (
	PhasePlanning  Phase = "planning"
	PhaseSearching Phase = "searching"
	PhaseAnalyzing Phase = "analyzing"
	PhaseWriting   Phase = "writing"
)

// Artifact role names whose presence drives phase derivation and that the
// executor (C9) writes into automatically for recognized actions.
const (
	RoleSynthesize  = "synthesize"
	RoleValidate    = "validate"
	RoleSearchPubMed = "search_pubmed"
)

// Message is one turn's buffered content before it is flushed to the store.
type Message struct {
	TurnIndex int
	Role      string
	Text      string
	Metadata  map[string]any
	At        time.Time
}

// capacity is the in-memory buffer size before add_message starts evicting
// (persisting) the oldest turn, per §3's "capacity ~50".
const capacity = 50

// Context is one active project's conversation state. Single-writer: the
// executor is the only caller that mutates it during a run (§5).
type Context struct {
	ProjectID string
	SessionID string

	mu             sync.Mutex
	phase          Phase
	messages       []Message
	artifacts      map[string]any
	completedTasks map[string]bool
	nextTurnIndex  int

	store *store.Store
}

// New creates an empty conversation context for a project/session pair.
func New(projectID, sessionID string, s *store.Store) *Context {
	return &Context{
		ProjectID:      projectID,
		SessionID:      sessionID,
		phase:          PhasePlanning,
		artifacts:      make(map[string]any),
		completedTasks: make(map[string]bool),
		store:          s,
	}
}

// AddMessage appends a turn to the buffer. When the buffer exceeds capacity
// the oldest message is persisted and evicted so the in-memory set stays
// bounded without losing history.
func (c *Context) AddMessage(ctx context.Context, role, text string, metadata map[string]any) error {
	c.mu.Lock()
	msg := Message{TurnIndex: c.nextTurnIndex, Role: role, Text: text, Metadata: metadata, At: time.Now()}
	c.nextTurnIndex++
	c.messages = append(c.messages, msg)
	var overflow Message
	hasOverflow := false
	if len(c.messages) > capacity {
		overflow = c.messages[0]
		c.messages = c.messages[1:]
		hasOverflow = true
	}
	c.mu.Unlock()

	if hasOverflow {
		return c.persistTurn(ctx, overflow)
	}
	return nil
}

// AddArtifact sets the artifact for role and recomputes the phase. This is
// the only way the phase ever changes; callers never set it directly.
func (c *Context) AddArtifact(role string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifacts[role] = value
	c.phase = derivePhase(c.artifacts)
}

func derivePhase(artifacts map[string]any) Phase {
	if _, ok := artifacts[RoleSynthesize]; ok {
		return PhaseWriting
	}
	if _, ok := artifacts[RoleValidate]; ok {
		return PhaseAnalyzing
	}
	if _, ok := artifacts[RoleSearchPubMed]; ok {
		return PhaseSearching
	}
	return PhasePlanning
}

// GetArtifact returns the value stored under role, if any.
func (c *Context) GetArtifact(role string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.artifacts[role]
	return v, ok
}

// HasArtifact reports whether role has been set.
func (c *Context) HasArtifact(role string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.artifacts[role]
	return ok
}

// Phase returns the current derived phase.
func (c *Context) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// MarkCompleted records that (agentKey, action) has finished successfully
// in this conversation, for the planner's tie-break policy (§4.8) and for
// get_summary.
func (c *Context) MarkCompleted(agentKey, action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completedTasks[completedKey(agentKey, action)] = true
}

// IsCompleted reports whether (agentKey, action) has already run this
// conversation.
func (c *Context) IsCompleted(agentKey, action string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completedTasks[completedKey(agentKey, action)]
}

func completedKey(agentKey, action string) string { return agentKey + ":" + action }

// GetSummary returns a short textual summary (phase, completed tasks,
// artifact keys, last user message preview) for the planner's prompt.
func (c *Context) GetSummary() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "phase=%s", c.phase)

	if len(c.artifacts) > 0 {
		keys := make([]string, 0, len(c.artifacts))
		for k := range c.artifacts {
			keys = append(keys, k)
		}
		fmt.Fprintf(&b, "; artifacts=[%s]", strings.Join(keys, ", "))
	}

	if len(c.completedTasks) > 0 {
		tasks := make([]string, 0, len(c.completedTasks))
		for k := range c.completedTasks {
			tasks = append(tasks, k)
		}
		fmt.Fprintf(&b, "; completed=[%s]", strings.Join(tasks, ", "))
	}

	if len(c.messages) > 0 {
		last := c.messages[len(c.messages)-1]
		if last.Role == "user" {
			preview := last.Text
			if len(preview) > 160 {
				preview = preview[:160] + "..."
			}
			fmt.Fprintf(&b, "; last_user_message=%q", preview)
		}
	}

	return b.String()
}

// SaveToDB persists every buffered message and clears the buffer, transferring
// ownership of the history to the Project Store.
func (c *Context) SaveToDB(ctx context.Context) error {
	c.mu.Lock()
	pending := c.messages
	c.messages = nil
	c.mu.Unlock()

	for _, msg := range pending {
		if err := c.persistTurn(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) persistTurn(ctx context.Context, msg Message) error {
	return c.store.AppendConversationTurn(ctx, store.ConversationTurn{
		ProjectID: c.ProjectID,
		TurnIndex: msg.TurnIndex,
		Role:      msg.Role,
		Content:   msg.Text,
		Artifacts: msg.Metadata,
	})
}

// LoadFromDB rehydrates the in-memory buffer from the last 10 persisted
// turns, in chronological order, per §4.10.
func (c *Context) LoadFromDB(ctx context.Context) error {
	const loadWindow = 10
	turns, err := c.store.LoadRecentTurns(ctx, c.ProjectID, loadWindow)
	if err != nil {
		return fmt.Errorf("load conversation context for project %s: %w", c.ProjectID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make([]Message, 0, len(turns))
	maxIndex := -1
	for _, t := range turns {
		c.messages = append(c.messages, Message{
			TurnIndex: t.TurnIndex, Role: t.Role, Text: t.Content, Metadata: t.Artifacts,
		})
		if t.TurnIndex > maxIndex {
			maxIndex = t.TurnIndex
		}
	}
	c.nextTurnIndex = maxIndex + 1
	return nil
}
