// Package events delivers run/step/agent lifecycle events to connected
// WebSocket clients via an in-process publish/subscribe fan-out. There is
// no Postgres LISTEN/NOTIFY here — the project store is an embedded
// per-project SQLite file, not a shared server other processes could
// subscribe against, so a single process's in-memory channel map is the
// entire distribution mechanism (§4.14).
package events

// Event types published over WebSocket.
const (
	// EventTypeRunStatus fires on every workflow run status transition
	// (running, success, failed).
	EventTypeRunStatus = "run.status"

	// EventTypeStepStatus fires on every workflow step status transition
	// (running, succeeded, failed, skipped_due_to_dependency).
	EventTypeStepStatus = "step.status"

	// EventTypeAgentTurn fires once a specialized agent's Invoke call
	// returns, successful or not.
	EventTypeAgentTurn = "agent.turn"
)

// RunChannel returns the channel name a project's run/step/agent events are
// published on. One channel per project — a project only ever has one run
// active at a time (§5), so there is no need for a finer-grained channel.
func RunChannel(projectID string) string {
	return "project:" + projectID + ":runs"
}

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`                  // "subscribe", "unsubscribe", "catchup", "ping"
	Channel     string `json:"channel,omitempty"`       // channel name, e.g. "project:proj-1:runs"
	LastEventID *int   `json:"last_event_id,omitempty"` // sequence number for catchup
}
