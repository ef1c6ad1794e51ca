package events

import (
	"encoding/json"
	"fmt"
)

// Broadcaster is the subset of *ConnectionManager the Publisher needs —
// narrowed to a single method so pkg/executor can depend on the interface
// without importing the WebSocket machinery.
type Broadcaster interface {
	Broadcast(channel string, event []byte)
}

// Publisher marshals typed event payloads and hands them to a Broadcaster.
// Unlike the teacher's EventPublisher there is no database to persist
// through first — ConnectionManager itself keeps the short per-channel
// backlog that powers catchup (see manager.go), so Publisher's only job is
// marshaling and routing.
type Publisher struct {
	broadcaster Broadcaster
}

// NewPublisher creates a Publisher that broadcasts through b.
func NewPublisher(b Broadcaster) *Publisher {
	return &Publisher{broadcaster: b}
}

// PublishRunStatus broadcasts a run.status event on the project's run channel.
func (p *Publisher) PublishRunStatus(projectID string, payload RunStatusPayload) error {
	return p.publish(RunChannel(projectID), payload)
}

// PublishStepStatus broadcasts a step.status event on the project's run channel.
func (p *Publisher) PublishStepStatus(projectID string, payload StepStatusPayload) error {
	return p.publish(RunChannel(projectID), payload)
}

// PublishAgentTurn broadcasts an agent.turn event on the project's run channel.
func (p *Publisher) PublishAgentTurn(projectID string, payload AgentTurnPayload) error {
	return p.publish(RunChannel(projectID), payload)
}

func (p *Publisher) publish(channel string, payload any) error {
	if p == nil || p.broadcaster == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}
	p.broadcaster.Broadcast(channel, data)
	return nil
}
