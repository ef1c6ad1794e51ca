package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroadcaster struct {
	channel string
	event   []byte
}

func (f *fakeBroadcaster) Broadcast(channel string, event []byte) {
	f.channel = channel
	f.event = event
}

func TestPublisherPublishRunStatusBroadcastsOnRunChannel(t *testing.T) {
	fb := &fakeBroadcaster{}
	p := NewPublisher(fb)

	err := p.PublishRunStatus("proj-1", RunStatusPayload{
		Type: EventTypeRunStatus, ProjectID: "proj-1", RunID: "run-1", Status: "success",
	})
	require.NoError(t, err)

	assert.Equal(t, "project:proj-1:runs", fb.channel)

	var decoded RunStatusPayload
	require.NoError(t, json.Unmarshal(fb.event, &decoded))
	assert.Equal(t, "success", decoded.Status)
	assert.Equal(t, "run-1", decoded.RunID)
}

func TestPublisherPublishStepStatusBroadcastsOnRunChannel(t *testing.T) {
	fb := &fakeBroadcaster{}
	p := NewPublisher(fb)

	err := p.PublishStepStatus("proj-1", StepStatusPayload{
		Type: EventTypeStepStatus, ProjectID: "proj-1", RunID: "run-1", TaskID: "t1", AgentKey: "pubmed_search", Status: "succeeded",
	})
	require.NoError(t, err)
	assert.Equal(t, "project:proj-1:runs", fb.channel)
}

func TestPublisherNilBroadcasterIsNoop(t *testing.T) {
	p := NewPublisher(nil)
	err := p.PublishRunStatus("proj-1", RunStatusPayload{Status: "running"})
	assert.NoError(t, err)
}
