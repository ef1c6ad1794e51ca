package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/nurseresearch/pkg/events"
)

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readWSJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestWSHandler_DeliversPublishedEventToSubscriber(t *testing.T) {
	s := newTestServer(t)

	srv := httptest.NewServer(http.HandlerFunc(s.router.ServeHTTP))
	t.Cleanup(srv.Close)
	wsURL := "ws" + srv.URL[len("http"):] + "/ws"

	conn := dialWS(t, wsURL)
	_ = readWSJSON(t, conn) // connection.established

	sub, err := json.Marshal(events.ClientMessage{Action: "subscribe", Channel: events.RunChannel("fall-risk-qi")})
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, sub))
	confirmed := readWSJSON(t, conn)
	assert.Equal(t, "subscription.confirmed", confirmed["type"])

	require.NoError(t, s.publisher.PublishRunStatus("fall-risk-qi", events.RunStatusPayload{
		Type: events.EventTypeRunStatus, ProjectID: "fall-risk-qi", RunID: "run-1", Status: "running",
	}))

	evt := readWSJSON(t, conn)
	assert.Equal(t, "run.status", evt["type"])
	assert.Equal(t, "run-1", evt["run_id"])
}
