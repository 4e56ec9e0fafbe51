package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/testutil"
	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// newLiveService runs a WebSocket endpoint at /ws that reads the start frame
// and then writes each scripted frame in order.
func newLiveService(t *testing.T, frames []string) *Client {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var start startMessage
		if err := conn.ReadJSON(&start); err != nil {
			return
		}
		if start.Action != "run" || start.Config == nil {
			t.Errorf("unexpected start frame: %+v", start)
			return
		}

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection open so teardown is driven by the client side.
		_, _, _ = conn.ReadMessage()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Logger: testutil.NewTestLogger(t)})
}

func collectEvents(t *testing.T, lr *LiveRun) []pipeline.Event {
	t.Helper()
	var events []pipeline.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-lr.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for the event stream to close")
		}
	}
}

func TestLiveURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/ws"},
		{"https://pipeline.example.com", "wss://pipeline.example.com/ws"},
		{"http://example.com/api/", "ws://example.com/api/ws"},
	}
	for _, tt := range tests {
		c := New(Options{BaseURL: tt.base})
		got, err := c.liveURL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	c := New(Options{BaseURL: "ftp://example.com"})
	_, err := c.liveURL()
	assert.ErrorContains(t, err, "unsupported base URL scheme")
}

func TestLiveRun_SuccessfulStream(t *testing.T) {
	frames := []string{
		`{"type":"run_start","run_id":"r1"}`,
		`{"type":"pipeline_start","stages":["graph_traverser","chatml_converter"]}`,
		`{"type":"stage_start","stage":"graph_traverser"}`,
		`{"type":"log","level":"INFO","logger":"traverser","message":"walking"}`,
		`{"type":"stage_end","stage":"graph_traverser","success":true}`,
		`{"type":"done","success":true,"results":[{"success":true}]}`,
	}
	c := newLiveService(t, frames)

	lr, err := c.OpenLiveRun(context.Background(), pipeline.DefaultConfig())
	require.NoError(t, err)
	defer lr.Close()

	events := collectEvents(t, lr)
	require.Len(t, events, len(frames))

	// Arrival order is preserved exactly.
	assert.Equal(t, pipeline.EventRunStart, events[0].Type)
	assert.Equal(t, pipeline.EventPipelineStart, events[1].Type)
	assert.Equal(t, pipeline.EventDone, events[len(events)-1].Type)

	// Every delivered event was stamped at receipt.
	for i, ev := range events {
		assert.False(t, ev.Time.IsZero(), "event %d has no receipt time", i)
	}

	assert.Equal(t, "r1", lr.RunID())
	require.NoError(t, lr.Err())

	res := lr.Result()
	require.NotNil(t, res)
	assert.Equal(t, "r1", res.RunID)
	assert.Equal(t, pipeline.RunStatusCompleted, res.Status)
	assert.True(t, res.Success)
	require.Len(t, res.Results, 1)
}

func TestLiveRun_FailedDone(t *testing.T) {
	frames := []string{
		`{"type":"run_start","run_id":"r2"}`,
		`{"type":"done","success":false,"results":[{"success":false,"error":"oom"}]}`,
	}
	c := newLiveService(t, frames)

	lr, err := c.OpenLiveRun(context.Background(), pipeline.DefaultConfig())
	require.NoError(t, err)
	defer lr.Close()

	collectEvents(t, lr)

	res := lr.Result()
	require.NotNil(t, res)
	assert.Equal(t, pipeline.RunStatusFailed, res.Status)
	assert.False(t, res.Success)
	assert.NoError(t, lr.Err(), "an unsuccessful done is a result, not a channel error")
}

func TestLiveRun_ErrorEvent(t *testing.T) {
	frames := []string{
		`{"type":"run_start","run_id":"r3"}`,
		`{"type":"error","message":"server restarting"}`,
	}
	c := newLiveService(t, frames)

	lr, err := c.OpenLiveRun(context.Background(), pipeline.DefaultConfig())
	require.NoError(t, err)
	defer lr.Close()

	events := collectEvents(t, lr)
	require.Len(t, events, 2, "the error event itself is still delivered")

	require.Error(t, lr.Err())
	assert.Equal(t, "server restarting", lr.Err().Error())
	assert.Nil(t, lr.Result())
}

func TestLiveRun_MalformedFrame(t *testing.T) {
	frames := []string{
		`{"type":"run_start","run_id":"r4"}`,
		`{"run_id":"no type here"}`,
	}
	c := newLiveService(t, frames)

	lr, err := c.OpenLiveRun(context.Background(), pipeline.DefaultConfig())
	require.NoError(t, err)
	defer lr.Close()

	events := collectEvents(t, lr)
	assert.Len(t, events, 1, "the malformed frame is not delivered")
	assert.ErrorContains(t, lr.Err(), "missing type")
}

func TestLiveRun_CloseIsIdempotent(t *testing.T) {
	frames := []string{
		`{"type":"run_start","run_id":"r5"}`,
	}
	c := newLiveService(t, frames)

	lr, err := c.OpenLiveRun(context.Background(), pipeline.DefaultConfig())
	require.NoError(t, err)

	lr.Close()
	lr.Close()

	collectEvents(t, lr)

	// A teardown the operator asked for is not reported as a channel error.
	assert.NoError(t, lr.Err())

	// Closing again after the stream has drained stays safe.
	lr.Close()
}

func TestLiveRun_ServerDisconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		var start startMessage
		_ = conn.ReadJSON(&start)
		data, _ := json.Marshal(map[string]string{"type": "run_start", "run_id": "r6"})
		_ = conn.WriteMessage(websocket.TextMessage, data)
		conn.Close()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(Options{BaseURL: srv.URL, Logger: testutil.NewTestLogger(t)})
	lr, err := c.OpenLiveRun(context.Background(), pipeline.DefaultConfig())
	require.NoError(t, err)
	defer lr.Close()

	collectEvents(t, lr)
	assert.ErrorContains(t, lr.Err(), "live channel closed")
	assert.Nil(t, lr.Result())
}
