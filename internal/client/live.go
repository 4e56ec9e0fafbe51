package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// startMessage is the single frame sent when a live run channel opens.
type startMessage struct {
	Action string           `json:"action"`
	Config *pipeline.Config `json:"config"`
}

// LiveRun is a cancellable subscription to one run's lifecycle event stream.
// Events are delivered on Events() in exact arrival order; the channel closes
// after a done event, an explicit error event, a malformed payload, or a
// transport failure. RunID, Result and Err become meaningful once set (RunID
// after the first run_start, Result and Err after the channel closes).
// Close is idempotent and safe to call at any point, including after the
// channel has already closed.
type LiveRun struct {
	conn   *websocket.Conn
	events chan pipeline.Event

	closeOnce sync.Once
	closed    chan struct{}

	mu     sync.Mutex
	runID  string
	result *pipeline.RunResult
	err    error
}

// OpenLiveRun opens the persistent channel, sends the start-run message and
// begins streaming lifecycle events.
func (c *Client) OpenLiveRun(ctx context.Context, cfg *pipeline.Config) (*LiveRun, error) {
	wsURL, err := c.liveURL()
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open live channel: %w", err)
	}

	if err := conn.WriteJSON(startMessage{Action: "run", Config: cfg}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to start live run: %w", err)
	}

	lr := &LiveRun{
		conn:   conn,
		events: make(chan pipeline.Event, 16),
		closed: make(chan struct{}),
	}
	go lr.readLoop(c.logger)
	c.logger.Debug("live channel opened", "url", wsURL)
	return lr, nil
}

// liveURL derives the persistent-channel endpoint from the base address:
// same host, /ws path, scheme upgraded to the WebSocket equivalent.
func (c *Client) liveURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported base URL scheme: %s", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Events returns the ordered event stream. It is closed when the run
// finishes, the channel errors, or the subscription is closed.
func (lr *LiveRun) Events() <-chan pipeline.Event {
	return lr.events
}

// RunID returns the service-assigned run identifier, or "" if no run_start
// event has arrived yet.
func (lr *LiveRun) RunID() string {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.runID
}

// Result returns the terminal run result translated from the done event, or
// nil if the stream ended without one.
func (lr *LiveRun) Result() *pipeline.RunResult {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.result
}

// Err returns the terminal error: an explicit error event, a malformed
// payload, or a transport failure. It is nil after a normal done or an
// operator-initiated Close.
func (lr *LiveRun) Err() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.err
}

// Close tears the channel down. It may be called multiple times and after
// the stream has already terminated; no further events are delivered.
func (lr *LiveRun) Close() {
	lr.closeOnce.Do(func() {
		close(lr.closed)
		_ = lr.conn.Close()
	})
}

func (lr *LiveRun) isClosed() bool {
	select {
	case <-lr.closed:
		return true
	default:
		return false
	}
}

func (lr *LiveRun) setErr(err error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.err == nil {
		lr.err = err
	}
}

// readLoop decodes inbound frames and fans them into the event channel. It
// owns the events channel and is the only writer to it.
func (lr *LiveRun) readLoop(logger *slog.Logger) {
	defer close(lr.events)
	defer lr.conn.Close()

	for {
		_, data, err := lr.conn.ReadMessage()
		if err != nil {
			// A read error after an operator Close is expected teardown, not
			// a channel failure.
			if !lr.isClosed() {
				lr.setErr(fmt.Errorf("live channel closed: %w", err))
			}
			return
		}

		ev, err := pipeline.ParseEvent(data)
		if err != nil {
			logger.Warn("dropping malformed live event", "error", err)
			lr.setErr(err)
			return
		}
		ev.Time = time.Now()

		switch ev.Type {
		case pipeline.EventRunStart:
			lr.mu.Lock()
			if lr.runID == "" {
				lr.runID = ev.RunID
			}
			lr.mu.Unlock()
		case pipeline.EventError:
			lr.setErr(errors.New(ev.Message))
		case pipeline.EventDone:
			lr.mu.Lock()
			lr.result = translateDone(lr.runID, ev)
			lr.mu.Unlock()
		}

		select {
		case lr.events <- ev:
		case <-lr.closed:
			return
		}

		// done and error are terminal: deliver the event itself, then stop.
		if ev.Type == pipeline.EventDone || ev.Type == pipeline.EventError {
			return
		}
	}
}

// translateDone maps a done event into the same result shape the polling
// path produces, so downstream consumers stay agnostic of the transport mode.
func translateDone(runID string, ev pipeline.Event) *pipeline.RunResult {
	status := pipeline.RunStatusCompleted
	if !ev.Success {
		status = pipeline.RunStatusFailed
	}
	return &pipeline.RunResult{
		RunID:   runID,
		Status:  status,
		Success: ev.Success,
		Context: ev.Context,
		Results: ev.Results,
	}
}
