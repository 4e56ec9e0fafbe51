package pipeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType tags a lifecycle event received over the live channel.
type EventType string

const (
	EventRunStart      EventType = "run_start"
	EventPipelineStart EventType = "pipeline_start"
	EventStageStart    EventType = "stage_start"
	EventStageEnd      EventType = "stage_end"
	EventLog           EventType = "log"
	EventDone          EventType = "done"
	EventError         EventType = "error"
)

// Event is one lifecycle notification emitted by the pipeline service during
// a live-monitored run. Only the fields relevant to the tagged type are set.
// Delivery order within one channel is authoritative and must be preserved.
type Event struct {
	Type EventType `json:"type"`

	// run_start
	RunID string `json:"run_id,omitempty"`

	// pipeline_start
	Stages []Stage `json:"stages,omitempty"`

	// stage_start / stage_end
	Stage    Stage          `json:"stage,omitempty"`
	Success  bool           `json:"success,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// log
	Level   string `json:"level,omitempty"`
	Logger  string `json:"logger,omitempty"`
	Message string `json:"message,omitempty"`

	// done
	Context map[string]any `json:"context,omitempty"`
	Results []StageResult  `json:"results,omitempty"`

	// Time is stamped client-side on receipt; it is not part of the wire
	// payload.
	Time time.Time `json:"-"`
}

// ParseEvent decodes one live-channel payload. A payload whose type is
// missing or outside the closed event set is malformed.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("malformed event payload: %w", err)
	}
	switch ev.Type {
	case EventRunStart, EventPipelineStart, EventStageStart, EventStageEnd,
		EventLog, EventDone, EventError:
		return ev, nil
	case "":
		return Event{}, fmt.Errorf("event payload missing type")
	}
	return Event{}, fmt.Errorf("unknown event type: %s", ev.Type)
}
