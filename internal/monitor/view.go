// Package monitor reconciles the two signal sources about a running pipeline
// (the live event stream and the snapshot polling loop) into one consistent
// derived view: per-stage status, overall progress, and an ordered log
// transcript.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// StageStatus is the derived status of one stage within a run. Transitions
// are forward-only; only a new run resets a stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageDetail is the per-stage derived state.
type StageDetail struct {
	Stage    pipeline.Stage
	Name     string
	Status   StageStatus
	Progress int // percentage in [0,100]
	Error    string
}

// LogLine is one entry of the append-only run transcript.
type LogLine struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
}

func (l LogLine) String() string {
	return fmt.Sprintf("[%s] %-5s %s: %s", l.Time.Format("15:04:05"), l.Level, l.Logger, l.Message)
}

// View is the reconciled aggregate the presentation layer renders, regardless
// of which signal source produced it.
type View struct {
	Stages    []StageDetail
	Overall   int
	Log       []LogLine
	Connected bool
}

// newPendingDetails initializes every stage of the order to pending/0.
func newPendingDetails(order []pipeline.Stage) []StageDetail {
	details := make([]StageDetail, len(order))
	for i, s := range order {
		details[i] = StageDetail{Stage: s, Name: s.DisplayName(), Status: StagePending}
	}
	return details
}

// findDetail locates a stage in the detail list by identity. A stage absent
// from the current order returns nil; the caller logs it but changes no
// state.
func findDetail(details []StageDetail, s pipeline.Stage) *StageDetail {
	for i := range details {
		if details[i].Stage == s {
			return &details[i]
		}
	}
	return nil
}

// joinStages renders a stage order for transcript lines.
func joinStages(order []pipeline.Stage) string {
	names := make([]string, len(order))
	for i, s := range order {
		names[i] = string(s)
	}
	return strings.Join(names, " -> ")
}
