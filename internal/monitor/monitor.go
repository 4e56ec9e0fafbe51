package monitor

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// Monitor owns the derived state of exactly one run. It operates in one of
// two mutually exclusive modes: the instant at least one live event has been
// recorded the run is live-reduced; otherwise the view is built from snapshot
// polls. The two are never blended within one run, so a stale poll can never
// overwrite newer live-derived state or vice versa.
type Monitor struct {
	logger *slog.Logger

	mu        sync.Mutex
	runID     string
	order     []pipeline.Stage
	connected bool

	// Mode A: the full live event log, re-folded on every read.
	events []pipeline.Event

	// Mode B: snapshot-derived state.
	pollStages  []StageDetail
	pollOverall int
	pollLog     []LogLine
	lastSummary string
}

// New creates a Monitor with no active run.
func New(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{logger: logger}
}

// Reset discards all derived state and starts tracking a new run. Every
// stage of the order returns to pending and the transcript is cleared. Any
// poller driving this monitor must be stopped by the caller at the same
// point.
func (m *Monitor) Reset(runID string, order []pipeline.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = runID
	m.order = slices.Clone(order)
	m.connected = false
	m.events = nil
	m.pollStages = newPendingDetails(order)
	m.pollOverall = 0
	m.pollLog = nil
	m.lastSummary = ""
}

// RunID returns the identifier of the tracked run.
func (m *Monitor) RunID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runID
}

// SetRunID records the service-assigned identifier once it becomes known.
func (m *Monitor) SetRunID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runID == "" {
		m.runID = id
	}
}

// SetConnected updates the live-channel connectivity indicator.
func (m *Monitor) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

// Append records one live event. Recording any live event switches the run
// into live mode.
func (m *Monitor) Append(ev pipeline.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if ev.Type == pipeline.EventRunStart && m.runID == "" {
		m.runID = ev.RunID
	}
	if ev.Type == pipeline.EventPipelineStart {
		m.order = slices.Clone(ev.Stages)
	}
	m.events = append(m.events, ev)
}

// LiveActive reports whether any live events have been recorded for the run.
func (m *Monitor) LiveActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events) > 0
}

// StageOrder returns the currently known stage order.
func (m *Monitor) StageOrder() []pipeline.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// View derives the current reconciled view from whichever mode is active.
func (m *Monitor) View() *View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.events) > 0 {
		v := Reduce(m.events)
		v.Connected = m.connected
		return v
	}
	return &View{
		Stages:  slices.Clone(m.pollStages),
		Overall: m.pollOverall,
		Log:     slices.Clone(m.pollLog),
	}
}

// RecordPoll folds one status snapshot into the poll-mode state and reports
// whether the run reached a terminal status. Consecutive polls that produce
// the same phase summary append only one transcript line.
func (m *Monitor) RecordPoll(res *pipeline.RunResult) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := phaseSummary(res)
	if summary != m.lastSummary {
		m.appendPollLine("INFO", summary)
		m.lastSummary = summary
	}

	if !res.Status.Terminal() {
		return false
	}

	// Terminal snapshot: rebuild the full stage detail list from the
	// per-stage result list, 1:1 by position with the known order.
	m.pollStages = newPendingDetails(m.order)
	succeeded := 0
	for i := range m.pollStages {
		if i >= len(res.Results) {
			break
		}
		r := res.Results[i]
		if r.Success {
			m.pollStages[i].Status = StageCompleted
			m.pollStages[i].Progress = 100
			succeeded++
		} else {
			m.pollStages[i].Status = StageFailed
			m.pollStages[i].Progress = 0
			m.pollStages[i].Error = r.Error
		}
	}

	if res.Status == pipeline.RunStatusCompleted {
		m.pollOverall = 100
		m.appendPollLine("INFO", "run completed successfully")
	} else {
		m.pollOverall = overallProgress(succeeded, len(m.pollStages))
		msg := "run failed"
		if res.Error != "" {
			msg += ": " + res.Error
		}
		m.appendPollLine("ERROR", msg)
	}
	return true
}

// RecordPollError logs a failed poll. A single flaky poll must not abort
// monitoring, so this never changes stage state.
func (m *Monitor) RecordPollError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Warn("poll failed", "run_id", m.runID, "error", err)
	m.appendPollLine("ERROR", fmt.Sprintf("poll failed: %v", err))
}

func (m *Monitor) appendPollLine(level, message string) {
	m.pollLog = append(m.pollLog, LogLine{Time: time.Now(), Level: level, Logger: "poll", Message: message})
}

// phaseSummary renders a human-readable phase description from a snapshot.
func phaseSummary(res *pipeline.RunResult) string {
	switch res.Status {
	case pipeline.RunStatusRunning:
		if res.CurrentStage != "" {
			return fmt.Sprintf("Phase: Running - %s (%s)", res.CurrentStage.DisplayName(), joinStages(res.Stages))
		}
		return "Phase: Running"
	case pipeline.RunStatusCompleted:
		return "Phase: Completed"
	case pipeline.RunStatusFailed:
		return "Phase: Failed"
	}
	return "Phase: " + string(res.Status)
}
