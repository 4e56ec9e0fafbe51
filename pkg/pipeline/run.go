package pipeline

// RunStatus is the service-reported status of a run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// RunResponse is the body returned by a request/response run submission.
type RunResponse struct {
	RunID   string    `json:"run_id"`
	Status  RunStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

// StageResult is one entry of a run snapshot's per-stage result list,
// positionally aligned with the run's stage order.
type StageResult struct {
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunResult is a point-in-time snapshot of a run, fetched on demand over the
// request/response channel. The live channel's done event is translated into
// the same shape so downstream consumers stay transport-agnostic.
type RunResult struct {
	RunID        string         `json:"run_id"`
	Status       RunStatus      `json:"status"`
	Success      bool           `json:"success"`
	Context      map[string]any `json:"context,omitempty"`
	Results      []StageResult  `json:"results,omitempty"`
	Error        string         `json:"error,omitempty"`
	Stages       []Stage        `json:"stages,omitempty"`
	CurrentStage Stage          `json:"current_stage,omitempty"`
}

// RunHandle identifies one in-flight or completed run. The identifier is
// assigned by the service and unknown until the first lifecycle event or
// response arrives; the handle is never mutated after that point.
type RunHandle struct {
	ID     string
	Config *Config
}
