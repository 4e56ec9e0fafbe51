// Package output renders reconciled run views, snapshots, and transcript
// lines in either human-readable text or machine-readable JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/monitor"
	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// Mode selects the rendering format.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Renderer writes run output to a pair of streams.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewRenderer creates a renderer. ModeAuto falls back to text.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == ModeAuto || mode == "" {
		mode = ModeText
	}
	return &Renderer{out: out, errOut: errOut, mode: mode}
}

// JSON reports whether the renderer emits machine-readable output.
func (r *Renderer) JSON() bool {
	return r.mode == ModeJSON
}

// LogLine streams one transcript entry as it arrives.
func (r *Renderer) LogLine(l monitor.LogLine) {
	if r.mode == ModeJSON {
		data, _ := json.Marshal(map[string]any{
			"time":    l.Time,
			"level":   l.Level,
			"logger":  l.Logger,
			"message": l.Message,
		})
		fmt.Fprintln(r.out, string(data))
		return
	}
	fmt.Fprintln(r.out, l.String())
}

// RunResult renders the terminal reconciled view together with the full run
// result.
func (r *Renderer) RunResult(v *monitor.View, res *pipeline.RunResult) error {
	if r.mode == ModeJSON {
		return r.writeJSON(map[string]any{
			"result": res,
			"stages": v.Stages,
			"overall": v.Overall,
		})
	}

	fmt.Fprintln(r.out)
	if res != nil && res.Success {
		fmt.Fprintln(r.out, successStyle.Render("Run succeeded"))
	} else {
		fmt.Fprintln(r.out, failureStyle.Render("Run failed"))
		if res != nil && res.Error != "" {
			fmt.Fprintf(r.out, "Error: %s\n", res.Error)
		}
	}
	if res != nil && res.RunID != "" {
		fmt.Fprintf(r.out, "Run ID: %s\n", res.RunID)
	}
	fmt.Fprintf(r.out, "Overall progress: %d%%\n\n", v.Overall)

	r.stageTable(v.Stages)
	r.outputPaths(res)
	return nil
}

// Snapshot renders a point-in-time run status.
func (r *Renderer) Snapshot(res *pipeline.RunResult) error {
	if r.mode == ModeJSON {
		return r.writeJSON(res)
	}
	fmt.Fprintf(r.out, "Run %s: %s\n", res.RunID, res.Status)
	if res.CurrentStage != "" {
		fmt.Fprintf(r.out, "Current stage: %s\n", res.CurrentStage.DisplayName())
	}
	if len(res.Stages) > 0 {
		details := make([]monitor.StageDetail, len(res.Stages))
		for i, s := range res.Stages {
			details[i] = monitor.StageDetail{Stage: s, Name: s.DisplayName(), Status: monitor.StagePending}
			if i < len(res.Results) {
				if res.Results[i].Success {
					details[i].Status = monitor.StageCompleted
					details[i].Progress = 100
				} else if res.Status.Terminal() {
					details[i].Status = monitor.StageFailed
					details[i].Error = res.Results[i].Error
				}
			}
		}
		r.stageTable(details)
	}
	if res.Error != "" {
		fmt.Fprintf(r.out, "Error: %s\n", res.Error)
	}
	return nil
}

// NoResult renders the explicit "no run yet" state, distinct from an empty
// or error state.
func (r *Renderer) NoResult() {
	if r.mode == ModeJSON {
		_ = r.writeJSON(map[string]any{"result": nil})
		return
	}
	fmt.Fprintln(r.out, pendingStyle.Render("No run results yet."))
}

// Errorf surfaces an inline, non-fatal failure message.
func (r *Renderer) Errorf(format string, args ...any) {
	if r.mode == ModeJSON {
		data, _ := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
		fmt.Fprintln(r.errOut, string(data))
		return
	}
	fmt.Fprintln(r.errOut, failureStyle.Render("Error: ")+fmt.Sprintf(format, args...))
}

// Infof writes an informational line in text mode; JSON mode stays quiet.
func (r *Renderer) Infof(format string, args ...any) {
	if r.mode == ModeJSON {
		return
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) stageTable(details []monitor.StageDetail) {
	if len(details) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "Status", "Progress", "Error"})
	for _, d := range details {
		t.AppendRow(table.Row{d.Name, styleStatus(d.Status), fmt.Sprintf("%d%%", d.Progress), d.Error})
	}
	t.Render()
}

func (r *Renderer) outputPaths(res *pipeline.RunResult) {
	if res == nil {
		return
	}
	var paths []string
	for _, sr := range res.Results {
		if p, ok := sr.Metadata["output_path"].(string); ok && p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return
	}
	fmt.Fprintln(r.out, "\nOutput paths:")
	for _, p := range paths {
		fmt.Fprintf(r.out, "  %s\n", p)
	}
}

func styleStatus(s monitor.StageStatus) string {
	switch s {
	case monitor.StageCompleted:
		return successStyle.Render(string(s))
	case monitor.StageFailed:
		return failureStyle.Render(string(s))
	case monitor.StageRunning:
		return runningStyle.Render(string(s))
	}
	return pendingStyle.Render(string(s))
}
