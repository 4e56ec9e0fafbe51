package monitor

import (
	"fmt"
	"math"
	"time"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// Reduce folds a complete ordered lifecycle event log into a derived view.
// The fold is pure: it is replayed from the beginning on every recomputation,
// so the view is always reconstructible from the log and never accumulates
// drift from partial updates.
func Reduce(events []pipeline.Event) *View {
	v := &View{}
	completed := 0

	for _, ev := range events {
		switch ev.Type {
		case pipeline.EventRunStart:
			v.appendLog(ev.Time, "INFO", "run", fmt.Sprintf("run %s started", ev.RunID))

		case pipeline.EventPipelineStart:
			// The only source of truth for stage ordering once seen. Resets
			// every stage to pending, superseding any assumed order.
			v.Stages = newPendingDetails(ev.Stages)
			completed = 0
			v.appendLog(ev.Time, "INFO", "pipeline", "pipeline started: "+joinStages(ev.Stages))

		case pipeline.EventStageStart:
			if d := findDetail(v.Stages, ev.Stage); d != nil {
				d.Status = StageRunning
				d.Progress = 0
			}
			v.appendLog(ev.Time, "INFO", string(ev.Stage), "stage started")

		case pipeline.EventStageEnd:
			if d := findDetail(v.Stages, ev.Stage); d != nil {
				if ev.Success {
					d.Status = StageCompleted
					d.Progress = 100
					completed++
				} else {
					d.Status = StageFailed
					d.Progress = 0
					d.Error = ev.Error
				}
			}
			if ev.Success {
				v.appendLog(ev.Time, "INFO", string(ev.Stage), "stage completed")
			} else {
				msg := "stage failed"
				if ev.Error != "" {
					msg += ": " + ev.Error
				}
				v.appendLog(ev.Time, "ERROR", string(ev.Stage), msg)
			}

		case pipeline.EventLog:
			v.appendLog(ev.Time, ev.Level, ev.Logger, ev.Message)

		case pipeline.EventDone:
			if ev.Success {
				v.appendLog(ev.Time, "INFO", "run", "run completed successfully")
			} else {
				v.appendLog(ev.Time, "ERROR", "run", "run failed")
			}

		case pipeline.EventError:
			v.appendLog(ev.Time, "ERROR", "run", ev.Message)
		}
	}

	v.Overall = overallProgress(completed, len(v.Stages))

	// A trailing successful done forces 100 so the terminal success state
	// never displays as less than complete, even when stage bookkeeping
	// lagged.
	if last := lastEvent(events); last != nil && last.Type == pipeline.EventDone && last.Success {
		v.Overall = 100
	}
	return v
}

func (v *View) appendLog(t time.Time, level, logger, message string) {
	v.Log = append(v.Log, LogLine{Time: t, Level: level, Logger: logger, Message: message})
}

func overallProgress(completed, stageCount int) int {
	return int(math.Round(100 * float64(completed) / float64(max(stageCount, 1))))
}

func lastEvent(events []pipeline.Event) *pipeline.Event {
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}
