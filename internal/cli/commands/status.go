package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/monitor"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the status of a run",
		Long: `Fetch a point-in-time status snapshot of a run.

With --follow, keeps polling until the run reaches a terminal status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, args[0], follow)
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Poll until the run finishes")
	return cmd
}

func runStatus(cmd *cobra.Command, runID string, follow bool) error {
	c := newClient(cmd)
	renderer := getRenderer(cmd.Context())

	res, err := c.PollRunStatus(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to fetch run status: %w", err)
	}

	if !follow || res.Status.Terminal() {
		return renderer.Snapshot(res)
	}

	// The stage order comes from the first snapshot; polling cannot start
	// without it.
	if len(res.Stages) == 0 {
		return fmt.Errorf("run %s reports no stage order yet, retry shortly", runID)
	}

	mon := monitor.New(getLogger(cmd.Context()))
	mon.Reset(runID, res.Stages)
	mon.RecordPoll(res)

	poller, err := monitor.NewPoller(monitor.PollerConfig{
		Client:  c,
		Monitor: mon,
		RunID:   runID,
	})
	if err != nil {
		return err
	}
	defer poller.Stop()

	final, err := poller.Run(cmd.Context())
	if err != nil {
		return err
	}
	if final == nil {
		renderer.NoResult()
		return nil
	}
	return renderer.RunResult(mon.View(), final)
}
