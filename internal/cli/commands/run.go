package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/client"
	"github.com/nimeshaperi/Autodistil-KG-client/internal/monitor"
	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	File     string
	Stages   string
	Poll     bool
	Download bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a pipeline run and monitor it to completion",
		Long: `Submit a pipeline run and monitor it until it finishes.

By default the run is monitored live over a persistent channel. With --poll
the run is submitted asynchronously and monitored by polling status
snapshots instead.`,
		Example: `  # Run the default pipeline live
  adkg run

  # Run from a config file with specific stages
  adkg run --file pipeline.yaml --stages graph_traverser,chatml_converter

  # Submit and monitor by polling, then fetch artifacts
  adkg run --poll --download`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Pipeline config file (YAML)")
	cmd.Flags().StringVarP(&opts.Stages, "stages", "s", "", "Comma-separated stage selection")
	cmd.Flags().BoolVar(&opts.Poll, "poll", false, "Monitor by polling instead of the live channel")
	cmd.Flags().BoolVar(&opts.Download, "download", false, "Fetch artifacts after a successful run")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	pcfg, err := buildPipelineConfig(opts)
	if err != nil {
		return err
	}

	c := newClient(cmd)
	mon := monitor.New(getLogger(cmd.Context()))

	var res *pipeline.RunResult
	if opts.Poll {
		res, err = runPolled(cmd, c, mon, pcfg)
	} else {
		res, err = runLive(cmd, c, mon, pcfg)
	}
	if err != nil {
		return err
	}

	renderer := getRenderer(cmd.Context())
	if res == nil {
		renderer.NoResult()
		return nil
	}
	if err := renderer.RunResult(mon.View(), res); err != nil {
		return err
	}

	if opts.Download && res.Success {
		downloadArtifacts(cmd, c, res.RunID)
	}
	if !res.Success {
		return fmt.Errorf("run %s failed", res.RunID)
	}
	return nil
}

// buildPipelineConfig assembles the run specification from a config file
// and/or an explicit stage selection, normalized to canonical order.
func buildPipelineConfig(opts *RunOptions) (*pipeline.Config, error) {
	var cfg *pipeline.Config
	if opts.File != "" {
		loaded, err := pipeline.LoadConfigFile(opts.File)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = pipeline.DefaultConfig()
	}

	if opts.Stages != "" {
		cfg.Stages = nil
		for _, name := range strings.Split(opts.Stages, ",") {
			cfg.ToggleStage(pipeline.Stage(strings.TrimSpace(name)))
		}
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return cfg, nil
}

// runLive monitors the run over the persistent channel, feeding every event
// into the monitor in delivery order.
func runLive(cmd *cobra.Command, c *client.Client, mon *monitor.Monitor, pcfg *pipeline.Config) (*pipeline.RunResult, error) {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	lr, err := c.OpenLiveRun(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	mon.Reset("", pcfg.Stages)
	mon.SetConnected(true)
	renderer := getRenderer(cmd.Context())

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer cancel()
		seen := 0
		for ev := range lr.Events() {
			mon.Append(ev)
			// Stream only the transcript lines this event added.
			v := mon.View()
			for _, l := range v.Log[seen:] {
				renderer.LogLine(l)
			}
			seen = len(v.Log)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		lr.Close()
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	mon.SetConnected(false)

	if err := lr.Err(); err != nil {
		return nil, fmt.Errorf("live run failed: %w", err)
	}
	return lr.Result(), nil
}

// runPolled submits the run asynchronously and monitors it with status
// snapshots. A response without a run identifier is a failure even when the
// transport call itself succeeded.
func runPolled(cmd *cobra.Command, c *client.Client, mon *monitor.Monitor, pcfg *pipeline.Config) (*pipeline.RunResult, error) {
	resp, err := c.SubmitRun(cmd.Context(), pcfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to submit run: %w", err)
	}
	if resp.RunID == "" {
		msg := resp.Message
		if msg == "" {
			msg = "service did not return a run identifier"
		}
		return nil, fmt.Errorf("run was not started: %s", msg)
	}

	getRenderer(cmd.Context()).Infof("Run %s submitted, polling for status...", resp.RunID)
	mon.Reset(resp.RunID, pcfg.Stages)

	poller, err := monitor.NewPoller(monitor.PollerConfig{
		Client:  c,
		Monitor: mon,
		RunID:   resp.RunID,
	})
	if err != nil {
		return nil, err
	}
	defer poller.Stop()

	return poller.Run(cmd.Context())
}

// downloadArtifacts fetches every known artifact kind; a failed fetch is
// surfaced inline and does not affect the rest of the output.
func downloadArtifacts(cmd *cobra.Command, c *client.Client, runID string) {
	renderer := getRenderer(cmd.Context())
	dir := getConfig(cmd.Context()).ArtifactDir
	for _, key := range client.ArtifactKeys() {
		a, err := c.FetchArtifact(cmd.Context(), runID, key)
		if err != nil {
			renderer.Errorf("failed to fetch artifact %s: %v", key, err)
			continue
		}
		path, err := client.SaveArtifact(a, dir)
		if err != nil {
			renderer.Errorf("failed to save artifact %s: %v", key, err)
			continue
		}
		renderer.Infof("Saved artifact %s to %s", key, path)
	}
}
