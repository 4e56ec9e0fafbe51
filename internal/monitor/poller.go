package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// PollInterval is the fixed spacing between status snapshots.
const PollInterval = 2 * time.Second

// StatusClient is the slice of the transport client the poller needs.
type StatusClient interface {
	PollRunStatus(ctx context.Context, runID string) (*pipeline.RunResult, error)
}

// PollerConfig configures a Poller. Interval defaults to PollInterval when
// zero; shorter values are only meant for tests.
type PollerConfig struct {
	Client   StatusClient
	Monitor  *Monitor
	RunID    string
	Interval time.Duration
}

// Poller drives Mode B monitoring: one status fetch per interval until the
// run reaches a terminal status. Transport failures are logged into the
// transcript and swallowed; the loop keeps going.
type Poller struct {
	client   StatusClient
	monitor  *Monitor
	runID    string
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPoller validates the preconditions for polling: a run identifier and a
// known stage order must both exist before the loop may start.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Client == nil || cfg.Monitor == nil {
		return nil, fmt.Errorf("poller requires a client and a monitor")
	}
	if cfg.RunID == "" {
		return nil, fmt.Errorf("polling requires a run identifier")
	}
	if len(cfg.Monitor.StageOrder()) == 0 {
		return nil, fmt.Errorf("polling requires a known stage order")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = PollInterval
	}
	return &Poller{
		client:   cfg.Client,
		monitor:  cfg.Monitor,
		runID:    cfg.RunID,
		interval: interval,
		stop:     make(chan struct{}),
	}, nil
}

// Run polls until a terminal status is observed, the context is cancelled,
// or Stop is called. It returns the full terminal snapshot on completion and
// nil when torn down before the run finished.
func (p *Poller) Run(ctx context.Context) (*pipeline.RunResult, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.stop:
			return nil, nil
		case <-ticker.C:
			res, err := p.client.PollRunStatus(ctx, p.runID)
			if err != nil {
				p.monitor.RecordPollError(err)
				continue
			}
			if terminal := p.monitor.RecordPoll(res); terminal {
				p.Stop()
				return res, nil
			}
		}
	}
}

// Stop cancels the polling loop. It is idempotent: component teardown and
// normal terminal-status arrival both call it, and only one clears the
// underlying timer.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}
