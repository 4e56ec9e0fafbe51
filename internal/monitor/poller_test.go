package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimeshaperi/Autodistil-KG-client/internal/testutil"
	"github.com/nimeshaperi/Autodistil-KG-client/pkg/pipeline"
)

// fakeStatusClient serves a scripted sequence of snapshots and errors,
// repeating the last entry once exhausted.
type fakeStatusClient struct {
	mu      sync.Mutex
	i       int
	results []*pipeline.RunResult
	errs    []error
	calls   int
}

func (f *fakeStatusClient) PollRunStatus(_ context.Context, _ string) (*pipeline.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	idx := f.i
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	} else {
		f.i++
	}
	return f.results[idx], f.errs[idx]
}

func (f *fakeStatusClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestPoller(t *testing.T, fake *fakeStatusClient) (*Poller, *Monitor) {
	t.Helper()
	m := New(testutil.NewTestLogger(t))
	m.Reset("r1", twoStages)
	p, err := NewPoller(PollerConfig{
		Client:   fake,
		Monitor:  m,
		RunID:    "r1",
		Interval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return p, m
}

func TestNewPoller_Preconditions(t *testing.T) {
	m := New(testutil.NewTestLogger(t))
	fake := &fakeStatusClient{results: []*pipeline.RunResult{nil}, errs: []error{nil}}

	_, err := NewPoller(PollerConfig{Client: fake, Monitor: m, RunID: ""})
	assert.ErrorContains(t, err, "run identifier")

	m.Reset("r1", nil)
	_, err = NewPoller(PollerConfig{Client: fake, Monitor: m, RunID: "r1"})
	assert.ErrorContains(t, err, "stage order")

	m.Reset("r1", twoStages)
	p, err := NewPoller(PollerConfig{Client: fake, Monitor: m, RunID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, PollInterval, p.interval, "interval defaults when unset")
}

func TestPoller_RunsUntilTerminal(t *testing.T) {
	running := &pipeline.RunResult{RunID: "r1", Status: pipeline.RunStatusRunning, Stages: twoStages}
	final := &pipeline.RunResult{
		RunID: "r1", Status: pipeline.RunStatusCompleted, Success: true,
		Stages:  twoStages,
		Results: []pipeline.StageResult{{Success: true}, {Success: true}},
	}
	fake := &fakeStatusClient{
		results: []*pipeline.RunResult{running, running, final},
		errs:    []error{nil, nil, nil},
	}
	p, m := newTestPoller(t, fake)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, pipeline.RunStatusCompleted, res.Status)
	assert.Equal(t, 100, m.View().Overall)
	assert.Equal(t, 3, fake.callCount())
}

func TestPoller_TransportFailureKeepsPolling(t *testing.T) {
	final := &pipeline.RunResult{
		RunID: "r1", Status: pipeline.RunStatusFailed,
		Stages:  twoStages,
		Results: []pipeline.StageResult{{Success: true}, {Success: false, Error: "boom"}},
	}
	fake := &fakeStatusClient{
		results: []*pipeline.RunResult{nil, final},
		errs:    []error{assert.AnError, nil},
	}
	p, m := newTestPoller(t, fake)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, pipeline.RunStatusFailed, res.Status)

	// The flaky poll was logged, not fatal.
	found := false
	for _, l := range m.View().Log {
		if l.Level == "ERROR" && l.Logger == "poll" {
			found = true
			break
		}
	}
	assert.True(t, found, "poll failure should be in the transcript")
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	running := &pipeline.RunResult{RunID: "r1", Status: pipeline.RunStatusRunning, Stages: twoStages}
	fake := &fakeStatusClient{results: []*pipeline.RunResult{running}, errs: []error{nil}}
	p, _ := newTestPoller(t, fake)

	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := p.Run(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, res)
	}()

	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Stop() // double-stop must be safe

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	// Stop after natural teardown is also safe.
	p.Stop()
}

func TestPoller_ContextCancel(t *testing.T) {
	running := &pipeline.RunResult{RunID: "r1", Status: pipeline.RunStatusRunning, Stages: twoStages}
	fake := &fakeStatusClient{results: []*pipeline.RunResult{running}, errs: []error{nil}}
	p, _ := newTestPoller(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
