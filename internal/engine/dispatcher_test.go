package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/daryltucker/variant-runner/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive loops of the shared transport used by httptest clients
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func makeJobs(models, prompts, tasks []string) []Job {
	var jobs []Job
	for _, m := range models {
		for _, p := range prompts {
			for _, t := range tasks {
				jobs = append(jobs, Job{
					Unit:       model.ExperimentUnit{Model: m, Prompt: p, Task: t},
					PromptText: "prompt " + p,
					TaskText:   "task " + t,
				})
			}
		}
	}
	return jobs
}

// countingRunner tracks peak concurrency.
type countingRunner struct {
	delay   time.Duration
	active  atomic.Int64
	peak    atomic.Int64
	calls   atomic.Int64
	failFor func(model.ExperimentUnit) bool
}

func (c *countingRunner) Run(_ context.Context, unit model.ExperimentUnit, _, _ string) model.Outcome {
	c.calls.Add(1)
	n := c.active.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(c.delay)
	c.active.Add(-1)

	if c.failFor != nil && c.failFor(unit) {
		return model.Outcome{Unit: unit, Failure: &model.GenerationCallError{Unit: unit, Err: fmt.Errorf("boom %s", unit.Prompt)}}
	}
	return model.Outcome{Unit: unit, Generation: &model.Generation{Text: "ok", InputTokens: 1, OutputTokens: 2}}
}

func TestDispatch_OneRecordPerUnit(t *testing.T) {
	jobs := makeJobs([]string{"haiku"}, []string{"p1", "p2", "p3", "p4"}, []string{"t1", "t2", "t3"})

	for _, workers := range []int{1, 2, 5, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			runner := &countingRunner{delay: 2 * time.Millisecond}
			var progress bytes.Buffer
			d := NewDispatcher(runner, workers, &progress, 50)

			records := d.Dispatch(context.Background(), jobs)

			require.Len(t, records, len(jobs))
			assert.Equal(t, int64(len(jobs)), runner.calls.Load())
			assert.LessOrEqual(t, runner.peak.Load(), int64(workers))

			seen := make(map[model.ExperimentUnit]int)
			for _, r := range records {
				seen[r.Unit()]++
			}
			for _, j := range jobs {
				assert.Equal(t, 1, seen[j.Unit], "unit %v", j.Unit)
			}

			lines := strings.Split(strings.TrimRight(progress.String(), "\n"), "\n")
			assert.Len(t, lines, len(jobs), "one progress line per unit")
		})
	}
}

func TestDispatch_IsABarrier(t *testing.T) {
	runner := &countingRunner{delay: 5 * time.Millisecond}
	d := NewDispatcher(runner, 3, nil, 50)

	jobs := makeJobs([]string{"haiku"}, []string{"p1", "p2", "p3", "p4", "p5"}, []string{"t1", "t2"})
	records := d.Dispatch(context.Background(), jobs)

	assert.Len(t, records, len(jobs))
	assert.Zero(t, runner.active.Load(), "no unit still running after Dispatch returns")
}

func TestDispatch_FailureIsolation(t *testing.T) {
	runner := &countingRunner{failFor: func(u model.ExperimentUnit) bool { return u.Prompt == "p2" && u.Task == "t1" }}
	var progress bytes.Buffer
	d := NewDispatcher(runner, 4, &progress, 50)

	jobs := makeJobs([]string{"haiku"}, []string{"p1", "p2", "p3"}, []string{"t1", "t2"})
	records := d.Dispatch(context.Background(), jobs)
	require.Len(t, records, len(jobs))

	var failures []model.ResultRecord
	for _, r := range records {
		if r.Failed() {
			failures = append(failures, r)
			continue
		}
		assert.Equal(t, "ok", r.ResponseText())
		assert.Nil(t, r.Error)
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "p2", failures[0].Prompt)
	assert.Equal(t, "boom p2", failures[0].ErrorText())
	assert.Nil(t, failures[0].Response)

	assert.Contains(t, progress.String(), "ERR: boom p2")
	assert.Equal(t, len(jobs)-1, strings.Count(progress.String(), "OK"))
}

func TestDispatch_Empty(t *testing.T) {
	d := NewDispatcher(&countingRunner{}, 5, nil, 50)
	records := d.Dispatch(context.Background(), nil)
	assert.Empty(t, records)
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	assert.Equal(t, DefaultWorkers, NewDispatcher(&countingRunner{}, 0, nil, 50).Workers())
	assert.Equal(t, DefaultWorkers, NewDispatcher(&countingRunner{}, -3, nil, 50).Workers())
	assert.Equal(t, 7, NewDispatcher(&countingRunner{}, 7, nil, 50).Workers())
}

func TestDispatch_WithAdapterAndMetrics(t *testing.T) {
	gen := failingOn("t2")
	adapter := NewAdapter(stubGenerators(gen, "haiku"), 256)

	reg := prometheus.NewRegistry()
	d := NewDispatcher(adapter, 2, nil, 50).WithMetrics(NewMetrics(reg))

	jobs := makeJobs([]string{"haiku"}, []string{"p1", "p2"}, []string{"t1", "t2"})
	records := d.Dispatch(context.Background(), jobs)
	require.Len(t, records, 4)

	m := d.metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.units.WithLabelValues("haiku", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.units.WithLabelValues("haiku", "error")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.tokens.WithLabelValues("haiku", "input")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.tokens.WithLabelValues("haiku", "output")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestDispatch_ConcurrentProgressWrites(t *testing.T) {
	w := &lockedWriter{}
	d := NewDispatcher(&countingRunner{delay: time.Millisecond}, 8, w, 50)
	jobs := makeJobs([]string{"a", "b"}, []string{"p1", "p2", "p3"}, []string{"t1", "t2", "t3"})

	d.Dispatch(context.Background(), jobs)
	assert.Equal(t, len(jobs), w.writes)
}

type lockedWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	writes int
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes++
	return l.buf.Write(p)
}
