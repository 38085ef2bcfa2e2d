// Package healthcheck runs one independent worker goroutine per health
// check: a jittered initial delay, then a steady Interval cadence, each
// tick probing with its own Timeout via a nested goroutine so a hung
// probe cannot stall the ticker.
package healthcheck

import (
	"context"
	"math/rand"
	"time"

	"github.com/kodflow/daemon/internal/domain/health"
)

// Probe is satisfied by infrastructure/healthcheck's concrete checkers.
type Probe interface {
	Check(ctx context.Context) (ok bool, message string)
}

// Worker runs spec's probe on a loop and reports failures on Events.
// Successful probes are not reported: only transitions into, or repeats
// of, a failing state are signal the scheduler needs.
type Worker struct {
	Group  health.Group
	Spec   health.Spec
	Probe  Probe
	Events chan<- health.Result

	// rand is isolated per worker so jitter doesn't contend on a shared
	// source across many concurrent workers.
	rand *rand.Rand
}

// New creates a Worker. events must be buffered or drained promptly by
// the scheduler; Worker never drops a failure silently, so a full
// channel blocks the worker's own probing cadence.
func New(group health.Group, spec health.Spec, probe Probe, events chan<- health.Result) *Worker {
	return &Worker{
		Group:  group,
		Spec:   spec,
		Probe:  probe,
		Events: events,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(len(spec.Name)))),
	}
}

// Run blocks until ctx is cancelled, probing on Spec's cadence.
func (w *Worker) Run(ctx context.Context) {
	if w.Spec.InitialDelayJitter > 0 {
		delay := time.Duration(w.rand.Int63n(int64(w.Spec.InitialDelayJitter)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}

	ticker := time.NewTicker(w.Spec.Interval)
	defer ticker.Stop()

	for {
		w.probeOnce(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// probeOnce runs a single timeout-bounded probe attempt in a nested
// goroutine so a probe that never returns (a wedged dial, a stuck
// syscall) cannot stall this worker's ticker cadence; the result is
// discarded if it arrives after the timeout fires.
func (w *Worker) probeOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, w.Spec.Timeout)
	defer cancel()

	result := make(chan health.Result, 1)
	go func() {
		ok, msg := w.Probe.Check(ctx)
		result <- health.Result{Group: w.Group, Name: w.Spec.Name, OK: ok, Message: msg}
	}()

	select {
	case r := <-result:
		if !r.OK {
			w.publish(r)
		}
	case <-ctx.Done():
		w.publish(health.Result{Group: w.Group, Name: w.Spec.Name, OK: false, Message: "probe timed out"})
	}
}

func (w *Worker) publish(r health.Result) {
	// Blocks if the scheduler is behind, rather than dropping: a dropped
	// failure is indistinguishable from a healthy app.
	w.Events <- r
}
