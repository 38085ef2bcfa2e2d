// Package scheduler implements the single-owner event loop that drives
// every supervised app through its state machine. Exactly one goroutine
// (Run) ever reads or writes a Record; every other goroutine (signal
// intake, the reaper, health-check workers, the stream handler)
// communicates with it only through the channels wired in New.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kodflow/daemon/internal/domain/app"
	"github.com/kodflow/daemon/internal/domain/health"
	"github.com/kodflow/daemon/internal/domain/timer"
)

// defaultStopTimeout is the grace period before SIGKILL when a Spec
// leaves StopTimeout unset, matching the config loader's own default.
const defaultStopTimeout = 5 * time.Second

// Sink is the minimal stream-sink contract the scheduler needs to wire a
// spawned process's stdout/stderr, without depending on the concrete
// application/stream types.
type Sink interface {
	Write(line string) error
}

// Executor is the subset of infrastructure/process/executor.Executor the
// scheduler depends on.
type Executor interface {
	StartSimple(ctx context.Context, spec app.Spec, env map[string]string) (pid int, wait <-chan app.ExitResult, stdoutFD, stderrFD int, err error)
	StartForking(ctx context.Context, spec app.Spec, env map[string]string) (pid int, stdoutFD, stderrFD int, err error)
	// RunStop spawns spec.StopCommand and returns its PID and exit channel,
	// for ModeForking/ModeOneShot apps that declare one instead of being
	// stopped by direct signal.
	RunStop(ctx context.Context, spec app.Spec, env map[string]string) (pid int, wait <-chan app.ExitResult, err error)
	Signal(pid int, sig os.Signal) error
}

// Reaped is one (pid, exit status) pair surfaced by the reaper for a
// child the scheduler doesn't already own a direct wait channel for
// (ModeForking grandchildren adopted via the subreaper).
type Reaped struct {
	PID    int
	Status int
}

// StreamRegistrar lets the scheduler hand a newly spawned process's
// stdout/stderr fds to the stream handler without depending on its
// concrete type.
type StreamRegistrar interface {
	Add(fd int, label string, sink Sink) error
	Remove(fd int)
}

// EnvResolver resolves a Spec's environment composition into the final
// key=value set passed to the executor.
type EnvResolver func(spec app.Spec) (map[string]string, error)

// SinkResolver resolves a Spec's configured stdout/stderr sink name to a
// concrete stream sink.
type SinkResolver func(sinkName string) (Sink, error)

// EventHandler observes scheduler transitions; used by the TUI and logs.
type EventHandler func(name string, from, to app.Phase)

// exitEvent unifies a terminated process's outcome, whatever observed it:
// the executor's own wait channel (ModeSimple/OneShot) or the reaper
// (ModeForking grandchildren, reparented via the subreaper).
type exitEvent struct {
	pid    int
	result app.ExitResult
}

// Config bundles the dependencies New needs, grouped to keep the
// constructor signature from growing unboundedly as wiring needs change.
type Config struct {
	Specs       []app.Spec
	Executor    Executor
	ResolveEnv  EnvResolver
	ResolveSink SinkResolver
	Streams     StreamRegistrar
	Reaped      <-chan Reaped
	Health      <-chan health.Result
}

// Scheduler owns the full set of supervised apps and drives them through
// their lifecycle: issue kills for apps past their stop deadline, issue
// stops for apps a failed health check or shutdown has targeted, issue
// starts for apps whose dependencies are satisfied, then wait for
// whichever happens first among a process exit, a health-check failure,
// or a timer, dispatch that event, and recheck global termination.
type Scheduler struct {
	graph   *app.Graph
	records []*app.Record

	executor    Executor
	resolveEnv  EnvResolver
	resolveSink SinkResolver
	streams     StreamRegistrar

	reapedIn <-chan Reaped
	healthIn <-chan health.Result
	exitCh   chan exitEvent

	timers *timer.Set

	// subscribers maps a health-check group name to the indices of every
	// app that lists it in Spec.HealthChecks; a group's failure cascades
	// to all of them, not just an app whose name happens to match.
	subscribers map[string][]int

	// needsStop and stopRestart implement the needs_stop flag from
	// spec.md §3/§4.2: an app marked here is stopped once every one of
	// its reverse-dependents has quiesced, not immediately — so shutdown
	// and cascade-stop both unwind leaf-first.
	needsStop   map[int]bool
	stopRestart map[int]bool

	onEvent EventHandler

	shuttingDown bool
	doneCh       chan struct{}

	mu sync.Mutex // guards Snapshot reads; the loop itself is single-owner
}

// New builds a Scheduler over the given app specs. Returns an error if
// the dependency graph is invalid (unknown dependency, cycle, duplicate
// name).
func New(cfg Config) (*Scheduler, error) {
	graph, err := app.NewGraph(cfg.Specs)
	if err != nil {
		return nil, fmt.Errorf("building dependency graph: %w", err)
	}
	records := make([]*app.Record, len(cfg.Specs))
	subscribers := make(map[string][]int)
	for i, sp := range cfg.Specs {
		records[i] = &app.Record{Spec: sp, State: app.Idle{}}
		for _, group := range sp.HealthChecks {
			subscribers[group] = append(subscribers[group], i)
		}
	}
	return &Scheduler{
		graph:       graph,
		records:     records,
		executor:    cfg.Executor,
		resolveEnv:  cfg.ResolveEnv,
		resolveSink: cfg.ResolveSink,
		streams:     cfg.Streams,
		reapedIn:    cfg.Reaped,
		healthIn:    cfg.Health,
		exitCh:      make(chan exitEvent, 16),
		timers:      timer.New(),
		subscribers: subscribers,
		needsStop:   make(map[int]bool),
		stopRestart: make(map[int]bool),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetEventHandler installs a callback invoked on every phase transition.
func (s *Scheduler) SetEventHandler(fn EventHandler) { s.onEvent = fn }

// Snapshot returns a point-in-time view of every app, safe to read from
// another goroutine (e.g. the TUI).
func (s *Scheduler) Snapshot() []app.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]app.Snapshot, len(s.records))
	for i, r := range s.records {
		out[i] = r.Snapshot()
	}
	return out
}

// Run drives the event loop until ctx is cancelled, at which point every
// running app is stopped in dependency-safe order before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.doneCh)

	stopForward := make(chan struct{})
	forwardDone := make(chan struct{})
	go s.forwardReaped(stopForward, forwardDone)
	defer func() {
		close(stopForward)
		<-forwardDone
	}()

	s.issueStops(ctx)
	s.tryStartReady(ctx)

	for {
		if ctx.Err() != nil && !s.shuttingDown {
			s.shuttingDown = true
			s.beginShutdown()
		}

		s.issueStops(ctx)

		if s.shuttingDown && s.allTerminal() {
			return nil
		}

		timeout, hasTimer := s.timers.NextTimeout(time.Now())
		var timerC <-chan time.Time
		if hasTimer {
			t := time.NewTimer(timeout)
			timerC = t.C
			defer t.Stop()
		}

		select {
		case <-ctx.Done():
			continue // beginShutdown runs on the next loop iteration

		case ev := <-s.exitCh:
			s.dispatchExit(ctx, ev.pid, ev.result)

		case hr, ok := <-s.healthIn:
			if ok {
				s.dispatchHealthFailure(hr)
			}

		case <-timerC:
			s.dispatchTimers(ctx)
		}

		s.issueStops(ctx)
		s.tryStartReady(ctx)
	}
}

// Wait blocks until Run has returned.
func (s *Scheduler) Wait() { <-s.doneCh }

// forwardReaped funnels reaper-observed (pid, status) pairs into the same
// dispatch path as directly-waited exits, so Run's select loop has one
// event source for process termination regardless of which mechanism
// observed it. It returns once reapedIn is closed or stop is closed.
func (s *Scheduler) forwardReaped(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case r, ok := <-s.reapedIn:
			if !ok {
				return
			}
			select {
			case s.exitCh <- exitEvent{pid: r.PID, result: app.ExitResult{Code: r.Status}}:
			case <-stop:
				return
			}
		case <-stop:
			return
		}
	}
}

// watchExit waits on a ModeSimple/OneShot process's own exit channel and
// forwards the result; it runs for the lifetime of one spawned process.
func (s *Scheduler) watchExit(pid int, wait <-chan app.ExitResult) {
	result := <-wait
	s.exitCh <- exitEvent{pid: pid, result: result}
}

// tryStartReady starts every Idle app whose dependencies are now
// satisfied; called after each dispatch since a dependency completing or
// becoming healthy can unblock several dependents at once.
func (s *Scheduler) tryStartReady(ctx context.Context) {
	if s.shuttingDown {
		return
	}
	for _, i := range s.graph.StartOrder() {
		if _, idle := s.records[i].State.(app.Idle); idle {
			s.tryStart(ctx, i)
		}
	}
}

// tryStart starts app i if every dependency is satisfied (Running for a
// long-lived dependency, Complete for a ModeOneShot one).
func (s *Scheduler) tryStart(ctx context.Context, i int) {
	r := s.records[i]
	if _, idle := r.State.(app.Idle); !idle {
		return
	}
	for _, dep := range s.graph.DependsOn(i) {
		if !s.satisfied(dep) || s.needsStop[dep] {
			return
		}
	}
	s.start(ctx, i)
}

func (s *Scheduler) satisfied(i int) bool {
	switch s.records[i].State.(type) {
	case app.Running:
		return true
	case app.Complete:
		return s.records[i].Spec.Mode == app.ModeOneShot
	default:
		return false
	}
}

func (s *Scheduler) start(ctx context.Context, i int) {
	r := s.records[i]
	env, err := s.resolveEnv(r.Spec)
	if err != nil {
		s.transition(i, app.Stopped{Reason: fmt.Sprintf("resolving env: %v", err), At: time.Now()})
		return
	}

	var pid, stdoutFD, stderrFD int
	var waitCh <-chan app.ExitResult
	if r.Spec.Mode == app.ModeForking {
		pid, stdoutFD, stderrFD, err = s.executor.StartForking(ctx, r.Spec, env)
	} else {
		pid, waitCh, stdoutFD, stderrFD, err = s.executor.StartSimple(ctx, r.Spec, env)
	}
	if err != nil {
		s.onStartFailure(i, err)
		return
	}

	s.wireStreams(i, stdoutFD, stderrFD)
	if waitCh != nil {
		go s.watchExit(pid, waitCh)
	}

	s.transition(i, app.Starting{PID: pid, Since: time.Now()})

	// Simple transitions to Running immediately upon spawn; Forking has
	// already been waited on synchronously by StartForking and its
	// pid-file resolved, so its exec_pid's successful exit is already
	// known by this point. OneShot stays in Starting until its own exit
	// is observed, where it becomes Complete instead of Running.
	// Health-check subscriptions never gate this transition: a failing
	// check cascades a stop+restart independently of it.
	if r.Spec.Mode != app.ModeOneShot {
		s.transition(i, app.Running{PID: pid, Since: time.Now()})
	}
}

func (s *Scheduler) onStartFailure(i int, err error) {
	r := s.records[i]
	r.Retries++
	if r.Spec.MaxRestarts > 0 && r.Retries > r.Spec.MaxRestarts {
		s.transition(i, app.Stopped{Reason: fmt.Sprintf("start failed, retries exhausted: %v", err), At: time.Now()})
		return
	}
	delay := backoffDelay(r.Spec, r.Retries)
	s.timers.Add(time.Now().Add(delay), i, timer.KindRestartBackoff)
}

func backoffDelay(spec app.Spec, attempt int) time.Duration {
	base := spec.RestartBackoffBase
	if base <= 0 {
		base = time.Second
	}
	maxDelay := spec.RestartBackoffMax
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	d := base
	for n := 1; n < attempt; n++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}

func (s *Scheduler) wireStreams(i int, stdoutFD, stderrFD int) {
	r := s.records[i]
	s.wireOneStream(r.Spec.Name+".stdout", stdoutFD, r.Spec.Stdout.Sink)
	s.wireOneStream(r.Spec.Name+".stderr", stderrFD, r.Spec.Stderr.Sink)
}

func (s *Scheduler) wireOneStream(label string, fd int, sinkName string) {
	if fd < 0 || sinkName == "" || s.streams == nil {
		return
	}
	sink, err := s.resolveSink(sinkName)
	if err != nil {
		return
	}
	_ = s.streams.Add(fd, label, sink)
}

// dispatchExit handles a process terminating, whether observed directly
// (ModeSimple/OneShot) or via the reaper (ModeForking grandchildren).
func (s *Scheduler) dispatchExit(ctx context.Context, pid int, result app.ExitResult) {
	i := s.indexForPID(pid)
	if i < 0 {
		return // an unrelated reaped pid, or a pid we've already moved past
	}
	r := s.records[i]

	if st, stopping := r.State.(app.Stopping); stopping {
		s.handleStoppingExit(i, st, pid)
		return
	}

	if r.Spec.Mode == app.ModeOneShot {
		if result.Code == 0 {
			s.transition(i, app.Complete{ExitCode: result.Code, At: time.Now()})
			return
		}
		s.maybeRestart(i, result)
		return
	}

	if s.shuttingDown {
		s.transition(i, app.Stopped{Reason: "shutdown", ExitCode: result.Code, At: time.Now()})
		return
	}

	// The process died without the scheduler having asked it to: an
	// unexpected death. Cascade a restart-stop to every reverse-dependent
	// before this record restarts (or goes terminal), so nothing keeps
	// depending on a service that is momentarily down.
	switch r.Spec.Restart {
	case app.RestartNever:
		s.transition(i, app.Stopped{Reason: "exited", ExitCode: result.Code, At: time.Now()})
	case app.RestartAlways:
		s.cascadeStop(i, true)
		s.maybeRestart(i, result)
	default: // RestartOnFailure
		if result.Code == 0 {
			s.transition(i, app.Stopped{Reason: "exited cleanly", ExitCode: 0, At: time.Now()})
		} else {
			s.cascadeStop(i, true)
			s.maybeRestart(i, result)
		}
	}
}

// handleStoppingExit clears whichever of the two PIDs a Stopping record
// tracks matches pid, and finishes the stop transition once both the
// stop-command (if any) and the service PID (if any) have been reaped.
func (s *Scheduler) handleStoppingExit(i int, st app.Stopping, pid int) {
	if pid == st.ExecPID {
		st.ExecPID = 0
	}
	if pid == st.PID {
		st.PID = 0
	}
	if st.ExecPID != 0 || st.PID != 0 {
		s.records[i].State = st
		return
	}

	s.timers.RemoveApp(i, timer.KindKillDeadline)
	if s.shuttingDown {
		s.transition(i, app.Stopped{Reason: "supervisor shutting down", At: time.Now()})
		return
	}
	if st.Restart {
		r := s.records[i]
		r.Retries++
		delay := backoffDelay(r.Spec, r.Retries)
		s.timers.Add(time.Now().Add(delay), i, timer.KindRestartBackoff)
	}
	s.transition(i, app.Idle{})
}

// cascadeStop walks the transitive reverse-dependency closure of i and
// marks every live dependent needs_stop, with the given restart flag.
// Used both for a health-check failure (the whole subscriber group) and
// for an unexpected death (dependents only; i itself is handled by the
// caller). The actual stop is issued later, by issueStops, once each
// dependent's own reverse-dependents have quiesced.
func (s *Scheduler) cascadeStop(i int, restart bool) {
	visited := make(map[int]bool)
	var walk func(idx int)
	walk = func(idx int) {
		for _, dep := range s.graph.Dependents(idx) {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			s.markNeedsStop(dep, restart)
			walk(dep)
		}
	}
	walk(i)
}

// markNeedsStop flags a live (Running/Starting) record for a future stop.
// A restart=true request is sticky: it is never downgraded to false by a
// later, unrelated needs_stop request (e.g. shutdown racing a cascade),
// since losing a pending restart would strand a dependent down for good.
func (s *Scheduler) markNeedsStop(i int, restart bool) {
	switch s.records[i].State.(type) {
	case app.Running, app.Starting:
	default:
		return
	}
	s.needsStop[i] = true
	s.stopRestart[i] = s.stopRestart[i] || restart
}

func (s *Scheduler) maybeRestart(i int, result app.ExitResult) {
	r := s.records[i]
	r.Retries++
	if r.Spec.MaxRestarts > 0 && r.Retries > r.Spec.MaxRestarts {
		s.transition(i, app.Stopped{Reason: "restart budget exhausted", ExitCode: result.Code, At: time.Now()})
		return
	}
	delay := backoffDelay(r.Spec, r.Retries)
	s.timers.Add(time.Now().Add(delay), i, timer.KindRestartBackoff)
	s.transition(i, app.Idle{})
}

// dispatchHealthFailure marks every app subscribed to hr.Group, and each
// subscriber's transitive reverse-dependents, needs_stop with
// restart=true: a failing health check is treated as "this group's apps,
// and everything relying on them, must come down and come back up."
func (s *Scheduler) dispatchHealthFailure(hr health.Result) {
	for _, i := range s.subscribers[string(hr.Group)] {
		s.markNeedsStop(i, true)
		s.cascadeStop(i, true)
	}
}

func (s *Scheduler) dispatchTimers(ctx context.Context) {
	now := time.Now()
	for {
		entry, ok := s.timers.PopEarliest(now)
		if !ok {
			return
		}
		switch entry.Kind {
		case timer.KindKillDeadline:
			s.escalateToKill(entry.AppIdx)
		case timer.KindRestartBackoff:
			s.tryStart(ctx, entry.AppIdx)
		case timer.KindHealthProbe:
			// Health probing is owned by application/healthcheck workers;
			// this kind is reserved should an in-scheduler prober replace
			// them, and nothing currently schedules it.
		}
	}
}

func (s *Scheduler) escalateToKill(i int) {
	st, ok := s.records[i].State.(app.Stopping)
	if !ok {
		return
	}
	if st.PID != 0 {
		_ = s.executor.Signal(st.PID, os.Kill)
	}
	if st.ExecPID != 0 {
		_ = s.executor.Signal(st.ExecPID, os.Kill)
	}
}

// stopApp begins stopping app i, whose tracked service PID is pid (zero
// for a ModeOneShot app with nothing left running). ModeSimple apps are
// always signaled directly; ModeForking/ModeOneShot apps with a
// StopCommand configured have it spawned instead, and its own PID is
// tracked alongside the service PID until both are reaped (or the grace
// timer escalates to SIGKILL against whichever is still live).
func (s *Scheduler) stopApp(ctx context.Context, i, pid int, restart bool) {
	spec := s.records[i].Spec
	timeout := spec.StopTimeout
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	deadline := time.Now().Add(timeout)
	st := app.Stopping{PID: pid, Deadline: deadline, Restart: restart}

	if spec.Mode != app.ModeSimple && spec.StopCommand != "" {
		env, err := s.resolveEnv(spec)
		if err != nil {
			_ = s.executor.Signal(pid, stopSignal(spec.StopSignal))
		} else if execPID, wait, err := s.executor.RunStop(ctx, spec, env); err == nil {
			st.ExecPID = execPID
			go s.watchExit(execPID, wait)
		} else if pid != 0 {
			_ = s.executor.Signal(pid, stopSignal(spec.StopSignal))
		}
	} else if pid != 0 {
		_ = s.executor.Signal(pid, stopSignal(spec.StopSignal))
	}

	s.timers.Add(deadline, i, timer.KindKillDeadline)
	s.transition(i, st)
}

// beginShutdown marks every live app needs_stop (restart=false) and
// parks every Idle app directly in Stopped; issueStops then drains the
// needs_stop set leaf-first, tick by tick, as each layer's reverse-
// dependents quiesce.
func (s *Scheduler) beginShutdown() {
	for i, r := range s.records {
		switch r.State.(type) {
		case app.Running, app.Starting:
			s.markNeedsStop(i, false)
		case app.Idle:
			s.transition(i, app.Stopped{Reason: "supervisor shutting down", At: time.Now()})
		}
	}
}

// issueStops invokes the actual stop transition for every needs_stop app
// whose reverse-dependents have all quiesced (spec.md §4.2 step 2). Apps
// not yet eligible stay flagged and are retried on the next tick.
func (s *Scheduler) issueStops(ctx context.Context) {
	for i := range s.records {
		if !s.needsStop[i] || !s.dependentsQuiesced(i) {
			continue
		}
		restart := s.stopRestart[i]
		delete(s.needsStop, i)
		delete(s.stopRestart, i)

		switch st := s.records[i].State.(type) {
		case app.Running:
			s.stopApp(ctx, i, st.PID, restart)
		case app.Starting:
			s.stopApp(ctx, i, st.PID, restart)
		}
	}
}

// dependentsQuiesced reports whether every direct reverse-dependent of i
// has reached a state that can no longer need i running.
func (s *Scheduler) dependentsQuiesced(i int) bool {
	for _, dep := range s.graph.Dependents(i) {
		switch s.records[dep].State.(type) {
		case app.Idle, app.Complete, app.Stopped:
		default:
			return false
		}
	}
	return true
}

func (s *Scheduler) allTerminal() bool {
	for _, r := range s.records {
		switch r.State.Phase() {
		case app.PhaseStopped, app.PhaseComplete:
		default:
			return false
		}
	}
	return true
}

func (s *Scheduler) indexForPID(pid int) int {
	for i, r := range s.records {
		switch st := r.State.(type) {
		case app.Starting:
			if st.PID == pid {
				return i
			}
		case app.Running:
			if st.PID == pid {
				return i
			}
		case app.Stopping:
			if st.PID == pid || st.ExecPID == pid {
				return i
			}
		}
	}
	return -1
}

func (s *Scheduler) transition(i int, to app.State) {
	s.mu.Lock()
	from := s.records[i].State.Phase()
	s.records[i].State = to
	s.mu.Unlock()
	if s.onEvent != nil {
		s.onEvent(s.records[i].Spec.Name, from, to.Phase())
	}
}
