// Package app holds the supervised-application aggregate: its static
// specification and its runtime state machine. Only the scheduler goroutine
// ever mutates a Record; every other goroutine observes it through a Snapshot.
package app

import (
	"time"

	"github.com/kodflow/daemon/internal/domain/rlimit"
)

// Mode selects how the executor treats the spawned child.
type Mode int

const (
	// ModeSimple is a long-running foreground process; the spawned PID is
	// the supervised process itself (the common daemon case).
	ModeSimple Mode = iota
	// ModeForking expects the command to fork and exit, writing the real
	// child's PID to PIDFile; the supervisor tracks the PID read back.
	ModeForking
	// ModeOneShot runs to completion and is considered Complete on exit 0;
	// a Complete oneshot is never started again, while a failed run is
	// handled by its restart policy like any other app.
	ModeOneShot
)

// String renders the mode name for logs and the TUI.
func (m Mode) String() string {
	switch m {
	case ModeForking:
		return "forking"
	case ModeOneShot:
		return "oneshot"
	default:
		return "simple"
	}
}

// RestartPolicy governs whether a terminated app is restarted.
type RestartPolicy int

const (
	// RestartOnFailure restarts only on non-zero exit or signal death.
	RestartOnFailure RestartPolicy = iota
	// RestartAlways restarts regardless of exit status.
	RestartAlways
	// RestartNever leaves the app Complete/Stopped after it exits once.
	RestartNever
)

// Spec is the immutable, load-time specification of one supervised app.
// It never changes after the scheduler starts (Non-goal: no dynamic
// reconfiguration).
type Spec struct {
	// Name uniquely identifies the app within the supervision tree.
	Name string
	// Mode controls how the executor interprets the spawned PID.
	Mode Mode
	// Command is the executable to run, split on exec (no shell).
	Command string
	// Args are additional arguments appended after Command's own fields.
	Args []string
	// Dir is the working directory; empty means inherit the supervisor's.
	Dir string
	// Env holds explicit key=value entries layered over EnvFile/Passthrough.
	Env map[string]string
	// EnvFile is an optional path to a dotenv-style file merged first.
	EnvFile string
	// EnvPassthrough names parent-environment variables to carry through.
	EnvPassthrough []string
	// User optionally drops privileges to this user (name or numeric UID).
	User string
	// Group optionally drops privileges to this group (name or numeric GID).
	Group string
	// PIDFile is read after a ModeForking command exits to learn the
	// grandchild's PID. Unused for ModeSimple and ModeOneShot.
	PIDFile string
	// Rlimits bounds the resources granted to the spawned process.
	Rlimits rlimit.Group
	// DependsOn lists the names of apps that must be Running (or Complete,
	// for ModeOneShot dependencies) before this app is started.
	DependsOn []string
	// HealthChecks names the health-check specs monitoring this app once
	// Running. An empty list means the app is healthy as soon as it starts.
	HealthChecks []string
	// Restart is the policy applied when the process terminates.
	Restart RestartPolicy
	// MaxRestarts caps the total number of restart attempts (Retries is
	// never reset) before giving up and moving the app to Stopped. Zero
	// means unlimited.
	MaxRestarts int
	// RestartBackoffBase is the initial delay before the first restart.
	RestartBackoffBase time.Duration
	// RestartBackoffMax caps the exponential backoff delay.
	RestartBackoffMax time.Duration
	// StopSignal is sent first when stopping an app that has no
	// StopCommand, in any mode; SIGKILL follows StopTimeout.
	StopSignal string
	// StopCommand, if set, is spawned to stop a ModeForking/ModeOneShot
	// app instead of signaling its PID directly (e.g. an init script's
	// "stop" verb). Empty means fall back to StopSignal against the
	// tracked service PID, same as ModeSimple.
	StopCommand string
	// StopArgs are additional arguments appended after StopCommand's own
	// fields.
	StopArgs []string
	// StopTimeout bounds how long a graceful stop waits before SIGKILL.
	StopTimeout time.Duration
	// Stdout routes the process's standard output to a stream sink.
	Stdout StreamRoute
	// Stderr routes the process's standard error to a stream sink.
	Stderr StreamRoute
}

// StreamRoute names the sink a stdout/stderr pipe is wired to.
type StreamRoute struct {
	// Sink is the stream-sink name (see domain/stream); empty discards output.
	Sink string
}

// Phase names the coarse lifecycle stage a Record occupies. Prefer
// switching on the concrete State value returned by Record.State for
// state-specific data; Phase is for display and coarse comparisons only.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseStopping
	PhaseComplete
	PhaseStopped
)

// String renders the phase name for logs and the TUI.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	case PhaseComplete:
		return "complete"
	case PhaseStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// State is a closed tagged union over the phases an app can occupy. Each
// implementation carries exactly the fields meaningful to that phase,
// instead of one struct with fields that are valid in some phases and
// garbage in others.
type State interface {
	// Phase reports which coarse lifecycle stage this state belongs to.
	Phase() Phase
	state()
}

// Idle is the initial state before the scheduler has attempted a start.
type Idle struct{}

// Phase implements State.
func (Idle) Phase() Phase { return PhaseIdle }
func (Idle) state()       {}

// Starting holds the PID of a process that has been exec'd but not yet
// promoted. ModeSimple and ModeForking apps move to Running as soon as the
// start succeeds, whether or not health checks are configured; a
// ModeOneShot app stays Starting until it exits.
type Starting struct {
	PID   int
	Since time.Time
}

// Phase implements State.
func (Starting) Phase() Phase { return PhaseStarting }
func (Starting) state()       {}

// Running holds the PID of a long-lived process that started successfully
// and now satisfies its dependents. Health checks do not gate this state;
// a failing check stops and restarts the app instead.
type Running struct {
	PID   int
	Since time.Time
}

// Phase implements State.
func (Running) Phase() Phase { return PhaseRunning }
func (Running) state()       {}

// Stopping holds the PID(s) being shut down and the deadline after which
// the scheduler escalates to SIGKILL. PID is the tracked service PID
// (zero once it's been reaped, or for a ModeOneShot app with nothing
// left to track); ExecPID is a spawned StopCommand's PID (zero if the
// app stops via direct signal instead). Restart records whether this
// stop should be followed by a restart (a health-check cascade) rather
// than leaving the app terminal.
type Stopping struct {
	PID      int
	ExecPID  int
	Deadline time.Time
	Restart  bool
}

// Phase implements State.
func (Stopping) Phase() Phase { return PhaseStopping }
func (Stopping) state()       {}

// Complete is terminal for a ModeOneShot app that exited zero and will not
// be restarted.
type Complete struct {
	ExitCode int
	At       time.Time
}

// Phase implements State.
func (Complete) Phase() Phase { return PhaseComplete }
func (Complete) state()       {}

// Stopped is terminal: either the scheduler is shutting down, the app
// exhausted its restart budget, or a restart-never app exited.
type Stopped struct {
	Reason   string
	ExitCode int
	At       time.Time
}

// Phase implements State.
func (Stopped) Phase() Phase { return PhaseStopped }
func (Stopped) state()       {}

// Record is the mutable runtime counterpart to a Spec. Only the scheduler
// goroutine writes to a Record; Snapshot is the only safe cross-goroutine
// read path.
type Record struct {
	Spec    Spec
	State   State
	Retries int
}

// Snapshot is an immutable, copyable view of a Record for the TUI and
// diagnostics, taken by the scheduler on demand.
type Snapshot struct {
	Name    string
	Mode    Mode
	Phase   Phase
	State   State
	Retries int
}

// ExitResult carries a terminated process's outcome back to the
// scheduler via the executor's wait channel.
type ExitResult struct {
	Code  int
	Error error
}

// Snapshot captures the current record as a value safe to hand to another
// goroutine.
func (r *Record) Snapshot() Snapshot {
	return Snapshot{
		Name:    r.Spec.Name,
		Mode:    r.Spec.Mode,
		Phase:   r.State.Phase(),
		State:   r.State,
		Retries: r.Retries,
	}
}
