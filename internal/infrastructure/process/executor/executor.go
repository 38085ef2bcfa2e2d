//go:build unix

// Package executor provides infrastructure adapters for OS process
// execution. It implements the scheduler's process-launching needs using
// Unix system calls.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/kodflow/daemon/internal/domain/app"
	"github.com/kodflow/daemon/internal/infrastructure/process/control"
	"github.com/kodflow/daemon/internal/infrastructure/process/credentials"
)

// ErrEmptyCommand is returned when a Spec's Command has no fields.
var ErrEmptyCommand = errors.New("empty command")

// Process is an interface for process operations, abstracting os.Process
// for testability.
type Process interface {
	Signal(sig os.Signal) error
	Kill() error
	Wait() (*os.ProcessState, error)
}

// ProcessFinder abstracts os.FindProcess for testability.
type ProcessFinder func(pid int) (Process, error)

// Executor implements process launching for Unix systems. It wraps the
// standard library exec.Cmd to provide process lifecycle management with
// support for credentials, environment, rlimits, and signal handling.
type Executor struct {
	credentials credentials.CredentialManager
	process     control.ProcessControl
	findProcess ProcessFinder
}

// New creates a Unix process executor with default dependencies.
func New() *Executor {
	return &Executor{
		credentials: credentials.New(),
		process:     control.New(),
		findProcess: defaultFindProcess,
	}
}

// NewWithDeps creates an Executor with injected dependencies, the
// constructor Wire uses.
func NewWithDeps(creds credentials.CredentialManager, proc control.ProcessControl) *Executor {
	return &Executor{credentials: creds, process: proc, findProcess: defaultFindProcess}
}

// StartSimple execs spec.Command as the supervised process itself,
// returning its PID and a channel fulfilled when it exits. Used for
// ModeSimple and ModeOneShot.
func (e *Executor) StartSimple(ctx context.Context, spec app.Spec, env map[string]string) (pid int, wait <-chan app.ExitResult, stdoutFD, stderrFD int, err error) {
	cmd, stdoutR, stdoutW, stderrR, stderrW, err := e.buildCommand(ctx, spec, env)
	if err != nil {
		return 0, nil, -1, -1, err
	}
	if err := e.configureCredentials(cmd, spec.User, spec.Group); err != nil {
		return 0, nil, -1, -1, err
	}

	if err := cmd.Start(); err != nil {
		return 0, nil, -1, -1, fmt.Errorf("starting process: %w", err)
	}
	if err := e.process.ApplyRlimits(cmd.Process.Pid, spec.Rlimits); err != nil {
		_ = cmd.Process.Kill()
		return 0, nil, -1, -1, fmt.Errorf("applying rlimits: %w", err)
	}
	// The child holds its own copy of the write end; the parent's copy
	// must be closed so the read end observes EOF when the child exits.
	_ = stdoutW.Close()
	_ = stderrW.Close()

	waitCh := make(chan app.ExitResult, 1)
	go e.waitForProcess(cmd, waitCh)

	return cmd.Process.Pid, waitCh, int(stdoutR.Fd()), int(stderrR.Fd()), nil
}

// StartForking execs spec.Command, waits for the forking runner to exit
// (it is expected to fork a grandchild and return quickly), then reads
// spec.PIDFile to learn the grandchild's PID. Used for ModeForking.
// The grandchild is not a direct child of this executor: the caller must
// rely on the subreaper-backed reaper to learn when it terminates.
func (e *Executor) StartForking(ctx context.Context, spec app.Spec, env map[string]string) (pid, stdoutFD, stderrFD int, err error) {
	cmd, stdoutR, stdoutW, stderrR, stderrW, err := e.buildCommand(ctx, spec, env)
	if err != nil {
		return 0, -1, -1, err
	}
	if err := e.configureCredentials(cmd, spec.User, spec.Group); err != nil {
		return 0, -1, -1, err
	}
	if err := cmd.Start(); err != nil {
		return 0, -1, -1, fmt.Errorf("starting forking command: %w", err)
	}
	// Rlimits are applied to the runner before it forks the real service,
	// so the grandchild inherits them the same way it would inherit a
	// parent's setrlimit in a traditional fork/exec trampoline.
	if err := e.process.ApplyRlimits(cmd.Process.Pid, spec.Rlimits); err != nil {
		_ = cmd.Process.Kill()
		return 0, -1, -1, fmt.Errorf("applying rlimits: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return 0, -1, -1, fmt.Errorf("running forking command: %w", err)
	}
	_ = stdoutW.Close()
	_ = stderrW.Close()

	childPID, err := readPIDFile(spec.PIDFile)
	if err != nil {
		return 0, -1, -1, fmt.Errorf("reading pidfile %s: %w", spec.PIDFile, err)
	}
	return childPID, int(stdoutR.Fd()), int(stderrR.Fd()), nil
}

// RunStop execs spec.StopCommand, the declared stop verb for a
// ModeForking/ModeOneShot app, and returns its PID and exit channel. Its
// stdio is discarded: a stop command's own output is not part of the
// service's supervised stream, only its exit status matters.
func (e *Executor) RunStop(ctx context.Context, spec app.Spec, env map[string]string) (pid int, wait <-chan app.ExitResult, err error) {
	if spec.StopCommand == "" {
		return 0, nil, ErrEmptyCommand
	}
	parts := strings.Fields(spec.StopCommand)
	if len(parts) == 0 {
		return 0, nil, ErrEmptyCommand
	}
	args := make([]string, 0, len(parts)-1+len(spec.StopArgs))
	args = append(args, parts[1:]...)
	args = append(args, spec.StopArgs...)

	cmd := TrustedCommand(ctx, parts[0], args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	cmd.Env = make([]string, 0, len(env))
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	e.process.SetProcessGroup(cmd)

	if err := e.configureCredentials(cmd, spec.User, spec.Group); err != nil {
		return 0, nil, err
	}
	if err := cmd.Start(); err != nil {
		return 0, nil, fmt.Errorf("starting stop command: %w", err)
	}

	waitCh := make(chan app.ExitResult, 1)
	go e.waitForProcess(cmd, waitCh)
	return cmd.Process.Pid, waitCh, nil
}

func (e *Executor) waitForProcess(cmd interface{ Wait() error }, wait chan<- app.ExitResult) {
	err := cmd.Wait()
	result := app.ExitResult{}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Code = exitErr.ExitCode()
		} else {
			result.Code = -1
			result.Error = err
		}
	}
	wait <- result
	close(wait)
}

// Stop gracefully stops the process with the given PID using sig, then
// SIGKILLs it after timeout.
func (e *Executor) Stop(pid int, sig os.Signal, timeout time.Duration) error {
	proc, err := e.findProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process: %w", err)
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("sending %v: %w", sig, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := proc.Wait()
		done <- err
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		if err := proc.Kill(); err != nil {
			return fmt.Errorf("killing process: %w", err)
		}
		<-done
		return nil
	}
}

// Signal sends sig to pid.
func (e *Executor) Signal(pid int, sig os.Signal) error {
	proc, err := e.findProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process: %w", err)
	}
	return proc.Signal(sig)
}

func (e *Executor) buildCommand(ctx context.Context, spec app.Spec, env map[string]string) (cmd *exec.Cmd, stdoutR, stdoutW, stderrR, stderrW *os.File, err error) {
	parts := strings.Fields(spec.Command)
	if len(parts) == 0 {
		return nil, nil, nil, nil, nil, ErrEmptyCommand
	}

	args := make([]string, 0, len(parts)-1+len(spec.Args))
	args = append(args, parts[1:]...)
	args = append(args, spec.Args...)

	cmd = TrustedCommand(ctx, parts[0], args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}

	cmd.Env = make([]string, 0, len(env))
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdoutR, stdoutW, err = os.Pipe()
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrR, stderrW, err = os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, nil, nil, nil, nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	e.process.SetProcessGroup(cmd)

	return cmd, stdoutR, stdoutW, stderrR, stderrW, nil
}

func (e *Executor) configureCredentials(cmd *exec.Cmd, user, group string) error {
	if user == "" && group == "" {
		return nil
	}
	uid, gid, err := e.credentials.ResolveCredentials(user, group)
	if err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}
	if err := e.credentials.ApplyCredentials(cmd, uid, gid); err != nil {
		return fmt.Errorf("applying credentials: %w", err)
	}
	return nil
}

func readPIDFile(path string) (int, error) {
	f, err := os.Open(path) // #nosec G304 - operator-configured path
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, fmt.Errorf("pidfile %s is empty", path)
	}
	return strconv.Atoi(strings.TrimSpace(scanner.Text()))
}

