//go:build unix

// Package signals_test provides black-box tests for the signals package.
// It tests signal management functionality for Unix systems.
package signals_test

import (
	"os"
	"os/signal"
	"syscall"
	"testing"

	"github.com/kodflow/daemon/internal/infrastructure/process/signals"
)

// TestNewManager tests the NewManager constructor.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestNewManager(t *testing.T) {
	// Define test cases for NewManager.
	tests := []struct {
		name string
	}{
		{name: "returns non-nil signal manager"},
	}

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			sm := signals.NewManager()
			// Check if the signal manager is not nil.
			if sm == nil {
				t.Error("NewManager should return a non-nil instance")
			}
		})
	}
}

// TestNew tests the New constructor.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestNew(t *testing.T) {
	// Define test cases for New.
	tests := []struct {
		name string
	}{
		{name: "returns non-nil signal manager"},
	}

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			sm := signals.New()
			// Check if the signal manager is not nil.
			if sm == nil {
				t.Error("New should return a non-nil instance")
			}
		})
	}
}

// TestManager_Notify tests the Notify method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_Notify(t *testing.T) {
	// Define test cases for Notify.
	tests := []struct {
		name string
	}{
		{name: "notify returns channel"},
	}

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			sm := signals.New()
			ch := sm.Notify(syscall.SIGTERM)
			// Check if the channel is not nil.
			if ch == nil {
				t.Error("Notify should return a non-nil channel")
			}
		})
	}
}

// TestManager_Stop tests the Stop method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_Stop(t *testing.T) {
	// Define test cases for Stop.
	tests := []struct {
		name string
	}{
		{name: "stop does not panic"},
	}

	sm := signals.New()

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			// Create a channel for signal notifications.
			ch := make(chan os.Signal, 1)
			// Register for signal notifications using signal package directly.
			signal.Notify(ch, syscall.SIGTERM)
			// Stop the signal notifications.
			sm.Stop(ch)
			// No panic indicates success.
		})
	}
}

// TestManager_Forward tests the Forward method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_Forward(t *testing.T) {
	// Define test cases for Forward.
	tests := []struct {
		name        string
		pid         int
		sig         os.Signal
		expectError bool
	}{
		{name: "forward to invalid pid fails", pid: -1, sig: syscall.SIGTERM, expectError: true},
		{name: "forward signal 0 to current process succeeds", pid: os.Getpid(), sig: syscall.Signal(0), expectError: false},
		{name: "forward to nonexistent process fails", pid: 999999999, sig: syscall.SIGTERM, expectError: true},
	}

	sm := signals.New()

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			err := sm.Forward(tt.pid, tt.sig)
			// Check error expectation.
			if tt.expectError && err == nil {
				t.Error("expected error")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestManager_ForwardToGroup tests the ForwardToGroup method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_ForwardToGroup(t *testing.T) {
	// Define test cases for ForwardToGroup.
	// Note: pgid of 999999999 is used as a non-existent process group.
	// This is negated by ForwardToGroup, so Kill(-999999999, sig) is called.
	tests := []struct {
		name        string
		pgid        int
		expectError bool
	}{
		{name: "forward to non-existent pgid fails", pgid: 999999999, expectError: true},
	}

	sm := signals.New()

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ForwardToGroup(tt.pgid, syscall.SIGTERM)
			// Check error expectation.
			if tt.expectError && err == nil {
				t.Error("expected error for non-existent pgid")
			}
		})
	}
}

// TestManager_IsTermSignal tests the IsTermSignal method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_IsTermSignal(t *testing.T) {
	// Define test cases for IsTermSignal.
	tests := []struct {
		name     string
		signal   syscall.Signal
		expected bool
	}{
		{name: "SIGTERM is termination signal", signal: syscall.SIGTERM, expected: true},
		{name: "SIGINT is termination signal", signal: syscall.SIGINT, expected: true},
		{name: "SIGQUIT is termination signal", signal: syscall.SIGQUIT, expected: true},
		{name: "SIGKILL is termination signal", signal: syscall.SIGKILL, expected: true},
		{name: "SIGHUP is not termination signal", signal: syscall.SIGHUP, expected: false},
		{name: "SIGUSR1 is not termination signal", signal: syscall.SIGUSR1, expected: false},
	}

	sm := signals.New()

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			result := sm.IsTermSignal(tt.signal)
			// Check if the result matches expectation.
			if result != tt.expected {
				t.Errorf("IsTermSignal(%v) returned %v, expected %v", tt.signal, result, tt.expected)
			}
		})
	}
}

// TestManager_IsReloadSignal tests the IsReloadSignal method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_IsReloadSignal(t *testing.T) {
	// Define test cases for IsReloadSignal.
	tests := []struct {
		name     string
		signal   syscall.Signal
		expected bool
	}{
		{name: "SIGHUP is reload signal", signal: syscall.SIGHUP, expected: true},
		{name: "SIGTERM is not reload signal", signal: syscall.SIGTERM, expected: false},
		{name: "SIGINT is not reload signal", signal: syscall.SIGINT, expected: false},
	}

	sm := signals.New()

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			result := sm.IsReloadSignal(tt.signal)
			// Check if the result matches expectation.
			if result != tt.expected {
				t.Errorf("IsReloadSignal(%v) returned %v, expected %v", tt.signal, result, tt.expected)
			}
		})
	}
}

// TestManager_SignalByName tests the SignalByName method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_SignalByName(t *testing.T) {
	// Define test cases for SignalByName.
	tests := []struct {
		name      string
		sigName   string
		expectOK  bool
		expectSig syscall.Signal
	}{
		{name: "SIGTERM found", sigName: "SIGTERM", expectOK: true, expectSig: syscall.SIGTERM},
		{name: "SIGINT found", sigName: "SIGINT", expectOK: true, expectSig: syscall.SIGINT},
		{name: "SIGHUP found", sigName: "SIGHUP", expectOK: true, expectSig: syscall.SIGHUP},
		{name: "nonexistent signal not found", sigName: "SIGNONEXISTENT", expectOK: false},
	}

	sm := signals.New()

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := sm.SignalByName(tt.sigName)
			// Check if found status matches expectation.
			if ok != tt.expectOK {
				t.Errorf("SignalByName(%q) found=%v, expected found=%v", tt.sigName, ok, tt.expectOK)
			}
			// Check if signal matches expectation when found.
			if tt.expectOK && sig != tt.expectSig {
				t.Errorf("SignalByName(%q) returned %v, expected %v", tt.sigName, sig, tt.expectSig)
			}
		})
	}
}

// TestManager_AddSignal tests the AddSignal method.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestManager_AddSignal(t *testing.T) {
	// Define test cases for AddSignal.
	tests := []struct {
		name    string
		sigName string
		signal  syscall.Signal
	}{
		{name: "add custom signal", sigName: "SIGCUSTOM", signal: syscall.SIGUSR1},
	}

	// Iterate over test cases.
	for _, tt := range tests {
		// Run each test case as a subtest.
		t.Run(tt.name, func(t *testing.T) {
			sm := signals.New()
			sm.AddSignal(tt.sigName, tt.signal)
			// Verify the signal was added.
			sig, ok := sm.SignalByName(tt.sigName)
			if !ok {
				t.Errorf("AddSignal(%q) failed - signal not found", tt.sigName)
			}
			if sig != tt.signal {
				t.Errorf("AddSignal(%q) returned %v, expected %v", tt.sigName, sig, tt.signal)
			}
		})
	}
}
