// Package control provides process control interfaces.
package control

import (
	"os/exec"

	"github.com/kodflow/daemon/internal/domain/rlimit"
)

// ProcessControl handles process-level OS operations.
type ProcessControl interface {
	// SetProcessGroup configures a command to run in its own process group.
	SetProcessGroup(cmd *exec.Cmd)

	// GetProcessGroup returns the process group ID for a process.
	GetProcessGroup(pid int) (int, error)

	// ApplyRlimits bounds pid's NOFILE/NPROC/AS resource limits to group,
	// leaving any unset field at its current (infinity by default) value.
	ApplyRlimits(pid int, group rlimit.Group) error
}
