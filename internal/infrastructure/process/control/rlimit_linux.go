//go:build linux

package control

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/kodflow/daemon/internal/domain/rlimit"
)

// ApplyRlimits bounds pid's resource limits via prlimit(2), which (unlike
// setrlimit) can target a process other than the caller — there is no
// pre-exec hook in os/exec, so limits are applied to the child right after
// Start returns instead of between fork and exec.
//
// Params:
//   - pid: the target process, already started
//   - group: the composed limit group; a nil field is left untouched
//
// Returns:
//   - error: the first prlimit failure encountered, if any
func (m *Control) ApplyRlimits(pid int, group rlimit.Group) error {
	if err := applyOne(pid, unix.RLIMIT_NOFILE, group.NOFILE); err != nil {
		return fmt.Errorf("setting NOFILE: %w", err)
	}
	if err := applyOne(pid, unix.RLIMIT_NPROC, group.NPROC); err != nil {
		return fmt.Errorf("setting NPROC: %w", err)
	}
	if err := applyOne(pid, unix.RLIMIT_AS, group.AS); err != nil {
		return fmt.Errorf("setting AS: %w", err)
	}
	return nil
}

func applyOne(pid int, resource int, limit *uint64) error {
	if limit == nil {
		return nil
	}
	rlim := unix.Rlimit{Cur: *limit, Max: *limit}
	return unix.Prlimit(pid, resource, &rlim, nil)
}
