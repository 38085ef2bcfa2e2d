//go:build unix && !linux

package control

import (
	"errors"

	"github.com/kodflow/daemon/internal/domain/rlimit"
)

// ErrRlimitsNotSupported is returned by ApplyRlimits on non-Linux Unixes:
// prlimit(2) is Linux-only, and setrlimit(2) cannot target another
// process, so a rlimit group configured on these platforms fails here at
// spawn time rather than being rejected earlier at config-load time.
var ErrRlimitsNotSupported = errors.New("rlimits on a spawned child are not supported on this platform")

// ApplyRlimits fails on BSD/Darwin whenever group sets any limit (see
// ErrRlimitsNotSupported); an empty group is a no-op.
func (m *Control) ApplyRlimits(pid int, group rlimit.Group) error {
	if group.NOFILE == nil && group.NPROC == nil && group.AS == nil {
		return nil
	}
	return ErrRlimitsNotSupported
}
