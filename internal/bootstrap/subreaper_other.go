//go:build unix && !linux

package bootstrap

import "github.com/kodflow/daemon/internal/infrastructure/process/signals"

// trySetSubreaper is a no-op on non-Linux Unixes: PR_SET_CHILD_SUBREAPER
// doesn't exist there, so this daemon must itself be PID 1 to adopt
// orphaned grandchildren.
func trySetSubreaper(*signals.Manager) error { return nil }
