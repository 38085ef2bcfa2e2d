//go:build linux

package bootstrap

import "github.com/kodflow/daemon/internal/infrastructure/process/signals"

// trySetSubreaper marks this process a child subreaper via prctl, so
// orphaned grandchildren of a ModeForking app reparent to us instead of
// PID 1 proper when we aren't PID 1 ourselves (e.g. running inside a
// container's own init namespace).
func trySetSubreaper(m *signals.Manager) error { return m.SetSubreaper() }
