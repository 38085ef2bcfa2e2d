//go:build !linux

package healthcheck

import "context"

// ProcessPresenceProbe is unsupported outside Linux: there is no portable
// /proc to scan, and this daemon does not shell out to ps to avoid the
// extra process-per-probe cost and its own reap/zombie bookkeeping.
type ProcessPresenceProbe struct {
	Name string
}

// Check implements Probe.
func (p *ProcessPresenceProbe) Check(_ context.Context) (bool, string) {
	return false, "process-presence health checks require /proc (Linux only)"
}
