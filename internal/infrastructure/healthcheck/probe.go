// Package healthcheck implements the three probe kinds health specs can
// select: free disk space, process presence via /proc, and TCP connect.
package healthcheck

import "context"

// Probe checks one condition and reports ok/failure message.
type Probe interface {
	// Check runs a single probe attempt, bounded by ctx's deadline.
	Check(ctx context.Context) (ok bool, message string)
}
