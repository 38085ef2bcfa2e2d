// Package health describes health-check specifications and results. The
// probes themselves (disk-free, process-presence, TCP-connect) live in
// infrastructure/healthcheck; this package only carries the domain shape.
package health

import "time"

// Kind selects which probe implementation a Spec is checked with.
type Kind int

const (
	// KindDiskFree checks free space on a filesystem path via statvfs.
	KindDiskFree Kind = iota
	// KindProcessPresence checks that a process matching a name is alive
	// by scanning /proc, excluding zombies.
	KindProcessPresence
	// KindTCP checks that a TCP endpoint accepts a connection.
	KindTCP
)

// Spec is the static, load-time description of one health check.
type Spec struct {
	// Name uniquely identifies the check among all configured checks; an
	// app subscribes to it by listing this name in its HealthChecks.
	Name string
	// Kind selects the probe implementation.
	Kind Kind
	// Interval is the steady-state period between probes.
	Interval time.Duration
	// Timeout bounds a single probe attempt.
	Timeout time.Duration
	// InitialDelayJitter bounds the random delay before the first probe,
	// so that many checks starting together don't all fire at once.
	InitialDelayJitter time.Duration

	// Path is the filesystem path for KindDiskFree.
	Path string
	// MinFreeMB is the minimum free space, in mebibytes, for KindDiskFree.
	MinFreeMB uint64

	// ProcessName is the /proc comm value to match for KindProcessPresence.
	ProcessName string

	// Address is host:port for KindTCP.
	Address string
}

// Group names the failure-reporting group a check belongs to; the
// supervisor uses the check's own name as its group.
type Group string

// Result is the outcome of one probe attempt. OK results are not
// published to the scheduler; only a change to failing, or a repeated
// failure, produces an Event.
type Result struct {
	Group   Group
	Name    string
	OK      bool
	Message string
}
