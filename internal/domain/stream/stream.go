// Package stream describes where a supervised process's stdout/stderr can
// be routed. The handler and sinks themselves live in application/stream
// and infrastructure/stream.
package stream

// SinkKind selects the sink implementation a named sink resolves to.
type SinkKind int

const (
	// SinkFile appends lines to a file, opening and closing it per write so
	// external log rotation (rename/truncate) is always observed.
	SinkFile SinkKind = iota
	// SinkSyslog forwards lines to a syslog daemon over Unix, TCP, or UDP.
	SinkSyslog
)

// SinkSpec is the static, load-time description of one named sink.
type SinkSpec struct {
	Name string
	Kind SinkKind

	// Path is the destination file for SinkFile.
	Path string

	// Network is "unix", "tcp", or "udp" for SinkSyslog.
	Network string
	// Address is the syslog endpoint (socket path, or host:port) for
	// SinkSyslog. Empty Network+Address means the platform's default
	// /dev/log socket.
	Address string
	// Tag is the syslog program tag.
	Tag string
}
