package stream

import (
	"fmt"

	appstream "github.com/kodflow/daemon/internal/application/stream"
	domainstream "github.com/kodflow/daemon/internal/domain/stream"
)

// NewSink builds the concrete Sink for a domain SinkSpec's Kind.
func NewSink(spec domainstream.SinkSpec) (appstream.Sink, error) {
	switch spec.Kind {
	case domainstream.SinkFile:
		return NewFileSink(spec.Path), nil
	case domainstream.SinkSyslog:
		return NewSyslogSink(spec.Network, spec.Address, spec.Tag), nil
	default:
		return nil, fmt.Errorf("sink %q: unknown kind %d", spec.Name, spec.Kind)
	}
}
