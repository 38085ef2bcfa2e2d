package healthcheck

import (
	"fmt"

	"github.com/kodflow/daemon/internal/domain/health"
)

// NewProbe builds the concrete Probe for a health spec's Kind.
func NewProbe(spec health.Spec) (Probe, error) {
	switch spec.Kind {
	case health.KindDiskFree:
		return &DiskFreeProbe{Path: spec.Path, MinFreeMB: spec.MinFreeMB}, nil
	case health.KindProcessPresence:
		return &ProcessPresenceProbe{Name: spec.ProcessName}, nil
	case health.KindTCP:
		return &TCPProbe{Address: spec.Address}, nil
	default:
		return nil, fmt.Errorf("unknown health check kind %d for %q", spec.Kind, spec.Name)
	}
}
