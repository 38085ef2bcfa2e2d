package stream

import (
	"github.com/kodflow/daemon/internal/application/scheduler"
	appstream "github.com/kodflow/daemon/internal/application/stream"
)

// Registrar adapts an application/stream.Handler to the narrower
// scheduler.StreamRegistrar contract, so the scheduler package never
// needs to import application/stream directly.
type Registrar struct {
	handler *appstream.Handler
}

// NewRegistrar wraps handler for use as a scheduler.StreamRegistrar.
func NewRegistrar(handler *appstream.Handler) *Registrar {
	return &Registrar{handler: handler}
}

// Add implements scheduler.StreamRegistrar.
func (r *Registrar) Add(fd int, label string, sink scheduler.Sink) error {
	return r.handler.Add(fd, label, sink)
}

// Remove implements scheduler.StreamRegistrar.
func (r *Registrar) Remove(fd int) {
	r.handler.Remove(fd)
}
