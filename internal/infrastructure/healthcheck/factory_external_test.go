package healthcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/daemon/internal/domain/health"
	"github.com/kodflow/daemon/internal/infrastructure/healthcheck"
)

// TestNewProbe tests that each health.Kind resolves to its matching
// concrete Probe, with the spec's fields threaded through correctly.
func TestNewProbe(t *testing.T) {
	tests := []struct {
		name string
		spec health.Spec
		want healthcheck.Probe
	}{
		{
			name: "disk free",
			spec: health.Spec{Kind: health.KindDiskFree, Path: "/var", MinFreeMB: 100},
			want: &healthcheck.DiskFreeProbe{Path: "/var", MinFreeMB: 100},
		},
		{
			name: "process presence",
			spec: health.Spec{Kind: health.KindProcessPresence, ProcessName: "nginx"},
			want: &healthcheck.ProcessPresenceProbe{Name: "nginx"},
		},
		{
			name: "tcp",
			spec: health.Spec{Kind: health.KindTCP, Address: "127.0.0.1:8080"},
			want: &healthcheck.TCPProbe{Address: "127.0.0.1:8080"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := healthcheck.NewProbe(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNewProbe_unknownKind tests that an unrecognized Kind is rejected.
func TestNewProbe_unknownKind(t *testing.T) {
	_, err := healthcheck.NewProbe(health.Spec{Kind: health.Kind(99), Name: "bogus"})
	assert.Error(t, err)
}
