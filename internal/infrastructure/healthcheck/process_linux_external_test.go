//go:build linux

package healthcheck_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/daemon/internal/infrastructure/healthcheck"
)

// selfComm reads this test binary's own comm name out of /proc, the same
// field ProcessPresenceProbe matches against.
func selfComm(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("/proc/self/stat")
	require.NoError(t, err)
	line := string(data)
	open := strings.IndexByte(line, '(')
	closeParen := strings.LastIndexByte(line, ')')
	require.True(t, open >= 0 && closeParen > open)
	return line[open+1 : closeParen]
}

// TestProcessPresenceProbe_Check_matchesSelf tests that the probe finds
// the current process (which, by virtue of running this test, has a
// non-empty cmdline and is not a zombie).
func TestProcessPresenceProbe_Check_matchesSelf(t *testing.T) {
	p := &healthcheck.ProcessPresenceProbe{Name: selfComm(t)}
	ok, msg := p.Check(context.Background())
	assert.True(t, ok, msg)
}

// TestProcessPresenceProbe_Check_noMatch tests that an unmatched name
// reports failure with a descriptive message.
func TestProcessPresenceProbe_Check_noMatch(t *testing.T) {
	p := &healthcheck.ProcessPresenceProbe{Name: "definitely-not-a-real-process-name"}
	ok, msg := p.Check(context.Background())
	assert.False(t, ok)
	assert.Contains(t, msg, "definitely-not-a-real-process-name")
}
