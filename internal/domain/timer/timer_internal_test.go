package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSet_earliest tests the linear min-scan across a handful of
// insertion orders, including ties broken by insertion sequence.
func TestSet_earliest(t *testing.T) {
	base := time.Unix(1000, 0)

	tests := []struct {
		name     string
		offsets  []time.Duration // one entry added per offset, in order
		wantIdx  int             // index into offsets of the expected earliest
	}{
		{
			name:    "single entry",
			offsets: []time.Duration{5 * time.Second},
			wantIdx: 0,
		},
		{
			name:    "earliest added first",
			offsets: []time.Duration{time.Second, 10 * time.Second, 20 * time.Second},
			wantIdx: 0,
		},
		{
			name:    "earliest added last",
			offsets: []time.Duration{20 * time.Second, 10 * time.Second, time.Second},
			wantIdx: 2,
		},
		{
			name:    "tie keeps first inserted",
			offsets: []time.Duration{5 * time.Second, 5 * time.Second},
			wantIdx: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			var handles []uint64
			for i, off := range tt.offsets {
				handles = append(handles, s.Add(base.Add(off), i, KindKillDeadline))
			}
			entry, ok := s.earliest()
			require.True(t, ok)
			assert.Equal(t, handles[tt.wantIdx], entry.Seq)
			assert.Equal(t, tt.wantIdx, entry.AppIdx)
		})
	}

	t.Run("empty set", func(t *testing.T) {
		s := New()
		_, ok := s.earliest()
		assert.False(t, ok)
	})
}

// TestSet_PopEarliest tests that PopEarliest only returns entries due at
// or before now, and removes exactly the popped entry.
func TestSet_PopEarliest(t *testing.T) {
	base := time.Unix(2000, 0)
	s := New()
	h1 := s.Add(base.Add(time.Second), 0, KindRestartBackoff)
	h2 := s.Add(base.Add(2*time.Second), 1, KindRestartBackoff)

	// Not yet due: nothing pops.
	_, ok := s.PopEarliest(base)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())

	// Due: the earliest (h1) pops, h2 remains.
	entry, ok := s.PopEarliest(base.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, h1, entry.Seq)
	assert.Equal(t, 1, s.Len())

	// Advancing further pops h2.
	entry, ok = s.PopEarliest(base.Add(3 * time.Second))
	require.True(t, ok)
	assert.Equal(t, h2, entry.Seq)
	assert.Equal(t, 0, s.Len())

	_, ok = s.PopEarliest(base.Add(10 * time.Second))
	assert.False(t, ok)
}

// TestSet_NextTimeout tests the reported wait duration, including the
// floor at zero for already-due entries.
func TestSet_NextTimeout(t *testing.T) {
	base := time.Unix(3000, 0)

	t.Run("empty set reports not ok", func(t *testing.T) {
		s := New()
		_, ok := s.NextTimeout(base)
		assert.False(t, ok)
	})

	t.Run("future deadline reports remaining duration", func(t *testing.T) {
		s := New()
		s.Add(base.Add(5*time.Second), 0, KindHealthProbe)
		d, ok := s.NextTimeout(base)
		require.True(t, ok)
		assert.Equal(t, 5*time.Second, d)
	})

	t.Run("past deadline floors at zero", func(t *testing.T) {
		s := New()
		s.Add(base.Add(-5*time.Second), 0, KindHealthProbe)
		d, ok := s.NextTimeout(base)
		require.True(t, ok)
		assert.Equal(t, time.Duration(0), d)
	})
}

// TestSet_Remove tests that Remove drops only the matching handle.
func TestSet_Remove(t *testing.T) {
	s := New()
	h1 := s.Add(time.Unix(1, 0), 0, KindKillDeadline)
	h2 := s.Add(time.Unix(2, 0), 1, KindKillDeadline)

	s.Remove(h1)
	assert.Equal(t, 1, s.Len())
	entry, ok := s.earliest()
	require.True(t, ok)
	assert.Equal(t, h2, entry.Seq)

	// Removing an unknown handle is a no-op.
	s.Remove(999)
	assert.Equal(t, 1, s.Len())
}

// TestSet_RemoveApp tests that RemoveApp drops only entries matching both
// the app index and kind, leaving others intact.
func TestSet_RemoveApp(t *testing.T) {
	s := New()
	s.Add(time.Unix(1, 0), 0, KindKillDeadline)
	s.Add(time.Unix(2, 0), 0, KindHealthProbe)
	s.Add(time.Unix(3, 0), 1, KindKillDeadline)

	s.RemoveApp(0, KindKillDeadline)

	require.Equal(t, 2, s.Len())
	for _, e := range s.entries {
		assert.False(t, e.AppIdx == 0 && e.Kind == KindKillDeadline)
	}
}
