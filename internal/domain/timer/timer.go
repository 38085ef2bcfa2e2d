// Package timer provides the scheduler's single wait-until-next-deadline
// primitive: a small, unsorted set of pending deadlines.
package timer

import "time"

// Kind identifies what a fired timer represents to its owner.
type Kind int

const (
	// KindKillDeadline fires when a Stopping app's grace period expires.
	KindKillDeadline Kind = iota
	// KindRestartBackoff fires when a failed app becomes eligible to restart.
	KindRestartBackoff
	// KindHealthProbe fires a scheduled health-check tick.
	KindHealthProbe
)

// Entry is one pending deadline, tagged with the app index and kind it
// belongs to so the scheduler can dispatch on expiry.
type Entry struct {
	At      time.Time
	AppIdx  int
	Kind    Kind
	Seq     uint64 // distinguishes entries with identical At/AppIdx/Kind
}

// Set is a plain slice of pending entries, scanned linearly for the
// earliest deadline. The expected cardinality (one entry per in-flight
// stop/backoff/health-probe, bounded by the app count) is small enough
// that a linear scan beats the bookkeeping of a heap.
type Set struct {
	entries []Entry
	seq     uint64
}

// New returns an empty timer set.
func New() *Set {
	return &Set{}
}

// Add inserts a new deadline and returns the handle needed to Remove it.
func (s *Set) Add(at time.Time, appIdx int, kind Kind) uint64 {
	s.seq++
	s.entries = append(s.entries, Entry{At: at, AppIdx: appIdx, Kind: kind, Seq: s.seq})
	return s.seq
}

// Remove drops the entry with the given handle, if present.
func (s *Set) Remove(seq uint64) {
	for i, e := range s.entries {
		if e.Seq == seq {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// RemoveApp drops every pending entry belonging to appIdx with the given
// kind (used when a stop completes before its kill deadline, or a health
// probe is cancelled because the app left Running).
func (s *Set) RemoveApp(appIdx int, kind Kind) {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.AppIdx == appIdx && e.Kind == kind {
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
}

// NextTimeout returns the duration until the earliest pending deadline,
// and false if the set is empty.
func (s *Set) NextTimeout(now time.Time) (time.Duration, bool) {
	entry, ok := s.earliest()
	if !ok {
		return 0, false
	}
	d := entry.At.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// PopEarliest removes and returns the earliest pending entry if it is due
// at or before now.
func (s *Set) PopEarliest(now time.Time) (Entry, bool) {
	entry, ok := s.earliest()
	if !ok || entry.At.After(now) {
		return Entry{}, false
	}
	s.Remove(entry.Seq)
	return entry, true
}

// earliest performs the linear min-scan.
func (s *Set) earliest() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	min := s.entries[0]
	for _, e := range s.entries[1:] {
		if e.At.Before(min.At) {
			min = e
		}
	}
	return min, true
}

// Len reports the number of pending entries.
func (s *Set) Len() int { return len(s.entries) }
