// Package rlimit describes the resource-limit groups an app can be
// constrained by, composed without any platform dependency.
package rlimit

// Group holds the POSIX resource limits a supervised process is bounded
// by. A nil pointer means "not set by this group"; Compose picks the
// tightest (minimum) bound across all applicable groups for each field
// independently.
type Group struct {
	// NOFILE caps the number of open file descriptors.
	NOFILE *uint64
	// NPROC caps the number of processes/threads for the running UID.
	NPROC *uint64
	// AS caps the virtual address space size, in bytes (not mebibytes —
	// config-file values are mebibytes and are converted to bytes when a
	// Spec is loaded, before a Group ever reaches this type).
	AS *uint64
}

// Compose returns the per-resource minimum across groups, skipping groups
// that leave a field unset. An app with no rlimits and no inherited groups
// yields a zero Group (no limits applied).
func Compose(groups ...Group) Group {
	var out Group
	for _, g := range groups {
		out.NOFILE = minPtr(out.NOFILE, g.NOFILE)
		out.NPROC = minPtr(out.NPROC, g.NPROC)
		out.AS = minPtr(out.AS, g.AS)
	}
	return out
}

func minPtr(a, b *uint64) *uint64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	default:
		return a
	}
}
