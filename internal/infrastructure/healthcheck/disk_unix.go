//go:build unix

package healthcheck

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// DiskFreeProbe fails when the free space on Path drops below MinFreeMB.
type DiskFreeProbe struct {
	Path      string
	MinFreeMB uint64
}

// Check implements Probe.
func (p *DiskFreeProbe) Check(_ context.Context) (bool, string) {
	var stat unix.Statfs_t
	if err := unix.Statfs(p.Path, &stat); err != nil {
		return false, fmt.Sprintf("statfs %s: %v", p.Path, err)
	}
	freeMB := (uint64(stat.Bsize) * stat.Bavail) / (1 << 20) // #nosec G115 - Bsize is always positive
	if freeMB < p.MinFreeMB {
		return false, fmt.Sprintf("%s: %dMB free, below %dMB minimum", p.Path, freeMB, p.MinFreeMB)
	}
	return true, ""
}
