// Package main provides the entry point for the daemon process
// supervisor. daemon is a PID-1-capable process supervisor: it launches a
// declared set of applications in dependency order, keeps them running,
// health-checks them, reaps zombies, redirects their stdio to files or
// syslog, and shuts the whole tree down cleanly on signal.
package main

import (
	"os"

	"github.com/kodflow/daemon/internal/bootstrap"
)

func main() {
	os.Exit(bootstrap.Run())
}
