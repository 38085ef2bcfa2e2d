// Package packages installs the distro packages a supervised set of apps
// declares as prerequisites, via whichever of apt-get/yum is present on
// the host. It runs once, before supervision begins, and is fail-fast:
// a single failed install aborts the whole run with no supervision side
// effects.
package packages

import (
	"context"
	"fmt"
	"os/exec"
)

// Installer installs a list of named packages using the first available
// package manager.
type Installer struct {
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// New creates an Installer that probes PATH for apt-get/yum and execs the
// real package manager.
func New() *Installer {
	return &Installer{
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 - operator-configured package names
			return cmd.Run()
		},
	}
}

// Install installs each of names in order, stopping at the first failure.
// It is a no-op if names is empty.
func (in *Installer) Install(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	manager, args, err := in.detect()
	if err != nil {
		return err
	}
	for _, name := range names {
		installArgs := append(append([]string{}, args...), name)
		if err := in.run(ctx, manager, installArgs...); err != nil {
			return fmt.Errorf("installing package %q via %s: %w", name, manager, err)
		}
	}
	return nil
}

// detect returns the package manager binary and its fixed install-verb
// arguments (everything before the package name itself).
func (in *Installer) detect() (manager string, args []string, err error) {
	if _, err := in.lookPath("apt-get"); err == nil {
		return "apt-get", []string{"-y", "--no-install-recommends", "install"}, nil
	}
	if _, err := in.lookPath("yum"); err == nil {
		return "yum", []string{"-y", "install"}, nil
	}
	return "", nil, fmt.Errorf("no supported package manager found (apt-get, yum)")
}
