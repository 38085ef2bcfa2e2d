//go:build !wireinject

package bootstrap

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kodflow/daemon/internal/infrastructure/packages"
	yamlcfg "github.com/kodflow/daemon/internal/infrastructure/persistence/config/yaml"
	"github.com/kodflow/daemon/internal/infrastructure/transport/tui"
)

// version is set at build time via -ldflags.
var version = "dev"

// Run is the entry point cmd/daemon/main.go calls. It parses flags,
// dispatches the one-shot modes (--version, --dry-run,
// --install-packages-only), and otherwise wires and runs the supervisor.
//
// Returns:
//   - int: the process exit code.
func Run() int {
	var configPath string
	flag.StringVar(&configPath, "config", "/etc/daemon/config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version and exit")
	dryRun := flag.Bool("dry-run", false, "validate configuration and exit without starting supervision")
	installOnly := flag.Bool("install-packages-only", false, "install configured distro packages and exit")
	interactive := flag.Bool("tui", false, "show an interactive status view while supervising")
	flag.Parse()

	if *showVersion {
		fmt.Printf("daemon %s\n", version)
		return 0
	}

	if *dryRun {
		return runDryRun(configPath)
	}

	if *installOnly {
		return runInstallOnly(configPath)
	}

	if err := run(configPath, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func runDryRun(configPath string) int {
	if _, err := yamlcfg.New().Load(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}
	fmt.Println("configuration is valid")
	return 0
}

func runInstallOnly(configPath string) int {
	cfg, err := yamlcfg.New().Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := packages.New().Install(context.Background(), cfg.Packages); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// run wires the full application and drives it to quiescence: it blocks
// until a terminating signal is received and every app has reached a
// terminal state, per spec's exit-code discipline (0 clean, non-zero on
// pre-supervision failure — a failure here never leaves a partially
// started app tree behind, since InitializeApp either builds the whole
// graph or returns an error before anything is spawned).
func run(configPath string, interactive bool) error {
	a, err := InitializeApp(configPath)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer a.Close()

	if len(a.Config.Packages) > 0 {
		if err := packages.New().Install(context.Background(), a.Config.Packages); err != nil {
			return fmt.Errorf("installing packages: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-a.signalCh
		cancel()
	}()

	runDone := make(chan error, 1)
	go func() { runDone <- a.Run(ctx) }()

	if interactive {
		if err := tui.Run(ctx, a.Scheduler.Snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "warning: status view error: %v\n", err)
		}
	}

	return <-runDone
}
