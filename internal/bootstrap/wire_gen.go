//go:build !wireinject

// Package bootstrap isolates dependency construction from cmd/daemon, so
// main stays a one-liner. InitializeApp below is hand-written in the
// style Wire's generator produces (the `wireinject`-tagged injector in
// wire.go is never built, per this project's no-toolchain constraint),
// wiring together the same graph: config loader, executor, reaper,
// signal manager, health-check workers, stream handler, scheduler.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/kodflow/daemon/internal/application/healthcheck"
	"github.com/kodflow/daemon/internal/application/scheduler"
	appstream "github.com/kodflow/daemon/internal/application/stream"
	"github.com/kodflow/daemon/internal/domain/app"
	"github.com/kodflow/daemon/internal/domain/envmerge"
	"github.com/kodflow/daemon/internal/domain/health"
	infrahealthcheck "github.com/kodflow/daemon/internal/infrastructure/healthcheck"
	yamlcfg "github.com/kodflow/daemon/internal/infrastructure/persistence/config/yaml"
	"github.com/kodflow/daemon/internal/infrastructure/process/executor"
	"github.com/kodflow/daemon/internal/infrastructure/process/reaper"
	"github.com/kodflow/daemon/internal/infrastructure/process/signals"
	infrastream "github.com/kodflow/daemon/internal/infrastructure/stream"
)

// App holds every long-lived dependency InitializeApp wires together. It
// is the root object of the dependency graph, the way the teacher's own
// bootstrap.App is.
type App struct {
	Scheduler *scheduler.Scheduler
	Config    *yamlcfg.Config

	reaper        *reaper.Reaper
	streamHandler *appstream.Handler
	signalCh      <-chan os.Signal
	healthCancel  context.CancelFunc
}

// InitializeApp loads configuration at configPath and constructs every
// collaborator the scheduler needs, returning the assembled App.
//
// Params:
//   - configPath: path to the YAML configuration file.
//
// Returns:
//   - *App: the fully wired application.
//   - error: any error during construction.
func InitializeApp(configPath string) (*App, error) {
	cfg, err := yamlcfg.New().Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	exec := executor.New()

	poller, err := infrastream.NewPoller()
	if err != nil {
		return nil, fmt.Errorf("creating stream poller: %w", err)
	}
	streamHandler := appstream.New(poller, infrastream.Read)
	streamHandler.SetErrorHandler(func(label string, err error) {
		fmt.Fprintf(os.Stderr, "warning: %s: dropped line: %v\n", label, err)
	})

	reap := reaper.New()
	reapedCh := make(chan scheduler.Reaped, 64)
	reap.SetReapCallback(func(pid, status int) {
		reapedCh <- scheduler.Reaped{PID: pid, Status: status}
	})

	healthCtx, healthCancel := context.WithCancel(context.Background())
	healthEvents := make(chan health.Result, 32)
	for name, spec := range cfg.HealthChecks {
		probe, err := infrahealthcheck.NewProbe(spec)
		if err != nil {
			healthCancel()
			return nil, fmt.Errorf("building probe for health check %q: %w", name, err)
		}
		w := healthcheck.New(health.Group(name), spec, probe, healthEvents)
		go w.Run(healthCtx)
	}

	sched, err := scheduler.New(scheduler.Config{
		Specs:    cfg.Apps,
		Executor: exec,
		ResolveEnv: func(spec app.Spec) (map[string]string, error) {
			return envmerge.Resolve(spec.EnvFile, spec.EnvPassthrough, spec.Env, os.Environ())
		},
		ResolveSink: func(name string) (scheduler.Sink, error) {
			sink, ok := cfg.Sinks[name]
			if !ok {
				return nil, fmt.Errorf("unknown sink %q", name)
			}
			return infrastream.NewSink(sink)
		},
		Streams: infrastream.NewRegistrar(streamHandler),
		Reaped:  reapedCh,
		Health:  healthEvents,
	})
	if err != nil {
		healthCancel()
		return nil, fmt.Errorf("building scheduler: %w", err)
	}

	sigMgr := signals.New()
	sigCh := sigMgr.Notify(syscall.SIGTERM, syscall.SIGINT)

	if !reap.IsPID1() {
		if err := trySetSubreaper(sigMgr); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not become child subreaper: %v\n", err)
		}
	}

	return &App{
		Scheduler:     sched,
		Config:        cfg,
		reaper:        reap,
		streamHandler: streamHandler,
		signalCh:      sigCh,
		healthCancel:  healthCancel,
	}, nil
}

// Run starts the reaper and stream handler and drives the scheduler until
// ctx is cancelled, returning once every app has reached a terminal state.
func (a *App) Run(ctx context.Context) error {
	a.reaper.Start()
	go a.streamHandler.Start()
	return a.Scheduler.Run(ctx)
}

// Close tears down every background collaborator InitializeApp started.
// Safe to call once, after Run has returned.
func (a *App) Close() {
	a.healthCancel()
	a.reaper.Stop()
	_ = a.streamHandler.Close()
}
