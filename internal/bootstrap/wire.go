//go:build wireinject

package bootstrap

import (
	"github.com/google/wire"

	"github.com/kodflow/daemon/internal/application/healthcheck"
	appstream "github.com/kodflow/daemon/internal/application/stream"
	"github.com/kodflow/daemon/internal/application/scheduler"
	infrahealthcheck "github.com/kodflow/daemon/internal/infrastructure/healthcheck"
	infraconfig "github.com/kodflow/daemon/internal/infrastructure/persistence/config/yaml"
	"github.com/kodflow/daemon/internal/infrastructure/process/control"
	"github.com/kodflow/daemon/internal/infrastructure/process/credentials"
	"github.com/kodflow/daemon/internal/infrastructure/process/executor"
	infrareaper "github.com/kodflow/daemon/internal/infrastructure/process/reaper"
	infrasignals "github.com/kodflow/daemon/internal/infrastructure/process/signals"
	infrastream "github.com/kodflow/daemon/internal/infrastructure/stream"
)

// InitializeApp is the Wire injector. It is never built (this file is
// wireinject-tagged and `go generate` is not run); wire_gen.go carries the
// hand-written wiring instead. The providers LoadConfig,
// ProvideHealthWorkers, ProvideStreamHandler, ProvideSchedulerConfig and
// NewApp named below are not defined in this package, so this file does
// not compile even with the wireinject tag set.
//
// Params:
//   - configPath: path to the YAML configuration file.
//
// Returns:
//   - *App: the fully wired application.
//   - error: any error during construction.
func InitializeApp(configPath string) (*App, error) {
	wire.Build(
		infraconfig.New,
		LoadConfig,

		credentials.New,
		wire.Bind(new(credentials.CredentialManager), new(*credentials.Manager)),

		control.New,
		wire.Bind(new(control.ProcessControl), new(*control.Control)),

		executor.NewWithDeps,
		wire.Bind(new(scheduler.Executor), new(*executor.Executor)),

		infrareaper.New,
		infrasignals.New,

		ProvideHealthWorkers,
		ProvideStreamHandler,
		wire.Bind(new(scheduler.StreamRegistrar), new(*infrastream.Registrar)),

		ProvideSchedulerConfig,
		scheduler.New,

		NewApp,
	)
	return nil, nil
}

// the following references only keep these imports in use; they have no
// effect since the file is never compiled (wireinject).
var (
	_ = healthcheck.Worker{}
	_ = appstream.Handler{}
	_ = infrahealthcheck.NewProbe
)
