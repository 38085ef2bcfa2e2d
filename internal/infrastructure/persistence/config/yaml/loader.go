package yaml

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kodflow/daemon/internal/domain/app"
	"github.com/kodflow/daemon/internal/domain/health"
	"github.com/kodflow/daemon/internal/domain/stream"
)

// Default configuration values applied when a YAML document omits them.
const (
	defaultRestartBackoffBase = time.Second
	defaultRestartBackoffMax  = 30 * time.Second
	defaultStopTimeout        = 5 * time.Second
	defaultHealthInterval     = 5 * time.Second
	defaultHealthTimeout      = 2 * time.Second
	defaultHealthJitter       = 500 * time.Millisecond
)

// Config is the fully resolved, validated supervisor configuration.
type Config struct {
	Apps         []app.Spec
	HealthChecks map[string]health.Spec
	Sinks        map[string]stream.SinkSpec
	Packages     []string
}

// Loader loads and validates YAML configuration files.
type Loader struct{}

// New creates a YAML configuration loader.
func New() *Loader {
	return &Loader{}
}

// Load reads, parses, and validates the configuration file at path.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - config path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return l.Parse(data)
}

// Parse parses and validates a YAML document already read into memory.
func (l *Loader) Parse(data []byte) (*Config, error) {
	var doc DocumentDTO
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	sinks, err := buildSinks(doc.Sinks)
	if err != nil {
		return nil, err
	}
	healthChecks, err := buildHealthChecks(doc.Health)
	if err != nil {
		return nil, err
	}
	apps, err := buildApps(doc.Apps)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Apps: apps, HealthChecks: healthChecks, Sinks: sinks, Packages: doc.Packages}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func buildSinks(dtos []SinkDTO) (map[string]stream.SinkSpec, error) {
	out := make(map[string]stream.SinkSpec, len(dtos))
	for _, d := range dtos {
		if d.Name == "" {
			return nil, fmt.Errorf("sink missing name")
		}
		kind, err := d.toKind()
		if err != nil {
			return nil, fmt.Errorf("sink %q: %w", d.Name, err)
		}
		out[d.Name] = stream.SinkSpec{
			Name: d.Name, Kind: kind, Path: d.Path,
			Network: d.Network, Address: d.Address, Tag: d.Tag,
		}
	}
	return out, nil
}

func buildHealthChecks(dtos []HealthDTO) (map[string]health.Spec, error) {
	out := make(map[string]health.Spec, len(dtos))
	for _, d := range dtos {
		if d.Name == "" {
			return nil, fmt.Errorf("health check missing name")
		}
		kind, err := d.toKind()
		if err != nil {
			return nil, fmt.Errorf("health check %q: %w", d.Name, err)
		}
		interval, err := toDuration(d.Interval, defaultHealthInterval)
		if err != nil {
			return nil, fmt.Errorf("health check %q: interval: %w", d.Name, err)
		}
		timeout, err := toDuration(d.Timeout, defaultHealthTimeout)
		if err != nil {
			return nil, fmt.Errorf("health check %q: timeout: %w", d.Name, err)
		}
		// An omitted jitter bound defaults to the check's interval.
		jitter, err := toDuration(d.Jitter, interval)
		if err != nil {
			return nil, fmt.Errorf("health check %q: jitter: %w", d.Name, err)
		}
		out[d.Name] = health.Spec{
			Name: d.Name, Kind: kind,
			Interval: interval, Timeout: timeout, InitialDelayJitter: jitter,
			Path: d.Path, MinFreeMB: d.MinFreeMB,
			ProcessName: d.Process, Address: d.Address,
		}
	}
	return out, nil
}

func buildApps(dtos []AppDTO) ([]app.Spec, error) {
	out := make([]app.Spec, 0, len(dtos))
	for _, d := range dtos {
		if d.Name == "" {
			return nil, fmt.Errorf("app missing name")
		}
		if d.Command == "" {
			return nil, fmt.Errorf("app %q missing command", d.Name)
		}
		backoffBase, err := toDuration(d.RestartBackoffBase, defaultRestartBackoffBase)
		if err != nil {
			return nil, fmt.Errorf("app %q: restart_backoff_base: %w", d.Name, err)
		}
		backoffMax, err := toDuration(d.RestartBackoffMax, defaultRestartBackoffMax)
		if err != nil {
			return nil, fmt.Errorf("app %q: restart_backoff_max: %w", d.Name, err)
		}
		stopTimeout, err := toDuration(d.StopTimeout, defaultStopTimeout)
		if err != nil {
			return nil, fmt.Errorf("app %q: stop_timeout: %w", d.Name, err)
		}
		if d.Mode == "forking" && d.PIDFile == "" {
			return nil, fmt.Errorf("app %q: mode forking requires pid_file", d.Name)
		}
		out = append(out, app.Spec{
			Name: d.Name, Mode: d.toMode(), Command: d.Command, Args: d.Args,
			Dir: d.Dir, Env: d.Env, EnvFile: d.EnvFile, EnvPassthrough: d.EnvPassthrough,
			User: d.User, Group: d.Group, PIDFile: d.PIDFile,
			Rlimits: d.Rlimits.toDomain(), DependsOn: d.DependsOn, HealthChecks: d.HealthChecks,
			Restart: d.toRestart(), MaxRestarts: d.MaxRestarts,
			RestartBackoffBase: backoffBase, RestartBackoffMax: backoffMax,
			StopSignal: d.StopSignal, StopCommand: d.StopCommand, StopArgs: d.StopArgs,
			StopTimeout: stopTimeout,
			Stdout: app.StreamRoute{Sink: d.Stdout.Sink}, Stderr: app.StreamRoute{Sink: d.Stderr.Sink},
		})
	}
	return out, nil
}

// validate checks referential integrity (health checks and sinks an app
// names must exist) and that the dependency graph itself is well-formed
// (duplicate names, unknown dependencies, cycles), via app.NewGraph.
func validate(cfg *Config) error {
	if _, err := app.NewGraph(cfg.Apps); err != nil {
		return err
	}
	for _, a := range cfg.Apps {
		for _, hc := range a.HealthChecks {
			if _, ok := cfg.HealthChecks[hc]; !ok {
				return fmt.Errorf("app %q references unknown health check %q", a.Name, hc)
			}
		}
		if a.Stdout.Sink != "" {
			if _, ok := cfg.Sinks[a.Stdout.Sink]; !ok {
				return fmt.Errorf("app %q references unknown stdout sink %q", a.Name, a.Stdout.Sink)
			}
		}
		if a.Stderr.Sink != "" {
			if _, ok := cfg.Sinks[a.Stderr.Sink]; !ok {
				return fmt.Errorf("app %q references unknown stderr sink %q", a.Name, a.Stderr.Sink)
			}
		}
	}
	return nil
}

func unknownHealthKind(t string) error { return fmt.Errorf("unknown health check type %q", t) }
func unknownSinkKind(t string) error   { return fmt.Errorf("unknown sink type %q", t) }
