// Package yaml loads the supervisor's configuration from a YAML file into
// the domain types the scheduler and its collaborators consume.
package yaml

import (
	"time"

	"github.com/kodflow/daemon/internal/domain/app"
	"github.com/kodflow/daemon/internal/domain/health"
	"github.com/kodflow/daemon/internal/domain/rlimit"
	"github.com/kodflow/daemon/internal/domain/stream"
)

// DocumentDTO is the root of the YAML configuration file.
type DocumentDTO struct {
	Version  string      `yaml:"version"`
	Packages []string    `yaml:"packages"`
	Sinks    []SinkDTO   `yaml:"sinks"`
	Health   []HealthDTO `yaml:"health_checks"`
	Apps     []AppDTO    `yaml:"apps"`
}

// SinkDTO describes one named stream destination.
type SinkDTO struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // "file" | "syslog"
	Path    string `yaml:"path"`
	Network string `yaml:"network"`
	Address string `yaml:"address"`
	Tag     string `yaml:"tag"`
}

// HealthDTO describes one named health check.
type HealthDTO struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"` // "disk_free" | "process_presence" | "tcp"
	Interval   string `yaml:"interval"`
	Timeout    string `yaml:"timeout"`
	Jitter     string `yaml:"jitter"`
	Path       string `yaml:"path"`
	MinFreeMB  uint64 `yaml:"min_free_mb"`
	Process    string `yaml:"process"`
	Address    string `yaml:"address"`
}

// RlimitsDTO describes one app's resource limits. NOFILE and NPROC are
// plain counts; AS is in mebibytes, converted to bytes by toDomain.
type RlimitsDTO struct {
	NOFILE *uint64 `yaml:"nofile"`
	NPROC  *uint64 `yaml:"nproc"`
	AS     *uint64 `yaml:"as"`
}

// mebibyte is the unit config authors write AS in; rlimit.Group.AS is in
// bytes, the unit prlimit(2) expects.
const mebibyte = 1 << 20

// RouteDTO describes where one stdout/stderr pipe is sent.
type RouteDTO struct {
	Sink string `yaml:"sink"`
}

// AppDTO describes one supervised application.
type AppDTO struct {
	Name               string            `yaml:"name"`
	Mode               string            `yaml:"mode"` // "simple" | "forking" | "oneshot"
	Command            string            `yaml:"command"`
	Args               []string          `yaml:"args"`
	Dir                string            `yaml:"dir"`
	Env                map[string]string `yaml:"env"`
	EnvFile            string            `yaml:"env_file"`
	EnvPassthrough     []string          `yaml:"env_passthrough"`
	User               string            `yaml:"user"`
	Group              string            `yaml:"group"`
	PIDFile            string            `yaml:"pid_file"`
	Rlimits            RlimitsDTO        `yaml:"rlimits"`
	DependsOn          []string          `yaml:"depends_on"`
	HealthChecks       []string          `yaml:"health_checks"`
	Restart            string            `yaml:"restart"` // "on-failure" | "always" | "never"
	MaxRestarts        int               `yaml:"max_restarts"`
	RestartBackoffBase string            `yaml:"restart_backoff_base"`
	RestartBackoffMax  string            `yaml:"restart_backoff_max"`
	StopSignal         string            `yaml:"stop_signal"`
	StopCommand        string            `yaml:"stop_command"`
	StopArgs           []string          `yaml:"stop_args"`
	StopTimeout        string            `yaml:"stop_timeout"`
	Stdout             RouteDTO          `yaml:"stdout"`
	Stderr             RouteDTO          `yaml:"stderr"`
}

// toDuration parses s as a Go duration, returning def if s is empty.
func toDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func (d AppDTO) toMode() app.Mode {
	switch d.Mode {
	case "forking":
		return app.ModeForking
	case "oneshot":
		return app.ModeOneShot
	default:
		return app.ModeSimple
	}
}

func (d AppDTO) toRestart() app.RestartPolicy {
	switch d.Restart {
	case "always":
		return app.RestartAlways
	case "never":
		return app.RestartNever
	default:
		return app.RestartOnFailure
	}
}

func (d RlimitsDTO) toDomain() rlimit.Group {
	return rlimit.Group{NOFILE: d.NOFILE, NPROC: d.NPROC, AS: mebibytesToBytes(d.AS)}
}

// mebibytesToBytes converts a config-file mebibyte count to the bytes
// rlimit.Group.AS is defined in, leaving nil (unset) untouched.
func mebibytesToBytes(mib *uint64) *uint64 {
	if mib == nil {
		return nil
	}
	bytes := *mib * mebibyte
	return &bytes
}

func (d HealthDTO) toKind() (health.Kind, error) {
	switch d.Type {
	case "disk_free":
		return health.KindDiskFree, nil
	case "process_presence":
		return health.KindProcessPresence, nil
	case "tcp":
		return health.KindTCP, nil
	default:
		return 0, unknownHealthKind(d.Type)
	}
}

func (d SinkDTO) toKind() (stream.SinkKind, error) {
	switch d.Type {
	case "file":
		return stream.SinkFile, nil
	case "syslog":
		return stream.SinkSyslog, nil
	default:
		return 0, unknownSinkKind(d.Type)
	}
}
