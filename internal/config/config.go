// Package config builds and validates the Corral run configuration from
// command-line directives and an optional TOML file.
package config

import "time"

// MaxSigkillDelay bounds the grace period between SIGTERM and SIGKILL.
const MaxSigkillDelay = time.Second

// DefaultSigkillDelay is the grace period used when none is configured.
const DefaultSigkillDelay = 1000 * time.Microsecond

// Setting is a single key=value pair written into a controller directory
// before the child is launched.
type Setting struct {
	Key   string
	Value string
}

// ControllerSpec declares one cgroup controller and the settings to apply
// to it, in declaration order.
type ControllerSpec struct {
	Name     string
	Settings []Setting
}

// Config is the validated, immutable configuration for one supervised run.
// It is shared read-only by the cgroup manager, the launcher, and the
// teardown path.
type Config struct {
	// PathFragment is the cgroup directory created below each controller
	// mount. Required iff at least one controller is declared.
	PathFragment string

	// Controllers lists the declared controllers in declaration order.
	Controllers []ControllerSpec

	// SigkillDelay is the wait between the polite SIGTERM and the brutal
	// SIGKILL when shutting the child down. At most MaxSigkillDelay.
	SigkillDelay time.Duration

	// UID and GID are the identities to drop to before exec. -1 means
	// keep the current identity. 0 is rejected at validation time.
	UID int
	GID int

	// Program and Args are the command to supervise.
	Program string
	Args    []string

	LogLevel  string
	LogFormat string

	Metrics MetricsConfig
}

// MetricsConfig controls the optional Prometheus exposition listener.
type MetricsConfig struct {
	Listen   string `toml:"listen"`
	Username string `toml:"username"`
	Password string `toml:"password"` // bcrypt hash
}

// New returns a Config with identity fields unset and the default
// SIGKILL delay.
func New() *Config {
	return &Config{
		SigkillDelay: DefaultSigkillDelay,
		UID:          -1,
		GID:          -1,
	}
}
