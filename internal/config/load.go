package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// File is the optional TOML configuration file. It mirrors the command-line
// surface; flags given on the command line are applied after the file and
// take precedence for scalar values, while controller declarations append.
type File struct {
	Shim        FileShim         `toml:"shim"`
	Controllers []FileController `toml:"controller"`
	Metrics     MetricsConfig    `toml:"metrics"`
}

// FileShim holds the scalar run settings.
type FileShim struct {
	Path             string `toml:"path"`
	DelayToSigkillUs *int   `toml:"delay_to_sigkill_us"`
	UID              string `toml:"uid"`
	GID              string `toml:"gid"`
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
}

// FileController declares one controller. Sets uses key=value strings in an
// array so setting order survives decoding, matching the --set flag.
type FileController struct {
	Name string   `toml:"name"`
	Sets []string `toml:"sets"`
}

// LoadFile reads and parses a TOML config file, returning the file along
// with warnings for unknown keys.
func LoadFile(path string) (*File, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read config: %s: %w", path, err)
	}
	return LoadBytes(data, path)
}

// LoadBytes parses TOML from raw bytes. The path argument is used only for
// error messages.
func LoadBytes(data []byte, path string) (*File, []string, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, nil, fmt.Errorf("config parse error in %s: %w", path, err)
	}

	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown config key: %s", strings.Join(key, ".")))
	}

	return &f, warnings, nil
}

// Apply merges the file into cfg. Identity names are resolved here so a
// name mapping to uid/gid 0 is rejected as early as a literal 0.
func (f *File) Apply(cfg *Config) error {
	if f.Shim.Path != "" {
		cfg.PathFragment = f.Shim.Path
	}
	if f.Shim.DelayToSigkillUs != nil {
		cfg.SigkillDelay = time.Duration(*f.Shim.DelayToSigkillUs) * time.Microsecond
	}
	if f.Shim.UID != "" {
		uid, err := ResolveUID(f.Shim.UID)
		if err != nil {
			return err
		}
		cfg.UID = uid
	}
	if f.Shim.GID != "" {
		gid, err := ResolveGID(f.Shim.GID)
		if err != nil {
			return err
		}
		cfg.GID = gid
	}
	if f.Shim.LogLevel != "" {
		cfg.LogLevel = f.Shim.LogLevel
	}
	if f.Shim.LogFormat != "" {
		cfg.LogFormat = f.Shim.LogFormat
	}

	var directives DirectiveList
	for _, fc := range f.Controllers {
		if err := directives.AddController(fc.Name); err != nil {
			return err
		}
		for _, kv := range fc.Sets {
			if err := directives.AddSetting(kv); err != nil {
				return err
			}
		}
	}
	cfg.Controllers = append(cfg.Controllers, directives.Specs()...)

	if f.Metrics.Listen != "" {
		cfg.Metrics.Listen = f.Metrics.Listen
	}
	if f.Metrics.Username != "" {
		cfg.Metrics.Username = f.Metrics.Username
	}
	if f.Metrics.Password != "" {
		cfg.Metrics.Password = f.Metrics.Password
	}

	return nil
}
