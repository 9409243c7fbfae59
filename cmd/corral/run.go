package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/corraldev/corral/internal/config"
	"github.com/corraldev/corral/internal/logging"
	"github.com/corraldev/corral/internal/metrics"
	"github.com/corraldev/corral/internal/supervisor"
	"github.com/corraldev/corral/internal/version"
)

var (
	runDirectives    config.DirectiveList
	runPath          string
	runDelayUS       int
	runUID           string
	runGID           string
	runConfigFile    string
	runLogLevel      string
	runLogFormat     string
	runMetricsListen string
)

// controllerValue and settingValue feed both flags into one DirectiveList,
// because a --set belongs to the most recent --controller and two separate
// string slices cannot reconstruct the interleaving.
type controllerValue struct{ d *config.DirectiveList }

func (v controllerValue) String() string     { return "" }
func (v controllerValue) Set(s string) error { return v.d.AddController(s) }
func (v controllerValue) Type() string       { return "controller" }

type settingValue struct{ d *config.DirectiveList }

func (v settingValue) String() string     { return "" }
func (v settingValue) Set(s string) error { return v.d.AddSetting(s) }
func (v settingValue) Type() string       { return "key=value" }

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <program> [args...]",
	Short: "Launch and supervise a program inside cgroup controllers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, warnings, err := buildRunConfig(cmd, args)
		if err != nil {
			// Configuration error: nothing has been created, exit plainly.
			return err
		}

		logger := logging.New(logging.LogConfig{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		})
		for _, w := range warnings {
			logger.Warn("config warning", "warning", w)
		}

		collector := metrics.New()
		goVer := version.GoVersion
		if goVer == "" {
			goVer = runtime.Version()
		}
		collector.SetBuildInfo(version.Version, goVer)

		s := supervisor.New(cfg, logger, supervisor.Options{Collector: collector})
		os.Exit(s.Run())
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.VarP(controllerValue{&runDirectives}, "controller", "c", "cgroup controller to create (repeatable)")
	f.VarP(settingValue{&runDirectives}, "set", "s", "key=value setting for the last declared controller (repeatable)")
	f.StringVarP(&runPath, "path", "p", "", "cgroup path fragment below each controller mount")
	f.IntVarP(&runDelayUS, "delay-to-sigkill", "k", 1000, "microseconds between SIGTERM and SIGKILL")
	f.StringVar(&runUID, "uid", "", "drop privilege to this uid or user")
	f.StringVar(&runGID, "gid", "", "drop privilege to this gid or group")
	f.StringVar(&runConfigFile, "config", "", "TOML config file")
	f.StringVar(&runLogLevel, "log-level", "info", "debug, info, warn, or error")
	f.StringVar(&runLogFormat, "log-format", "", "json or text (default: text on a terminal)")
	f.StringVar(&runMetricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")
	rootCmd.AddCommand(runCmd)
}

// buildRunConfig assembles the validated run configuration: config file
// first, then flags, which override scalars and append controllers.
func buildRunConfig(cmd *cobra.Command, args []string) (*config.Config, []string, error) {
	cfg := config.New()
	cfg.LogLevel = runLogLevel
	cfg.LogFormat = runLogFormat

	var warnings []string
	if runConfigFile != "" {
		file, w, err := config.LoadFile(runConfigFile)
		if err != nil {
			return nil, nil, err
		}
		warnings = w
		if err := file.Apply(cfg); err != nil {
			return nil, nil, err
		}
	}

	if runPath != "" {
		cfg.PathFragment = runPath
	}
	if cmd.Flags().Changed("delay-to-sigkill") {
		cfg.SigkillDelay = time.Duration(runDelayUS) * time.Microsecond
	}
	if runUID != "" {
		uid, err := config.ResolveUID(runUID)
		if err != nil {
			return nil, nil, err
		}
		cfg.UID = uid
	}
	if runGID != "" {
		gid, err := config.ResolveGID(runGID)
		if err != nil {
			return nil, nil, err
		}
		cfg.GID = gid
	}
	if runMetricsListen != "" {
		cfg.Metrics.Listen = runMetricsListen
	}

	cfg.Controllers = append(cfg.Controllers, runDirectives.Specs()...)

	if len(args) > 0 {
		cfg.Program = args[0]
		cfg.Args = args[1:]
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	return cfg, warnings, nil
}
