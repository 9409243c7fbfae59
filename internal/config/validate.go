package config

import "fmt"

// Validate checks the assembled config for semantic errors and returns all
// of them. A non-empty result means the run must not start; nothing has
// been created yet at this point, so no cleanup is needed.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Program == "" {
		errs = append(errs, fmt.Errorf("specify a program to run"))
	}

	if cfg.PathFragment == "" && len(cfg.Controllers) > 0 {
		errs = append(errs, fmt.Errorf("specify a cgroup path (-p) when declaring controllers"))
	}
	if cfg.PathFragment != "" && len(cfg.Controllers) == 0 {
		errs = append(errs, fmt.Errorf("specify a cgroup controller (-c) when specifying a path"))
	}

	if cfg.SigkillDelay < 0 || cfg.SigkillDelay > MaxSigkillDelay {
		errs = append(errs, fmt.Errorf("delay to SIGKILL must be between 0 and 1,000,000 microseconds"))
	}

	if cfg.UID == 0 {
		errs = append(errs, fmt.Errorf("running as root or uid 0 is not allowed"))
	}
	if cfg.GID == 0 {
		errs = append(errs, fmt.Errorf("running as group root or gid 0 is not allowed"))
	}

	seen := make(map[string]bool, len(cfg.Controllers))
	for _, spec := range cfg.Controllers {
		if seen[spec.Name] {
			errs = append(errs, fmt.Errorf("controller %q declared twice", spec.Name))
		}
		seen[spec.Name] = true
	}

	if cfg.Metrics.Listen == "" && (cfg.Metrics.Username != "" || cfg.Metrics.Password != "") {
		errs = append(errs, fmt.Errorf("metrics credentials are set but metrics.listen is not"))
	}

	return errs
}
