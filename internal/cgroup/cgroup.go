// Package cgroup manages the lifecycle of the controller directories a
// supervised run owns: creation, settings, process membership, and removal.
package cgroup

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/corraldev/corral/internal/config"
)

// DefaultMountRoot is where the kernel exposes the cgroup hierarchy. It is
// not user-configurable; tests inject a scratch directory instead.
const DefaultMountRoot = "/sys/fs/cgroup"

// ProcsFile is the membership pseudo-file inside a controller directory.
const ProcsFile = "cgroup.procs"

// ErrPathInUse reports that the leaf cgroup directory already existed.
// This is a user-facing configuration problem (pick a deeper path or clean
// up a previous run), distinct from permission or mount failures.
var ErrPathInUse = errors.New("cgroup path already in use")

// Controller is the runtime view of one declared controller: its absolute
// directory, its membership file, and the settings to write. It is derived
// once at startup and never mutated; teardown reads it even after the
// directory it describes is gone.
type Controller struct {
	Name      string
	Dir       string
	ProcsPath string
	Settings  []config.Setting
}

// Manager creates, configures, and tears down the controller directories
// for one run. It is safe for the single-threaded supervisor flow; it has
// no internal locking.
type Manager struct {
	mountRoot   string
	controllers []Controller
	logger      *slog.Logger
}

// NewManager derives controller runtimes from the declared specs.
// mountRoot is DefaultMountRoot outside of tests.
func NewManager(mountRoot, fragment string, specs []config.ControllerSpec, logger *slog.Logger) *Manager {
	controllers := make([]Controller, 0, len(specs))
	for _, spec := range specs {
		dir := filepath.Join(mountRoot, spec.Name, fragment)
		controllers = append(controllers, Controller{
			Name:      spec.Name,
			Dir:       dir,
			ProcsPath: filepath.Join(dir, ProcsFile),
			Settings:  spec.Settings,
		})
	}
	return &Manager{
		mountRoot:   mountRoot,
		controllers: controllers,
		logger:      logger,
	}
}

// Controllers returns the derived controller runtimes in declaration order.
func (m *Manager) Controllers() []Controller { return m.controllers }

// ProcsPaths returns every controller's membership file path.
func (m *Manager) ProcsPaths() []string {
	paths := make([]string, 0, len(m.controllers))
	for _, c := range m.controllers {
		paths = append(paths, c.ProcsPath)
	}
	return paths
}

// Create makes every controller directory below the mount root. Ancestor
// creation failures are tolerated (an earlier controller or a previous
// tenant usually owns them); only the leaf mkdir outcome is authoritative.
// A pre-existing leaf reports ErrPathInUse.
func (m *Manager) Create() error {
	for _, c := range m.controllers {
		m.logger.Debug("creating cgroup", "dir", c.Dir)
		if err := createLeaf(c.Dir); err != nil {
			if errors.Is(err, ErrPathInUse) {
				return fmt.Errorf("%w: %s: specify a deeper path or clean up the cgroup", ErrPathInUse, c.Dir)
			}
			return fmt.Errorf("cannot create %s (check permissions): %w", c.Dir, err)
		}
	}
	return nil
}

// createLeaf creates dir and any missing ancestors. Ancestor errors are
// swallowed; the leaf mkdir decides the outcome, with EEXIST mapped to
// ErrPathInUse.
func createLeaf(dir string) error {
	_ = os.MkdirAll(filepath.Dir(dir), 0o755)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrPathInUse
		}
		return err
	}
	return nil
}

// ApplySettings writes every declared setting value verbatim into its
// controller directory. Any failure is fatal to the run: a child must not
// start without its limits in place.
func (m *Manager) ApplySettings() error {
	for _, c := range m.controllers {
		for _, s := range c.Settings {
			path := filepath.Join(c.Dir, s.Key)
			m.logger.Debug("writing cgroup setting", "path", path, "value", s.Value)
			if err := os.WriteFile(path, []byte(s.Value), 0o644); err != nil {
				return fmt.Errorf("error writing %q to %s: %w", s.Value, path, err)
			}
		}
	}
	return nil
}

// Join writes pid into each membership file. It runs in the child stage
// after the re-exec, before privilege drop and exec, so the program image
// starts already confined.
func Join(procsPaths []string, pid int) error {
	for _, path := range procsPaths {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			return fmt.Errorf("can't add pid to %s: %w", path, err)
		}
		_, werr := f.WriteString(strconv.Itoa(pid))
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("can't add pid to %s: %w", path, werr)
		}
		if cerr != nil {
			return fmt.Errorf("can't add pid to %s: %w", path, cerr)
		}
	}
	return nil
}

// MemberPIDs parses the pids currently listed in a membership file. A
// missing file means the directory is already gone and reads as empty, not
// as an error.
func MemberPIDs(procsPath string) []int {
	data, err := os.ReadFile(procsPath)
	if err != nil {
		return nil
	}
	var pids []int
	for _, field := range strings.Fields(string(data)) {
		pid, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// MembersExist reports whether any controller still lists member processes.
func (m *Manager) MembersExist() bool {
	for _, c := range m.controllers {
		if len(MemberPIDs(c.ProcsPath)) > 0 {
			return true
		}
	}
	return false
}

// KillMembers sends sig to every pid listed in every membership file.
// Best-effort: a pid that exited between the read and the kill is not an
// error. Returns the number of signals sent.
func (m *Manager) KillMembers(sig unix.Signal) int {
	sent := 0
	for _, c := range m.controllers {
		for _, pid := range MemberPIDs(c.ProcsPath) {
			if err := unix.Kill(pid, sig); err == nil {
				sent++
			}
		}
	}
	return sent
}

// Remove deletes each controller's leaf directory, best-effort. Only the
// leaf is removed; ancestors may predate this run. Non-empty or already
// removed directories are silently left alone, since teardown must never
// fail the process.
func (m *Manager) Remove() {
	for _, c := range m.controllers {
		m.logger.Debug("removing cgroup", "dir", c.Dir)
		if err := os.Remove(c.Dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.logger.Debug("cgroup removal skipped", "dir", c.Dir, "error", err)
		}
	}
}
