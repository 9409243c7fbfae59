// Package supervisor runs the Corral event loop: it creates and configures
// the cgroups, launches the child, waits on stdio hangup and the signal
// relay, and guarantees teardown of everything the run created.
package supervisor

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/corraldev/corral/internal/cgroup"
	"github.com/corraldev/corral/internal/config"
	"github.com/corraldev/corral/internal/launch"
	"github.com/corraldev/corral/internal/metrics"
	"github.com/corraldev/corral/internal/relay"
)

// GenericFailure is the exit code when the run did not end on the child's
// own terms: stdio hangup, a terminal signal to the supervisor, or a child
// killed by a signal.
const GenericFailure = 1

// Supervisor owns the state of one supervised run. It is driven entirely
// by the main control flow; the teardown path borrows it read-only after
// signal delivery has been disabled.
type Supervisor struct {
	cfg     *config.Config
	cgroups *cgroup.Manager
	relay   *relay.Relay
	logger  *slog.Logger
	metrics *metrics.Collector
	mserver *metrics.Server

	machine  Machine
	childPID int
	exitCode int

	teardownOnce sync.Once

	// Injectable for tests.
	stdinFd  int
	stdoutFd int
}

// Options tweak construction. Zero values give production behavior.
type Options struct {
	// MountRoot overrides the cgroup mount root. Tests point this at a
	// scratch directory.
	MountRoot string

	// Collector receives run metrics when non-nil.
	Collector *metrics.Collector
}

// New builds a supervisor for the given validated config.
func New(cfg *config.Config, logger *slog.Logger, opts Options) *Supervisor {
	mountRoot := opts.MountRoot
	if mountRoot == "" {
		mountRoot = cgroup.DefaultMountRoot
	}
	return &Supervisor{
		cfg:      cfg,
		cgroups:  cgroup.NewManager(mountRoot, cfg.PathFragment, cfg.Controllers, logger),
		logger:   logger,
		metrics:  opts.Collector,
		stdinFd:  int(os.Stdin.Fd()),
		stdoutFd: int(os.Stdout.Fd()),
	}
}

// Run executes the whole lifecycle and returns the process exit code.
// Teardown is guaranteed on every path after the relay is installed,
// including fatal runtime errors.
func (s *Supervisor) Run() int {
	// The relay channel must exist before any disposition is installed,
	// and teardown is registered before any resource is created so a
	// partially built run is still cleaned up.
	s.relay = relay.New()
	defer s.Teardown()

	if err := s.cgroups.Create(); err != nil {
		if errors.Is(err, cgroup.ErrPathInUse) {
			s.logger.Error("cgroup path conflict", "error", err)
		} else {
			s.logger.Error("cgroup creation failed", "error", err)
		}
		return GenericFailure
	}
	if err := s.cgroups.ApplySettings(); err != nil {
		s.logger.Error("cgroup settings failed", "error", err)
		return GenericFailure
	}

	pid, err := launch.Start(launch.Spec{
		ProcsPaths: s.cgroups.ProcsPaths(),
		GID:        s.cfg.GID,
		UID:        s.cfg.UID,
		Program:    s.cfg.Program,
		Args:       s.cfg.Args,
	})
	if err != nil {
		s.logger.Error("launch failed", "error", err)
		return GenericFailure
	}
	s.childPID = pid
	s.logger.Info("child started", "pid", pid, "program", s.cfg.Program)
	if s.metrics != nil {
		s.metrics.ChildRunning.Set(1)
	}

	if s.cfg.Metrics.Listen != "" && s.metrics != nil {
		s.mserver = metrics.NewServer(s.metrics, s.cfg.Metrics.Listen,
			s.cfg.Metrics.Username, s.cfg.Metrics.Password, s.logger)
		s.mserver.Start()
	}

	if err := s.machine.Transition(Supervising); err != nil {
		s.logger.Error("phase error", "error", err)
		return GenericFailure
	}

	hangups := relay.WatchHangup(s.stdinFd, s.stdoutFd, s.logger)
	return s.loop(hangups.C)
}

// loop is the multiplexed wait: stdio hangup and relayed signals are the
// only readiness sources, and the wait is unbounded.
func (s *Supervisor) loop(hangups <-chan relay.Hangup) int {
	for {
		select {
		case h := <-hangups:
			// The watcher is one-shot; stop selecting on it.
			hangups = nil
			s.logger.Info("stdio closed, stopping child", "stream", h.Stream)
			s.exitCode = GenericFailure
			s.killNicely()
			if err := s.machine.Transition(Stopping); err != nil {
				s.logger.Error("phase error", "error", err)
			}

		case sig := <-s.relay.C:
			s.observeSignal(sig)
			switch sig {
			case syscall.SIGCHLD:
				done, code := s.reapChildren()
				if !done {
					continue
				}
				s.exitCode = code
				if err := s.machine.Transition(Exited); err != nil {
					s.logger.Error("phase error", "error", err)
				}
				return s.exitCode

			case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
				s.logger.Info("terminal signal received", "signal", sig.String())
				s.exitCode = GenericFailure
				if err := s.machine.Transition(Exited); err != nil {
					s.logger.Error("phase error", "error", err)
				}
				return s.exitCode

			default:
				// Only the four watched signals can arrive here; anything
				// else is an internal consistency fault.
				s.logger.Error("unexpected signal from relay", "signal", sig.String())
				s.exitCode = GenericFailure
				return s.exitCode
			}
		}
	}
}

// reapChildren reaps every finished child process. SIGCHLD deliveries
// coalesce, so reaping a single process per notification would leak
// zombies; instead reap until WNOHANG reports nothing left. Returns true
// with the derived exit code once the tracked child itself was reaped.
func (s *Supervisor) reapChildren() (bool, int) {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		if err != nil || pid <= 0 {
			return false, 0
		}
		if pid != s.childPID {
			// An indirectly re-parented process in our process group; the
			// tracked child is still running.
			s.logger.Debug("reaped indirect child", "pid", pid)
			continue
		}
		code, outcome := childOutcome(ws)
		s.logger.Info("child exited", "pid", pid, "outcome", outcome, "exit_code", code)
		if s.metrics != nil {
			s.metrics.ObserveChildExit(outcome)
		}
		return true, code
	}
}

// childOutcome derives this process's exit code from the child's wait
// status: pass a normal exit code through, map death by signal to the
// generic failure code.
func childOutcome(ws unix.WaitStatus) (int, string) {
	if ws.Exited() {
		return ws.ExitStatus(), "exited"
	}
	return GenericFailure, "signaled"
}

// killNicely sends the graceful-then-forceful sequence: SIGTERM, the
// configured delay, then SIGKILL unconditionally.
func (s *Supervisor) killNicely() {
	_ = unix.Kill(s.childPID, unix.SIGTERM)
	if s.cfg.SigkillDelay > 0 {
		time.Sleep(s.cfg.SigkillDelay)
	}
	_ = unix.Kill(s.childPID, unix.SIGKILL)
}

func (s *Supervisor) observeSignal(sig os.Signal) {
	if s.metrics == nil {
		return
	}
	if ss, ok := sig.(syscall.Signal); ok {
		s.metrics.ObserveSignal(unix.SignalName(ss))
	}
}
