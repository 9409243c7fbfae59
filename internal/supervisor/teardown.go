package supervisor

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/corraldev/corral/internal/cgroup"
)

// killBurstRetries bounds each of the two teardown kill bursts.
const killBurstRetries = 10

// Teardown runs the cleanup sequence exactly once, however the run ends.
// It is registered as a deferred call the moment the relay exists, so it
// covers fatal runtime errors, child exit, stdio hangup, and terminal
// signals alike. Calling it again is a no-op.
func (s *Supervisor) Teardown() {
	s.teardownOnce.Do(s.runTeardown)
}

func (s *Supervisor) runTeardown() {
	s.logger.Debug("tearing down")

	// Disable signal delivery first: a second SIGTERM mid-teardown must
	// not re-enter kill logic or interrupt directory removal.
	if s.relay != nil {
		s.relay.Reset()
	}
	if s.mserver != nil {
		s.mserver.Stop()
	}

	// The child may have spawned descendants that are still members of
	// our cgroups. Kill everything listed, give the kernel a moment to
	// update membership, and re-check; then one burst with no patience.
	retries := killBurstRetries
	for retries > 0 && s.cgroups.MembersExist() {
		s.killBurst()
		time.Sleep(time.Millisecond)
		retries--
	}

	if retries == 0 {
		retries = killBurstRetries
		for retries > 0 && s.cgroups.MembersExist() {
			s.killBurst()
			retries--
		}
		if retries == 0 {
			s.logger.Warn("failed to kill all children even after retrying")
			if s.metrics != nil {
				s.metrics.TeardownSurvivors.Set(float64(s.survivorCount()))
			}
		}
	}

	s.cgroups.Remove()
	s.logger.Debug("teardown done")
}

func (s *Supervisor) killBurst() {
	s.cgroups.KillMembers(unix.SIGKILL)
	if s.metrics != nil {
		s.metrics.TeardownKillRetries.Inc()
	}
}

func (s *Supervisor) survivorCount() int {
	n := 0
	for _, c := range s.cgroups.Controllers() {
		n += len(cgroup.MemberPIDs(c.ProcsPath))
	}
	return n
}
