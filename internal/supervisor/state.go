package supervisor

import "fmt"

// Phase is the supervisor lifecycle phase.
type Phase int

const (
	Starting    Phase = iota // STARTING: cgroups configured, child being spawned
	Supervising              // SUPERVISING: waiting on stdio hangup and the signal relay
	Stopping                 // STOPPING: kill sent, waiting for the child termination notice
	Exited                   // EXITED: terminal; teardown runs as the process unwinds
)

var phaseNames = [...]string{"STARTING", "SUPERVISING", "STOPPING", "EXITED"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("UNKNOWN(%d)", p)
}

// validTransitions defines allowed phase transitions.
var validTransitions = map[Phase][]Phase{
	Starting:    {Supervising},
	Supervising: {Stopping, Exited},
	Stopping:    {Exited},
	Exited:      {},
}

// Machine tracks the lifecycle phase. It is owned by the single-threaded
// supervisor flow and needs no locking.
type Machine struct {
	phase Phase
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Transition moves to target, or reports an invalid transition.
func (m *Machine) Transition(target Phase) error {
	for _, a := range validTransitions[m.phase] {
		if a == target {
			m.phase = target
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s", m.phase, target)
}
