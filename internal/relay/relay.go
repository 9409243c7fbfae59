// Package relay converts asynchronous OS events (signal delivery, stdio
// hangup) into channel events the supervisor loop can select over, so no
// supervision logic ever runs in signal-handler context.
package relay

import (
	"os"
	"os/signal"
	"syscall"
)

// watched is the signal set the supervisor cares about: child termination
// plus the three terminal signals.
var watched = []os.Signal{
	syscall.SIGCHLD,
	syscall.SIGINT,
	syscall.SIGQUIT,
	syscall.SIGTERM,
}

// Relay is the self-pipe pattern as Go provides it: the runtime's signal
// handler performs a single async-signal-safe write to a wakeup descriptor,
// and delivery surfaces as an ordered receive on C. The channel is created
// before any disposition is installed.
type Relay struct {
	C  <-chan os.Signal
	ch chan os.Signal
}

// New creates the relay channel and installs the signal dispositions.
// The buffer absorbs bursts between loop iterations; same-signal deliveries
// may still coalesce, which is why SIGCHLD handling reaps in a loop.
func New() *Relay {
	ch := make(chan os.Signal, 16)
	signal.Notify(ch, watched...)
	return &Relay{C: ch, ch: ch}
}

// Reset restores the default disposition for every watched signal. Teardown
// calls this first so a second delivery cannot re-enter kill or cleanup
// logic.
func (r *Relay) Reset() {
	signal.Reset(watched...)
	signal.Stop(r.ch)
}

// Watched reports whether the relay handles sig.
func Watched(sig os.Signal) bool {
	for _, w := range watched {
		if sig == w {
			return true
		}
	}
	return false
}
