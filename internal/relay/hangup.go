package relay

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

// Hangup reports that one of the watched streams was closed on the far end.
type Hangup struct {
	Stream string // "stdin" or "stdout"
}

// HangupWatcher polls the supervisor's own stdin and stdout descriptors for
// hangup. Losing either pipe means whatever launched the supervisor is
// tearing it down, and the child must not be left orphaned.
type HangupWatcher struct {
	C  <-chan Hangup
	ch chan Hangup
}

// WatchHangup starts polling stdinFd and stdoutFd. The watcher delivers at
// most one Hangup and then exits; the first hangup already commits the
// supervisor to shutting down.
func WatchHangup(stdinFd, stdoutFd int, logger *slog.Logger) *HangupWatcher {
	ch := make(chan Hangup, 1)
	w := &HangupWatcher{C: ch, ch: ch}
	go w.poll(stdinFd, stdoutFd, logger)
	return w
}

func (w *HangupWatcher) poll(stdinFd, stdoutFd int, logger *slog.Logger) {
	for {
		fds := []unix.PollFd{
			{Fd: int32(stdinFd), Events: unix.POLLHUP},
			{Fd: int32(stdoutFd), Events: unix.POLLHUP},
		}
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			logger.Error("stdio poll failed", "error", err)
			return
		}

		const gone = unix.POLLHUP | unix.POLLERR | unix.POLLNVAL
		if fds[0].Revents&gone != 0 {
			w.ch <- Hangup{Stream: "stdin"}
			return
		}
		if fds[1].Revents&gone != 0 {
			w.ch <- Hangup{Stream: "stdout"}
			return
		}
	}
}
