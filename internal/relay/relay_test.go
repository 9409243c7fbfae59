package relay

import (
	"os"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/corraldev/corral/internal/logging"
)

func TestRelayDeliversSignal(t *testing.T) {
	r := New()
	defer r.Reset()

	if err := unix.Kill(os.Getpid(), unix.SIGCHLD); err != nil {
		t.Fatal(err)
	}

	select {
	case sig := <-r.C:
		if sig != syscall.SIGCHLD {
			t.Fatalf("signal = %v, want SIGCHLD", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed signal")
	}
}

func TestRelayResetStopsDelivery(t *testing.T) {
	r := New()
	r.Reset()

	// SIGCHLD's default disposition is ignore, so this is safe to send
	// after the reset; it must not reach the channel.
	if err := unix.Kill(os.Getpid(), unix.SIGCHLD); err != nil {
		t.Fatal(err)
	}

	select {
	case sig := <-r.C:
		t.Fatalf("received %v after Reset", sig)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatched(t *testing.T) {
	for _, sig := range []os.Signal{syscall.SIGCHLD, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM} {
		if !Watched(sig) {
			t.Errorf("Watched(%v) = false, want true", sig)
		}
	}
	if Watched(syscall.SIGHUP) {
		t.Error("Watched(SIGHUP) = true, want false")
	}
}

func TestHangupWatcherReportsClosedPipe(t *testing.T) {
	logger := logging.New(logging.LogConfig{Level: "error"})

	inR, inW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer inR.Close()
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer outR.Close()
	defer outW.Close()

	w := WatchHangup(int(inR.Fd()), int(outR.Fd()), logger)

	select {
	case h := <-w.C:
		t.Fatalf("unexpected hangup %v before any close", h)
	case <-time.After(50 * time.Millisecond):
	}

	// Closing the write side hangs up the watched read end.
	inW.Close()

	select {
	case h := <-w.C:
		if h.Stream != "stdin" {
			t.Fatalf("Stream = %q, want stdin", h.Stream)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hangup")
	}
}

func TestHangupWatcherSecondStream(t *testing.T) {
	logger := logging.New(logging.LogConfig{Level: "error"})

	inR, inW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer inR.Close()
	defer inW.Close()
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer outR.Close()

	w := WatchHangup(int(inR.Fd()), int(outR.Fd()), logger)

	outW.Close()

	select {
	case h := <-w.C:
		if h.Stream != "stdout" {
			t.Fatalf("Stream = %q, want stdout", h.Stream)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hangup")
	}
}
