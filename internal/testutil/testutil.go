// Package testutil provides shared test helpers for the Corral test suite.
package testutil

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// CgroupRoot creates a scratch mount-root directory with one empty
// directory per controller name, mimicking the layout of a real cgroup
// mount, and registers cleanup.
func CgroupRoot(t *testing.T, controllers ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range controllers {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// FreeTCPPort returns an available TCP port by binding to :0 and releasing.
func FreeTCPPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("cannot find free port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// WaitFor polls a condition until it returns true or the timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
