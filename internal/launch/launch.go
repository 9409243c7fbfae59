// Package launch starts the supervised program. Go offers no way to run
// code between fork and exec in-process, so the parent re-execs its own
// binary into a short-lived child stage (the hidden "child" subcommand)
// which joins the cgroups, drops privilege, and execs the target program.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// SelfExe is the path re-executed for the child stage.
const SelfExe = "/proc/self/exe"

// Spec holds everything the child stage needs: which membership files to
// join, which identity to drop to, and what to exec. UID/GID of -1 mean
// keep the current identity.
type Spec struct {
	ProcsPaths []string
	GID        int
	UID        int
	Program    string
	Args       []string
}

// ChildArgs encodes a Spec as the argument vector for the child stage.
// Decoding is done by the child subcommand's flag parser, so the encoding
// here is just flags.
func ChildArgs(spec Spec) []string {
	args := []string{"child"}
	for _, p := range spec.ProcsPaths {
		args = append(args, "--attach", p)
	}
	if spec.GID > 0 {
		args = append(args, "--gid", strconv.Itoa(spec.GID))
	}
	if spec.UID > 0 {
		args = append(args, "--uid", strconv.Itoa(spec.UID))
	}
	args = append(args, "--")
	args = append(args, spec.Program)
	args = append(args, spec.Args...)
	return args
}

// Start spawns the child stage with the supervisor's stdio inherited
// unchanged and returns the new pid without waiting. Failures inside the
// child stage surface later as a non-zero child exit, never as a return
// to supervisor logic.
func Start(spec Spec) (int, error) {
	if spec.Program == "" {
		return 0, fmt.Errorf("no program to launch")
	}

	cmd := exec.Command(SelfExe, ChildArgs(spec)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("cannot start child: %w", err)
	}
	return cmd.Process.Pid, nil
}
