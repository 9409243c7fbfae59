package launch

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/corraldev/corral/internal/cgroup"
)

// RunChild is the child stage body. It runs in the re-executed process,
// never in the supervisor. On success it does not return: the process image
// is replaced by the target program. Any error aborts the stage before the
// target program runs.
//
// Ordering is load-bearing: cgroup membership is written first, while the
// process may still hold the rights the membership files require; then the
// group identity changes, then the user identity. Dropping the user first
// would forfeit the right to change group.
func RunChild(spec Spec) error {
	if err := cgroup.Join(spec.ProcsPaths, os.Getpid()); err != nil {
		return err
	}

	if spec.GID > 0 {
		if err := unix.Setgid(spec.GID); err != nil {
			return fmt.Errorf("setgid(%d): %w", spec.GID, err)
		}
	}
	if spec.UID > 0 {
		if err := unix.Setuid(spec.UID); err != nil {
			return fmt.Errorf("setuid(%d): %w", spec.UID, err)
		}
	}

	path, err := exec.LookPath(spec.Program)
	if err != nil {
		return fmt.Errorf("cannot find %q: %w", spec.Program, err)
	}

	argv := append([]string{spec.Program}, spec.Args...)
	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil // unreachable
}
