package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corraldev/corral/internal/launch"
)

var (
	childAttach []string
	childGID    int
	childUID    int
)

// childCmd is the re-exec target, not a user-facing command. The parent
// spawns "/proc/self/exe child ..." so that cgroup membership and privilege
// drop happen in the child before the target program replaces it.
var childCmd = &cobra.Command{
	Use:    "child",
	Hidden: true,
	Args:   cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := launch.RunChild(launch.Spec{
			ProcsPaths: childAttach,
			GID:        childGID,
			UID:        childUID,
			Program:    args[0],
			Args:       args[1:],
		})
		// RunChild only returns on failure.
		return fmt.Errorf("child stage: %w", err)
	},
}

func init() {
	f := childCmd.Flags()
	f.StringArrayVar(&childAttach, "attach", nil, "membership file to join")
	f.IntVar(&childGID, "gid", -1, "gid to drop to")
	f.IntVar(&childUID, "uid", -1, "uid to drop to")
	rootCmd.AddCommand(childCmd)
}
