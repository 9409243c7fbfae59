package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "corral",
	Short: "Run a single program confined to cgroup controllers",
	Long: "Corral launches a single program inside a set of cgroup controllers,\n" +
		"optionally drops privilege before exec, and supervises the program\n" +
		"until it exits, tearing down every resource it created.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
