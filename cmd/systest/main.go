// Command systest is a minimal CLI surface over the public runtime API.
// Test discovery, binary/IL rewriting, and coverage serialization are out
// of scope: subcommands that would need them return a "not implemented in
// this build" error rather than silently no-op.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use: "systest",
		Short: "Systematic concurrency testing engine CLI",
	}
	root.AddCommand(newTestCmd(), newReplayCmd(), newRewriteCmd())
	return root
}
