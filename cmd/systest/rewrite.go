package main

import (
	"github.com/spf13/cobra"
)

// newRewriteCmd exists for CLI-surface parity with the distinction between
// "run my program under the controlled scheduler" and "instrument my
// program's concurrency primitives so it can be". The latter (binary/IL
// rewriting of goroutine and channel calls into the controlled runtime's
// primitives) is out of scope here: Go tests opt in by constructing a
// Runtime directly and driving it with RegisterTest, so this subcommand is
// a stub that reports as much rather than silently doing nothing.
func newRewriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewrite <path>",
		Short: "Rewrite a binary's concurrency primitives to run under the controlled scheduler (not implemented)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return &notImplementedError{msg: "binary rewriting is not implemented in this build; construct a Runtime directly and register it with RegisterTest instead"}
		},
	}
}
