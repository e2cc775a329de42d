package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeycumines/go-systest"
	"github.com/joeycumines/go-systest/strategy"
	"github.com/joeycumines/go-systest/trace"
)

func newReplayCmd() *cobra.Command {
	var fair bool

	cmd := &cobra.Command{
		Use:   "replay <test-name> <trace-file>",
		Short: "Re-run a registered test, forcing the choices recorded in a trace file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, tracePath := args[0], args[1]

			f, err := os.Open(tracePath)
			if err != nil {
				return err
			}
			defer f.Close()
			file, err := trace.ReadFile(f)
			if err != nil {
				return err
			}

			replayer := trace.NewReplayer(file)
			replayStrategy := strategy.NewReplay(replayer, fair)

			_, err = systest.RunRegisteredTest(name, 1, replayStrategy, func(int) []systest.RuntimeOption {
				return []systest.RuntimeOption{
					systest.WithSeed(file.Seed),
				}
			})
			if divErr := replayStrategy.Err(); divErr != nil {
				return &bugFoundError{msg: divErr.Error()}
			}
			if err != nil {
				return &bugFoundError{msg: err.Error()}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "replay completed without divergence")
			return nil
		},
	}

	cmd.Flags().BoolVar(&fair, "fair", false, "treat the replayed strategy as fair")

	return cmd
}
