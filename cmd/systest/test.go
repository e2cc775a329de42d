package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joeycumines/go-systest"
	"github.com/joeycumines/go-systest/strategy"
	"github.com/joeycumines/go-systest/trace"
)

func newTestCmd() *cobra.Command {
	var cfg cliConfig
	var configPath, traceOut string

	cmd := &cobra.Command{
		Use:   "test <name>",
		Short: "Run a registered test program under the controlled scheduler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags given explicitly on the command line are re-applied after
			// the config file is loaded, so they take precedence over it.
			explicit := map[string]string{}
			cmd.Flags().Visit(func(f *pflag.Flag) { explicit[f.Name] = f.Value.String() })
			if err := loadConfigFile(configPath, &cfg); err != nil {
				return err
			}
			for flagName, v := range explicit {
				if err := cmd.Flags().Set(flagName, v); err != nil {
					return err
				}
			}
			name := args[0]
			if len(systest.RegisteredTests()) == 0 {
				return &notImplementedError{msg: "no tests registered: link a package calling systest.RegisterTest into this binary"}
			}

			iterations := cfg.Iterations
			if iterations <= 0 {
				iterations = 1
			}

			strat := strategyFromFlag(cfg.Strategy, cfg.StrategyValue, cfg.Seed)
			var rec *trace.InMemoryRecorder
			failedAt, err := systest.RunRegisteredTest(name, iterations, strat, func(iteration int) []systest.RuntimeOption {
				opts := []systest.RuntimeOption{
					systest.WithSeed(cfg.Seed),
					systest.WithConsiderDepthBoundHitAsBug(cfg.FailOnMaxSteps),
				}
				if traceOut != "" {
					rec = trace.NewInMemoryRecorder(cfg.Seed)
					opts = append(opts, systest.WithTrace(rec))
				}
				return opts
			})
			if err != nil {
				if traceOut != "" && rec != nil {
					f, werr := os.Create(traceOut)
					if werr == nil {
						defer f.Close()
						_ = rec.WriteTo(f)
					}
				}
				return &bugFoundError{msg: fmt.Sprintf("iteration %d: %v", failedAt, err)}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d iteration(s) passed\n", iterations)
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.Iterations, "iterations", 1, "number of iterations")
	cmd.Flags().IntVar(&cfg.Timeout, "timeout", 0, "wall-clock timeout in seconds")
	cmd.Flags().StringVar(&cfg.MaxSteps, "max-steps", "", "step bound, N or N,M (unfair,fair)")
	cmd.Flags().BoolVar(&cfg.FailOnMaxSteps, "fail-on-max-steps", false, "treat hitting the step bound as a bug")
	cmd.Flags().StringVar(&cfg.Strategy, "strategy", "random", "random|probabilistic|prioritization|fair-prioritization|dfs|rl|portfolio")
	cmd.Flags().IntVar(&cfg.StrategyValue, "strategy-value", 0, "strategy parameter (N for probabilistic/prioritization)")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 1, "random generator seed")
	cmd.Flags().IntVar(&cfg.LivenessTemperatureThreshold, "liveness-temperature-threshold", 100, "fair monitor hot-state bound")
	cmd.Flags().IntVar(&cfg.DeadlockTimeoutMS, "deadlock-timeout", 5000, "deadlock wall-clock timeout in ms")
	cmd.Flags().StringVar(&cfg.Verbosity, "verbosity", "normal", "quiet|minimal|normal|detailed")
	cmd.Flags().StringVar(&cfg.Coverage, "coverage", "", "code|activity")
	cmd.Flags().BoolVar(&cfg.Graph, "graph", false, "emit a coverage graph")
	cmd.Flags().BoolVar(&cfg.Break, "break", false, "break into a debugger on failure (not implemented in this build)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file, merged under explicit flags")
	cmd.Flags().StringVar(&traceOut, "trace-out", "", "write the failing iteration's trace to this path")

	return cmd
}

func strategyFromFlag(name string, value int, seed int64) strategy.Strategy {
	switch name {
	case "probabilistic":
		return strategy.NewProbabilistic(value, seed)
	case "prioritization":
		return strategy.NewPrioritization(value, seed)
	case "fair-prioritization":
		return strategy.NewFairPrioritization(value, seed)
	case "dfs":
		return strategy.NewDFS(value)
	case "rl":
		return strategy.NewReinforcementLearning(0.1, seed)
	case "portfolio":
		return strategy.NewPortfolio(strategy.NewRandom(seed), strategy.NewProbabilistic(1, seed+1))
	default:
		return strategy.NewRandom(seed)
	}
}
