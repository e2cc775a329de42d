package systest

import (
	"sort"

	"github.com/joeycumines/go-systest/strategy"
)

// TestFunc is a user test program: it spawns actors/monitors on rt and
// returns once it has finished driving setup (the runtime's own Run then
// explores the scheduling space).
type TestFunc func(rt *Runtime)

var testRegistry = map[string]TestFunc{}

// RegisterTest registers a test program under name, for discovery by the
// CLI's `test` subcommand. Since binary/IL rewriting and assembly-based
// discovery are out of scope, this in-process registry is the
// supported discovery mechanism: a host binary imports its test packages
// (each calling RegisterTest in an init func) and links them into the
// systest CLI, or calls RunRegisteredTest directly.
func RegisterTest(name string, fn TestFunc) {
	testRegistry[name] = fn
}

// RegisteredTests returns every registered test name, sorted.
func RegisteredTests() []string {
	names := make([]string, 0, len(testRegistry))
	for name := range testRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunRegisteredTest runs the named test's iterations, constructing a fresh
// Runtime per iteration from newOpts, and stopping at the first failure.
// strat is shared across every iteration and must have PrepareNextIteration
// called on it before each one (including the first) so stateful
// strategies — DFS backtracking, Portfolio rotation, Prioritization's
// per-iteration change points, Replay's single-shot trace — see every
// iteration boundary. A strat that reports no more iterations (e.g. DFS
// having exhausted its frontier, or Replay past its one recorded run) ends
// the run cleanly rather than treating it as a failure.
// It reports the iteration index (1-based) and the failure, if any.
func RunRegisteredTest(name string, iterations int, strat strategy.Strategy, newOpts func(iteration int) []RuntimeOption) (failedAt int, err error) {
	fn, ok := testRegistry[name]
	if !ok {
		return 0, ErrAssertionFailure(0, "", "no such registered test: "+name)
	}
	for i := 1; i <= iterations; i++ {
		if !strat.PrepareNextIteration() {
			break
		}
		opts := append(newOpts(i), WithStrategy(strat))
		rt := NewRuntime(opts...)
		fn(rt)
		if runErr := rt.Run(); runErr != nil {
			return i, runErr
		}
	}
	return 0, nil
}
