// Package strategy implements the pluggable scheduling strategies: Random,
// Probabilistic, Prioritization, FairPrioritization, Portfolio, DFS, and
// ReinforcementLearning. Every strategy is seeded so that two runs with the
// same strategy, seed, and step bound reproduce identical scheduling
// decisions.
package strategy

// OperationID identifies a schedulable operation from the strategy's point
// of view. It deliberately doesn't import the root package's OperationId
// type, keeping strategy free of a dependency cycle and reusable against
// any scheduler that can hand it a flat slice of candidate ids.
type OperationID uint64

// Strategy is the single interface every scheduling strategy implements.
type Strategy interface {
	// GetNextOperation chooses the next operation to run from enabled,
	// given the currently-running operation (0 if none yet). ok is false
	// if enabled is empty, or if the strategy has no choice to offer (a
	// Replay past the end of its trace or after a divergence); the runtime
	// then ends the iteration.
	GetNextOperation(current OperationID, enabled []OperationID) (op OperationID, ok bool)
	// GetNextBoolean answers a RandomBoolean nondeterministic choice.
	GetNextBoolean() bool
	// GetNextInteger answers a RandomInteger nondeterministic choice in
	// [0, maxExclusive).
	GetNextInteger(maxExclusive int) int
	// PrepareNextIteration resets per-iteration state and reports whether
	// the strategy has more iterations to offer (false when exhausted,
	// e.g. DFS after exhausting its search tree).
	PrepareNextIteration() bool
	// GetStepCount reports the number of scheduling decisions made in the
	// current iteration.
	GetStepCount() uint64
	// IsFair reports whether this strategy must be bounded by
	// MaxFairSchedulingSteps (true) or MaxUnfairSchedulingSteps (false).
	IsFair() bool
}

// Namer is implemented by strategies that report a short identifying name
// (e.g. "random", "dfs"). Strategies that don't implement Namer report
// "unknown" through NameOf.
type Namer interface {
	Name() string
}

// NameOf returns s.Name() if s implements Namer, else "unknown".
func NameOf(s Strategy) string {
	if n, ok := s.(Namer); ok {
		return n.Name()
	}
	return "unknown"
}
