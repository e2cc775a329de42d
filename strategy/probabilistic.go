package strategy

import "math/rand/v2"

// Probabilistic flips a coin biased 1/2^N at every decision: with
// probability 1/2^N it makes a uniform pick over the whole enabled set
// (which may pick the current operation again), and otherwise keeps
// running the current operation if it's still enabled.
type Probabilistic struct {
	n int
	rng *rand.Rand
	steps uint64
}

// NewProbabilistic constructs a Probabilistic(n) strategy seeded by seed.
func NewProbabilistic(n int, seed int64) *Probabilistic {
	return &Probabilistic{n: n, rng: rand.New(rand.NewPCG(uint64(seed), 0))}
}

func (s *Probabilistic) Name() string { return "probabilistic" }

func (s *Probabilistic) switchNow() bool {
	if s.n <= 0 {
		return true
	}
	// P(switch) = 1 / 2^n
	return s.rng.IntN(1<<uint(s.n)) == 0
}

func (s *Probabilistic) GetNextOperation(current OperationID, enabled []OperationID) (OperationID, bool) {
	if len(enabled) == 0 {
		return 0, false
	}
	s.steps++
	if !s.switchNow() {
		for _, op := range enabled {
			if op == current {
				return op, true
			}
		}
	}
	return enabled[s.rng.IntN(len(enabled))], true
}

func (s *Probabilistic) GetNextBoolean() bool {
	s.steps++
	return s.rng.IntN(2) == 1
}

func (s *Probabilistic) GetNextInteger(maxExclusive int) int {
	s.steps++
	if maxExclusive <= 0 {
		return 0
	}
	return s.rng.IntN(maxExclusive)
}

func (s *Probabilistic) PrepareNextIteration() bool {
	s.steps = 0
	return true
}

func (s *Probabilistic) GetStepCount() uint64 { return s.steps }
func (s *Probabilistic) IsFair() bool { return false }
