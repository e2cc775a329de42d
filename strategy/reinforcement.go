package strategy

import "math/rand/v2"

// ReinforcementLearning implements a tabular Q-learning agent over a hash
// of recent scheduling state, balancing exploration (epsilon-greedy random
// choice) against exploitation of the highest-valued previously-seen
// (state, operation) pair. The state hash is a simple rolling combination
// of the current step count and the enabled set's composition, deliberately
// coarse: the goal is to bias exploration toward interleavings that
// previously triggered new coverage or failures, which a host drives by
// calling RewardLastChoice.
type ReinforcementLearning struct {
	qTable map[uint64]float64
	epsilon float64
	alpha float64
	gamma float64
	rng *rand.Rand
	steps uint64

	lastStateOp uint64
	havePending bool
}

// NewReinforcementLearning constructs an RL strategy seeded by seed, with
// epsilon the exploration probability (e.g. 0.1).
func NewReinforcementLearning(epsilon float64, seed int64) *ReinforcementLearning {
	return &ReinforcementLearning{
		qTable: make(map[uint64]float64),
		epsilon: epsilon,
		alpha: 0.1,
		gamma: 0.9,
		rng: rand.New(rand.NewPCG(uint64(seed), 0)),
	}
}

func (s *ReinforcementLearning) Name() string { return "reinforcement-learning" }

func stateHash(step uint64, enabled []OperationID) uint64 {
	h := step * 1099511628211
	for _, id := range enabled {
		h ^= uint64(id) + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	}
	return h
}

// RewardLastChoice feeds back a reward signal for the most recent decision
// (e.g. positive for newly-observed coverage, negative for a repeat),
// moving that (state, operation) Q-table entry toward reward by the
// learning rate alpha. The update has no discounted future-value term.
func (s *ReinforcementLearning) RewardLastChoice(reward float64) {
	if !s.havePending {
		return
	}
	q := s.qTable[s.lastStateOp]
	s.qTable[s.lastStateOp] = q + s.alpha*(reward-q)
	s.havePending = false
}

func (s *ReinforcementLearning) GetNextOperation(_ OperationID, enabled []OperationID) (OperationID, bool) {
	if len(enabled) == 0 {
		return 0, false
	}
	s.steps++
	h := stateHash(s.steps, enabled)

	if s.rng.Float64() < s.epsilon {
		choice := enabled[s.rng.IntN(len(enabled))]
		s.lastStateOp = h ^ uint64(choice)
		s.havePending = true
		return choice, true
	}

	best := enabled[0]
	bestQ := s.qTable[h^uint64(best)]
	for _, id := range enabled[1:] {
		q := s.qTable[h^uint64(id)]
		if q > bestQ {
			best, bestQ = id, q
		}
	}
	s.lastStateOp = h ^ uint64(best)
	s.havePending = true
	return best, true
}

func (s *ReinforcementLearning) GetNextBoolean() bool {
	s.steps++
	return s.rng.IntN(2) == 1
}

func (s *ReinforcementLearning) GetNextInteger(maxExclusive int) int {
	s.steps++
	if maxExclusive <= 0 {
		return 0
	}
	return s.rng.IntN(maxExclusive)
}

func (s *ReinforcementLearning) PrepareNextIteration() bool {
	s.steps = 0
	s.havePending = false
	return true
}

func (s *ReinforcementLearning) GetStepCount() uint64 { return s.steps }
func (s *ReinforcementLearning) IsFair() bool { return false }
