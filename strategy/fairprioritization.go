package strategy

import "math/rand/v2"

// FairPrioritization is Prioritization(k) with IsFair() true: fair
// strategies are bounded by MaxFairSchedulingSteps and contribute to
// liveness-temperature bookkeeping in the runtime's monitor engine, rather
// than being terminated purely on an unfair step bound.
type FairPrioritization struct {
	list *priorityList
	rng *rand.Rand
	steps uint64
}

// NewFairPrioritization constructs a FairPrioritization(k) strategy.
func NewFairPrioritization(k int, seed int64) *FairPrioritization {
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	return &FairPrioritization{list: newPriorityList(k, rng), rng: rng}
}

func (s *FairPrioritization) Name() string { return "fair-prioritization" }

func (s *FairPrioritization) GetNextOperation(_ OperationID, enabled []OperationID) (OperationID, bool) {
	if len(enabled) == 0 {
		return 0, false
	}
	s.steps++
	s.list.maybeChangePoint()
	return s.list.highestEnabled(enabled), true
}

func (s *FairPrioritization) GetNextBoolean() bool {
	s.steps++
	return s.rng.IntN(2) == 1
}

func (s *FairPrioritization) GetNextInteger(maxExclusive int) int {
	s.steps++
	if maxExclusive <= 0 {
		return 0
	}
	return s.rng.IntN(maxExclusive)
}

func (s *FairPrioritization) PrepareNextIteration() bool {
	s.steps = 0
	s.list.prepareIteration(1000)
	return true
}

func (s *FairPrioritization) GetStepCount() uint64 { return s.steps }
func (s *FairPrioritization) IsFair() bool { return true }
