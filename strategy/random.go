package strategy

import "math/rand/v2"

// Random chooses uniformly among enabled operations at every scheduling
// point.
type Random struct {
	rng *rand.Rand
	seed int64
	steps uint64
}

// NewRandom seeds a uniform-choice strategy.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(uint64(seed), 0)), seed: seed}
}

func (s *Random) Name() string { return "random" }

func (s *Random) GetNextOperation(_ OperationID, enabled []OperationID) (OperationID, bool) {
	if len(enabled) == 0 {
		return 0, false
	}
	s.steps++
	return enabled[s.rng.IntN(len(enabled))], true
}

func (s *Random) GetNextBoolean() bool {
	s.steps++
	return s.rng.IntN(2) == 1
}

func (s *Random) GetNextInteger(maxExclusive int) int {
	s.steps++
	if maxExclusive <= 0 {
		return 0
	}
	return s.rng.IntN(maxExclusive)
}

func (s *Random) PrepareNextIteration() bool {
	s.steps = 0
	return true
}

func (s *Random) GetStepCount() uint64 { return s.steps }
func (s *Random) IsFair() bool { return false }
