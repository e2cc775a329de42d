package strategy

import "math/rand/v2"

// priorityList maintains a total order over every operation id the strategy
// has ever seen; operations new to the list are appended at the lowest
// priority. k randomly-placed steps per iteration move the current
// highest-priority operation to the back, modeling priority-change-points:
// a point in the schedule where the priority ordering shuffles.
type priorityList struct {
	order []OperationID
	index map[OperationID]int
	k int
	rng *rand.Rand
	stepsInIter uint64
	changeAt map[uint64]bool
}

func newPriorityList(k int, rng *rand.Rand) *priorityList {
	return &priorityList{index: make(map[OperationID]int), k: k, rng: rng}
}

func (p *priorityList) ensure(ids []OperationID) {
	for _, id := range ids {
		if _, ok := p.index[id]; !ok {
			p.index[id] = len(p.order)
			p.order = append(p.order, id)
		}
	}
}

func (p *priorityList) highestEnabled(enabled []OperationID) OperationID {
	p.ensure(enabled)
	present := make(map[OperationID]bool, len(enabled))
	for _, id := range enabled {
		present[id] = true
	}
	for _, id := range p.order {
		if present[id] {
			return id
		}
	}
	return enabled[0]
}

// maybeChangePoint demotes the current highest-priority operation to the
// back of the order, if this step lands on one of the iteration's k
// randomly-placed change points.
func (p *priorityList) maybeChangePoint() {
	p.stepsInIter++
	if p.changeAt == nil || !p.changeAt[p.stepsInIter] {
		return
	}
	if len(p.order) < 2 {
		return
	}
	head := p.order[0]
	copy(p.order, p.order[1:])
	p.order[len(p.order)-1] = head
	for i, id := range p.order {
		p.index[id] = i
	}
}

// prepareIteration re-randomizes which of (an expected) horizon of steps
// will be change points, choosing up to k distinct step indices in
// [1, horizon].
func (p *priorityList) prepareIteration(horizon uint64) {
	p.stepsInIter = 0
	p.changeAt = make(map[uint64]bool, p.k)
	if horizon == 0 {
		horizon = 1000
	}
	for len(p.changeAt) < p.k && uint64(len(p.changeAt)) < horizon {
		step := uint64(p.rng.IntN(int(horizon))) + 1
		p.changeAt[step] = true
	}
}

// Prioritization implements Prioritization(k): an unfair priority ordering
// over operations with k change points per iteration.
type Prioritization struct {
	list *priorityList
	rng *rand.Rand
	steps uint64
}

// NewPrioritization constructs a Prioritization(k) strategy seeded by seed.
func NewPrioritization(k int, seed int64) *Prioritization {
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	return &Prioritization{list: newPriorityList(k, rng), rng: rng}
}

func (s *Prioritization) Name() string { return "prioritization" }

func (s *Prioritization) GetNextOperation(_ OperationID, enabled []OperationID) (OperationID, bool) {
	if len(enabled) == 0 {
		return 0, false
	}
	s.steps++
	s.list.maybeChangePoint()
	return s.list.highestEnabled(enabled), true
}

func (s *Prioritization) GetNextBoolean() bool {
	s.steps++
	return s.rng.IntN(2) == 1
}

func (s *Prioritization) GetNextInteger(maxExclusive int) int {
	s.steps++
	if maxExclusive <= 0 {
		return 0
	}
	return s.rng.IntN(maxExclusive)
}

func (s *Prioritization) PrepareNextIteration() bool {
	s.steps = 0
	s.list.prepareIteration(1000)
	return true
}

func (s *Prioritization) GetStepCount() uint64 { return s.steps }
func (s *Prioritization) IsFair() bool { return false }
