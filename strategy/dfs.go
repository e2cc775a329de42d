package strategy

// DFS performs an exhaustive, bounded depth-first exploration of the choice
// tree: at each step it records which branch (index into the enabled set)
// it took, and PrepareNextIteration backtracks to the next unexplored
// branch. It reports PrepareNextIteration's false once the whole tree (up
// to the configured horizon) has been explored.
type DFS struct {
	horizon int
	// path is the sequence of branch indices chosen for the iteration now
	// in progress.
	path []int
	// frontier records, for each depth, how many branches were available
	// and which one was taken last time, so the next iteration can advance
	// the deepest branch with remaining options and truncate below it.
	frontier []dfsFrame
	depth int
	steps uint64
	exhausted bool
	started bool
}

type dfsFrame struct {
	taken int
	width int
}

// NewDFS constructs a DFS strategy exploring up to horizon choices deep per
// iteration (0 means unbounded, limited only by the runtime's own step
// bound).
func NewDFS(horizon int) *DFS {
	return &DFS{horizon: horizon}
}

func (s *DFS) Name() string { return "dfs" }

func (s *DFS) GetNextOperation(_ OperationID, enabled []OperationID) (OperationID, bool) {
	if len(enabled) == 0 {
		return 0, false
	}
	s.steps++
	if s.horizon > 0 && s.depth >= s.horizon {
		return enabled[0], true
	}
	if s.depth < len(s.frontier) {
		// Replaying a previously-recorded branch.
		idx := s.frontier[s.depth].taken
		if idx >= len(enabled) {
			idx = 0
		}
		s.depth++
		return enabled[idx], true
	}
	// Exploring fresh: always take branch 0 first.
	s.frontier = append(s.frontier, dfsFrame{taken: 0, width: len(enabled)})
	s.depth++
	return enabled[0], true
}

func (s *DFS) GetNextBoolean() bool {
	op, _ := s.GetNextOperation(0, []OperationID{0, 1})
	return op == 1
}

func (s *DFS) GetNextInteger(maxExclusive int) int {
	if maxExclusive <= 0 {
		return 0
	}
	ids := make([]OperationID, maxExclusive)
	for i := range ids {
		ids[i] = OperationID(i)
	}
	op, _ := s.GetNextOperation(0, ids)
	return int(op)
}

// PrepareNextIteration backtracks: it advances the deepest frame with an
// unexplored branch, discarding deeper frames, and reports false once no
// frame has any branch left to try.
func (s *DFS) PrepareNextIteration() bool {
	s.steps = 0
	s.depth = 0
	if !s.started {
		s.started = true
		return true
	}
	for len(s.frontier) > 0 {
		last := len(s.frontier) - 1
		f := s.frontier[last]
		if f.taken+1 < f.width {
			s.frontier[last].taken = f.taken + 1
			return true
		}
		s.frontier = s.frontier[:last]
	}
	s.exhausted = true
	return false
}

func (s *DFS) GetStepCount() uint64 { return s.steps }
func (s *DFS) IsFair() bool { return false }
