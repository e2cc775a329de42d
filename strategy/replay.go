package strategy

import "github.com/joeycumines/go-systest/trace"

// Replay is a Strategy that reproduces a previously-recorded trace instead
// of making live choices: each call asserts the observed (point-kind,
// current-op) matches what was recorded and returns the recorded
// chosen-op; divergence surfaces through Err.
type Replay struct {
	r *trace.Replayer
	fair bool
	started bool
}

// NewReplay wraps a trace.Replayer as a Strategy. fair should match the
// fairness of whatever strategy originally produced the trace, since the
// runtime uses it to pick a step bound.
func NewReplay(r *trace.Replayer, fair bool) *Replay {
	return &Replay{r: r, fair: fair}
}

func (s *Replay) Name() string { return "replay" }

// Err returns the first divergence the underlying replayer observed.
func (s *Replay) Err() error { return s.r.Err() }

func (s *Replay) GetNextOperation(current OperationID, enabled []OperationID) (OperationID, bool) {
	chosen, ok := s.r.Next("dequeue", uint64(current))
	if !ok {
		return 0, false
	}
	for _, id := range enabled {
		if uint64(id) == chosen {
			return id, true
		}
	}
	return OperationID(chosen), true
}

func (s *Replay) GetNextBoolean() bool {
	v, ok := s.r.NextNondet()
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (s *Replay) GetNextInteger(maxExclusive int) int {
	v, ok := s.r.NextNondet()
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// PrepareNextIteration reports true exactly once: a recorded trace replays
// a single iteration, not a suite.
func (s *Replay) PrepareNextIteration() bool {
	if s.started {
		return false
	}
	s.started = true
	return true
}
func (s *Replay) GetStepCount() uint64 { return 0 }
func (s *Replay) IsFair() bool { return s.fair }
