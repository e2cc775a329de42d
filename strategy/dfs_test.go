package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDFSFirstIterationAlwaysTakesBranchZero(t *testing.T) {
	s := NewDFS(0)
	require.True(t, s.PrepareNextIteration())

	op, ok := s.GetNextOperation(0, []OperationID{10, 20})
	require.True(t, ok)
	assert.Equal(t, OperationID(10), op)

	op, ok = s.GetNextOperation(0, []OperationID{30})
	require.True(t, ok)
	assert.Equal(t, OperationID(30), op)
}

func TestDFSBacktracksToNextUnexploredBranch(t *testing.T) {
	s := NewDFS(0)
	require.True(t, s.PrepareNextIteration())

	// Iteration 1: two binary decisions, branch 0 each time.
	op1, _ := s.GetNextOperation(0, []OperationID{10, 20})
	assert.Equal(t, OperationID(10), op1)
	op2, _ := s.GetNextOperation(0, []OperationID{100})
	assert.Equal(t, OperationID(100), op2)

	// Backtrack: the deepest frame (width 1) has no unexplored branch and
	// is discarded; the first frame (width 2) advances to branch 1.
	require.True(t, s.PrepareNextIteration())

	op, ok := s.GetNextOperation(0, []OperationID{10, 20})
	require.True(t, ok)
	assert.Equal(t, OperationID(20), op, "replays the advanced branch 1 at depth 0")
}

func TestDFSExhaustsAfterAllBranchesExplored(t *testing.T) {
	s := NewDFS(0)
	require.True(t, s.PrepareNextIteration())
	s.GetNextOperation(0, []OperationID{1, 2})

	// Backtrack to branch 1 (the only remaining branch at depth 0).
	require.True(t, s.PrepareNextIteration())
	s.GetNextOperation(0, []OperationID{1, 2})

	// No more branches left to explore anywhere in the tree.
	ok := s.PrepareNextIteration()
	assert.False(t, ok)
	assert.True(t, s.exhausted)
}

func TestDFSHorizonClampsWithoutGrowingFrontier(t *testing.T) {
	s := NewDFS(1)
	require.True(t, s.PrepareNextIteration())

	op, ok := s.GetNextOperation(0, []OperationID{1, 2})
	require.True(t, ok)
	assert.Equal(t, OperationID(1), op)
	assert.Equal(t, 1, len(s.frontier))

	// depth is now 1, at the horizon: further decisions just take branch 0
	// without extending the frontier.
	op, ok = s.GetNextOperation(0, []OperationID{9, 8})
	require.True(t, ok)
	assert.Equal(t, OperationID(9), op)
	assert.Equal(t, 1, len(s.frontier))
}

func TestDFSEmptyEnabledIsNotOk(t *testing.T) {
	s := NewDFS(0)
	_, ok := s.GetNextOperation(0, nil)
	assert.False(t, ok)
}

func TestDFSGetNextBooleanAndInteger(t *testing.T) {
	s := NewDFS(0)
	s.PrepareNextIteration()
	assert.False(t, s.GetNextBoolean(), "first exploration always takes branch 0 (false)")

	s2 := NewDFS(0)
	s2.PrepareNextIteration()
	assert.Equal(t, 0, s2.GetNextInteger(4), "first exploration always takes branch 0")
}

func TestDFSIsNotFair(t *testing.T) {
	assert.False(t, NewDFS(0).IsFair())
}
