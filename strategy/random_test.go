package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGetNextOperationEmptyEnabledIsNotOk(t *testing.T) {
	s := NewRandom(1)
	_, ok := s.GetNextOperation(0, nil)
	assert.False(t, ok)
}

func TestRandomGetNextOperationOnlyReturnsEnabledIDs(t *testing.T) {
	s := NewRandom(1)
	enabled := []OperationID{5, 6, 7}
	for i := 0; i < 50; i++ {
		op, ok := s.GetNextOperation(0, enabled)
		require.True(t, ok)
		assert.Contains(t, enabled, op)
	}
}

func TestRandomSameSeedProducesIdenticalSequence(t *testing.T) {
	enabled := []OperationID{1, 2, 3, 4}
	a := NewRandom(99)
	b := NewRandom(99)
	for i := 0; i < 20; i++ {
		opA, _ := a.GetNextOperation(0, enabled)
		opB, _ := b.GetNextOperation(0, enabled)
		assert.Equal(t, opA, opB, "identical seeds must produce identical choices")
	}
}

func TestRandomGetStepCountTracksDecisionsAndResetsOnPrepare(t *testing.T) {
	s := NewRandom(1)
	enabled := []OperationID{1}
	s.GetNextOperation(0, enabled)
	s.GetNextOperation(0, enabled)
	s.GetNextBoolean()
	assert.Equal(t, uint64(3), s.GetStepCount())

	ok := s.PrepareNextIteration()
	assert.True(t, ok)
	assert.Equal(t, uint64(0), s.GetStepCount())
}

func TestRandomGetNextIntegerRespectsBound(t *testing.T) {
	s := NewRandom(3)
	for i := 0; i < 50; i++ {
		n := s.GetNextInteger(5)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
	}
	assert.Equal(t, 0, s.GetNextInteger(0))
}

func TestRandomIsNotFair(t *testing.T) {
	assert.False(t, NewRandom(1).IsFair())
}
