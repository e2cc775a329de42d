package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolioFirstPrepareKeepsFirstMember(t *testing.T) {
	p := NewPortfolio(NewRandom(1), NewDFS(0))
	ok := p.PrepareNextIteration()
	require.True(t, ok)
	assert.Same(t, p.members[0], p.active())
}

func TestPortfolioRotatesOnSubsequentPrepare(t *testing.T) {
	p := NewPortfolio(NewRandom(1), NewDFS(0), NewProbabilistic(1, 1))
	p.PrepareNextIteration()
	assert.Same(t, p.members[0], p.active())

	p.PrepareNextIteration()
	assert.Same(t, p.members[1], p.active())

	p.PrepareNextIteration()
	assert.Same(t, p.members[2], p.active())

	p.PrepareNextIteration()
	assert.Same(t, p.members[0], p.active(), "rotation wraps back to the first member")
}

func TestPortfolioEmptyMembersPrepareReturnsFalse(t *testing.T) {
	p := NewPortfolio()
	assert.False(t, p.PrepareNextIteration())
}

func TestPortfolioDelegatesToActiveMember(t *testing.T) {
	p := NewPortfolio(NewRandom(1))
	p.PrepareNextIteration()

	enabled := []OperationID{1, 2, 3}
	op, ok := p.GetNextOperation(0, enabled)
	require.True(t, ok)
	assert.Contains(t, enabled, op)

	_ = p.GetNextBoolean()
	n := p.GetNextInteger(4)
	assert.GreaterOrEqual(t, n, 0)
	assert.Less(t, n, 4)
	assert.Equal(t, p.active().GetStepCount(), p.GetStepCount())
}

func TestPortfolioIsFairDelegatesToActiveMember(t *testing.T) {
	p := NewPortfolio(NewFairPrioritization(1, 1), NewRandom(1))
	p.PrepareNextIteration()
	assert.True(t, p.IsFair())

	p.PrepareNextIteration()
	assert.False(t, p.IsFair())
}
