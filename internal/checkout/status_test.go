package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := []struct{ from, to State }{
		{StateIdle, StateValidating},
		{StateValidating, StateCommitting},
		{StateValidating, StateRejected},
		{StateValidating, StateFailed},
		{StateCommitting, StateSucceeded},
		{StateCommitting, StateFailed},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransitionTo(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	forbidden := []struct{ from, to State }{
		{StateIdle, StateCommitting},
		{StateIdle, StateSucceeded},
		{StateValidating, StateSucceeded},
		{StateCommitting, StateRejected},
		{StateSucceeded, StateValidating},
		{StateRejected, StateCommitting},
		{StateFailed, StateValidating},
	}
	for _, tr := range forbidden {
		assert.False(t, CanTransitionTo(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StateSucceeded.IsTerminal())
	assert.True(t, StateRejected.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateIdle.IsTerminal())
	assert.False(t, StateValidating.IsTerminal())
	assert.False(t, StateCommitting.IsTerminal())
}
