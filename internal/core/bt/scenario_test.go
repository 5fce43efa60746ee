package bt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioConditionalSelectorAfterAction(t *testing.T) {
	var evaluations int
	flag := false
	action := NewAction("action", func(TickContext) Status { return StatusSuccess })
	branchA := Hang("branch-a")
	branchB := Hang("branch-b")
	cs := NewConditionalSelector("cs", func(TickContext) bool {
		evaluations++
		return flag
	}, branchA, branchB)
	seq := NewSequence("seq", action, cs)
	tree := newTestTree(t, seq)

	tree.Tick()
	assert.Equal(t, StatusSuccess, action.Status())
	assert.Equal(t, StatusRunning, cs.Status())
	assert.Equal(t, StatusUninitialised, branchB.Status())

	tree.Tick()
	require.Equal(t, 1, evaluations)
	assert.Equal(t, StatusRunning, branchB.Status())
	assert.Equal(t, StatusUninitialised, branchA.Status())

	flag = true
	for range 3 {
		tree.Tick()
	}
	assert.Equal(t, 1, evaluations)
	assert.Equal(t, StatusUninitialised, branchA.Status())
	assert.Equal(t, []Node{seq, cs, branchB}, tree.Active())
}
