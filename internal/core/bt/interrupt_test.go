package bt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/behave/internal/core/events/bus"
)

// newFamily builds root(ParallelSelector) -> {parent(ParallelSequence) ->
// {target -> child, sibling}, uncle}.
func newFamily(i *Interruptor) (*Tree, map[string]Node) {
	child := Hang("child")
	target := NewGuard("target", child, i)
	sibling := Hang("sibling")
	parent := NewParallelSequence("parent", target, sibling)
	uncle := Hang("uncle")
	root := NewParallelSelector("root", parent, uncle)
	tree := NewTree("family").SetRoot(root)
	tree.Spawn()
	return tree, map[string]Node{
		"root": root, "parent": parent, "target": target,
		"child": child, "sibling": sibling, "uncle": uncle,
	}
}

func statuses(nodes map[string]Node) map[string]Status {
	out := make(map[string]Status, len(nodes))
	for k, n := range nodes {
		out[k] = n.Status()
	}
	return out
}

func TestInterruptCancelsSubtreeOnly(t *testing.T) {
	fire := false
	tree, nodes := newFamily(NewInterruptor("stop", func(TickContext) bool { return fire }, false))
	tree.Tick()

	fire = true
	tree.Tick()
	assert.Equal(t, map[string]Status{
		"root":    StatusRunning,
		"parent":  StatusFailure,
		"target":  StatusTerminated,
		"child":   StatusTerminated,
		"sibling": StatusTerminated,
		"uncle":   StatusRunning,
	}, statuses(nodes))
}

func TestInterruptDirectLeavesSiblings(t *testing.T) {
	tree, nodes := newFamily(nil)
	tree.Tick()

	nodes["target"].Interrupt(false)
	assert.Equal(t, StatusTerminated, nodes["target"].Status())
	assert.Equal(t, StatusTerminated, nodes["child"].Status())
	assert.Equal(t, StatusRunning, nodes["sibling"].Status())
	assert.Equal(t, StatusRunning, nodes["parent"].Status())
	assert.Equal(t, StatusRunning, nodes["uncle"].Status())
}

func TestInterruptIncludingParentGoesOneLevel(t *testing.T) {
	tree, nodes := newFamily(nil)
	tree.Tick()

	nodes["target"].Interrupt(true)
	assert.Equal(t, StatusTerminated, nodes["parent"].Status())
	assert.Equal(t, StatusTerminated, nodes["target"].Status())
	assert.Equal(t, StatusTerminated, nodes["child"].Status())
	assert.Equal(t, StatusTerminated, nodes["sibling"].Status())
	assert.Equal(t, StatusRunning, nodes["root"].Status())
	assert.Equal(t, StatusRunning, nodes["uncle"].Status())
}

func TestInterruptorSkipsProcess(t *testing.T) {
	var processed int
	a := NewAction("a", func(TickContext) Status {
		processed++
		return StatusRunning
	})
	a.WithInterruptor(NewInterruptor("always", func(TickContext) bool { return true }, false))
	tree := newTestTree(t, NewParallelSequence("root", a, Hang("other")))

	tree.Tick()
	assert.Zero(t, processed)
	assert.Equal(t, StatusTerminated, a.Status())

	tree.Tick()
	assert.Zero(t, processed)
}

func TestInterruptorCancelledNodesStopTicking(t *testing.T) {
	var childTicks int
	child := script("child", &childTicks, StatusRunning)
	fire := false
	g := NewGuard("g", child, NewInterruptor("i", func(TickContext) bool { return fire }, false))
	tree := newTestTree(t, NewParallelSequence("root", g, Hang("keep")))

	tree.Tick()
	require.Equal(t, 1, childTicks)
	fire = true
	tree.Tick()
	tree.Tick()
	assert.Equal(t, 2, childTicks)
	assert.False(t, tree.IsActive(child))
}

func TestInterruptRootIncludingParentTerminatesTree(t *testing.T) {
	a := Hang("a")
	a.WithInterruptor(NewInterruptor("quit", func(ctx TickContext) bool { return ctx.Frame == 2 }, true))
	tree := newTestTree(t, a)
	tree.Tick()
	tree.Tick()
	assert.Equal(t, StatusTerminated, tree.Status())
	assert.Empty(t, tree.Active())
}

func TestInterruptorBindsOnce(t *testing.T) {
	i := NewInterruptor("i", nil, false)
	a := Hang("a").WithInterruptor(i)
	assert.Same(t, a, i.Node())
	requireContract(t, ErrAlreadyAttached, func() { Hang("b").WithInterruptor(i) })
}

func TestInterruptorPublishesEvent(t *testing.T) {
	b := bus.New()
	var got []NodeEvent
	_, err := b.Subscribe(EventNodeInterrupted, func(e bus.Event) error {
		got = append(got, e.Data().(NodeEvent))
		return nil
	})
	require.NoError(t, err)

	a := Hang("a")
	a.WithInterruptor(NewInterruptor("now", func(TickContext) bool { return true }, true))
	tree := newTestTree(t, NewParallelSequence("root", a, Hang("b")), WithEventBus(b))
	tree.Tick()

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Node)
	assert.Equal(t, "now", got[0].Interruptor)
	assert.True(t, got[0].IncludeParent)
	assert.Equal(t, tree.ID(), got[0].TreeID)
}
