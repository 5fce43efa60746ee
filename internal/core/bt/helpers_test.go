package bt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// script returns an action that reports the given statuses in order and
// then repeats the last one. Counts ticks in *ticks when non-nil.
func script(name string, ticks *int, seq ...Status) *Action {
	i := 0
	return NewAction(name, func(TickContext) Status {
		if ticks != nil {
			*ticks++
		}
		st := seq[i]
		if i < len(seq)-1 {
			i++
		}
		return st
	}).OnSpawn(func(TickContext) { i = 0 })
}

func newTestTree(t *testing.T, root Node, opts ...TreeOption) *Tree {
	t.Helper()
	tree := NewTree("test", opts...).SetRoot(root)
	tree.Spawn()
	return tree
}

func requireContract(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		ce, ok := r.(*ContractError)
		require.True(t, ok, "panic value %T", r)
		require.ErrorIs(t, ce, want)
	}()
	fn()
}
