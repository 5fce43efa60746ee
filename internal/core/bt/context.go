package bt

import (
	"time"

	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// TickContext is what user callbacks see of the tree during a tick.
type TickContext struct {
	Tree  *Tree
	Node  Node
	BB    *blackboard.Store
	Frame uint64
	Now   time.Time
	Delta time.Duration
	Log   log.Log
}

// Scope resolves a blackboard scope for the tree. A level scope on a tree
// without a level panics with the registry's error.
func (c TickContext) Scope(s blackboard.Scope) *blackboard.Store {
	if c.Tree == nil {
		if s == blackboard.ScopeTree && c.BB != nil {
			return c.BB
		}
		violate(ErrDetached, c.Node, "resolve %s scope", s)
	}
	store, err := c.Tree.registry.Resolve(s, c.Tree)
	if err != nil {
		violate(err, c.Node, "resolve %s scope", s)
	}
	return store
}

// Level is Scope(blackboard.ScopeLevel).
func (c TickContext) Level() *blackboard.Store { return c.Scope(blackboard.ScopeLevel) }

// Global is Scope(blackboard.ScopeGlobal).
func (c TickContext) Global() *blackboard.Store { return c.Scope(blackboard.ScopeGlobal) }
