package bt

import (
	gobt "github.com/joeycumines/go-behaviortree"

	"github.com/zeusync/behave/internal/core/observability/log"
)

// Adapted runs a go-behaviortree node as a leaf. The foreign tree is
// stateless from the scheduler's view: it is ticked once per tick and its
// status mapped across. A tick error fails the leaf.
type Adapted struct {
	Base
	node gobt.Node
	err  error
}

func Adapt(name string, node gobt.Node) *Adapted {
	a := &Adapted{node: node}
	a.Init(a, name)
	a.Limit(0)
	return a
}

// Err is the error from the last tick, if any.
func (a *Adapted) Err() error { return a.err }

func (a *Adapted) Spawn() {
	a.Base.Spawn()
	a.err = nil
}

func (a *Adapted) Process() Status {
	st, err := a.node.Tick()
	if err != nil {
		a.err = err
		a.tree.log.Warn("adapted node failed", log.String("node", a.name), log.Error(err))
		return StatusFailure
	}
	switch st {
	case gobt.Running:
		return StatusRunning
	case gobt.Success:
		return StatusSuccess
	default:
		return StatusFailure
	}
}

// Export wraps t as a go-behaviortree node that ticks tree t, for embedding
// an engine tree in a go-behaviortree host. The tree is spawned on first use
// and again after each finished run.
func Export(t *Tree) gobt.Node {
	return gobt.New(func([]gobt.Node) (st gobt.Status, err error) {
		defer Recover(&err)
		if t.Status() != StatusRunning {
			t.Spawn()
		}
		t.Tick()
		switch t.Status() {
		case StatusRunning:
			return gobt.Running, nil
		case StatusSuccess:
			if t.Result() == StatusSuccess {
				return gobt.Success, nil
			}
		}
		return gobt.Failure, nil
	})
}
