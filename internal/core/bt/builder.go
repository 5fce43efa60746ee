package bt

import (
	"errors"
	"fmt"
	"time"
)

// Builder assembles a tree fluently. Composite and decorator calls open a
// scope closed by End; leaf calls attach to the open scope. Mistakes are
// collected and returned by Build.
//
//	root, err := bt.NewBuilder().
//		Sequence("patrol").
//			Action("walk", walk).
//			Wait("rest", time.Second).
//		End().
//		Build()
type Builder struct {
	root  Node
	stack []Node
	last  Node
	errs  []error
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) add(n Node, open bool) (out *Builder) {
	defer b.collect(&out)
	b.last = n
	if len(b.stack) == 0 {
		if b.root != nil {
			b.errs = append(b.errs, fmt.Errorf("builder: second root %q", n.Name()))
			return b
		}
		b.root = n
	} else {
		b.stack[len(b.stack)-1].AddChild(n)
	}
	if open {
		b.stack = append(b.stack, n)
	}
	return b
}

// Node attaches an existing node as a leaf.
func (b *Builder) Node(n Node) *Builder { return b.add(n, false) }

// Open attaches an existing node and opens its scope.
func (b *Builder) Open(n Node) *Builder { return b.add(n, true) }

func (b *Builder) Sequence(name string) *Builder { return b.add(NewSequence(name), true) }
func (b *Builder) Selector(name string) *Builder { return b.add(NewSelector(name), true) }

func (b *Builder) ParallelSequence(name string) *Builder {
	return b.add(NewParallelSequence(name), true)
}

func (b *Builder) ParallelSelector(name string) *Builder {
	return b.add(NewParallelSelector(name), true)
}

func (b *Builder) Inverter(name string) *Builder  { return b.add(NewInverter(name, nil), true) }
func (b *Builder) Succeeder(name string) *Builder { return b.add(NewSucceeder(name, nil), true) }
func (b *Builder) Repeater(name string) *Builder  { return b.add(NewRepeater(name, nil, nil), true) }

func (b *Builder) Guard(name string, i *Interruptor) *Builder {
	return b.add(NewGuard(name, nil, i), true)
}

func (b *Builder) ConditionalSelector(name string, pred Predicate) *Builder {
	return b.add(NewConditionalSelector(name, pred, nil, nil), true)
}

func (b *Builder) Action(name string, fn ActionFunc) *Builder {
	return b.add(NewAction(name, fn), false)
}

func (b *Builder) Condition(name string, pred Predicate) *Builder {
	return b.add(NewCondition(name, pred), false)
}

func (b *Builder) Control(name string, fn ControlFunc) *Builder {
	return b.add(NewControl(name, fn), false)
}

func (b *Builder) Wait(name string, d time.Duration) *Builder {
	return b.add(NewWait(name, d), false)
}

// WithCondition sets the predicate of the last added conditional selector.
func (b *Builder) WithCondition(pred Predicate) *Builder {
	cs, ok := b.last.(*ConditionalSelector)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("builder: WithCondition after %s", describe(b.last)))
		return b
	}
	cs.WithCondition(pred)
	return b
}

// WithInterruptor binds i to the last added node.
func (b *Builder) WithInterruptor(i *Interruptor) *Builder {
	if b.last == nil {
		b.errs = append(b.errs, errors.New("builder: WithInterruptor before any node"))
		return b
	}
	return b.withInterruptor(i)
}

func (b *Builder) withInterruptor(i *Interruptor) (out *Builder) {
	defer b.collect(&out)
	b.last.WithInterruptor(i)
	return b
}

// collect records a contract violation raised while wiring a node and keeps
// the chain alive.
func (b *Builder) collect(out **Builder) {
	r := recover()
	if r == nil {
		return
	}
	ce, ok := r.(*ContractError)
	if !ok {
		panic(r)
	}
	b.errs = append(b.errs, ce)
	*out = b
}

// End closes the innermost open scope.
func (b *Builder) End() *Builder {
	if len(b.stack) == 0 {
		b.errs = append(b.errs, errors.New("builder: End without an open scope"))
		return b
	}
	b.last = b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return b
}

// Build returns the root node, or every error collected on the way.
func (b *Builder) Build() (Node, error) {
	errs := b.errs
	if len(b.stack) > 0 {
		errs = append(errs, fmt.Errorf("builder: %d unclosed scope(s), innermost %q",
			len(b.stack), b.stack[len(b.stack)-1].Name()))
	}
	if b.root == nil {
		errs = append(errs, errors.New("builder: no root"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.root, nil
}

// Tree builds the root and wraps it in a new tree.
func (b *Builder) Tree(name string, opts ...TreeOption) (*Tree, error) {
	root, err := b.Build()
	if err != nil {
		return nil, err
	}
	return NewTree(name, opts...).SetRoot(root), nil
}

func describe(n Node) string {
	if n == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T %q", n, n.Name())
}
