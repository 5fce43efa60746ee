package bt

func newSingle(n Node, b *Base, name string, child Node) {
	b.Init(n, name)
	b.Limit(1)
	if child != nil {
		b.AddChild(child)
	}
}

func (b *Base) onlyChild() Node {
	if len(b.children) == 0 {
		violate(ErrMissingChild, b.self, "decorator needs a child")
	}
	return b.children[0]
}

// Inverter swaps its child's Success and Failure. A cancelled child counts
// as failed, so the inverter succeeds.
type Inverter struct {
	Base
}

func NewInverter(name string, child Node) *Inverter {
	i := &Inverter{}
	newSingle(i, &i.Base, name, child)
	return i
}

func (i *Inverter) Spawn() {
	child := i.onlyChild()
	i.Base.Spawn()
	child.Spawn()
}

func (i *Inverter) Process() Status {
	switch st := i.children[0].Status(); {
	case st == StatusSuccess:
		return StatusFailure
	case st.failed():
		return StatusSuccess
	default:
		return StatusRunning
	}
}

// Succeeder reports Success once its child finishes, whatever the outcome.
type Succeeder struct {
	Base
}

func NewSucceeder(name string, child Node) *Succeeder {
	s := &Succeeder{}
	newSingle(s, &s.Base, name, child)
	return s
}

func (s *Succeeder) Spawn() {
	child := s.onlyChild()
	s.Base.Spawn()
	child.Spawn()
}

func (s *Succeeder) Process() Status {
	if s.children[0].Status() == StatusRunning {
		return StatusRunning
	}
	return StatusSuccess
}

// Repeater re-spawns its child every time it finishes and never finishes
// itself. It only stops through its interruptor, which must be bound
// before Spawn.
type Repeater struct {
	Base
	iterations int
}

func NewRepeater(name string, child Node, until *Interruptor) *Repeater {
	r := &Repeater{}
	newSingle(r, &r.Base, name, child)
	if until != nil {
		r.WithInterruptor(until)
	}
	return r
}

// Iterations counts completed child runs since the last Spawn.
func (r *Repeater) Iterations() int { return r.iterations }

func (r *Repeater) Spawn() {
	if r.interruptor == nil {
		violate(ErrRepeaterWithoutInterruptor, r, "")
	}
	child := r.onlyChild()
	r.Base.Spawn()
	r.iterations = 0
	child.Spawn()
}

func (r *Repeater) Process() Status {
	child := r.children[0]
	if child.Status() != StatusRunning {
		r.iterations++
		child.Despawn()
		child.Spawn()
	}
	return StatusRunning
}

// ConditionalSelector evaluates its predicate once per run, on its first
// tick, and spawns the first child when it holds and the second otherwise.
// It succeeds when the chosen branch finishes, whatever the branch's
// outcome. A missing branch succeeds immediately.
type ConditionalSelector struct {
	Base
	pred   Predicate
	chosen Node
	picked bool
}

func NewConditionalSelector(name string, pred Predicate, onTrue, onFalse Node) *ConditionalSelector {
	c := &ConditionalSelector{pred: pred}
	c.Init(c, name)
	c.Limit(2)
	if onTrue == nil && onFalse != nil {
		violate(ErrMissingChild, c, "false branch without a true branch")
	}
	if onTrue != nil {
		c.AddChild(onTrue)
	}
	if onFalse != nil {
		c.AddChild(onFalse)
	}
	return c
}

// WithCondition replaces the predicate.
func (c *ConditionalSelector) WithCondition(pred Predicate) *ConditionalSelector {
	c.pred = pred
	return c
}

func (c *ConditionalSelector) Spawn() {
	c.Base.Spawn()
	c.chosen = nil
	c.picked = false
}

func (c *ConditionalSelector) Process() Status {
	if !c.picked {
		c.picked = true
		if c.pred != nil && c.pred(c.tree.context(c)) {
			c.chosen = c.Child(0)
		} else {
			c.chosen = c.Child(1)
		}
		if c.chosen == nil {
			return StatusSuccess
		}
		c.chosen.Spawn()
		return StatusRunning
	}
	if c.chosen.Status() == StatusRunning {
		return StatusRunning
	}
	return StatusSuccess
}

// Chosen is the branch picked in the current run, or nil.
func (c *ConditionalSelector) Chosen() Node { return c.chosen }

// ConditionalBranch runs a test node first, then the success or failure
// branch depending on its outcome, and reports that branch's status.
type ConditionalBranch struct {
	Base
	test      Node
	onSuccess Node
	onFailure Node
	output    Node
}

func NewConditionalBranch(name string, test, onSuccess, onFailure Node) *ConditionalBranch {
	b := &ConditionalBranch{test: test, onSuccess: onSuccess, onFailure: onFailure}
	b.Init(b, name)
	if test == nil {
		violate(ErrMissingChild, b, "conditional branch needs a test")
	}
	for _, c := range []Node{test, onSuccess, onFailure} {
		if c != nil {
			b.AddChild(c)
		}
	}
	b.Limit(len(b.children))
	return b
}

func (b *ConditionalBranch) Spawn() {
	b.Base.Spawn()
	b.output = nil
	b.test.Spawn()
}

func (b *ConditionalBranch) Process() Status {
	if b.output == nil {
		switch st := b.test.Status(); {
		case st == StatusRunning:
			return StatusRunning
		case st == StatusSuccess:
			b.output = b.onSuccess
		default:
			b.output = b.onFailure
		}
		if b.output == nil {
			return StatusSuccess
		}
		b.output.Spawn()
		return StatusRunning
	}
	switch st := b.output.Status(); {
	case st == StatusSuccess:
		return StatusSuccess
	case st.failed():
		return StatusFailure
	default:
		return StatusRunning
	}
}

// Guard passes its child's status through. It exists to carry an
// interruptor around a subtree that has none of its own.
type Guard struct {
	Base
}

func NewGuard(name string, child Node, i *Interruptor) *Guard {
	g := &Guard{}
	newSingle(g, &g.Base, name, child)
	if i != nil {
		g.WithInterruptor(i)
	}
	return g
}

func (g *Guard) Spawn() {
	child := g.onlyChild()
	g.Base.Spawn()
	child.Spawn()
}

func (g *Guard) Process() Status {
	switch st := g.children[0].Status(); {
	case st == StatusSuccess:
		return StatusSuccess
	case st.failed():
		return StatusFailure
	default:
		return StatusRunning
	}
}

// SubTree runs another tree as a leaf. The inner tree is ticked from the
// leaf's Process and its result becomes the leaf's status. With shared data
// the inner tree uses the outer tree's local store, and an inner tree
// without a level inherits the outer one.
type SubTree struct {
	Base
	inner *Tree
	share bool
}

func NewSubTree(name string, inner *Tree, shareData bool) *SubTree {
	s := &SubTree{inner: inner, share: shareData}
	s.Init(s, name)
	s.Limit(0)
	if inner == nil {
		violate(ErrMissingChild, s, "subtree needs a tree")
	}
	return s
}

func (s *SubTree) Inner() *Tree { return s.inner }

func (s *SubTree) Spawn() {
	s.Base.Spawn()
	if s.share {
		s.inner.local = s.tree.local
	}
	if s.inner.level == "" {
		s.inner.level = s.tree.level
	}
	s.inner.clock = s.tree.clock
	s.inner.registry = s.tree.registry
	s.inner.Spawn()
}

func (s *SubTree) Process() Status {
	s.inner.Tick()
	switch s.inner.Status() {
	case StatusRunning:
		return StatusRunning
	case StatusSuccess:
		if s.inner.Result() == StatusSuccess {
			return StatusSuccess
		}
		return StatusFailure
	default:
		return StatusFailure
	}
}

func (s *SubTree) Despawn() {
	s.Base.Despawn()
	if s.inner.Status() == StatusRunning {
		s.inner.Despawn()
	}
}
