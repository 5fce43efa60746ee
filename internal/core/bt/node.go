package bt

// Node is one element of a behaviour tree. Implementations embed Base and
// call Init with themselves before use; Base supplies every method except
// Process.
type Node interface {
	Name() string
	Status() Status
	Parent() Node
	Children() []Node
	Tree() *Tree
	Interruptor() *Interruptor

	// AddChild attaches child and returns the receiver for chaining.
	AddChild(child Node) Node
	// WithInterruptor binds i to the receiver and returns the receiver.
	WithInterruptor(i *Interruptor) Node

	// Spawn activates the node. Composites spawn the children they start with.
	Spawn()
	// Tick runs one step: interruptor check, Process, status commit.
	Tick()
	// Process computes the node's status for this tick. It must return
	// Running, Success or Failure.
	Process() Status
	// Despawn deactivates the node and marks it Terminated.
	Despawn()
	// Interrupt cancels the node's subtree, or its parent's subtree when
	// includeParent is set.
	Interrupt(includeParent bool)

	core() *Base
}

const unlimited = -1

// Base holds the state shared by every node.
type Base struct {
	self        Node
	name        string
	status      Status
	parent      Node
	children    []Node
	tree        *Tree
	interruptor *Interruptor
	maxChildren int
}

// Init binds the embedding node. Nodes without an Init call panic on first
// use.
func (b *Base) Init(self Node, name string) {
	b.self = self
	b.name = name
	b.maxChildren = unlimited
}

// Limit caps the number of children the node accepts.
func (b *Base) Limit(n int) { b.maxChildren = n }

func (b *Base) core() *Base { return b }

func (b *Base) Name() string              { return b.name }
func (b *Base) Status() Status            { return b.status }
func (b *Base) Parent() Node              { return b.parent }
func (b *Base) Children() []Node          { return b.children }
func (b *Base) Tree() *Tree               { return b.tree }
func (b *Base) Interruptor() *Interruptor { return b.interruptor }

// Child returns the i-th child or nil.
func (b *Base) Child(i int) Node {
	if i < 0 || i >= len(b.children) {
		return nil
	}
	return b.children[i]
}

func (b *Base) AddChild(child Node) Node {
	attach(b.self, child)
	return b.self
}

func (b *Base) WithInterruptor(i *Interruptor) Node {
	if i == nil {
		b.interruptor = nil
		return b.self
	}
	if i.node != nil && i.node != b.self {
		violate(ErrAlreadyAttached, b.self, "interruptor %q already observes %q", i.name, i.node.Name())
	}
	i.node = b.self
	b.interruptor = i
	return b.self
}

func (b *Base) Spawn() {
	if b.tree == nil {
		violate(ErrDetached, b.self, "spawn")
	}
	b.status = StatusRunning
	b.tree.enqueueInsert(b.self)
}

func (b *Base) Tick() { tickNode(b.self) }

func (b *Base) Despawn() {
	b.status = StatusTerminated
	if b.tree != nil {
		b.tree.enqueueRemove(b.self)
	}
}

func (b *Base) Interrupt(includeParent bool) { interrupt(b.self, includeParent) }

func attach(parent, child Node) {
	if child == nil {
		violate(ErrMissingChild, parent, "nil child")
	}
	p, c := parent.core(), child.core()
	if c.parent != nil {
		violate(ErrAlreadyAttached, child, "parent is %q", c.parent.Name())
	}
	if p.maxChildren != unlimited && len(p.children) >= p.maxChildren {
		violate(ErrTooManyChildren, parent, "limit %d", p.maxChildren)
	}
	c.parent = parent
	p.children = append(p.children, child)
	if p.tree != nil {
		bind(child, p.tree)
	}
}

func bind(n Node, t *Tree) {
	b := n.core()
	if b.tree == t {
		return
	}
	if b.tree != nil {
		violate(ErrAlreadyAttached, n, "bound to tree %q", b.tree.Name())
	}
	b.tree = t
	for _, c := range b.children {
		bind(c, t)
	}
}

func tickNode(n Node) {
	b := n.core()
	if b.status == StatusTerminated {
		return
	}
	if i := b.interruptor; i != nil && i.check(n) {
		i.fire(n)
		return
	}
	st := n.Process()
	if st == StatusUninitialised || st == StatusTerminated {
		violate(ErrInvalidStatus, n, "process returned %s", st)
	}
	if st != StatusRunning {
		n.Despawn()
	}
	b.status = st
}

// context builds the tick context for n. Detached nodes get an empty one.
func contextOf(n Node) TickContext {
	if t := n.Tree(); t != nil {
		return t.context(n)
	}
	return TickContext{Node: n}
}
