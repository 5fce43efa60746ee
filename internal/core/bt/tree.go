package bt

import (
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// RunMode decides what a tree does once its active list empties.
type RunMode uint8

const (
	// HoldAtEnd leaves the tree finished until it is spawned again.
	HoldAtEnd RunMode = iota
	// Repeat re-spawns the root within the same tick.
	Repeat
)

func (m RunMode) String() string {
	if m == Repeat {
		return "repeat"
	}
	return "hold"
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

func WithRunMode(m RunMode) TreeOption { return func(t *Tree) { t.mode = m } }

// WithLevel names the level store the tree resolves for blackboard.ScopeLevel.
func WithLevel(name string) TreeOption { return func(t *Tree) { t.level = name } }

// WithRegistry shares level and global stores between trees.
func WithRegistry(r *blackboard.Registry) TreeOption { return func(t *Tree) { t.registry = r } }

// WithLocalStore replaces the tree's private store.
func WithLocalStore(s *blackboard.Store) TreeOption { return func(t *Tree) { t.local = s } }

func WithTreeLogger(l log.Log) TreeOption { return func(t *Tree) { t.log = l } }

// WithEventBus publishes node and tree lifecycle events to b.
func WithEventBus(b bus.EventBus) TreeOption { return func(t *Tree) { t.events = b } }

func WithClock(now func() time.Time) TreeOption { return func(t *Tree) { t.clock = now } }

// Tree owns a root node and schedules every active node below it.
//
// Spawns and despawns made while the tree ticks are queued and applied at
// the next flush, removals first. Active nodes are ticked leaf-first, the
// reverse of insertion order, so a parent always reads its children's
// statuses from the same tick.
type Tree struct {
	Base

	id       string
	mode     RunMode
	level    string
	local    *blackboard.Store
	registry *blackboard.Registry
	log      log.Log
	events   bus.EventBus
	clock    func() time.Time

	active     []Node
	activeSet  map[Node]struct{}
	pendingIns []Node
	insSet     map[Node]struct{}
	pendingRem map[Node]struct{}
	pass       []Node

	frame    uint64
	now      time.Time
	delta    time.Duration
	ticking  bool
	result   Status
	restarts int
}

// NewTree returns an empty tree. Set its root with AddChild.
func NewTree(name string, opts ...TreeOption) *Tree {
	t := &Tree{
		id:         uuid.NewString(),
		activeSet:  make(map[Node]struct{}),
		insSet:     make(map[Node]struct{}),
		pendingRem: make(map[Node]struct{}),
		clock:      time.Now,
	}
	t.Base.Init(t, name)
	t.Base.Limit(1)
	t.tree = t
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = log.Nop()
	}
	t.log = t.log.With(log.String("tree", name))
	if t.registry == nil {
		t.registry = blackboard.NewRegistryWithLogger(t.log)
	}
	if t.local == nil {
		t.local = blackboard.NewStore(name, blackboard.WithLogger(t.log))
	}
	return t
}

func (t *Tree) ID() string                                 { return t.id }
func (t *Tree) Mode() RunMode                              { return t.mode }
func (t *Tree) SetMode(m RunMode)                          { t.mode = m }
func (t *Tree) Registry() *blackboard.Registry             { return t.registry }
func (t *Tree) Logger() log.Log                            { return t.log }
func (t *Tree) Frame() uint64                              { return t.frame }
func (t *Tree) Restarts() int                              { return t.restarts }
func (t *Tree) LocalStore() *blackboard.Store              { return t.local }
func (t *Tree) LevelName() string                          { return t.level }
func (t *Tree) Events() bus.EventBus                       { return t.events }
func (t *Tree) Root() Node                                 { return t.Child(0) }
func (t *Tree) SetRoot(root Node) *Tree                    { t.AddChild(root); return t }
func (t *Tree) Store(s blackboard.Scope) *blackboard.Store { return t.context(t).Scope(s) }

// Result is the root's final status from the last completed run. It is
// Uninitialised while the tree has not finished.
func (t *Tree) Result() Status { return t.result }

// Active returns the nodes currently scheduled, in insertion order.
func (t *Tree) Active() []Node {
	out := make([]Node, len(t.active))
	copy(out, t.active)
	return out
}

// IsActive reports whether n is in the active list.
func (t *Tree) IsActive(n Node) bool {
	_, ok := t.activeSet[n]
	return ok
}

// Spawn starts a run from the root. The root and its initial descendants
// become active at the start of the next Tick. Spawning a running tree
// cancels the current run first.
func (t *Tree) Spawn() {
	root := t.Root()
	if root == nil {
		violate(ErrMissingChild, t, "tree has no root")
	}
	if t.status == StatusRunning {
		t.Despawn()
	}
	t.status = StatusRunning
	t.result = StatusUninitialised
	root.Spawn()
}

// Begin is Spawn.
func (t *Tree) Begin() { t.Spawn() }

// Despawn cancels every node of the tree and clears the scheduler.
func (t *Tree) Despawn() {
	if root := t.Root(); root != nil {
		cancel(root)
	}
	for _, n := range t.active {
		delete(t.activeSet, n)
	}
	t.active = t.active[:0]
	t.pendingIns = t.pendingIns[:0]
	clear(t.insSet)
	clear(t.pendingRem)
	t.status = StatusTerminated
}

// Terminate is Despawn.
func (t *Tree) Terminate() { t.Despawn() }

// Interrupt on a tree cancels the whole tree.
func (t *Tree) Interrupt(bool) { t.Despawn() }

func (t *Tree) Process() Status {
	if len(t.active) > 0 || len(t.pendingIns) > 0 {
		return StatusRunning
	}
	return StatusSuccess
}

// Tick advances the tree by one frame. Ticking a tree that is not running
// does nothing; ticking it from inside its own Tick panics.
func (t *Tree) Tick() {
	if t.ticking {
		violate(ErrReentrantTick, t, "frame %d", t.frame)
	}
	if t.status != StatusRunning {
		return
	}
	t.ticking = true
	defer func() { t.ticking = false }()

	now := t.clock()
	if !t.now.IsZero() {
		t.delta = now.Sub(t.now)
	}
	t.now = now
	t.frame++

	t.flush()
	t.pass = append(t.pass[:0], t.active...)
	for i := len(t.pass) - 1; i >= 0; i-- {
		if t.status != StatusRunning {
			break
		}
		t.pass[i].Tick()
	}
	clear(t.pass)
	if t.status != StatusRunning {
		return
	}
	t.flush()
	t.settle()
}

func (t *Tree) settle() {
	if len(t.active) > 0 {
		return
	}
	t.result = t.Root().Status()
	t.status = StatusSuccess
	t.log.Debug("tree completed",
		log.String("result", t.result.String()),
		log.Uint64("frame", t.frame))
	t.emit(EventTreeCompleted, t, nil)
	if t.mode != Repeat {
		return
	}
	result := t.result
	t.Despawn()
	t.Spawn()
	t.result = result
	t.restarts++
	t.flush()
	t.emit(EventTreeRestarted, t, nil)
}

func (t *Tree) flush() {
	if len(t.pendingRem) > 0 {
		kept := t.active[:0]
		for _, n := range t.active {
			if _, gone := t.pendingRem[n]; gone {
				delete(t.activeSet, n)
				continue
			}
			kept = append(kept, n)
		}
		clear(t.active[len(kept):])
		t.active = kept
		clear(t.pendingRem)
	}
	for _, n := range t.pendingIns {
		if _, ok := t.activeSet[n]; ok {
			continue
		}
		t.activeSet[n] = struct{}{}
		t.active = append(t.active, n)
	}
	clear(t.pendingIns)
	t.pendingIns = t.pendingIns[:0]
	clear(t.insSet)
}

func (t *Tree) enqueueInsert(n Node) {
	if _, ok := t.insSet[n]; ok {
		return
	}
	t.insSet[n] = struct{}{}
	t.pendingIns = append(t.pendingIns, n)
	t.emit(EventNodeSpawned, n, nil)
}

// enqueueRemove also drops a pending insertion: a node spawned and then
// despawned before the next flush never becomes active.
func (t *Tree) enqueueRemove(n Node) {
	if _, ok := t.insSet[n]; ok {
		delete(t.insSet, n)
		for i, p := range t.pendingIns {
			if p == n {
				t.pendingIns = append(t.pendingIns[:i], t.pendingIns[i+1:]...)
				break
			}
		}
	}
	if _, ok := t.activeSet[n]; !ok {
		return
	}
	t.pendingRem[n] = struct{}{}
	t.emit(EventNodeDespawned, n, nil)
}

func (t *Tree) context(n Node) TickContext {
	return TickContext{
		Tree:  t,
		Node:  n,
		BB:    t.local,
		Frame: t.frame,
		Now:   t.now,
		Delta: t.delta,
		Log:   t.log,
	}
}
