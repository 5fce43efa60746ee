package bt

import "time"

type (
	// ActionFunc is the body of an Action leaf.
	ActionFunc func(ctx TickContext) Status
	// Predicate is a side-effect free test over the tick context.
	Predicate func(ctx TickContext) bool
	// ControlFunc is the body of a Control leaf. It sees the leaf itself and
	// may spawn or despawn other nodes of the tree.
	ControlFunc func(c *Control, ctx TickContext) Status
)

// Action runs a function every tick and reports its status.
type Action struct {
	Base
	fn      ActionFunc
	onSpawn func(ctx TickContext)
}

func NewAction(name string, fn ActionFunc) *Action {
	a := &Action{fn: fn}
	a.Init(a, name)
	a.Limit(0)
	return a
}

// OnSpawn registers a hook run each time the action is spawned.
func (a *Action) OnSpawn(fn func(ctx TickContext)) *Action {
	a.onSpawn = fn
	return a
}

func (a *Action) Spawn() {
	a.Base.Spawn()
	if a.onSpawn != nil {
		a.onSpawn(a.tree.context(a))
	}
}

func (a *Action) Process() Status {
	if a.fn == nil {
		return StatusSuccess
	}
	return a.fn(a.tree.context(a))
}

// Condition succeeds when its predicate holds and fails otherwise.
type Condition struct {
	Base
	pred Predicate
}

func NewCondition(name string, pred Predicate) *Condition {
	c := &Condition{pred: pred}
	c.Init(c, name)
	c.Limit(0)
	return c
}

func (c *Condition) Process() Status {
	if c.pred != nil && c.pred(c.tree.context(c)) {
		return StatusSuccess
	}
	return StatusFailure
}

// Control is a leaf with per-run counters for hand-written control logic.
type Control struct {
	Base
	fn ControlFunc

	// Runs counts spawns; Ticks counts ticks since the last spawn.
	Runs  int
	Ticks int
}

func NewControl(name string, fn ControlFunc) *Control {
	c := &Control{fn: fn}
	c.Init(c, name)
	c.Limit(0)
	return c
}

func (c *Control) Spawn() {
	c.Base.Spawn()
	c.Runs++
	c.Ticks = 0
}

func (c *Control) Process() Status {
	c.Ticks++
	if c.fn == nil {
		return StatusSuccess
	}
	return c.fn(c, c.tree.context(c))
}

// Wait stays Running until its duration has elapsed on the tree clock.
type Wait struct {
	Base
	d     time.Duration
	start time.Time
}

func NewWait(name string, d time.Duration) *Wait {
	w := &Wait{d: d}
	w.Init(w, name)
	w.Limit(0)
	return w
}

func (w *Wait) Spawn() {
	w.Base.Spawn()
	w.start = w.tree.clock()
}

func (w *Wait) Process() Status {
	if w.tree.clock().Sub(w.start) >= w.d {
		return StatusSuccess
	}
	return StatusRunning
}

// Static always returns the same status.
type Static struct {
	Base
	st Status
}

func NewStatic(name string, st Status) *Static {
	s := &Static{st: st}
	s.Init(s, name)
	s.Limit(0)
	return s
}

func Succeed(name string) *Static { return NewStatic(name, StatusSuccess) }
func Fail(name string) *Static    { return NewStatic(name, StatusFailure) }
func Hang(name string) *Static    { return NewStatic(name, StatusRunning) }

func (s *Static) Process() Status { return s.st }
