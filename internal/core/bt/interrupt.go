package bt

import "github.com/zeusync/behave/internal/core/observability/log"

// InterruptPredicate decides whether an interruptor fires for the node it
// observes. Any Predicate serves.
type InterruptPredicate = Predicate

// Interruptor cancels the node it observes when its predicate holds. It is
// checked before the node's Process on every tick.
type Interruptor struct {
	name          string
	when          InterruptPredicate
	includeParent bool
	node          Node
	fired         int
}

// NewInterruptor returns an unbound interruptor. With includeParent the
// observed node's parent subtree is cancelled, one level up only.
func NewInterruptor(name string, when InterruptPredicate, includeParent bool) *Interruptor {
	return &Interruptor{name: name, when: when, includeParent: includeParent}
}

func (i *Interruptor) Name() string        { return i.name }
func (i *Interruptor) IncludeParent() bool { return i.includeParent }
func (i *Interruptor) Node() Node          { return i.node }
func (i *Interruptor) Fired() int          { return i.fired }

func (i *Interruptor) check(n Node) bool {
	if i.when == nil {
		return false
	}
	return i.when(contextOf(n))
}

func (i *Interruptor) fire(n Node) {
	i.fired++
	if t := n.Tree(); t != nil {
		t.log.Debug("interruptor fired",
			log.String("interruptor", i.name),
			log.String("node", n.Name()),
			log.Bool("include_parent", i.includeParent))
		t.emit(EventNodeInterrupted, n, i)
	}
	n.Interrupt(i.includeParent)
}

func interrupt(n Node, includeParent bool) {
	if includeParent {
		if p := n.Parent(); p != nil {
			p.Interrupt(false)
			return
		}
	}
	cancel(n)
}

// cancel despawns n and every descendant, whatever their state.
func cancel(n Node) {
	n.Despawn()
	for _, c := range n.Children() {
		cancel(c)
	}
}
