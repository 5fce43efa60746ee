package bt

import (
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// Lifecycle event types published when a tree has an event bus.
const (
	EventNodeSpawned     = "bt.node.spawned"
	EventNodeDespawned   = "bt.node.despawned"
	EventNodeInterrupted = "bt.node.interrupted"
	EventTreeCompleted   = "bt.tree.completed"
	EventTreeRestarted   = "bt.tree.restarted"
)

// NodeEvent is the payload of every lifecycle event.
type NodeEvent struct {
	TreeID        string `json:"tree_id"`
	Tree          string `json:"tree"`
	Node          string `json:"node"`
	Status        Status `json:"status"`
	Frame         uint64 `json:"frame"`
	Result        Status `json:"result,omitempty"`
	Interruptor   string `json:"interruptor,omitempty"`
	IncludeParent bool   `json:"include_parent,omitempty"`
}

func (t *Tree) emit(typ string, n Node, i *Interruptor) {
	if t.events == nil {
		return
	}
	ev := NodeEvent{
		TreeID: t.id,
		Tree:   t.name,
		Node:   n.Name(),
		Status: n.Status(),
		Frame:  t.frame,
		Result: t.result,
	}
	if i != nil {
		ev.Interruptor = i.name
		ev.IncludeParent = i.includeParent
	}
	if err := t.events.Publish(bus.NewEvent(typ, t.id, ev)); err != nil {
		t.log.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}
