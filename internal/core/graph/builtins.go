package graph

import (
	"fmt"

	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

func registerBuiltins(r *Registry) {
	r.Register("sequence", func(c *BuildContext) (bt.Node, error) {
		return bt.NewSequence(c.ID, c.Children...), nil
	})
	r.Register("selector", func(c *BuildContext) (bt.Node, error) {
		return bt.NewSelector(c.ID, c.Children...), nil
	})
	r.Register("parallel_sequence", func(c *BuildContext) (bt.Node, error) {
		return bt.NewParallelSequence(c.ID, c.Children...), nil
	})
	r.Register("parallel_selector", func(c *BuildContext) (bt.Node, error) {
		return bt.NewParallelSelector(c.ID, c.Children...), nil
	})

	r.Register("inverter", single(func(id string, child bt.Node) bt.Node { return bt.NewInverter(id, child) }))
	r.Register("succeeder", single(func(id string, child bt.Node) bt.Node { return bt.NewSucceeder(id, child) }))
	r.Register("guard", single(func(id string, child bt.Node) bt.Node { return bt.NewGuard(id, child, nil) }))
	// the interruptor a repeater needs comes from the node's interruptor block
	r.Register("repeater", single(func(id string, child bt.Node) bt.Node { return bt.NewRepeater(id, child, nil) }))

	r.Register("conditional_selector", buildConditionalSelector)
	r.Register("conditional_branch", buildConditionalBranch)
	r.Register("subtree", buildSubTree)

	r.Register("condition", func(c *BuildContext) (bt.Node, error) {
		pred, err := c.Predicate("when")
		if err != nil {
			return nil, err
		}
		return bt.NewCondition(c.ID, pred), nil
	})
	r.Register("set", buildSet)
	r.Register("wait", func(c *BuildContext) (bt.Node, error) {
		d, err := c.Duration("duration")
		if err != nil {
			return nil, err
		}
		return bt.NewWait(c.ID, d), nil
	})
	r.Register("script", func(c *BuildContext) (bt.Node, error) {
		src := c.String("source", "")
		if src == "" {
			return nil, fmt.Errorf("param %q required", "source")
		}
		return NewScript(c.ID, src)
	})
	r.Register("log", buildLog)
	r.Register("succeed", static(bt.StatusSuccess))
	r.Register("fail", static(bt.StatusFailure))
	r.Register("running", static(bt.StatusRunning))
}

func single(mk func(id string, child bt.Node) bt.Node) Factory {
	return func(c *BuildContext) (bt.Node, error) {
		if err := c.requireChildren(1, 1); err != nil {
			return nil, err
		}
		return mk(c.ID, c.Children[0]), nil
	}
}

func static(st bt.Status) Factory {
	return func(c *BuildContext) (bt.Node, error) {
		if err := c.requireChildren(0, 0); err != nil {
			return nil, err
		}
		return bt.NewStatic(c.ID, st), nil
	}
}

func buildConditionalSelector(c *BuildContext) (bt.Node, error) {
	if err := c.requireChildren(1, 2); err != nil {
		return nil, err
	}
	pred, err := c.Predicate("when")
	if err != nil {
		return nil, err
	}
	return bt.NewConditionalSelector(c.ID, pred, c.Child(0), c.Child(1)), nil
}

func buildConditionalBranch(c *BuildContext) (bt.Node, error) {
	if err := c.requireChildren(0, 0); err != nil {
		return nil, fmt.Errorf("%w; wire branches with the test, success and failure params", err)
	}
	test, err := c.Ref("test")
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, fmt.Errorf("param %q required", "test")
	}
	onSuccess, err := c.Ref("success")
	if err != nil {
		return nil, err
	}
	onFailure, err := c.Ref("failure")
	if err != nil {
		return nil, err
	}
	return bt.NewConditionalBranch(c.ID, test, onSuccess, onFailure), nil
}

// buildSubTree wraps the node named by param tree in a nested tree.
func buildSubTree(c *BuildContext) (bt.Node, error) {
	root, err := c.Ref("tree")
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("param %q required", "tree")
	}
	inner := bt.NewTree(c.ID, bt.WithTreeLogger(c.Log())).SetRoot(root)
	return bt.NewSubTree(c.ID, inner, c.Bool("share", false)), nil
}

// buildSet writes params.value under params.key in params.scope (tree by
// default). A conflicting type fails the node at tick time.
func buildSet(c *BuildContext) (bt.Node, error) {
	key := c.String("key", "")
	if key == "" {
		return nil, fmt.Errorf("param %q required", "key")
	}
	raw, ok := c.Param("value")
	if !ok {
		return nil, fmt.Errorf("param %q required", "value")
	}
	val, err := blackboard.ValueOf(raw)
	if err != nil {
		return nil, fmt.Errorf("param %q: %w", "value", err)
	}
	scope, err := blackboard.ParseScope(c.String("scope", "tree"))
	if err != nil {
		return nil, err
	}
	if reserved(scope, key) {
		return nil, fmt.Errorf("param %q: %s: %w", "key", key, ErrReservedKey)
	}
	return bt.NewAction(c.ID, func(ctx bt.TickContext) bt.Status {
		if err := ctx.Scope(scope).Put(key, val); err != nil {
			ctx.Log.Warn("set failed", log.String("node", c.ID), log.Error(err))
			return bt.StatusFailure
		}
		return bt.StatusSuccess
	}), nil
}

func buildLog(c *BuildContext) (bt.Node, error) {
	msg := c.String("message", c.ID)
	level, err := log.ParseLevel(c.String("level", "info"))
	if err != nil {
		return nil, err
	}
	id := c.ID
	return bt.NewAction(id, func(ctx bt.TickContext) bt.Status {
		ctx.Log.Log(level, msg, log.String("node", id), log.Uint64("frame", ctx.Frame))
		return bt.StatusSuccess
	}), nil
}
