package graph

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// Exprs compiles boolean expressions once and caches the programs by the
// hash of their source. Entries keep the source so a hash collision
// recompiles instead of reusing another program.
type Exprs struct {
	mu    sync.RWMutex
	progs map[uint64]compiled
	log   log.Log
}

type compiled struct {
	src  string
	prog *vm.Program
}

func NewExprs(l log.Log) *Exprs {
	if l == nil {
		l = log.Nop()
	}
	return &Exprs{progs: make(map[uint64]compiled), log: l}
}

// Compile returns the cached program for src.
func (e *Exprs) Compile(src string) (*vm.Program, error) {
	key := xxhash.Sum64String(src)
	e.mu.RLock()
	c, ok := e.progs[key]
	e.mu.RUnlock()
	if ok && c.src == src {
		return c.prog, nil
	}
	p, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	if ok {
		e.log.Debug("expression hash collision", log.String("expr", src), log.String("cached", c.src))
		return p, nil
	}
	e.mu.Lock()
	e.progs[key] = compiled{src: src, prog: p}
	e.mu.Unlock()
	return p, nil
}

// Len is the number of cached programs.
func (e *Exprs) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.progs)
}

// Predicate compiles src into a node predicate. Evaluation errors log a
// warning and read as false.
func (e *Exprs) Predicate(src string) (bt.Predicate, error) {
	p, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return func(ctx bt.TickContext) bool {
		out, err := expr.Run(p, Env(ctx))
		if err != nil {
			e.log.Warn("expression failed", log.String("expr", src), log.Error(err))
			return false
		}
		b, _ := out.(bool)
		return b
	}, nil
}

// Env is the evaluation environment for ctx: the tree-local snapshot at top
// level, level and global snapshots under "level" and "global", and the
// frame number under "frame". Those three names are reserved for tree-local
// keys written from documents.
func Env(ctx bt.TickContext) map[string]any {
	env := make(map[string]any)
	if ctx.BB != nil {
		for k, v := range ctx.BB.Snapshot() {
			env[k] = v
		}
	}
	env["frame"] = ctx.Frame
	if ctx.Tree == nil {
		return env
	}
	reg := ctx.Tree.Registry()
	if lvl, err := reg.Resolve(blackboard.ScopeLevel, ctx.Tree); err == nil {
		env["level"] = lvl.Snapshot()
	} else {
		env["level"] = map[string]any{}
	}
	env["global"] = reg.Global().Snapshot()
	return env
}

// reserved reports whether key would be shadowed in Env when written to the
// tree-local store.
func reserved(scope blackboard.Scope, key string) bool {
	if scope != blackboard.ScopeTree {
		return false
	}
	switch key {
	case "frame", "level", "global":
		return true
	}
	return false
}
