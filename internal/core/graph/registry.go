package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// Factory builds one node from its spec. Children listed in the spec are
// already built and available on the context.
type Factory func(ctx *BuildContext) (bt.Node, error)

// Registry maps node types to factories. NewRegistry comes with the
// built-in catalog; Register adds or replaces types.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	exprs     *Exprs
	log       log.Log
}

type RegistryOption func(*Registry)

func WithLogger(l log.Log) RegistryOption { return func(r *Registry) { r.log = l } }

// WithExprs shares a compiled-expression cache between registries.
func WithExprs(e *Exprs) RegistryOption { return func(r *Registry) { r.exprs = e } }

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = log.Nop()
	}
	if r.exprs == nil {
		r.exprs = NewExprs(r.log)
	}
	registerBuiltins(r)
	return r
}

func (r *Registry) Register(typ string, f Factory) {
	r.mu.Lock()
	r.factories[typ] = f
	r.mu.Unlock()
}

func (r *Registry) Lookup(typ string) (Factory, bool) {
	r.mu.RLock()
	f, ok := r.factories[typ]
	r.mu.RUnlock()
	return f, ok
}

// Types lists registered node types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Exprs() *Exprs { return r.exprs }

// BuildContext is handed to factories.
type BuildContext struct {
	ID       string
	Spec     NodeSpec
	Children []bt.Node
	Registry *Registry

	builder *builder
}

func (c *BuildContext) Log() log.Log { return c.Registry.log }

// Child returns the i-th built child or nil.
func (c *BuildContext) Child(i int) bt.Node {
	if i < 0 || i >= len(c.Children) {
		return nil
	}
	return c.Children[i]
}

// Ref builds the node named by an id-valued param. An absent param yields
// nil without error.
func (c *BuildContext) Ref(key string) (bt.Node, error) {
	id := c.String(key, "")
	if id == "" {
		return nil, nil
	}
	return c.builder.node(id)
}

// Predicate compiles the expression in param key.
func (c *BuildContext) Predicate(key string) (bt.Predicate, error) {
	src := c.String(key, "")
	if src == "" {
		return nil, fmt.Errorf("param %q: expression required", key)
	}
	return c.Registry.exprs.Predicate(src)
}

func (c *BuildContext) Param(key string) (any, bool) {
	v, ok := c.Spec.Params[key]
	return v, ok
}

func (c *BuildContext) String(key, def string) string {
	if s, ok := c.Spec.Params[key].(string); ok {
		return s
	}
	return def
}

func (c *BuildContext) Bool(key string, def bool) bool {
	if b, ok := c.Spec.Params[key].(bool); ok {
		return b
	}
	return def
}

func (c *BuildContext) Float(key string, def float64) float64 {
	switch v := c.Spec.Params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Duration reads a Go duration string or a number of seconds.
func (c *BuildContext) Duration(key string) (time.Duration, error) {
	v, ok := c.Spec.Params[key]
	if !ok {
		return 0, fmt.Errorf("param %q required", key)
	}
	switch d := v.(type) {
	case string:
		return time.ParseDuration(d)
	case int, int64, float64:
		return time.Duration(c.Float(key, 0) * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("param %q: want duration, got %T", key, v)
	}
}

func (c *BuildContext) requireChildren(lo, hi int) error {
	n := len(c.Children)
	if n < lo || (hi >= 0 && n > hi) {
		if lo == hi {
			return fmt.Errorf("%s wants %d children, got %d", c.Spec.Type, lo, n)
		}
		return fmt.Errorf("%s wants %d..%d children, got %d", c.Spec.Type, lo, hi, n)
	}
	return nil
}
