package blackboard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/behave/internal/core/observability/log"
)

// Scope selects which store a key lives in.
type Scope uint8

const (
	// ScopeTree is private to one tree and the subtrees it shares with.
	ScopeTree Scope = iota
	// ScopeLevel is shared by every tree tagged with the same level.
	ScopeLevel
	// ScopeGlobal lives for the whole process.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeTree:
		return "tree"
	case ScopeLevel:
		return "level"
	case ScopeGlobal:
		return "global"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// ParseScope accepts the names produced by Scope.String.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "tree", "":
		return ScopeTree, nil
	case "level":
		return ScopeLevel, nil
	case "global":
		return ScopeGlobal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScope, s)
	}
}

// Owner is what a tree exposes for scope resolution.
type Owner interface {
	LocalStore() *Store
	LevelName() string
}

// Registry owns the level and global stores. Trees receive it at
// construction instead of reaching for a process-wide singleton.
type Registry struct {
	mu     sync.Mutex
	global *Store
	levels map[string]*Store
	opts   []StoreOption
}

// NewRegistry creates a registry whose stores are built with opts.
func NewRegistry(opts ...StoreOption) *Registry {
	return &Registry{
		global: NewStore("global", opts...),
		levels: make(map[string]*Store),
		opts:   opts,
	}
}

// NewRegistryWithLogger is a convenience for wiring a logger into every store.
func NewRegistryWithLogger(l log.Log) *Registry {
	return NewRegistry(WithLogger(l))
}

func (r *Registry) Global() *Store { return r.global }

// Level returns the store for a level, creating it on first use.
func (r *Registry) Level(name string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.levels[name]
	if !ok {
		s = NewStore("level:"+name, r.opts...)
		r.levels[name] = s
	}
	return s
}

// ReleaseLevel drops a level store, e.g. when the level unloads. Trees still
// holding the old store keep using it; new resolutions get a fresh one.
func (r *Registry) ReleaseLevel(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.levels[name]
	delete(r.levels, name)
	return ok
}

// Levels lists the live level stores.
func (r *Registry) Levels() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.levels))
	for name := range r.levels {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// Resolve maps a scope and an owning tree to the store to use.
func (r *Registry) Resolve(scope Scope, owner Owner) (*Store, error) {
	switch scope {
	case ScopeTree:
		if owner == nil || owner.LocalStore() == nil {
			return nil, ErrNoOwner
		}
		return owner.LocalStore(), nil
	case ScopeLevel:
		if owner == nil || owner.LevelName() == "" {
			return nil, ErrNoLevel
		}
		return r.Level(owner.LevelName()), nil
	case ScopeGlobal:
		return r.global, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
}
