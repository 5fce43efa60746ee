package graph

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/zeusync/behave/internal/core/blackboard"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
)

// Script is a leaf whose Process runs a JavaScript function body. The body
// sees bb, level and global store proxies plus the frame number, and
// returns "running", "success", "failure", a boolean, or nothing for
// success. Each script owns its runtime; trees are ticked from one
// goroutine at a time.
type Script struct {
	bt.Base
	vm  *goja.Runtime
	fn  goja.Callable
	err error
}

// NewScript compiles body once.
func NewScript(name, body string) (*Script, error) {
	prog, err := goja.Compile(name, "(function(bb, level, global, frame) {\n"+body+"\n})", false)
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	vm := goja.New()
	v, err := vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("load script: not a function")
	}
	s := &Script{vm: vm, fn: fn}
	s.Init(s, name)
	s.Limit(0)
	return s, nil
}

// Err is the error from the last run, if any.
func (s *Script) Err() error { return s.err }

func (s *Script) Process() bt.Status {
	t := s.Tree()
	level := goja.Null()
	if store, err := t.Registry().Resolve(blackboard.ScopeLevel, t); err == nil {
		level = s.proxy(store, blackboard.ScopeLevel)
	}
	out, err := s.fn(goja.Undefined(),
		s.proxy(t.LocalStore(), blackboard.ScopeTree),
		level,
		s.proxy(t.Registry().Global(), blackboard.ScopeGlobal),
		s.vm.ToValue(t.Frame()))
	if err != nil {
		return s.fail(err)
	}
	switch v := out.Export().(type) {
	case nil:
		return bt.StatusSuccess
	case bool:
		if v {
			return bt.StatusSuccess
		}
		return bt.StatusFailure
	case string:
		switch strings.ToLower(v) {
		case "running":
			return bt.StatusRunning
		case "success":
			return bt.StatusSuccess
		case "failure":
			return bt.StatusFailure
		}
	}
	return s.fail(fmt.Errorf("unexpected script result %v", out))
}

func (s *Script) fail(err error) bt.Status {
	s.err = err
	s.Tree().Logger().Warn("script failed", log.String("node", s.Name()), log.Error(err))
	return bt.StatusFailure
}

// proxy exposes a store to JavaScript. Write errors are thrown as JS
// exceptions.
func (s *Script) proxy(store *blackboard.Store, scope blackboard.Scope) goja.Value {
	writable := func(key string) {
		if reserved(scope, key) {
			panic(s.vm.NewGoError(fmt.Errorf("%s: %w", key, ErrReservedKey)))
		}
	}
	obj := s.vm.NewObject()
	_ = obj.Set("get", func(key string) any {
		v, ok := store.Lookup(key)
		if !ok {
			return nil
		}
		return v.Any()
	})
	_ = obj.Set("has", store.Has)
	_ = obj.Set("set", func(key string, val any) {
		writable(key)
		if err := put(store, key, val); err != nil {
			panic(s.vm.NewGoError(err))
		}
	})
	_ = obj.Set("add", func(key string, delta int64) int64 {
		writable(key)
		v, _ := store.Lookup(key)
		next := v.Int() + delta
		if err := store.Put(key, blackboard.Int(next)); err != nil {
			panic(s.vm.NewGoError(err))
		}
		return next
	})
	_ = obj.Set("keys", store.Keys)
	return obj
}

// put writes an untrusted value. Whole numbers are widened when the key is
// already bound to a float.
func put(store *blackboard.Store, key string, val any) error {
	v, err := blackboard.ValueOf(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if v.Kind() == blackboard.KindInt && store.KindOf(key) == blackboard.KindFloat {
		v = blackboard.Float(float64(v.Int()))
	}
	return store.Put(key, v)
}
