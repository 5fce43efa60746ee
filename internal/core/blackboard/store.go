package blackboard

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/behave/internal/core/observability/log"
)

const defaultShards = 8

// Store is a typed key-value map. The first write of a key binds its kind for
// the lifetime of the store. Keys are spread over shards by xxhash so that
// level and global stores shared by many trees do not contend on one lock.
type Store struct {
	name   string
	shards []*shard
	log    log.Log
}

type shard struct {
	mu   sync.RWMutex
	data map[string]Value
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithShards sets the shard count. Values below one are ignored.
func WithShards(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// WithLogger sets the logger used for read warnings.
func WithLogger(l log.Log) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore creates an empty store. The name only shows up in logs and errors.
func NewStore(name string, opts ...StoreOption) *Store {
	s := &Store{
		name:   name,
		shards: make([]*shard, defaultShards),
		log:    log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[string]Value)}
	}
	return s
}

func (s *Store) Name() string { return s.name }

func (s *Store) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// Put writes v under key, returning a *TypeMismatchError instead of writing
// when key is already bound to another kind.
func (s *Store) Put(key string, v Value) error {
	if v.kind == KindInvalid {
		return &TypeMismatchError{Store: s.name, Key: key, Written: KindInvalid}
	}
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cur, ok := sh.data[key]; ok && cur.kind != v.kind {
		return &TypeMismatchError{Store: s.name, Key: key, Bound: cur.kind, Written: v.kind}
	}
	sh.data[key] = v
	return nil
}

// Set is Put for trusted callers: a kind conflict is a programming error and
// panics with the *TypeMismatchError.
func (s *Store) Set(key string, v Value) {
	if err := s.Put(key, v); err != nil {
		panic(err)
	}
}

// Lookup returns the raw value without logging when it is absent.
func (s *Store) Lookup(key string) (Value, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.data[key]
	return v, ok
}

// Has reports whether key has been written.
func (s *Store) Has(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// KindOf returns the kind key is bound to, or KindInvalid.
func (s *Store) KindOf(key string) Kind {
	v, _ := s.Lookup(key)
	return v.kind
}

// read fetches key expecting kind want. Missing or mistyped keys log a
// warning and report false so the caller falls back to the zero value.
func (s *Store) read(key string, want Kind) (Value, bool) {
	v, ok := s.Lookup(key)
	if !ok {
		s.log.Warn("blackboard key not set",
			log.String("store", s.name),
			log.String("key", key),
			log.Stringer("want", want),
		)
		return Value{}, false
	}
	if v.kind != want {
		s.log.Warn("blackboard key read with wrong type",
			log.String("store", s.name),
			log.String("key", key),
			log.Stringer("want", want),
			log.Stringer("bound", v.kind),
		)
		return Value{}, false
	}
	return v, true
}

func (s *Store) SetInt(key string, v int)       { s.Set(key, Int(int64(v))) }
func (s *Store) SetFloat(key string, v float64) { s.Set(key, Float(v)) }
func (s *Store) SetBool(key string, v bool)     { s.Set(key, Bool(v)) }
func (s *Store) SetString(key string, v string) { s.Set(key, String(v)) }
func (s *Store) SetVec3(key string, v Vec3)     { s.Set(key, V3(v)) }

func (s *Store) GetInt(key string) int {
	v, _ := s.read(key, KindInt)
	return int(v.i)
}

func (s *Store) GetFloat(key string) float64 {
	v, _ := s.read(key, KindFloat)
	return v.f
}

func (s *Store) GetBool(key string) bool {
	v, _ := s.read(key, KindBool)
	return v.b
}

func (s *Store) GetString(key string) string {
	v, _ := s.read(key, KindString)
	return v.s
}

func (s *Store) GetVec3(key string) Vec3 {
	v, _ := s.read(key, KindVec3)
	return v.v
}

// AddInt adds delta to an int key under the shard lock and returns the new
// value. A missing key starts from zero.
func (s *Store) AddInt(key string, delta int) int {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	cur, ok := sh.data[key]
	if ok && cur.kind != KindInt {
		panic(&TypeMismatchError{Store: s.name, Key: key, Bound: cur.kind, Written: KindInt})
	}
	cur = Int(cur.i + int64(delta))
	sh.data[key] = cur
	return int(cur.i)
}

// Keys returns every bound key in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.data {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.data)
		sh.mu.RUnlock()
	}
	return n
}

// Snapshot copies the store into a plain map of Go values. Shards are locked
// one at a time, so concurrent writers may be observed partially.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.data {
			out[k] = v.Any()
		}
		sh.mu.RUnlock()
	}
	return out
}

// Get reads key as T, returning the zero value (and logging) when the key is
// missing or bound to another kind.
func Get[T Primitive](s *Store, key string) T {
	var zero T
	v, ok := s.read(key, kindOf[T]())
	if !ok {
		return zero
	}
	return v.Any().(T)
}

// Set writes a typed value, panicking on a kind conflict.
func Set[T Primitive](s *Store, key string, v T) {
	s.Set(key, valueFromPrimitive(v))
}
