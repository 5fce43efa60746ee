package blackboard

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is matched by every *TypeMismatchError.
	ErrTypeMismatch = errors.New("blackboard: type mismatch")
	ErrNoOwner      = errors.New("blackboard: tree scope requires an owning tree")
	ErrNoLevel      = errors.New("blackboard: owner is not tagged with a level")
	ErrUnknownScope = errors.New("blackboard: unknown scope")
)

// TypeMismatchError reports a write whose kind conflicts with the kind the
// key was first written with.
type TypeMismatchError struct {
	Store   string
	Key     string
	Bound   Kind
	Written Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("blackboard %q: key %q is bound to %s, cannot write %s", e.Store, e.Key, e.Bound, e.Written)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }
