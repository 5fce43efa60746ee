package bt

import (
	"errors"
	"fmt"

	"github.com/zeusync/behave/internal/core/blackboard"
)

// Contract violations. They describe a broken tree, not a failed behaviour,
// and are raised as panics carrying a *ContractError.
var (
	ErrInvalidStatus              = errors.New("process returned a scheduler-only status")
	ErrRepeaterWithoutInterruptor = errors.New("repeater spawned without an interruptor")
	ErrTooManyChildren            = errors.New("too many children")
	ErrMissingChild               = errors.New("required child is missing")
	ErrAlreadyAttached            = errors.New("node is already attached")
	ErrDetached                   = errors.New("node is not attached to a tree")
	ErrReentrantTick              = errors.New("tree ticked from inside its own tick")
)

// ContractError is the panic value for contract violations.
type ContractError struct {
	Err    error
	Node   string
	Detail string
}

func (e *ContractError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bt: node %q: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("bt: node %q: %v: %s", e.Node, e.Err, e.Detail)
}

func (e *ContractError) Unwrap() error { return e.Err }

func violate(err error, n Node, format string, args ...any) {
	name := "<nil>"
	if n != nil {
		name = n.Name()
	}
	panic(&ContractError{Err: err, Node: name, Detail: fmt.Sprintf(format, args...)})
}

// Recover turns a contract-violation panic into *errp. It must be deferred
// directly. Other panics are re-raised.
//
//	func run(t *bt.Tree) (err error) {
//		defer bt.Recover(&err)
//		t.Tick()
//		return nil
//	}
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *ContractError:
		*errp = e
	case *blackboard.TypeMismatchError:
		*errp = e
	default:
		panic(r)
	}
}
