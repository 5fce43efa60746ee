package bt

import "fmt"

// Status is the state of one node execution.
type Status uint8

const (
	// StatusUninitialised means the node has never been spawned.
	StatusUninitialised Status = iota
	// StatusRunning means the node is active and expects more ticks.
	StatusRunning
	// StatusSuccess is a terminal outcome.
	StatusSuccess
	// StatusFailure is a terminal outcome.
	StatusFailure
	// StatusTerminated means the node was cancelled before reaching an
	// outcome. Only the scheduler assigns it.
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusUninitialised:
		return "Uninitialised"
	case StatusRunning:
		return "Running"
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// MarshalText lets events and snapshots carry readable statuses.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finished reports whether s is Success or Failure.
func (s Status) Finished() bool {
	return s == StatusSuccess || s == StatusFailure
}

// failed folds Terminated into Failure, which is how parents read a
// cancelled child.
func (s Status) failed() bool {
	return s == StatusFailure || s == StatusTerminated
}
