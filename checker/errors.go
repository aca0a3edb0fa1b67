package checker

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind Report.Err can hold, declared as
// package vars the way scheduler/scheduler.go declares RunEndedError and
// NoRunsError. Callers that only care about the kind of failure use
// errors.Is against these directly; callers that need the structured
// detail (which action misbehaved, how many states were explored, ...)
// use errors.As against the concrete type below, exactly as the teacher's
// simulator.go does with the scheduler's errors one layer up
// (fmt.Errorf("...: %w", err) at the call site, errors.Is/errors.As at the
// caller).
var (
	ErrNoInitialStates = errors.New("checker: model declared no initial states")
	ErrNondeterminism  = errors.New("checker: nondeterminism detected")
	ErrPropertyPanic   = errors.New("checker: panic recovered during exploration")
	ErrTimeout         = errors.New("checker: timed out before exploration finished")
	ErrSerialization   = errors.New("checker: state serialization failed")
)

// NoInitialStatesError is a ConstructionError: Model.InitialStates()
// returned no states, so there is nothing to explore. It carries no
// detail beyond the sentinel itself, so ErrNoInitialStates is returned
// directly rather than wrapped in a distinct type.

// NondeterminismError reports that re-invoking Actions/NextState on a
// state already discovered produced a different successor fingerprint set
// than the first time, violating Model's purity requirement (model.go's
// doc comment on Actions). Raised by the nondeterminism probe.
type NondeterminismError struct {
	Action string
	First  uint64
	Second uint64
}

func (e *NondeterminismError) Error() string {
	return fmt.Sprintf("%s: action %q produced fingerprint %#x on first expansion and %#x on re-expansion", ErrNondeterminism, e.Action, e.First, e.Second)
}

func (e *NondeterminismError) Unwrap() error { return ErrNondeterminism }

// PropertyPanic wraps a panic recovered from a Property predicate or from
// Model.NextState/Actions, so that one buggy predicate fails the run
// cleanly instead of crashing a worker goroutine silently.
type PropertyPanic struct {
	Where string
	Value any
}

func (e *PropertyPanic) Error() string {
	return fmt.Sprintf("%s during %s: %v", ErrPropertyPanic, e.Where, e.Value)
}

func (e *PropertyPanic) Unwrap() error { return ErrPropertyPanic }

// TimeoutError reports that a check was stopped by its configured timeout
// before the queue drained.
type TimeoutError struct{ Explored int64 }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: explored %d states", ErrTimeout, e.Explored)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// SerializationError re-exports fingerprint's error under the checker
// package's error surface so callers importing only checker can match on
// it, mirroring the teacher's habit of wrapping lower package errors at
// the boundary a caller actually depends on. Unwrap exposes both
// ErrSerialization, for a kind check, and the underlying fingerprint
// error, for errors.As against fingerprint.SerializationError.
type SerializationError struct{ Err error }

func (e *SerializationError) Error() string { return fmt.Sprintf("%s: %v", ErrSerialization, e.Err) }
func (e *SerializationError) Unwrap() []error { return []error{ErrSerialization, e.Err} }
