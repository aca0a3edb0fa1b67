// Package model defines the capability set a user-supplied state machine
// must satisfy to be explored by the checker.
//
// Following the teacher's preference for generics over inheritance
// (StateManager[T, S] in stateManager_old, PredicateChecker[S] in
// property_old/checking), Model is a plain generic interface rather than a
// base class or abstract struct: the checker package only ever sees this
// capability set, never a concrete implementation, exactly as spec.md's
// Design Notes call for ("the engine is generic over a capability set").
package model

import "fmt"

// State is the constraint on user state types. It accepts any type; the
// engine only ever compares states by fingerprint, so a state need not be
// comparable.
type State any

// Action is an opaque, displayable transition label. Actions must format
// themselves for edge logs, UI display, and error messages.
type Action interface {
	fmt.Stringer
}

// Model is the user-supplied state machine. S and A must be gob-encodable
// (see fingerprint.Of) since the checker fingerprints every discovered
// state.
type Model[S State, A Action] interface {
	// InitialStates returns the states the search begins from. Must
	// return at least one; an empty result is a construction error.
	InitialStates() []S

	// Actions enumerates the actions available from state. May return
	// none: a state with no actions is terminal.
	//
	// Must be a pure function of state: the checker's nondeterminism
	// probe re-invokes Actions/NextState on a sampled state and compares
	// the resulting fingerprint sets to catch violations of this
	// requirement.
	Actions(state S) []A

	// NextState applies action to state. A false second return value means
	// the action is ignored from this state: it is preserved in edge
	// logs for UI purposes but contributes no successor.
	NextState(state S, action A) (S, bool)

	// Properties returns the properties evaluated against every reached
	// state. Property names must be unique; a duplicate name is a fatal
	// construction error.
	Properties() []Property[S]
}

// WithinBoundary is implemented by models that need to prune otherwise
// infinite search spaces (e.g. an unbounded Paxos ballot number). States
// failing the predicate are neither inserted into the VisitedSet nor
// expanded.
type WithinBoundary[S State] interface {
	WithinBoundary(state S) bool
}

// ActionDisplay is implemented by models that want a friendlier action
// label than Action.String() for the Explorer/Report API.
type ActionDisplay[S State, A Action] interface {
	DisplayAction(action A, state S) string
}

// Representative is implemented by models that support symmetry
// reduction: representative(state) canonicalizes a state before
// fingerprinting so that symmetric configurations collapse to one entry
// in the VisitedSet (e.g. permuting interchangeable acceptor ids in
// Paxos).
//
// Required law (spec.md Design Notes): Representative(Representative(s))
// == Representative(s), and s == s' under the model's symmetry implies
// Representative(s) == Representative(s'). The checker does not verify
// this law: its nondeterminism probe re-runs only Actions and NextState,
// so a Representative that violates it goes unreported.
type Representative[S State] interface {
	Representative(state S) S
}
