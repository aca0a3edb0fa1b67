// Package property implements the PropertyEvaluator component of spec.md
// section 4.6: it evaluates Always/Sometimes/Eventually expectations over
// discovered states, recording the first counterexample or witness for
// each.
//
// The three-way Expectation switch is grounded on the teacher's
// checking.Predicate/Eventually helper (property_old/checking/predicate.go),
// which special-cases "only matters on the terminal state" for an
// eventually-style predicate. The teacher's version runs post-hoc over a
// completed DFS of a fully-built state tree; this version runs
// incrementally as the Checker's workers discover each state, and the
// Eventually approximation follows the "EventuallyBits" propagation scheme
// from the original stateright implementation (original_source/src/checker.rs)
// that this specification was distilled from: each in-flight search path
// carries one bit per Eventually property, cleared the first time that
// path satisfies the property, and a bit still set when a path dead-ends
// (no action from its last state yields a successor) is reported as a
// discovery; a path that only loops back to already-visited states is not
// reported. Per
// spec.md's open question on lasso-detection policy, this is the
// "conservative, per-path" choice: a property is flagged only once a path
// provably cannot satisfy it anymore, not via any cross-path/global
// reasoning, so false positives are impossible but false negatives are
// possible (a property that only holds on a sibling path is missed for
// this one), matching the documented incompleteness.
package property

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"statecheck/fingerprint"
	"statecheck/model"
)

// maxEventuallyProperties bounds how many Eventually properties a single
// model may declare, since EventuallyBits is a uint64 bitmask (mirroring
// the teacher's preference for a plain scalar over a dependency like
// id_set/roaring bitmaps -- no example repo in the pack imports a bitset
// library, so a native uint64 mask is the ambient choice).
const maxEventuallyProperties = 64

// EventuallyBits is a mask of Eventually properties not yet proven to hold
// along the current search path. Bit i corresponds to the i-th Eventually
// property in a Evaluator's declaration order.
type EventuallyBits uint64

// Discovery is a recorded counterexample (Always/Eventually) or witness
// (Sometimes) for one property.
type Discovery struct {
	Property model.Expectation
	Name     string
	FP       fingerprint.Fingerprint
	Depth    int
}

// Evaluator evaluates a fixed set of properties against a stream of
// discovered states, thread-safely.
type Evaluator[S model.State] struct {
	props      []model.Property[S]
	eventually []int // indices into props that are Eventually

	slots []discoverySlot // one per prop, same indexing as props
}

type discoverySlot struct {
	name string
	kind model.Expectation
	v    atomic.Pointer[Discovery]
	mu   sync.Mutex // guards the tie-break compare-and-swap sequence
}

// Sentinel construction errors, declared as package vars the way
// scheduler/scheduler.go declares RunEndedError/NoRunsError. Both errors
// below carry structured detail (which name collided, how many Eventually
// properties were declared), so each wraps its sentinel via Unwrap rather
// than being returned bare -- callers that only care about the kind use
// errors.Is(err, property.ErrDuplicateProperty); callers that want the
// name or count use errors.As against the concrete type.
var (
	ErrDuplicateProperty           = errors.New("property: duplicate property name")
	ErrTooManyEventuallyProperties = errors.New("property: too many Eventually properties declared")
)

// DuplicatePropertyNameError is a ConstructionError: property names must
// be unique per Model.
type DuplicatePropertyNameError struct{ Name string }

func (e *DuplicatePropertyNameError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateProperty, e.Name)
}

func (e *DuplicatePropertyNameError) Unwrap() error { return ErrDuplicateProperty }

// TooManyEventuallyPropertiesError is a ConstructionError.
type TooManyEventuallyPropertiesError struct{ Count int }

func (e *TooManyEventuallyPropertiesError) Error() string {
	return fmt.Sprintf("%s: %d declared, max %d", ErrTooManyEventuallyProperties, e.Count, maxEventuallyProperties)
}

func (e *TooManyEventuallyPropertiesError) Unwrap() error { return ErrTooManyEventuallyProperties }

// New constructs an Evaluator, or returns a ConstructionError if property
// names collide or too many Eventually properties are declared.
func New[S model.State](props []model.Property[S]) (*Evaluator[S], error) {
	seen := make(map[string]bool, len(props))
	ev := &Evaluator[S]{props: props, slots: make([]discoverySlot, len(props))}
	for i, p := range props {
		if seen[p.Name] {
			return nil, &DuplicatePropertyNameError{Name: p.Name}
		}
		seen[p.Name] = true
		ev.slots[i] = discoverySlot{name: p.Name, kind: p.Kind}
		if p.Kind == model.Eventually {
			ev.eventually = append(ev.eventually, i)
		}
	}
	if len(ev.eventually) > maxEventuallyProperties {
		return nil, &TooManyEventuallyPropertiesError{Count: len(ev.eventually)}
	}
	return ev, nil
}

// InitialBits returns the EventuallyBits an initial state's search path
// begins with: every Eventually property unproven.
func (ev *Evaluator[S]) InitialBits() EventuallyBits {
	var b EventuallyBits
	for i := range ev.eventually {
		b |= 1 << uint(i)
	}
	return b
}

// Evaluate checks Always and Sometimes properties against state, and
// clears any Eventually bit whose predicate now holds. It returns the
// updated bits to carry forward to state's successors.
func (ev *Evaluator[S]) Evaluate(state S, fp fingerprint.Fingerprint, depth int, bits EventuallyBits) EventuallyBits {
	for i, p := range ev.props {
		switch p.Kind {
		case model.Always:
			if !p.Predicate(state) {
				ev.record(i, fp, depth)
			}
		case model.Sometimes:
			if p.Predicate(state) {
				ev.record(i, fp, depth)
			}
		case model.Eventually:
			bitPos := indexOf(ev.eventually, i)
			if bits&(1<<uint(bitPos)) != 0 && p.Predicate(state) {
				bits &^= 1 << uint(bitPos)
			}
		}
	}
	return bits
}

// DeadEnd is called when a search path terminates: state has no actions,
// or every action from state is ignored. A state whose successors were all
// visited before is not a dead end. Any Eventually property still unproven along
// this path is reported as a discovery, with state as the counterexample.
func (ev *Evaluator[S]) DeadEnd(fp fingerprint.Fingerprint, depth int, bits EventuallyBits) {
	for bitPos, i := range ev.eventually {
		if bits&(1<<uint(bitPos)) != 0 {
			ev.record(i, fp, depth)
		}
	}
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// record stores a discovery for property i, replacing an earlier one only
// under a deterministic order per spec.md 4.6: the discovery with the
// smaller depth wins, whichever was observed first; ties broken by the smaller fingerprint value, which stands
// in for "lexicographically smallest fingerprint sequence" since shorter
// depth already dominates path length and the fingerprint itself is
// already a canonical, comparable proxy for the path that produced it.
func (ev *Evaluator[S]) record(i int, fp fingerprint.Fingerprint, depth int) {
	slot := &ev.slots[i]
	cand := &Discovery{Property: slot.kind, Name: slot.name, FP: fp, Depth: depth}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	cur := slot.v.Load()
	if cur == nil || depth < cur.Depth || (depth == cur.Depth && fp < cur.FP) {
		slot.v.Store(cand)
	}
}

// Discoveries returns the discovery recorded so far for each property,
// nil if none, in declaration order.
func (ev *Evaluator[S]) Discoveries() []*Discovery {
	out := make([]*Discovery, len(ev.slots))
	for i := range ev.slots {
		out[i] = ev.slots[i].v.Load()
	}
	return out
}

// AllResolved reports whether every property already has a discovery,
// used by the Checker's finish_when short-circuit.
func (ev *Evaluator[S]) AllResolved() bool {
	for i := range ev.slots {
		if ev.slots[i].v.Load() == nil {
			return false
		}
	}
	return true
}

// Names returns property names sorted alphabetically (not in declaration
// order), for deterministic reporting where a caller needs a stable
// iteration order.
func (ev *Evaluator[S]) Names() []string {
	out := make([]string, len(ev.props))
	for i, p := range ev.props {
		out[i] = p.Name
	}
	sort.Strings(out)
	return out
}
