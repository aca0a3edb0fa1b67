// Package increment models the classic racy-increment example: n threads
// each read a shared counter into a thread-local register and then write
// back the increment, unsynchronized. Grounded directly on
// original_source/examples/increment.rs, this is the smallest example that
// still demonstrates the checker finding a real bug (two threads reading
// the same stale value drop an increment) and demonstrates
// model.Representative-based symmetry reduction, since every thread runs
// identical logic and is otherwise interchangeable.
package increment

import (
	"fmt"
	"sort"

	"statecheck/model"
)

// pc mirrors the three program points every thread passes through:
// pcRead ("about to read"), pcWrite ("read done, about to write"), and
// pcDone ("write done").
type pc uint8

const (
	pcRead pc = iota + 1
	pcWrite
	pcDone
)

// ThreadState is one thread's program counter and the value it last read
// from the shared counter.
type ThreadState struct {
	Local uint64
	PC    pc
}

// State is the whole system: the shared counter and every thread's local
// state, laid out as a slice (not a map) so gob encodes it deterministically
// for fingerprinting, matching the convention already established by
// actor.ActorModelState and network.Network.
type State struct {
	Shared  uint64
	Threads []ThreadState
}

// New builds the initial state for n racing threads, all parked at pcRead
// with a Local value of zero.
func New(n int) State {
	threads := make([]ThreadState, n)
	for i := range threads {
		threads[i] = ThreadState{PC: pcRead}
	}
	return State{Threads: threads}
}

// Kind distinguishes the two atomic steps a thread can take.
type Kind int

const (
	Read Kind = iota
	Write
)

// Action names the thread performing a Read or Write step.
type Action struct {
	Kind   Kind
	Thread int
}

func (a Action) String() string {
	switch a.Kind {
	case Read:
		return fmt.Sprintf("thread[%d].read", a.Thread)
	case Write:
		return fmt.Sprintf("thread[%d].write", a.Thread)
	default:
		return "unknown"
	}
}

// Model is a model.Model[State, Action] over n racing threads, with an
// Always property asserting the final shared counter equals the number of
// threads that finished writing — the invariant that unsynchronized
// interleaving can violate.
type Model struct {
	N int
}

func NewModel(n int) Model { return Model{N: n} }

func (m Model) InitialStates() []State { return []State{New(m.N)} }

func (m Model) Actions(state State) []Action {
	var actions []Action
	for i, t := range state.Threads {
		switch t.PC {
		case pcRead:
			actions = append(actions, Action{Kind: Read, Thread: i})
		case pcWrite:
			actions = append(actions, Action{Kind: Write, Thread: i})
		}
	}
	return actions
}

func (m Model) NextState(state State, action Action) (State, bool) {
	next := State{Shared: state.Shared, Threads: append([]ThreadState(nil), state.Threads...)}
	switch action.Kind {
	case Read:
		next.Threads[action.Thread] = ThreadState{PC: pcWrite, Local: state.Shared}
	case Write:
		t := next.Threads[action.Thread]
		next.Threads[action.Thread] = ThreadState{PC: pcDone, Local: t.Local}
		next.Shared = t.Local + 1
	}
	return next, true
}

func (m Model) Properties() []model.Property[State] {
	return []model.Property[State]{
		model.AlwaysProp("increments-not-lost", func(s State) bool {
			done := uint64(0)
			for _, t := range s.Threads {
				if t.PC == pcDone {
					done++
				}
			}
			return s.Shared == done
		}),
	}
}

// Representative sorts the thread slice, canonicalizing away the identity
// of otherwise-interchangeable threads so symmetric interleavings collapse
// to one VisitedSet entry, exactly as original_source/examples/increment.rs's
// impl Representative for State does.
func (m Model) Representative(state State) State {
	sorted := append([]ThreadState(nil), state.Threads...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PC != sorted[j].PC {
			return sorted[i].PC < sorted[j].PC
		}
		return sorted[i].Local < sorted[j].Local
	})
	return State{Shared: state.Shared, Threads: sorted}
}

var (
	_ model.Model[State, Action]  = Model{}
	_ model.Representative[State] = Model{}
)
