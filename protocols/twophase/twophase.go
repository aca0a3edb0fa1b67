// Package twophase models the coordinator/resource-manager two-phase
// commit protocol from Gray and Lamport's "Consensus on Transaction
// Commit", grounded directly on original_source/examples/2pc.rs. The
// abstraction skips real message delivery: msgs is a set of messages ever
// sent, and every resource manager may react to any message in it at any
// time, however many times it likes, which is the same "message soup"
// abstraction the original uses in place of a real network.
package twophase

import (
	"fmt"
	"sort"

	"statecheck/model"
)

type rmState uint8

const (
	rmWorking rmState = iota
	rmPrepared
	rmCommitted
	rmAborted
)

func (s rmState) String() string {
	switch s {
	case rmWorking:
		return "Working"
	case rmPrepared:
		return "Prepared"
	case rmCommitted:
		return "Committed"
	case rmAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

type tmState uint8

const (
	tmInit tmState = iota
	tmCommitted
	tmAborted
)

// msgKind and Message together form the "message soup": every message ever
// sent stays in State.Msgs forever (2pc.rs's msgs: BTreeSet<Message<R>>),
// so any resource manager can react to it any number of times, modeling an
// unreliable network that never loses messages but may deliver them
// arbitrarily late or more than once.
type msgKind uint8

const (
	msgPrepared msgKind = iota
	msgCommit
	msgAbort
)

type Message struct {
	Kind msgKind
	RM   int
}

// State is the whole two-phase-commit system: every resource manager's
// local state, the transaction manager's state, the set of resource
// managers the transaction manager has heard Prepared from, and the
// message soup.
type State struct {
	RMState    []rmState
	TMState    tmState
	TMPrepared []int
	Msgs       []Message
}

// New builds the initial state for a coordinator managing n resource
// managers, all Working, with the transaction manager freshly Init and no
// messages sent.
func New(n int) State {
	rms := make([]rmState, n)
	return State{RMState: rms, TMState: tmInit}
}

type ActionKind int

const (
	TMRcvPrepared ActionKind = iota
	TMCommit
	TMAbort
	RMPrepare
	RMChooseToAbort
	RMRcvCommitMsg
	RMRcvAbortMsg
)

type Action struct {
	Kind ActionKind
	RM   int
}

func (a Action) String() string {
	switch a.Kind {
	case TMRcvPrepared:
		return fmt.Sprintf("tm.rcvPrepared(%d)", a.RM)
	case TMCommit:
		return "tm.commit"
	case TMAbort:
		return "tm.abort"
	case RMPrepare:
		return fmt.Sprintf("rm[%d].prepare", a.RM)
	case RMChooseToAbort:
		return fmt.Sprintf("rm[%d].chooseToAbort", a.RM)
	case RMRcvCommitMsg:
		return fmt.Sprintf("rm[%d].rcvCommit", a.RM)
	case RMRcvAbortMsg:
		return fmt.Sprintf("rm[%d].rcvAbort", a.RM)
	default:
		return "unknown"
	}
}

// Model is a model.Model[State, Action] over n resource managers running
// two-phase commit.
type Model struct {
	N int
}

func NewModel(n int) Model { return Model{N: n} }

func (m Model) InitialStates() []State { return []State{New(m.N)} }

func (s State) hasMsg(kind msgKind, rm int) bool {
	for _, msg := range s.Msgs {
		if msg.Kind == kind && (kind != msgPrepared || msg.RM == rm) {
			return true
		}
	}
	return false
}

func (s State) hasPreparedFromAll(n int) bool {
	if len(s.TMPrepared) != n {
		return false
	}
	return true
}

func (m Model) Actions(state State) []Action {
	var actions []Action
	if state.TMState == tmInit && state.hasPreparedFromAll(m.N) {
		actions = append(actions, Action{Kind: TMCommit})
	}
	if state.TMState == tmInit {
		actions = append(actions, Action{Kind: TMAbort})
	}
	for rm := 0; rm < m.N; rm++ {
		if state.TMState == tmInit && state.hasMsg(msgPrepared, rm) && !contains(state.TMPrepared, rm) {
			actions = append(actions, Action{Kind: TMRcvPrepared, RM: rm})
		}
		if state.RMState[rm] == rmWorking {
			actions = append(actions, Action{Kind: RMPrepare, RM: rm})
			actions = append(actions, Action{Kind: RMChooseToAbort, RM: rm})
		}
		if state.hasMsg(msgCommit, 0) {
			actions = append(actions, Action{Kind: RMRcvCommitMsg, RM: rm})
		}
		if state.hasMsg(msgAbort, 0) {
			actions = append(actions, Action{Kind: RMRcvAbortMsg, RM: rm})
		}
	}
	return actions
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (m Model) NextState(state State, action Action) (State, bool) {
	next := State{
		RMState:    append([]rmState(nil), state.RMState...),
		TMState:    state.TMState,
		TMPrepared: append([]int(nil), state.TMPrepared...),
		Msgs:       append([]Message(nil), state.Msgs...),
	}
	switch action.Kind {
	case TMRcvPrepared:
		next.TMPrepared = append(next.TMPrepared, action.RM)
		sort.Ints(next.TMPrepared)
	case TMCommit:
		next.TMState = tmCommitted
		next.Msgs = addMsg(next.Msgs, Message{Kind: msgCommit})
	case TMAbort:
		next.TMState = tmAborted
		next.Msgs = addMsg(next.Msgs, Message{Kind: msgAbort})
	case RMPrepare:
		next.RMState[action.RM] = rmPrepared
		next.Msgs = addMsg(next.Msgs, Message{Kind: msgPrepared, RM: action.RM})
	case RMChooseToAbort:
		next.RMState[action.RM] = rmAborted
	case RMRcvCommitMsg:
		next.RMState[action.RM] = rmCommitted
	case RMRcvAbortMsg:
		next.RMState[action.RM] = rmAborted
	}
	return next, true
}

// addMsg inserts msg into the soup if it is not already present, keeping
// Msgs deduplicated and in a stable order so equal message sets fingerprint
// identically regardless of arrival order.
func addMsg(msgs []Message, msg Message) []Message {
	for _, m := range msgs {
		if m == msg {
			return msgs
		}
	}
	msgs = append(msgs, msg)
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].Kind != msgs[j].Kind {
			return msgs[i].Kind < msgs[j].Kind
		}
		return msgs[i].RM < msgs[j].RM
	})
	return msgs
}

// Properties returns the consistency invariant from 2pc.rs's
// is_consistent: no two resource managers may settle on different
// outcomes.
func (m Model) Properties() []model.Property[State] {
	return []model.Property[State]{
		model.AlwaysProp("no-conflicting-outcomes", func(s State) bool {
			for i := range s.RMState {
				for j := range s.RMState {
					if s.RMState[i] == rmAborted && s.RMState[j] == rmCommitted {
						return false
					}
				}
			}
			return true
		}),
		model.EventuallyProp("transaction-manager-decides", func(s State) bool {
			return s.TMState != tmInit
		}),
	}
}

var _ model.Model[State, Action] = Model{}
