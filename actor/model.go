package actor

import (
	"fmt"
	"sort"

	"statecheck/model"
	"statecheck/network"
)

// ActorState is one actor's local state plus its crash status and the
// timers currently armed on it, sorted for deterministic fingerprinting.
type ActorState[S any] struct {
	Id      Id
	State   S
	Crashed bool
	Timers  []string
}

// ActorModelState is the full state of an actor system: every actor's
// ActorState, sorted by Id, the Network carrying in-flight messages, and
// History, the opaque tester state spec.md section 4.7 calls out
// alongside the network and actor states -- a ConsistencyTester's
// accumulated view of the run, built up as messages are sent and
// delivered rather than inspected out of band.
// Actors is a slice rather than a map[Id]ActorState for the same reason
// network.Network avoids maps: gob's map encoding order follows Go's
// randomized map iteration, which would make two structurally identical
// states fingerprint differently across runs.
type ActorModelState[S any, Msg any, H any] struct {
	Actors       []ActorState[S]
	Net          network.Network[Msg]
	History      H
	Clock        int64
	CrashesSoFar int
}

func (s ActorModelState[S, Msg, H]) actorIndex(id Id) int {
	for i := range s.Actors {
		if s.Actors[i].Id == id {
			return i
		}
	}
	return -1
}

// ActionKind discriminates the five kinds of transition an ActorModel
// offers, mirroring the closed set of event.Event implementations
// (MessageEvent, SleepEvent, CrashEvent) the teacher dispatches with a
// type switch, collapsed here into one Action struct tagged by kind since
// Go generics make a closed sum type awkward to express as an interface
// hierarchy across two more type parameters (S, Msg).
type ActionKind int

const (
	Deliver ActionKind = iota
	Timeout
	Crash
	Restart
	Drop
)

// Action is one transition offered by an ActorModel.
type Action struct {
	Kind        ActionKind
	ActorId     Id
	EnvelopeIdx int    // meaningful for Deliver, Drop
	TimerName   string // meaningful for Timeout
}

func (a Action) String() string {
	switch a.Kind {
	case Deliver:
		return fmt.Sprintf("Deliver(envelope %d -> actor %d)", a.EnvelopeIdx, a.ActorId)
	case Timeout:
		return fmt.Sprintf("Timeout(actor %d, %s)", a.ActorId, a.TimerName)
	case Crash:
		return fmt.Sprintf("Crash(actor %d)", a.ActorId)
	case Restart:
		return fmt.Sprintf("Restart(actor %d)", a.ActorId)
	case Drop:
		return fmt.Sprintf("Drop(envelope %d)", a.EnvelopeIdx)
	default:
		return "Action(?)"
	}
}

// MsgHook is a ConsistencyTester recording hook (spec.md section 4.9's
// record_msg_in/record_msg_out): given the history accumulated so far and
// the envelope just delivered or sent, it returns the history that
// results. at is the ActorModelState's logical Clock value at the moment
// of the call, used as the recorded operation's invocation or return
// timestamp since actor systems have no wall clock of their own.
//
// A MsgHook must treat h as immutable and return a new value rather than
// mutating through a pointer or shared slice header, the same
// copy-on-write discipline network.Network's own Send/Deliver/Drop
// methods follow, since one history value is shared as the starting
// point for every action offered from a given state.
type MsgHook[Msg any, H any] func(h H, env network.Envelope[Msg], at int64) H

// ActorModel is a model.Model over ActorModelState, built from a fixed
// roster of Actor implementations.
type ActorModel[S any, Msg any, H any] struct {
	roster     map[Id]Actor[S, Msg]
	ids        []Id // sorted, cached for deterministic iteration
	discipline network.Discipline
	crashable  map[Id]bool
	maxCrashes int
	maxInFlt   int
	lossy      bool
	initHist   H
	recordIn   MsgHook[Msg, H]
	recordOut  MsgHook[Msg, H]
	props      []model.Property[ActorModelState[S, Msg, H]]
}

// Option configures an ActorModel, following the same marker-interface
// pattern as checker.Option and queue.Option.
type Option[S any, Msg any, H any] interface{ apply(*ActorModel[S, Msg, H]) }

type withCrashable[S any, Msg any, H any] []Id

func (o withCrashable[S, Msg, H]) apply(m *ActorModel[S, Msg, H]) {
	if m.crashable == nil {
		m.crashable = map[Id]bool{}
	}
	for _, id := range o {
		m.crashable[id] = true
	}
}

// WithCrashable marks ids as eligible for the Crash action. Actors not
// named here never crash.
func WithCrashable[S any, Msg any, H any](ids ...Id) Option[S, Msg, H] {
	return withCrashable[S, Msg, H](ids)
}

type withMaxCrashes[S any, Msg any, H any] int

func (o withMaxCrashes[S, Msg, H]) apply(m *ActorModel[S, Msg, H]) { m.maxCrashes = int(o) }

// WithMaxCrashes bounds the total number of Crash actions taken along any
// path. Zero (default) means unbounded (up to the size of the crashable
// set concurrently, since a fail-stop actor cannot crash twice without an
// intervening Restart).
func WithMaxCrashes[S any, Msg any, H any](n int) Option[S, Msg, H] {
	return withMaxCrashes[S, Msg, H](n)
}

type withMaxInFlight[S any, Msg any, H any] int

func (o withMaxInFlight[S, Msg, H]) apply(m *ActorModel[S, Msg, H]) { m.maxInFlt = int(o) }

// WithMaxInFlight bounds the network's in-flight envelope count, pruning
// states past the bound. Needed to keep the state space finite when
// running under network.UnorderedDuplicating, since retried sends never
// consume the original envelope. A bound of zero or less (the default)
// leaves the count unbounded.
func WithMaxInFlight[S any, Msg any, H any](n int) Option[S, Msg, H] {
	return withMaxInFlight[S, Msg, H](n)
}

type withLossyNetwork[S any, Msg any, H any] struct{}

func (withLossyNetwork[S, Msg, H]) apply(m *ActorModel[S, Msg, H]) { m.lossy = true }

// WithLossyNetwork offers a Drop action for every in-flight envelope, in
// addition to whatever network.Discipline governs delivery. Off by
// default since it multiplies the branching factor.
func WithLossyNetwork[S any, Msg any, H any]() Option[S, Msg, H] {
	return withLossyNetwork[S, Msg, H]{}
}

type withProperties[S any, Msg any, H any] []model.Property[ActorModelState[S, Msg, H]]

func (o withProperties[S, Msg, H]) apply(m *ActorModel[S, Msg, H]) { m.props = append(m.props, o...) }

// WithProperties declares the properties checked against every reached
// ActorModelState.
func WithProperties[S any, Msg any, H any](props ...model.Property[ActorModelState[S, Msg, H]]) Option[S, Msg, H] {
	return withProperties[S, Msg, H](props)
}

type withHistory[S any, Msg any, H any] struct {
	initial   H
	recordIn  MsgHook[Msg, H]
	recordOut MsgHook[Msg, H]
}

func (o withHistory[S, Msg, H]) apply(m *ActorModel[S, Msg, H]) {
	m.initHist = o.initial
	m.recordIn = o.recordIn
	m.recordOut = o.recordOut
}

// WithHistory wires a ConsistencyTester's record_msg_in/record_msg_out
// hooks (spec.md section 4.9) into the ActorModel: initial seeds
// ActorModelState.History for every InitialStates entry, recordIn runs
// whenever NextState delivers an envelope to its recipient, and recordOut
// runs whenever applyEffects turns a Send effect into a new in-flight
// envelope. Either hook may be nil to record only sends or only
// deliveries. Without this option, History stays at H's zero value for
// the whole run.
func WithHistory[S any, Msg any, H any](initial H, recordIn, recordOut MsgHook[Msg, H]) Option[S, Msg, H] {
	return withHistory[S, Msg, H]{initial: initial, recordIn: recordIn, recordOut: recordOut}
}

// New builds an ActorModel from roster, a map from actor id to its
// reaction logic, running under discipline.
func New[S any, Msg any, H any](roster map[Id]Actor[S, Msg], discipline network.Discipline, opts ...Option[S, Msg, H]) *ActorModel[S, Msg, H] {
	ids := make([]Id, 0, len(roster))
	for id := range roster {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	m := &ActorModel[S, Msg, H]{roster: roster, ids: ids, discipline: discipline}
	for _, o := range opts {
		o.apply(m)
	}
	return m
}

// InitialStates builds the single initial ActorModelState by running
// OnStart for every actor in id order and applying the effects it
// requests, the same way runPerfectFailureManager.Init seeds crash events
// for a run before any node executes (failureManager_old/perfectFailureManager.go).
func (m *ActorModel[S, Msg, H]) InitialStates() []ActorModelState[S, Msg, H] {
	state := ActorModelState[S, Msg, H]{Net: network.New[Msg](m.discipline), History: m.initHist}
	for _, id := range m.ids {
		s, effects := m.roster[id].OnStart(id)
		as := ActorState[S]{Id: id, State: s}
		state.Actors = append(state.Actors, as)
		state = m.applyEffects(state, id, effects)
	}
	return []ActorModelState[S, Msg, H]{state}
}

// Actions enumerates every Deliver/Timeout/Crash/Restart/Drop transition
// available from state.
func (m *ActorModel[S, Msg, H]) Actions(state ActorModelState[S, Msg, H]) []Action {
	var actions []Action

	crashed := make(map[Id]bool, len(state.Actors))
	for _, as := range state.Actors {
		crashed[as.Id] = as.Crashed
	}

	for _, idx := range state.Net.Deliverable() {
		env := state.Net.Envelopes[idx]
		if crashed[Id(env.To)] {
			continue
		}
		actions = append(actions, Action{Kind: Deliver, ActorId: Id(env.To), EnvelopeIdx: idx})
	}

	for _, as := range state.Actors {
		if as.Crashed {
			continue
		}
		for _, name := range as.Timers {
			actions = append(actions, Action{Kind: Timeout, ActorId: as.Id, TimerName: name})
		}
	}

	if m.crashable != nil && (m.maxCrashes == 0 || state.CrashesSoFar < m.maxCrashes) {
		for _, as := range state.Actors {
			if m.crashable[as.Id] && !as.Crashed {
				actions = append(actions, Action{Kind: Crash, ActorId: as.Id})
			}
		}
	}

	for _, as := range state.Actors {
		if as.Crashed {
			actions = append(actions, Action{Kind: Restart, ActorId: as.Id})
		}
	}

	if m.lossy {
		for i := range state.Net.Envelopes {
			actions = append(actions, Action{Kind: Drop, EnvelopeIdx: i})
		}
	}

	return actions
}

// NextState applies action to state.
func (m *ActorModel[S, Msg, H]) NextState(state ActorModelState[S, Msg, H], action Action) (ActorModelState[S, Msg, H], bool) {
	switch action.Kind {
	case Deliver:
		if action.EnvelopeIdx >= len(state.Net.Envelopes) {
			return state, false
		}
		env := state.Net.Envelopes[action.EnvelopeIdx]
		i := state.actorIndex(Id(env.To))
		if i < 0 || state.Actors[i].Crashed {
			return state, false
		}
		next := state.clone()
		newNet, delivered := next.Net.Deliver(action.EnvelopeIdx)
		next.Net = newNet
		next.Clock++
		if m.recordIn != nil {
			next.History = m.recordIn(next.History, delivered, next.Clock)
		}
		newActorState, effects := m.roster[Id(delivered.To)].OnMsg(Id(delivered.To), next.Actors[i].State, Id(delivered.From), delivered.Msg)
		next.Actors[i].State = newActorState
		next = m.applyEffects(next, Id(delivered.To), effects)
		return m.checkBoundary(next)

	case Timeout:
		i := state.actorIndex(action.ActorId)
		if i < 0 || state.Actors[i].Crashed || !hasTimer(state.Actors[i].Timers, action.TimerName) {
			return state, false
		}
		next := state.clone()
		next.Actors[i].Timers = removeTimer(next.Actors[i].Timers, action.TimerName)
		newActorState, effects := m.roster[action.ActorId].OnTimeout(action.ActorId, next.Actors[i].State, action.TimerName)
		next.Actors[i].State = newActorState
		next = m.applyEffects(next, action.ActorId, effects)
		return m.checkBoundary(next)

	case Crash:
		i := state.actorIndex(action.ActorId)
		if i < 0 || state.Actors[i].Crashed {
			return state, false
		}
		next := state.clone()
		next.Actors[i].Crashed = true
		next.Actors[i].Timers = nil
		next.CrashesSoFar++
		return next, true

	case Restart:
		i := state.actorIndex(action.ActorId)
		if i < 0 || !state.Actors[i].Crashed {
			return state, false
		}
		next := state.clone()
		s, effects := m.roster[action.ActorId].OnStart(action.ActorId)
		next.Actors[i].Crashed = false
		next.Actors[i].State = s
		next.Actors[i].Timers = nil
		next = m.applyEffects(next, action.ActorId, effects)
		return m.checkBoundary(next)

	case Drop:
		if action.EnvelopeIdx >= len(state.Net.Envelopes) {
			return state, false
		}
		next := state.clone()
		next.Net = next.Net.Drop(action.EnvelopeIdx)
		return next, true

	default:
		return state, false
	}
}

// Properties returns the properties declared via WithProperties.
func (m *ActorModel[S, Msg, H]) Properties() []model.Property[ActorModelState[S, Msg, H]] {
	return m.props
}

// WithinBoundary implements model.WithinBoundary. It reports true for every
// state unless WithMaxInFlight set a positive bound.
func (m *ActorModel[S, Msg, H]) WithinBoundary(state ActorModelState[S, Msg, H]) bool {
	if m.maxInFlt <= 0 {
		return true
	}
	return state.Net.Len() <= m.maxInFlt
}

func (m *ActorModel[S, Msg, H]) checkBoundary(state ActorModelState[S, Msg, H]) (ActorModelState[S, Msg, H], bool) {
	return state, m.WithinBoundary(state)
}

func (s ActorModelState[S, Msg, H]) clone() ActorModelState[S, Msg, H] {
	out := s
	out.Actors = append([]ActorState[S](nil), s.Actors...)
	return out
}

func (m *ActorModel[S, Msg, H]) applyEffects(state ActorModelState[S, Msg, H], from Id, effects []Effect[Msg]) ActorModelState[S, Msg, H] {
	i := state.actorIndex(from)
	for _, eff := range effects {
		switch e := eff.(type) {
		case Send[Msg]:
			state.Net = state.Net.Send(int(from), int(e.To), e.Msg)
			if m.recordOut != nil {
				state.Clock++
				sent := state.Net.Envelopes[len(state.Net.Envelopes)-1]
				state.History = m.recordOut(state.History, sent, state.Clock)
			}
		case SetTimer:
			if !hasTimer(state.Actors[i].Timers, e.Name) {
				state.Actors[i].Timers = insertSorted(state.Actors[i].Timers, e.Name)
			}
		case CancelTimer:
			state.Actors[i].Timers = removeTimer(state.Actors[i].Timers, e.Name)
		}
	}
	return state
}

func hasTimer(timers []string, name string) bool {
	for _, t := range timers {
		if t == name {
			return true
		}
	}
	return false
}

func removeTimer(timers []string, name string) []string {
	out := make([]string, 0, len(timers))
	for _, t := range timers {
		if t != name {
			out = append(out, t)
		}
	}
	return out
}

func insertSorted(timers []string, name string) []string {
	out := append([]string(nil), timers...)
	out = append(out, name)
	sort.Strings(out)
	return out
}
