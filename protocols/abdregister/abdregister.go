// Package abdregister models a single-writer, N-replica atomic register
// using the majority-quorum write/read protocol from
// erthbison-GoMC's examples/onrr (a one-round variant of ABD): a writer
// broadcasts a timestamped value to every replica and waits for a
// majority of acks, and a reader broadcasts a read request and adopts the
// highest-timestamped value a majority responds with. Unlike onrr.go's
// runnable node, the actors here react only through actor.Actor's
// OnStart/OnMsg/OnTimeout so the whole protocol can be explored by
// actor.ActorModel, and consistency.go shows the same execution checked
// for real by consistency.CheckLinearizable against
// consistency.RegisterModel.
package abdregister

import (
	"fmt"
	"time"

	"statecheck/actor"
	"statecheck/consistency"
	"statecheck/model"
	"statecheck/network"
)

// consistencyCheckTimeout bounds a single linearizability check, run
// against every reached ActorModelState during exploration. This example
// records at most two operations (one write, one read), so the
// backtracking search in consistency.CheckLinearizable resolves almost
// immediately; the bound exists only to fail safe rather than to
// accommodate a genuinely large history.
const consistencyCheckTimeout = 50 * time.Millisecond

type msgKind int

const (
	msgWrite msgKind = iota
	msgAck
	msgReadReq
	msgReadResp
)

// Msg is the single wire type every actor in this model exchanges, tagged
// by Kind the same way twophase.Message tags the two-phase-commit soup,
// since network.Network[Msg] needs one concrete message type.
type Msg struct {
	Kind msgKind
	Ts   int
	Val  int
	Rid  int
}

func (m Msg) String() string {
	switch m.Kind {
	case msgWrite:
		return fmt.Sprintf("Write(ts=%d,val=%d)", m.Ts, m.Val)
	case msgAck:
		return fmt.Sprintf("Ack(ts=%d)", m.Ts)
	case msgReadReq:
		return fmt.Sprintf("ReadReq(rid=%d)", m.Rid)
	case msgReadResp:
		return fmt.Sprintf("ReadResp(rid=%d,ts=%d,val=%d)", m.Rid, m.Ts, m.Val)
	default:
		return "Msg(?)"
	}
}

// ServerState is one replica's stored value and its write timestamp,
// mirroring onrr.go's onrr.val/onrr.wts fields.
type ServerState struct {
	Ts  int
	Val int
}

type server struct{}

func (server) OnStart(actor.Id) (ServerState, []actor.Effect[Msg]) { return ServerState{}, nil }

func (server) OnMsg(id actor.Id, state ServerState, from actor.Id, msg Msg) (ServerState, []actor.Effect[Msg]) {
	switch msg.Kind {
	case msgWrite:
		if msg.Ts > state.Ts {
			state = ServerState{Ts: msg.Ts, Val: msg.Val}
		}
		return state, []actor.Effect[Msg]{actor.Send[Msg]{To: from, Msg: Msg{Kind: msgAck, Ts: msg.Ts}}}
	case msgReadReq:
		return state, []actor.Effect[Msg]{actor.Send[Msg]{To: from, Msg: Msg{Kind: msgReadResp, Rid: msg.Rid, Ts: state.Ts, Val: state.Val}}}
	default:
		return state, nil
	}
}

func (server) OnTimeout(actor.Id, ServerState, string) (ServerState, []actor.Effect[Msg]) {
	panic("server never arms a timer")
}

type clientPhase int

const (
	phaseWriting clientPhase = iota
	phaseReading
	phaseDone
)

// ClientState drives one write followed by one read against the replica
// set, tracking quorum progress without a map (Acks/ReadAcks are plain
// counters, not per-replica sets, since duplicate acks are impossible
// under an Ordered or non-duplicating network and WithLossyNetwork is not
// used in this example).
type ClientState struct {
	Phase    clientPhase
	Wts      int
	WriteVal int
	Acks     int
	Rid      int
	ReadAcks int
	BestTs   int
	BestVal  int
	ReadVal  int
}

// writeVal is the fixed value the client writes; fixed rather than
// parameterized since the property under test only cares that the
// eventual read observes exactly this value.
const writeVal = 42

type client struct {
	replicas []actor.Id
	quorum   int
}

func (c client) broadcast(msg Msg) []actor.Effect[Msg] {
	effects := make([]actor.Effect[Msg], len(c.replicas))
	for i, r := range c.replicas {
		effects[i] = actor.Send[Msg]{To: r, Msg: msg}
	}
	return effects
}

func (c client) OnStart(actor.Id) (ClientState, []actor.Effect[Msg]) {
	state := ClientState{Phase: phaseWriting, Wts: 1, WriteVal: writeVal}
	return state, c.broadcast(Msg{Kind: msgWrite, Ts: state.Wts, Val: state.WriteVal})
}

func (c client) OnMsg(id actor.Id, state ClientState, from actor.Id, msg Msg) (ClientState, []actor.Effect[Msg]) {
	switch {
	case msg.Kind == msgAck && state.Phase == phaseWriting && msg.Ts == state.Wts:
		state.Acks++
		if state.Acks >= c.quorum {
			state.Phase = phaseReading
			state.Rid++
			state.ReadAcks = 0
			state.BestTs = -1
			return state, c.broadcast(Msg{Kind: msgReadReq, Rid: state.Rid})
		}
		return state, nil

	case msg.Kind == msgReadResp && state.Phase == phaseReading && msg.Rid == state.Rid:
		state.ReadAcks++
		if msg.Ts > state.BestTs {
			state.BestTs = msg.Ts
			state.BestVal = msg.Val
		}
		if state.ReadAcks >= c.quorum {
			state.Phase = phaseDone
			state.ReadVal = state.BestVal
		}
		return state, nil

	default:
		return state, nil
	}
}

func (client) OnTimeout(actor.Id, ClientState, string) (ClientState, []actor.Effect[Msg]) {
	panic("client never arms a timer")
}

// roles is the tagged union NewModel builds its roster from: every actor
// in this example is either a server or the single client, and the
// ActorModelState's ActorState[S] slice needs one common state type S per
// roster, so both ServerState and ClientState are folded into one Role.
type Role struct {
	IsClient bool
	Server   ServerState
	Client   ClientState
}

type roleActor struct {
	client   client
	isClient map[actor.Id]bool
}

func (r roleActor) OnStart(id actor.Id) (Role, []actor.Effect[Msg]) {
	if r.isClient[id] {
		s, effects := r.client.OnStart(id)
		return Role{IsClient: true, Client: s}, effects
	}
	s, effects := server{}.OnStart(id)
	return Role{Server: s}, effects
}

func (r roleActor) OnMsg(id actor.Id, state Role, from actor.Id, msg Msg) (Role, []actor.Effect[Msg]) {
	if state.IsClient {
		s, effects := r.client.OnMsg(id, state.Client, from, msg)
		return Role{IsClient: true, Client: s}, effects
	}
	s, effects := server{}.OnMsg(id, state.Server, from, msg)
	return Role{Server: s}, effects
}

func (r roleActor) OnTimeout(id actor.Id, state Role, name string) (Role, []actor.Effect[Msg]) {
	if state.IsClient {
		s, effects := r.client.OnTimeout(id, state.Client, name)
		return Role{IsClient: true, Client: s}, effects
	}
	s, effects := server{}.OnTimeout(id, state.Server, name)
	return Role{Server: s}, effects
}

// NewServerActor returns the actor.Actor logic a replica runs, for use
// outside the checker (e.g. spawn.Runtime) where each actor id is its own
// OS process rather than a slice entry in one ActorModelState.
func NewServerActor() actor.Actor[Role, Msg] {
	return roleActor{isClient: map[actor.Id]bool{}}
}

// NewClientActor returns the actor.Actor logic the client runs against
// replicas, for use outside the checker. id must be the actor.Id this
// client will run as; it is used only to mark that id as the client role
// in the resulting roleActor's dispatch table.
func NewClientActor(id actor.Id, replicas []actor.Id) actor.Actor[Role, Msg] {
	return roleActor{
		client:   client{replicas: replicas, quorum: len(replicas)/2 + 1},
		isClient: map[actor.Id]bool{id: true},
	}
}

// NewModel builds an actor.ActorModel for n replicas plus one client
// (actor.Id n), running under discipline. n should be odd so a strict
// majority quorum is unambiguous, mirroring how onrr.go computes its
// quorum as len(nodes)/2+1.
func NewModel(n int, discipline network.Discipline) *actor.ActorModel[Role, Msg, History] {
	replicas := make([]actor.Id, n)
	roster := make(map[actor.Id]actor.Actor[Role, Msg], n+1)
	for i := 0; i < n; i++ {
		replicas[i] = actor.Id(i)
		roster[actor.Id(i)] = roleActor{isClient: map[actor.Id]bool{}}
	}
	clientId := actor.Id(n)
	isClient := map[actor.Id]bool{clientId: true}
	quorum := n/2 + 1
	c := client{replicas: replicas, quorum: quorum}
	roster[clientId] = roleActor{client: c, isClient: isClient}

	recordIn, recordOut := newHistoryHooks(quorum)

	return actor.New[Role, Msg, History](roster, discipline,
		actor.WithHistory[Role, Msg, History](History{BestTs: -1}, recordIn, recordOut),
		actor.WithProperties(
			model.EventuallyProp("client-completes-read", func(s actor.ActorModelState[Role, Msg, History]) bool {
				return clientState(s, clientId).Phase == phaseDone
			}),
			model.AlwaysProp("completed-read-observes-written-value", func(s actor.ActorModelState[Role, Msg, History]) bool {
				cs := clientState(s, clientId)
				if cs.Phase != phaseDone {
					return true
				}
				return cs.ReadVal == writeVal
			}),
			model.AlwaysProp("history-is-linearizable", func(s actor.ActorModelState[Role, Msg, History]) bool {
				result, err := consistency.CheckLinearizable(consistency.RegisterModel(0), s.History.Log, consistencyCheckTimeout)
				if err != nil || result.TimedOut {
					// Neither outcome is evidence of a violation: the
					// former means the recorded history overflowed the
					// checker's bitset, the latter that the search
					// couldn't conclude within budget.
					return true
				}
				return result.Consistent
			}),
		),
	)
}

func clientState(s actor.ActorModelState[Role, Msg, History], id actor.Id) ClientState {
	for _, as := range s.Actors {
		if as.Id == id {
			return as.State.Client
		}
	}
	return ClientState{}
}

var _ actor.Actor[Role, Msg] = roleActor{}
