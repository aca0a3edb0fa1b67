package actor

import (
	"testing"

	"statecheck/network"
)

// pingPong is a two-actor system where actor 0 sends "ping" on start and
// actor 1 replies "pong", used to exercise ActorModel's Deliver/Timeout/
// Crash/Restart actions without depending on the protocols package.
type pingActor struct {
	other   Id
	starter bool
}

func (p pingActor) OnStart(Id) (string, []Effect[string]) {
	if !p.starter {
		return "started", nil
	}
	return "started", []Effect[string]{Send[string]{To: p.other, Msg: "ping"}}
}

func (p pingActor) OnMsg(id Id, state string, from Id, msg string) (string, []Effect[string]) {
	if msg == "ping" {
		return "ponged", []Effect[string]{Send[string]{To: from, Msg: "pong"}}
	}
	return "got-" + msg, nil
}

func (p pingActor) OnTimeout(Id, string, string) (string, []Effect[string]) { return "", nil }

func newPingPong() *ActorModel[string, string, struct{}] {
	roster := map[Id]Actor[string, string]{
		0: pingActor{other: 1, starter: true},
		1: pingActor{other: 0},
	}
	return New[string, string, struct{}](roster, network.UnorderedNonDuplicating)
}

func TestInitialStateRunsOnStartForEveryActor(t *testing.T) {
	m := newPingPong()
	states := m.InitialStates()
	if len(states) != 1 {
		t.Fatalf("expected exactly one initial state, got %d", len(states))
	}
	s := states[0]
	if len(s.Actors) != 2 {
		t.Fatalf("expected two actors, got %d", len(s.Actors))
	}
	if s.Net.Len() != 1 {
		t.Fatalf("expected one in-flight ping message, got %d", s.Net.Len())
	}
}

func TestDeliverAppliesOnMsgAndEffects(t *testing.T) {
	m := newPingPong()
	state := m.InitialStates()[0]

	actions := m.Actions(state)
	if len(actions) != 1 || actions[0].Kind != Deliver {
		t.Fatalf("expected exactly one Deliver action available, got %+v", actions)
	}

	next, ok := m.NextState(state, actions[0])
	if !ok {
		t.Fatalf("expected Deliver to succeed")
	}
	if next.Net.Len() != 1 {
		t.Fatalf("expected the pong reply to now be in flight, got %d", next.Net.Len())
	}
	found := false
	for _, as := range next.Actors {
		if as.Id == 1 && as.State == "ponged" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected actor 1's state to become \"ponged\", got %+v", next.Actors)
	}
}

func TestCrashPreventsDeliveryUntilRestart(t *testing.T) {
	roster := map[Id]Actor[string, string]{
		0: pingActor{other: 1, starter: true},
		1: pingActor{other: 0},
	}
	m := New[string, string, struct{}](roster, network.UnorderedNonDuplicating, WithCrashable[string, string, struct{}](1))
	state := m.InitialStates()[0]

	crashed, ok := m.NextState(state, Action{Kind: Crash, ActorId: 1})
	if !ok {
		t.Fatalf("expected Crash to succeed")
	}

	for _, a := range m.Actions(crashed) {
		if a.Kind == Deliver && a.ActorId == 1 {
			t.Fatalf("a crashed actor should not offer a Deliver action")
		}
	}

	restarted, ok := m.NextState(crashed, Action{Kind: Restart, ActorId: 1})
	if !ok {
		t.Fatalf("expected Restart to succeed")
	}
	for _, as := range restarted.Actors {
		if as.Id == 1 && as.Crashed {
			t.Fatalf("actor 1 should no longer be marked crashed after Restart")
		}
	}
}

func TestWithMaxInFlightBoundsBoundary(t *testing.T) {
	roster := map[Id]Actor[string, string]{
		0: pingActor{other: 1, starter: true},
		1: pingActor{other: 0},
	}
	m := New[string, string, struct{}](roster, network.UnorderedDuplicating, WithMaxInFlight[string, string, struct{}](1))
	state := m.InitialStates()[0]
	if !m.WithinBoundary(state) {
		t.Fatalf("expected a single in-flight message to be within a max of 1")
	}
	// Under UnorderedDuplicating the delivered ping stays in flight and the
	// pong reply joins it, so the successor holds 2 envelopes.
	next, ok := m.NextState(state, Action{Kind: Deliver, ActorId: 1, EnvelopeIdx: 0})
	if ok || m.WithinBoundary(next) {
		t.Fatalf("expected %d in-flight messages to violate a max of 1", next.Net.Len())
	}
}
