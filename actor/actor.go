// Package actor specializes the checker's generic Model contract to
// message-passing actor systems (spec.md section 5): a fixed set of
// actors exchanging messages over a network.Network, each reacting to
// message delivery, timer expiry, and crash/restart with a state
// transition plus a batch of side effects (send, arm timer, cancel
// timer).
//
// The Actor contract -- three narrow handler methods rather than one
// event loop -- is grounded on the teacher's event package, which splits
// "what happens on message arrival" (event.MessageEvent), "what happens
// on timeout" (event.SleepEvent) and "what happens on crash"
// (event.CrashEvent) into distinct types dispatched by id, generalized
// here from reflection-based method dispatch (event.MessageEvent.Execute
// uses reflect.ValueOf(node).MethodByName) into a plain generic interface,
// since the checker always knows the concrete Msg/S types at compile time
// and has no need for reflection.
package actor

// Id identifies one actor in an ActorModel.
type Id int

// Actor is the user-supplied reaction logic for one actor role. S is the
// actor's own local state; Msg is the message type exchanged over the
// network.
type Actor[S any, Msg any] interface {
	// OnStart returns the actor's initial local state and any effects to
	// perform immediately (e.g. arming a startup timer or sending a first
	// message), executed once when the ActorModel's initial state is
	// built.
	OnStart(id Id) (S, []Effect[Msg])

	// OnMsg reacts to msg arriving from from while id is in state.
	OnMsg(id Id, state S, from Id, msg Msg) (S, []Effect[Msg])

	// OnTimeout reacts to the timer named name firing while id is in
	// state. Only timers previously armed with SetTimer and not since
	// canceled or already fired can be delivered.
	OnTimeout(id Id, state S, name string) (S, []Effect[Msg])
}
