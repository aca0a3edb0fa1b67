package spawn

import (
	"context"
	"fmt"
	"net"
	"time"

	"statecheck/actor"
)

// Record is one observable lifecycle event a Runtime emits to its
// subscribers: message receipt, message send, timer fire, crash, or
// restart. Subscription works exactly like RunnerController.Subscribe
// (runner_old/runnerController.go): a caller registers a channel and
// receives a copy of every record from then on.
type Record struct {
	ActorId actor.Id
	Kind    string
	Detail  string
	At      time.Time
}

type inbound[Msg any] struct {
	from actor.Id
	msg  Msg
}

// Runtime drives one actor.Actor's reaction logic against a real UDP
// socket and real timers. All mutable state is confined to the single
// goroutine running Run's command loop; every other method only ever
// enqueues a closure onto that loop rather than touching state directly,
// the same single-writer discipline nodeController.Main achieves in the
// teacher by processing one event at a time from a channel.
type Runtime[S any, Msg any] struct {
	id    actor.Id
	logic actor.Actor[S, Msg]
	peers PeerTable
	conn  *net.UDPConn
	store Store

	state   S
	crashed bool
	paused  bool
	pending []inbound[Msg]
	timers  map[string]*time.Timer

	commands chan func()
	timeout  chan string

	subs []chan Record
}

// NewRuntime binds a UDP socket on the address peers[id] and returns a
// Runtime ready to be started with Run. store may be nil to disable
// persistence.
func NewRuntime[S any, Msg any](id actor.Id, logic actor.Actor[S, Msg], peers PeerTable, store Store) (*Runtime[S, Msg], error) {
	addr, ok := peers[id]
	if !ok {
		return nil, fmt.Errorf("spawn: no listen address configured for actor %d", id)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("spawn: listening on %v: %w", addr, err)
	}
	return &Runtime[S, Msg]{
		id:       id,
		logic:    logic,
		peers:    peers,
		conn:     conn,
		store:    store,
		timers:   map[string]*time.Timer{},
		commands: make(chan func(), 64),
		timeout:  make(chan string, 16),
	}, nil
}

// Run starts the actor. It restores persisted state via Store if one was
// supplied and it holds a prior state for this actor, otherwise it calls
// OnStart. Run blocks until ctx is canceled.
func (r *Runtime[S, Msg]) Run(ctx context.Context) error {
	if r.store != nil {
		if raw, ok, err := r.store.Load(r.id); err != nil {
			return fmt.Errorf("spawn: loading persisted state for actor %d: %w", r.id, err)
		} else if ok {
			if err := decodeState(raw, &r.state); err != nil {
				return fmt.Errorf("spawn: decoding persisted state for actor %d: %w", r.id, err)
			}
		} else {
			r.start()
		}
	} else {
		r.start()
	}

	go r.listen(ctx)

	for {
		select {
		case <-ctx.Done():
			r.conn.Close()
			r.stopAllTimers()
			return ctx.Err()
		case name := <-r.timeout:
			r.deliverTimeout(name)
		case cmd := <-r.commands:
			cmd()
		}
	}
}

func (r *Runtime[S, Msg]) start() {
	state, effects := r.logic.OnStart(r.id)
	r.state = state
	r.applyEffects(effects)
}

func (r *Runtime[S, Msg]) listen(ctx context.Context) {
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				r.emit(Record{ActorId: r.id, Kind: "error", Detail: err.Error(), At: time.Now()})
				return
			}
		}
		env, err := recvEnvelope[Msg](buf[:n])
		if err != nil {
			r.emit(Record{ActorId: r.id, Kind: "error", Detail: err.Error(), At: time.Now()})
			continue
		}
		r.commands <- func() { r.deliver(env.From, env.Msg) }
	}
}

func (r *Runtime[S, Msg]) deliver(from actor.Id, msg Msg) {
	if r.crashed {
		return
	}
	if r.paused {
		r.pending = append(r.pending, inbound[Msg]{from: from, msg: msg})
		return
	}
	r.handle(from, msg)
}

func (r *Runtime[S, Msg]) handle(from actor.Id, msg Msg) {
	newState, effects := r.logic.OnMsg(r.id, r.state, from, msg)
	r.state = newState
	r.emit(Record{ActorId: r.id, Kind: "recv", Detail: fmt.Sprintf("from %d: %v", from, msg), At: time.Now()})
	r.applyEffects(effects)
	r.persist()
}

func (r *Runtime[S, Msg]) deliverTimeout(name string) {
	if r.crashed || r.paused {
		return
	}
	delete(r.timers, name)
	newState, effects := r.logic.OnTimeout(r.id, r.state, name)
	r.state = newState
	r.emit(Record{ActorId: r.id, Kind: "timeout", Detail: name, At: time.Now()})
	r.applyEffects(effects)
	r.persist()
}

func (r *Runtime[S, Msg]) applyEffects(effects []actor.Effect[Msg]) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case actor.Send[Msg]:
			addr, ok := r.peers[e.To]
			if !ok {
				r.emit(Record{ActorId: r.id, Kind: "error", Detail: fmt.Sprintf("no peer address for actor %d", e.To), At: time.Now()})
				continue
			}
			env := WireEnvelope[Msg]{From: r.id, To: e.To, Msg: e.Msg}
			if err := sendEnvelope(r.conn, addr, env); err != nil {
				r.emit(Record{ActorId: r.id, Kind: "error", Detail: err.Error(), At: time.Now()})
				continue
			}
			r.emit(Record{ActorId: r.id, Kind: "send", Detail: fmt.Sprintf("to %d: %v", e.To, e.Msg), At: time.Now()})
		case actor.SetTimer:
			r.setTimer(e.Name)
		case actor.CancelTimer:
			r.cancelTimer(e.Name)
		}
	}
}

// timerDelay is the wall-clock delay a real Runtime waits before firing a
// logical timer. The checker treats timers as instantaneous, order-only
// events; a real deployment needs an actual delay, and a fixed default
// keeps the runtime's behavior predictable without exposing a
// per-message-type scheduling policy the Actor contract doesn't have.
const timerDelay = 500 * time.Millisecond

func (r *Runtime[S, Msg]) setTimer(name string) {
	r.cancelTimer(name)
	r.timers[name] = time.AfterFunc(timerDelay, func() { r.timeout <- name })
}

func (r *Runtime[S, Msg]) cancelTimer(name string) {
	if t, ok := r.timers[name]; ok {
		t.Stop()
		delete(r.timers, name)
	}
}

func (r *Runtime[S, Msg]) stopAllTimers() {
	for name := range r.timers {
		r.cancelTimer(name)
	}
}

func (r *Runtime[S, Msg]) persist() {
	if r.store == nil {
		return
	}
	raw, err := encodeState(r.state)
	if err != nil {
		r.emit(Record{ActorId: r.id, Kind: "error", Detail: err.Error(), At: time.Now()})
		return
	}
	if err := r.store.Store(r.id, raw); err != nil {
		r.emit(Record{ActorId: r.id, Kind: "error", Detail: err.Error(), At: time.Now()})
	}
}

// Pause stops the runtime from processing newly arrived messages and
// timeouts. Messages queue and are replayed in order on Resume; a timer
// that fires while paused is discarded and does not fire again. Already
// in-flight sends are unaffected.
func (r *Runtime[S, Msg]) Pause() { r.commands <- func() { r.paused = true } }

// Resume undoes Pause and replays the messages that arrived while paused.
func (r *Runtime[S, Msg]) Resume() {
	r.commands <- func() {
		r.paused = false
		pending := r.pending
		r.pending = nil
		for _, in := range pending {
			r.handle(in.from, in.msg)
		}
	}
}

// Crash marks the runtime fail-stopped: it stops all timers and silently
// drops every message and timeout from then on, mirroring
// runPerfectFailureManager.nodeCrash's fail-stop semantics
// (failureManager_old/perfectFailureManager.go).
func (r *Runtime[S, Msg]) Crash() {
	r.commands <- func() {
		r.crashed = true
		r.stopAllTimers()
		r.emit(Record{ActorId: r.id, Kind: "crash", At: time.Now()})
	}
}

// Restart undoes Crash by re-running OnStart, discarding whatever local
// state the actor had before crashing.
func (r *Runtime[S, Msg]) Restart() {
	r.commands <- func() {
		r.crashed = false
		r.start()
		r.emit(Record{ActorId: r.id, Kind: "restart", At: time.Now()})
	}
}

// Subscribe returns a channel of every Record this Runtime emits from
// now on.
func (r *Runtime[S, Msg]) Subscribe() <-chan Record {
	ch := make(chan Record, 16)
	r.commands <- func() { r.subs = append(r.subs, ch) }
	return ch
}

func (r *Runtime[S, Msg]) emit(rec Record) {
	for _, ch := range r.subs {
		select {
		case ch <- rec:
		default:
		}
	}
}
