package spawn

import (
	"context"
	"net"
	"testing"
	"time"

	"statecheck/actor"
)

// echoActor replies "pong" to any "ping" it receives and records what it
// last saw in its state, used to drive a real Runtime end to end over
// loopback UDP.
type echoActor struct{}

func (e echoActor) OnStart(actor.Id) (string, []actor.Effect[string]) {
	return "idle", nil
}

func (e echoActor) OnMsg(id actor.Id, state string, from actor.Id, msg string) (string, []actor.Effect[string]) {
	if msg == "ping" {
		return "ponged", []actor.Effect[string]{actor.Send[string]{To: from, Msg: "pong"}}
	}
	return "got-" + msg, nil
}

func (e echoActor) OnTimeout(actor.Id, string, string) (string, []actor.Effect[string]) { return "", nil }

func loopbackPeerTable(t *testing.T, n int) PeerTable {
	t.Helper()
	table := PeerTable{}
	for i := 0; i < n; i++ {
		table[actor.Id(i)] = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
	}
	return table
}

func TestRuntimeDeliversMessageOverUDP(t *testing.T) {
	peers := loopbackPeerTable(t, 2)

	server, err := NewRuntime[string, string](0, echoActor{}, peers, nil)
	if err != nil {
		t.Fatalf("NewRuntime(0): %v", err)
	}
	peers[0] = server.conn.LocalAddr().(*net.UDPAddr)

	client, err := NewRuntime[string, string](1, echoActor{}, peers, nil)
	if err != nil {
		t.Fatalf("NewRuntime(1): %v", err)
	}
	peers[1] = client.conn.LocalAddr().(*net.UDPAddr)
	server.peers = peers
	client.peers = peers

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)
	go client.Run(ctx)

	records := client.Subscribe()

	if err := sendEnvelope(client.conn, peers[0], WireEnvelope[string]{From: 1, To: 0, Msg: "ping"}); err != nil {
		t.Fatalf("sendEnvelope: %v", err)
	}

	select {
	case rec := <-records:
		if rec.Kind != "recv" {
			t.Fatalf("expected the client to record a recv event, got %+v", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the pong reply")
	}
}

func TestPauseQueuesMessagesUntilResume(t *testing.T) {
	peers := loopbackPeerTable(t, 1)
	rt, err := NewRuntime[string, string](0, echoActor{}, peers, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	peers[0] = rt.conn.LocalAddr().(*net.UDPAddr)
	rt.peers = peers

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	rt.Pause()
	records := rt.Subscribe()

	sender, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer sender.Close()
	if err := sendEnvelope(sender, peers[0], WireEnvelope[string]{From: 9, To: 0, Msg: "ping"}); err != nil {
		t.Fatalf("sendEnvelope: %v", err)
	}

	select {
	case <-records:
		t.Fatalf("a paused runtime should not process messages before Resume")
	case <-time.After(200 * time.Millisecond):
	}

	rt.Resume()

	select {
	case rec := <-records:
		if rec.Kind != "recv" {
			t.Fatalf("expected a recv event after Resume, got %+v", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the queued message to be replayed")
	}
}

func TestCrashSuppressesFurtherDelivery(t *testing.T) {
	peers := loopbackPeerTable(t, 1)
	rt, err := NewRuntime[string, string](0, echoActor{}, peers, nil)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	peers[0] = rt.conn.LocalAddr().(*net.UDPAddr)
	rt.peers = peers

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	rt.Crash()
	records := rt.Subscribe()

	sender, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer sender.Close()
	if err := sendEnvelope(sender, peers[0], WireEnvelope[string]{From: 9, To: 0, Msg: "ping"}); err != nil {
		t.Fatalf("sendEnvelope: %v", err)
	}

	select {
	case rec := <-records:
		t.Fatalf("a crashed runtime should silently drop messages, got %+v", rec)
	case <-time.After(200 * time.Millisecond):
	}
}
