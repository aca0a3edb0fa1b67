package abdregister

import (
	"context"
	"testing"
	"time"

	"statecheck/actor"
	"statecheck/checker"
	"statecheck/network"
)

// TestHistoryHooksRecordLinearizableWriteThenRead scripts the envelope
// traffic a 3-replica, quorum-2 run produces for one write followed by
// one read and feeds it through the record_msg_in/record_msg_out hooks
// directly, checking that the resulting consistency.History is exactly
// the one CheckHistory already knows is linearizable.
func TestHistoryHooksRecordLinearizableWriteThenRead(t *testing.T) {
	const quorum = 2
	recordIn, recordOut := newHistoryHooks(quorum)
	clientId, r0, r1 := actor.Id(3), actor.Id(0), actor.Id(1)

	var h History
	h.BestTs = -1
	var clock int64
	tick := func() int64 { clock++; return clock }

	out := func(env network.Envelope[Msg]) { h = recordOut(h, env, tick()) }
	in := func(env network.Envelope[Msg]) { h = recordIn(h, env, tick()) }

	writeMsg := Msg{Kind: msgWrite, Ts: 1, Val: writeVal}
	out(network.Envelope[Msg]{From: int(clientId), To: int(r0), Msg: writeMsg})
	out(network.Envelope[Msg]{From: int(clientId), To: int(r1), Msg: writeMsg})
	in(network.Envelope[Msg]{From: int(r0), To: int(clientId), Msg: Msg{Kind: msgAck, Ts: 1}})
	in(network.Envelope[Msg]{From: int(r1), To: int(clientId), Msg: Msg{Kind: msgAck, Ts: 1}})

	if len(h.Log) != 1 {
		t.Fatalf("expected the write to close after quorum acks, got log %+v", h.Log)
	}

	readReq := Msg{Kind: msgReadReq, Rid: 1}
	out(network.Envelope[Msg]{From: int(clientId), To: int(r0), Msg: readReq})
	out(network.Envelope[Msg]{From: int(clientId), To: int(r1), Msg: readReq})
	in(network.Envelope[Msg]{From: int(r0), To: int(clientId), Msg: Msg{Kind: msgReadResp, Rid: 1, Ts: 1, Val: writeVal}})
	in(network.Envelope[Msg]{From: int(r1), To: int(clientId), Msg: Msg{Kind: msgReadResp, Rid: 1, Ts: 1, Val: writeVal}})

	if len(h.Log) != 2 {
		t.Fatalf("expected the read to close after quorum responses, got log %+v", h.Log)
	}
	if h.Log[1].Output != writeVal {
		t.Fatalf("expected the recorded read to observe %d, got %v", writeVal, h.Log[1].Output)
	}

	result, err := CheckHistory(h.Log, time.Second)
	if err != nil {
		t.Fatalf("CheckHistory: %v", err)
	}
	if !result.Consistent {
		t.Fatalf("expected a write followed by a matching read to be linearizable")
	}
}

// TestNewModelNeverReportsLinearizabilityViolation exercises the wired
// Always property end to end: since the protocol only ever performs one
// write and one read, no reachable ActorModelState should ever produce a
// non-linearizable recorded history.
func TestNewModelNeverReportsLinearizabilityViolation(t *testing.T) {
	m := NewModel(3, network.UnorderedNonDuplicating)
	c, err := checker.New[actor.ActorModelState[Role, Msg, History], actor.Action](m,
		checker.WithWorkers(2),
		checker.WithMaxDepth(40),
		checker.WithFinishWhenResolved(),
		checker.WithTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("checker.New: %v", err)
	}

	report := c.Run(context.Background())
	if report.Err != nil {
		t.Fatalf("Run reported an error: %v", report.Err)
	}
	for _, d := range report.Discoveries {
		if d != nil && d.Name == "history-is-linearizable" {
			t.Fatalf("the majority-quorum protocol should never record a non-linearizable history")
		}
	}
}
