package abdregister

import (
	"statecheck/actor"
	"statecheck/consistency"
	"statecheck/network"
)

// History is ActorModelState's opaque tester state for this example
// (spec.md section 4.7): a consistency.History of completed Read/Write
// operations, plus the bookkeeping needed to recognize when the single
// write and the single read this example's client performs actually
// complete. record_msg_in/record_msg_out only ever see one envelope at a
// time, with no view of the client's own quorum counters, so History
// tracks its own copy of the acks/best-value bookkeeping ClientState
// keeps -- the same duplication a real network-level consistency tester
// has no way around, since it observes the wire rather than the actor
// under test. Every field is exported: fingerprint.Of encodes states with
// encoding/gob, which silently drops unexported fields, and this
// bookkeeping is as much a part of a state's identity as the actor states
// it mirrors -- two states that differ only in outstanding quorum count
// must not fingerprint the same.
type History struct {
	Log consistency.History

	WriteCallAt int64
	WriteAcks   int

	ReadCallAt int64
	ReadAcks   int
	BestTs     int
	BestVal    int
}

// newHistoryHooks builds the record_msg_in/record_msg_out hooks
// (actor.MsgHook) that turn this protocol's wire traffic into a
// consistency.History against consistency.RegisterModel, so
// abdregister.NewModel's linearizability property is driven by messages
// actually delivered during the search rather than a hand-assembled
// trace, per spec.md section 4.9. quorum is the same n/2+1 majority
// NewModel computes for the protocol itself.
func newHistoryHooks(quorum int) (recordIn, recordOut actor.MsgHook[Msg, History]) {
	recordOut = func(h History, env network.Envelope[Msg], at int64) History {
		h.Log = append(consistency.History(nil), h.Log...)
		switch env.Msg.Kind {
		case msgWrite:
			if h.WriteCallAt == 0 {
				h.WriteCallAt = at
			}
		case msgReadReq:
			// The client only ever broadcasts a read request once, right
			// after its write reaches quorum, so seeing one go out marks
			// the read's invocation.
			if h.ReadCallAt == 0 {
				h.ReadCallAt = at
				h.ReadAcks = 0
				h.BestTs = -1
			}
		}
		return h
	}

	recordIn = func(h History, env network.Envelope[Msg], at int64) History {
		h.Log = append(consistency.History(nil), h.Log...)
		switch env.Msg.Kind {
		case msgAck:
			if h.WriteCallAt == 0 {
				break
			}
			h.WriteAcks++
			if h.WriteAcks >= quorum {
				h.Log = append(h.Log, consistency.Operation{
					ClientId: env.To,
					Input:    WriteInput(writeVal),
					Call:     h.WriteCallAt,
					Return:   at,
				})
				h.WriteCallAt = 0
				h.WriteAcks = 0
			}
		case msgReadResp:
			if h.ReadCallAt == 0 {
				break
			}
			h.ReadAcks++
			if env.Msg.Ts > h.BestTs {
				h.BestTs = env.Msg.Ts
				h.BestVal = env.Msg.Val
			}
			if h.ReadAcks >= quorum {
				h.Log = append(h.Log, consistency.Operation{
					ClientId: env.To,
					Input:    ReadInput(),
					Output:   h.BestVal,
					Call:     h.ReadCallAt,
					Return:   at,
				})
				h.ReadCallAt = 0
				h.ReadAcks = 0
			}
		}
		return h
	}

	return recordIn, recordOut
}
