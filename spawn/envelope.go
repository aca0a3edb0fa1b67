// Package spawn runs the same Actor logic the checker explores in
// spec.md's model, for real, over a real network -- so that a design
// verified in the checker can be deployed and observed operating on
// actual UDP traffic without rewriting its reaction logic.
//
// The runtime's shape -- a per-actor goroutine driven by a command
// channel, with pause/resume/crash/restart and a Record subscription feed
// -- is grounded on the teacher's RunnerController/nodeController
// (runner_old/runnerController.go): that package drives simulated nodes
// through the same lifecycle this package drives real ones through, only
// over channels instead of a UDP socket.
package spawn

import (
	"encoding/json"
	"fmt"
	"net"

	"statecheck/actor"
)

// WireEnvelope is the JSON payload sent between spawned actors. Unlike
// the teacher's PingerListener (network/PingerListener.go), which frames
// messages within a TCP byte stream and therefore needs a length prefix,
// a WireEnvelope is sent as exactly one UDP datagram: UDP already
// preserves message boundaries, so no framing beyond JSON's own
// self-delimiting object syntax is needed.
type WireEnvelope[Msg any] struct {
	From actor.Id
	To   actor.Id
	Msg  Msg
}

// maxDatagram bounds a single UDP read, mirroring PingerListener's fixed
// buffsize; here a receive larger than the buffer is a decode error
// instead of a panic, since a spawned runtime is a long-lived process
// that must not crash on a malformed or oversized packet from the
// network.
const maxDatagram = 65507

// sendEnvelope JSON-encodes env and writes it as one UDP datagram to addr.
func sendEnvelope[Msg any](conn *net.UDPConn, addr *net.UDPAddr, env WireEnvelope[Msg]) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("spawn: encoding envelope: %w", err)
	}
	if len(b) > maxDatagram {
		return fmt.Errorf("spawn: encoded envelope (%d bytes) exceeds max datagram size", len(b))
	}
	_, err = conn.WriteToUDP(b, addr)
	return err
}

// recvEnvelope decodes one UDP datagram already read into buf[:n].
func recvEnvelope[Msg any](buf []byte) (WireEnvelope[Msg], error) {
	var env WireEnvelope[Msg]
	if err := json.Unmarshal(buf, &env); err != nil {
		return env, fmt.Errorf("spawn: decoding envelope: %w", err)
	}
	return env, nil
}
