package network

// ReliableLink adapts a Network into the Perfect Link abstraction from
// distributed algorithms textbooks: every message sent is eventually
// delivered at least once, possibly more than once, but never silently
// dropped. It is grounded on the original stateright implementation's
// ordered_reliable_link.rs, which layers exactly this guarantee (at least
// once, no loss) over an unreliable underlying network by retransmitting
// until acknowledged; here the same guarantee is obtained more directly
// by forbidding Drop and requiring UnorderedDuplicating, since the
// checker explores every possible delivery interleaving anyway and does
// not need real retransmission timers to guarantee eventual delivery.
type ReliableLink[Msg any] struct {
	net Network[Msg]
}

// NewReliableLink wraps a fresh UnorderedDuplicating Network. Ordered
// delivery can still be modeled on top: a model using ReliableLink that
// wants FIFO per link should tag messages with a sequence number in Msg
// itself and enforce ordering in its own NextState, since ReliableLink's
// contract is delivery guarantee, not ordering.
func NewReliableLink[Msg any]() ReliableLink[Msg] {
	return ReliableLink[Msg]{net: New[Msg](UnorderedDuplicating)}
}

func (r ReliableLink[Msg]) Send(from, to int, msg Msg) ReliableLink[Msg] {
	return ReliableLink[Msg]{net: r.net.Send(from, to, msg)}
}

func (r ReliableLink[Msg]) Deliverable() []int { return r.net.Deliverable() }

func (r ReliableLink[Msg]) Deliver(idx int) (ReliableLink[Msg], Envelope[Msg]) {
	next, env := r.net.Deliver(idx)
	return ReliableLink[Msg]{net: next}, env
}

func (r ReliableLink[Msg]) Len() int { return r.net.Len() }
