// Package network models message transit for the actor package: which
// envelopes are in flight, and which ordering/duplication guarantees
// govern how they may be delivered.
//
// Network is a plain value type (a slice of Envelope structs plus two
// ints), deliberately avoiding a map: encoding/gob preserves slice order
// exactly as stored, but Go's own map iteration order is randomized, so a
// map-shaped network would make fingerprint.Of nondeterministic across
// calls on the same logical content. Every mutating method returns a new
// Network rather than mutating the receiver, since the same parent state
// is fanned out into many sibling branches during exploration and none
// may observe another's in-flight mutation -- the same copy-on-write
// discipline the teacher's event package achieves structurally by never
// mutating shared state after an event executes.
package network

import "sort"

// Discipline selects the ordering/duplication guarantee a Network
// enforces, per spec.md's three network disciplines.
type Discipline int

const (
	// Ordered delivers messages sent on the same (From, To) link in the
	// order they were sent; delivery consumes the message.
	Ordered Discipline = iota
	// UnorderedNonDuplicating allows any in-flight message to be
	// delivered next regardless of send order; delivery consumes it.
	UnorderedNonDuplicating
	// UnorderedDuplicating behaves like UnorderedNonDuplicating but
	// delivery does not consume the message: it may be delivered again
	// later, modeling an unreliable link that retransmits.
	UnorderedDuplicating
)

func (d Discipline) String() string {
	switch d {
	case Ordered:
		return "Ordered"
	case UnorderedNonDuplicating:
		return "UnorderedNonDuplicating"
	case UnorderedDuplicating:
		return "UnorderedDuplicating"
	default:
		return "Discipline(?)"
	}
}

// Envelope is one message in flight between two actors. Seq is the order
// it was sent in, used both to enforce Ordered delivery and to keep two
// otherwise-identical messages sent at different times distinguishable in
// the fingerprint.
type Envelope[Msg any] struct {
	From, To int
	Msg      Msg
	Seq      int
}

// Network is the state of all messages currently in flight under one
// Discipline.
type Network[Msg any] struct {
	Discipline Discipline
	Envelopes  []Envelope[Msg]
	NextSeq    int
}

// New creates an empty Network under discipline d.
func New[Msg any](d Discipline) Network[Msg] { return Network[Msg]{Discipline: d} }

func (n Network[Msg]) clone() Network[Msg] {
	out := n
	out.Envelopes = append([]Envelope[Msg](nil), n.Envelopes...)
	return out
}

// Send returns a new Network with msg appended as in flight from from to
// to. Under Ordered, envelopes are kept sorted by Seq so Deliverable can
// cheaply find each link's head.
func (n Network[Msg]) Send(from, to int, msg Msg) Network[Msg] {
	out := n.clone()
	out.Envelopes = append(out.Envelopes, Envelope[Msg]{From: from, To: to, Msg: msg, Seq: out.NextSeq})
	out.NextSeq++
	if out.Discipline == Ordered {
		sort.SliceStable(out.Envelopes, func(i, j int) bool { return out.Envelopes[i].Seq < out.Envelopes[j].Seq })
	}
	return out
}

// Deliverable returns the indices into Envelopes that are eligible for
// delivery right now: every in-flight envelope under an Unordered
// discipline, or only each link's oldest envelope under Ordered.
func (n Network[Msg]) Deliverable() []int {
	if n.Discipline != Ordered {
		idx := make([]int, len(n.Envelopes))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	type link struct{ from, to int }
	heads := make(map[link]int)
	for i, e := range n.Envelopes {
		l := link{e.From, e.To}
		if cur, ok := heads[l]; !ok || e.Seq < n.Envelopes[cur].Seq {
			heads[l] = i
		}
	}
	idx := make([]int, 0, len(heads))
	for _, i := range heads {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Deliver returns the Network resulting from delivering the envelope at
// idx, and that envelope. Ordered and UnorderedNonDuplicating remove it;
// UnorderedDuplicating leaves it in flight for possible re-delivery.
func (n Network[Msg]) Deliver(idx int) (Network[Msg], Envelope[Msg]) {
	env := n.Envelopes[idx]
	if n.Discipline == UnorderedDuplicating {
		return n.clone(), env
	}
	out := n.clone()
	out.Envelopes = append(out.Envelopes[:idx:idx], out.Envelopes[idx+1:]...)
	return out, env
}

// Drop returns the Network resulting from discarding the envelope at idx
// without delivering it, modeling message loss. Loss is orthogonal to
// Discipline and is offered by ActorModel as a separate action so that a
// model can choose to explore lossy links regardless of ordering.
func (n Network[Msg]) Drop(idx int) Network[Msg] {
	out := n.clone()
	out.Envelopes = append(out.Envelopes[:idx:idx], out.Envelopes[idx+1:]...)
	return out
}

// Len reports the number of envelopes currently in flight.
func (n Network[Msg]) Len() int { return len(n.Envelopes) }
