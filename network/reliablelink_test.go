package network

import "testing"

func TestReliableLinkAllowsRedelivery(t *testing.T) {
	l := NewReliableLink[string]()
	l = l.Send(1, 2, "hello")

	l, env := l.Deliver(0)
	if env.Msg != "hello" {
		t.Fatalf("expected \"hello\", got %v", env.Msg)
	}
	if l.Len() != 1 {
		t.Fatalf("ReliableLink must never lose a message on delivery, Len()=%d", l.Len())
	}
}
