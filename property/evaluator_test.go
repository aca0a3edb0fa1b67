package property

import (
	"fmt"
	"testing"

	"statecheck/fingerprint"
	"statecheck/model"
)

func TestDuplicatePropertyNameRejected(t *testing.T) {
	props := []model.Property[int]{
		model.AlwaysProp("dup", func(int) bool { return true }),
		model.AlwaysProp("dup", func(int) bool { return true }),
	}
	if _, err := New(props); err == nil {
		t.Fatalf("expected a duplicate property name to be rejected")
	}
}

func TestTooManyEventuallyPropertiesRejected(t *testing.T) {
	props := make([]model.Property[int], maxEventuallyProperties+1)
	for i := range props {
		props[i] = model.EventuallyProp(fmt.Sprintf("prop-%d", i), func(int) bool { return false })
	}
	if _, err := New(props); err == nil {
		t.Fatalf("expected too many Eventually properties to be rejected")
	}
}

func TestAlwaysViolationRecordsDiscovery(t *testing.T) {
	props := []model.Property[int]{
		model.AlwaysProp("nonneg", func(s int) bool { return s >= 0 }),
	}
	ev, err := New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ev.Evaluate(5, fingerprint.Fingerprint(1), 0, ev.InitialBits())
	ev.Evaluate(-1, fingerprint.Fingerprint(2), 1, ev.InitialBits())

	discoveries := ev.Discoveries()
	if discoveries[0] == nil {
		t.Fatalf("expected a discovery for the Always violation")
	}
	if discoveries[0].FP != fingerprint.Fingerprint(2) {
		t.Fatalf("expected the discovery to point at the violating state, got %+v", discoveries[0])
	}
}

func TestEventuallyClearedWhenSatisfiedAlongPath(t *testing.T) {
	props := []model.Property[int]{
		model.EventuallyProp("hits-three", func(s int) bool { return s == 3 }),
	}
	ev, err := New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bits := ev.InitialBits()
	bits = ev.Evaluate(1, fingerprint.Fingerprint(1), 0, bits)
	bits = ev.Evaluate(3, fingerprint.Fingerprint(2), 1, bits)
	if bits != 0 {
		t.Fatalf("expected the Eventually bit to clear once the predicate holds, got %b", bits)
	}
	ev.DeadEnd(fingerprint.Fingerprint(2), 1, bits)
	if ev.Discoveries()[0] != nil {
		t.Fatalf("a satisfied Eventually property should not be reported as a discovery")
	}
}

func TestEventuallyDeadEndReportsDiscovery(t *testing.T) {
	props := []model.Property[int]{
		model.EventuallyProp("never-happens", func(s int) bool { return false }),
	}
	ev, err := New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bits := ev.InitialBits()
	bits = ev.Evaluate(1, fingerprint.Fingerprint(1), 0, bits)
	ev.DeadEnd(fingerprint.Fingerprint(1), 0, bits)
	if ev.Discoveries()[0] == nil {
		t.Fatalf("expected a discovery once the path dead-ends without satisfying the property")
	}
}

func TestTieBreakPrefersSmallerDepth(t *testing.T) {
	props := []model.Property[int]{
		model.AlwaysProp("never", func(int) bool { return false }),
	}
	ev, err := New(props)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ev.Evaluate(0, fingerprint.Fingerprint(100), 5, ev.InitialBits())
	ev.Evaluate(0, fingerprint.Fingerprint(1), 2, ev.InitialBits())

	d := ev.Discoveries()[0]
	if d.Depth != 2 || d.FP != fingerprint.Fingerprint(1) {
		t.Fatalf("expected the shallower discovery to win, got %+v", d)
	}
}
