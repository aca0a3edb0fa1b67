package visited

import (
	"testing"

	"statecheck/fingerprint"
)

func TestInsertIfAbsentFirstWriteWins(t *testing.T) {
	s := New[string](4)
	fp := fingerprint.Fingerprint(42)

	if !s.InsertIfAbsent(fp, Ancestry[string]{Action: "first"}) {
		t.Fatalf("first insert should report true")
	}
	if s.InsertIfAbsent(fp, Ancestry[string]{Action: "second"}) {
		t.Fatalf("second insert of the same fingerprint should report false")
	}

	anc, ok := s.AncestryOf(fp)
	if !ok || anc.Action != "first" {
		t.Fatalf("expected the first ancestry to win, got %+v (ok=%v)", anc, ok)
	}
}

func TestContainsReflectsInsertions(t *testing.T) {
	s := New[int](1)
	fp := fingerprint.Fingerprint(7)
	if s.Contains(fp) {
		t.Fatalf("fresh set should not contain anything")
	}
	s.InsertIfAbsent(fp, Ancestry[int]{})
	if !s.Contains(fp) {
		t.Fatalf("expected fp to be present after InsertIfAbsent")
	}
}

func TestCountersTrackGeneratedAndUnique(t *testing.T) {
	s := New[int](2)
	fps := []fingerprint.Fingerprint{1, 2, 1, 3}
	for _, fp := range fps {
		s.InsertIfAbsent(fp, Ancestry[int]{})
	}
	if s.Generated() != int64(len(fps)) {
		t.Fatalf("expected Generated=%d, got %d", len(fps), s.Generated())
	}
	if s.Len() != 3 {
		t.Fatalf("expected Len=3 unique fingerprints, got %d", s.Len())
	}
}

func TestSingleShardStillWorks(t *testing.T) {
	s := New[int](1)
	for i := 0; i < 100; i++ {
		s.InsertIfAbsent(fingerprint.Fingerprint(i), Ancestry[int]{})
	}
	if s.Len() != 100 {
		t.Fatalf("expected 100 unique fingerprints, got %d", s.Len())
	}
}
