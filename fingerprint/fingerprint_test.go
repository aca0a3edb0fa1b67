package fingerprint

import "testing"

type sample struct {
	A int
	B string
}

func TestOfIsDeterministic(t *testing.T) {
	a := sample{A: 1, B: "x"}
	b := sample{A: 1, B: "x"}

	fa, err := Of(a)
	if err != nil {
		t.Fatalf("Of(a): %v", err)
	}
	fb, err := Of(b)
	if err != nil {
		t.Fatalf("Of(b): %v", err)
	}
	if fa != fb {
		t.Fatalf("equal values should fingerprint identically, got %x and %x", fa, fb)
	}
}

func TestOfDistinguishesDifferentValues(t *testing.T) {
	fa := MustOf(sample{A: 1, B: "x"})
	fb := MustOf(sample{A: 2, B: "x"})
	if fa == fb {
		t.Fatalf("distinct values fingerprinted identically: %x", fa)
	}
}

func TestZeroIsReservedForNoParent(t *testing.T) {
	if Zero != 0 {
		t.Fatalf("Zero must be the literal zero value, got %x", Zero)
	}
}

func TestSequenceOrderSensitive(t *testing.T) {
	fps := []Fingerprint{1, 2, 3}
	reversed := []Fingerprint{3, 2, 1}
	if Sequence(fps) == Sequence(reversed) {
		t.Fatalf("Sequence should be order-sensitive")
	}
}

func TestMustOfPanicsOnUnencodableValue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected MustOf to panic on a channel, which gob cannot encode")
		}
	}()
	MustOf(make(chan int))
}
