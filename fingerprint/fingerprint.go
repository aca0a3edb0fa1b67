// Package fingerprint computes stable, collision-resistant 64-bit digests of
// arbitrary serializable state.
//
// A state's fingerprint is derived from a canonical gob encoding fed into a
// non-cryptographic hash (hash/maphash) seeded once per process, the same
// technique event.SleepEvent in the teacher repository uses to derive an
// event id from a caller/target pair. Two value-equal states always produce
// the same fingerprint within one process; the seed is random, so the same
// state gets a different fingerprint in another run. Two different states produce different fingerprints with
// negligible collision probability, which the caller must accept as a
// documented risk rather than a checked property.
package fingerprint

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/maphash"
	"sync"
)

// Fingerprint is a 64-bit state identifier.
type Fingerprint uint64

// Zero is the reserved fingerprint used to mark "no parent", i.e. an
// initial state's ancestry.
const Zero Fingerprint = 0

// seed is chosen at random once per process and fixed for its lifetime, so
// two fingerprint computations of the same value in one process always
// agree. Fingerprints are not stable across separate runs of the binary.
var seed = maphash.MakeSeed()

// encBufPool amortizes the []byte scratch buffer gob encoding needs; the
// state space exploration computes millions of fingerprints so avoiding an
// allocation per call matters.
var encBufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// SerializationError is returned when a state cannot be serialized into a
// canonical byte form for hashing. It is fatal to the check that produced
// it: the engine cannot deduplicate a state it cannot hash.
type SerializationError struct {
	Value any
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("fingerprint: could not serialize %T for hashing: %v", e.Value, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Of computes the fingerprint of an arbitrary value.
//
// The value is encoded with encoding/gob, the same package the teacher's
// onrr example uses to serialize register values, and hashed with a
// maphash using the per-process seed. Register a value's concrete type with gob.Register
// beforehand if it is stored behind an interface (e.g. an Action or Msg
// field typed as `any`); this mirrors gob's own requirement and is not a
// checker-specific rule.
func Of(state any) (Fingerprint, error) {
	buf, _ := encBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer encBufPool.Put(buf)

	if err := gob.NewEncoder(buf).Encode(state); err != nil {
		return 0, &SerializationError{Value: state, Err: err}
	}

	var h maphash.Hash
	h.SetSeed(seed)
	_, _ = h.Write(buf.Bytes())
	return Fingerprint(h.Sum64()), nil
}

// MustOf is a convenience wrapper for callers (tests, examples) that treat
// serialization failure as a programmer error.
func MustOf(state any) Fingerprint {
	fp, err := Of(state)
	if err != nil {
		panic(err)
	}
	return fp
}

// Sequence joins an ordered sequence of fingerprints into one string, each
// in lowercase hex and separated by '/', used to derive a PathName the way checker.Path.Name() does in the
// original stateright implementation.
func Sequence(fps []Fingerprint) string {
	var out []byte
	for i, fp := range fps {
		if i > 0 {
			out = append(out, '/')
		}
		out = append(out, []byte(fmt.Sprintf("%x", uint64(fp)))...)
	}
	return string(out)
}
