package consistency

import "encoding/gob"

// RegisterOp tags a RegisterInput as a read or a write.
type RegisterOp int

const (
	Read RegisterOp = iota
	Write
)

// RegisterInput is the Operation.Input shape RegisterModel and
// WriteOnceRegisterModel expect: a read carries no payload, a write
// carries the value being written. Operation.Output for a read is the
// plain int value observed.
type RegisterInput struct {
	Op  RegisterOp
	Val int
}

// Operation.Input is typed any, so gob needs RegisterInput registered to
// fingerprint a model state that holds a History of register operations.
func init() { gob.Register(RegisterInput{}) }

// RegisterModel is the sequential specification of an atomic
// read/write register, the consistency-checking counterpart of the
// ABD-style register the actor examples implement (grounded on
// examples/onrr's Value{Ts, Val} register, generalized here to the
// operation/spec level: this model only cares about what a Read may
// legally return given the Writes linearized before it, not how the
// register achieves that under the hood).
func RegisterModel(initial int) Model {
	return Model{
		Init: func() any { return initial },
		Step: func(state, input, output any) (bool, any) {
			in := input.(RegisterInput)
			switch in.Op {
			case Write:
				return true, in.Val
			case Read:
				return state.(int) == output.(int), state
			default:
				return false, state
			}
		},
	}
}

type writeOnceState struct {
	Written bool
	Val     int
}

// WriteOnceRegisterModel is the sequential specification of a register
// that accepts at most one Write; every Write after the first is
// illegal from any linearization, and every Read before the first Write
// is illegal (there is nothing to observe yet).
func WriteOnceRegisterModel() Model {
	return Model{
		Init: func() any { return writeOnceState{} },
		Step: func(state, input, output any) (bool, any) {
			st := state.(writeOnceState)
			in := input.(RegisterInput)
			switch in.Op {
			case Write:
				if st.Written {
					return false, st
				}
				return true, writeOnceState{Written: true, Val: in.Val}
			case Read:
				if !st.Written {
					return false, st
				}
				return st.Val == output.(int), st
			default:
				return false, st
			}
		},
		Equal: func(a, b any) bool { return a.(writeOnceState) == b.(writeOnceState) },
	}
}
