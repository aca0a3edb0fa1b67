package consistency

// Model is a sequential specification of the system under test, grounded
// directly on porcupine.Model: Init produces a fresh starting state, and
// Step reports whether applying input to state could have produced
// output, and if so the resulting state. Step must be a pure function.
type Model struct {
	Init  func() any
	Step  func(state any, input, output any) (bool, any)
	Equal func(a, b any) bool
}

func (m Model) equal(a, b any) bool {
	if m.Equal != nil {
		return m.Equal(a, b)
	}
	return a == b
}

// Result is the outcome of a consistency check.
type Result struct {
	Consistent bool
	// TimedOut is set when the search was abandoned before exhausting the
	// search space; Consistent is meaningless in that case (neither a
	// witness nor a proof of inconsistency was found).
	TimedOut bool
}

const maxOperations = 64

// orderConstraint reports whether ops[i] is eligible to be linearized
// next, given which operations (by bit position) have already been
// linearized. CheckLinearizable and CheckSequential supply different
// constraints; the backtracking search itself (search, in
// linearizability.go) is shared between them.
type orderConstraint func(ops []Operation, linearized uint64, i int) bool
