package model

// Expectation is the kind of a Property, following the three literal
// strings the Explorer/Report API is required to emit verbatim (spec.md
// section 6: "Always", "Sometimes", "Eventually").
type Expectation string

const (
	Always     Expectation = "Always"
	Sometimes  Expectation = "Sometimes"
	Eventually Expectation = "Eventually"
)

// Property is a named predicate with an expectation, grounded on the
// teacher's checking.Predicate[S] (property_old/checking/predicateChecker.go)
// generalized from a post-hoc whole-tree predicate check into a predicate
// evaluated incrementally as the checker discovers each state, per the
// PropertyEvaluator component in spec.md section 4.6.
type Property[S State] struct {
	Kind      Expectation
	Name      string
	Predicate func(state S) bool
}

// AlwaysProp constructs an Always property: pred must hold in every
// reached state. The teacher's checking.Predicate style took an
// additional `terminal bool` and `sequence []State` parameter for the
// Eventually-only special case; here that concern moves into the
// property package's own Eventually helper instead of leaking into every
// predicate's signature.
func AlwaysProp[S State](name string, pred func(S) bool) Property[S] {
	return Property[S]{Kind: Always, Name: name, Predicate: pred}
}

// SometimesProp constructs a Sometimes property: pred must hold in at
// least one reached state.
func SometimesProp[S State](name string, pred func(S) bool) Property[S] {
	return Property[S]{Kind: Sometimes, Name: name, Predicate: pred}
}

// EventuallyProp constructs an Eventually property: a discovery is
// reported when a search path reaches a state with no successor and pred
// held in no state along that path. Cycles are not detected: a path that
// loops back to an already-visited state without ever satisfying pred is
// not reported.
func EventuallyProp[S State](name string, pred func(S) bool) Property[S] {
	return Property[S]{Kind: Eventually, Name: name, Predicate: pred}
}
