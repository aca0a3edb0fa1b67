package checker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"statecheck/model"
	"statecheck/property"
)

// counterModel is a tiny bounded counter: from 0 it can Inc up to max,
// used as a minimal model.Model[int, incAction] for exercising the
// checker's exploration, dedup, and property discovery end to end.
type counterModel struct{ max int }

type incAction struct{}

func (incAction) String() string { return "inc" }

func (m counterModel) InitialStates() []int { return []int{0} }

func (m counterModel) Actions(s int) []incAction {
	if s >= m.max {
		return nil
	}
	return []incAction{{}}
}

func (m counterModel) NextState(s int, _ incAction) (int, bool) { return s + 1, true }

func (m counterModel) Properties() []model.Property[int] {
	return []model.Property[int]{
		model.AlwaysProp("below-bound-plus-one", func(s int) bool { return s <= m.max }),
		model.EventuallyProp("reaches-max", func(s int) bool { return s == m.max }),
	}
}

func TestCheckerExploresLinearChainAndResolvesEventually(t *testing.T) {
	c, err := New[int, incAction](counterModel{max: 5}, WithWorkers(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := c.Run(context.Background())
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	if report.Unique != 6 {
		t.Fatalf("expected 6 unique states (0..5), got %d", report.Unique)
	}
	// reaches-max holds at state 5, the chain's only dead end, so no
	// Eventually counterexample is recorded for it.
	if len(report.Discoveries) != 2 {
		t.Fatalf("expected one discovery slot per property, got %d", len(report.Discoveries))
	}
	if d := report.Discoveries[1]; d != nil {
		t.Fatalf("expected reaches-max to hold with no discovery, got %+v", d)
	}
	if report.Discoveries[0] != nil {
		t.Fatalf("below-bound-plus-one should never be violated by this model")
	}
}

// violatingModel violates its own Always property once it reaches 3.
type violatingModel struct{}

func (violatingModel) InitialStates() []int { return []int{0} }
func (violatingModel) Actions(s int) []incAction {
	if s >= 5 {
		return nil
	}
	return []incAction{{}}
}
func (violatingModel) NextState(s int, _ incAction) (int, bool) { return s + 1, true }
func (violatingModel) Properties() []model.Property[int] {
	return []model.Property[int]{
		model.AlwaysProp("stays-below-three", func(s int) bool { return s < 3 }),
	}
}

func TestCheckerReportsCounterexamplePath(t *testing.T) {
	c, err := New[int, incAction](violatingModel{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := c.Run(context.Background())
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	d := report.Discoveries[0]
	if d == nil {
		t.Fatalf("expected a counterexample for stays-below-three")
	}
	path, ok := report.Paths[d.Name]
	if !ok {
		t.Fatalf("expected a recovered path for discovery %q", d.Name)
	}
	if len(path.States) == 0 || path.States[len(path.States)-1] != 3 {
		t.Fatalf("expected the recovered path to end at the violating state 3, got %v", path.States)
	}
	if path.States[0] != 0 {
		t.Fatalf("expected the recovered path to start at the initial state, got %v", path.States)
	}
}

// TestKeepPathsFalseStillRecordsDiscoveryWithoutPath exercises the
// no-ancestry memory mode from spec.md section 5: the property is still
// caught and reported, but with no ancestry recorded there is nothing
// for pathTo to walk, so buildReport must skip the Paths entry rather
// than fail the run.
func TestKeepPathsFalseStillRecordsDiscoveryWithoutPath(t *testing.T) {
	c, err := New[int, incAction](violatingModel{}, WithKeepPaths(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := c.Run(context.Background())
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	d := report.Discoveries[0]
	if d == nil {
		t.Fatalf("expected a counterexample for stays-below-three")
	}
	if _, ok := report.Paths[d.Name]; ok {
		t.Fatalf("expected no recovered path with WithKeepPaths(false), got one")
	}
}

func TestDuplicatePropertyNamesRejectedAtConstruction(t *testing.T) {
	_, err := New[int, incAction](dupNameModel{})
	if !errors.Is(err, property.ErrDuplicateProperty) {
		t.Fatalf("expected property.ErrDuplicateProperty, got %v", err)
	}
}

type dupNameModel struct{}

func (dupNameModel) InitialStates() []int                     { return []int{0} }
func (dupNameModel) Actions(int) []incAction                  { return nil }
func (dupNameModel) NextState(s int, _ incAction) (int, bool) { return s, true }
func (dupNameModel) Properties() []model.Property[int] {
	return []model.Property[int]{
		model.AlwaysProp("same", func(int) bool { return true }),
		model.AlwaysProp("same", func(int) bool { return true }),
	}
}

func TestNoInitialStatesRejectedAtConstruction(t *testing.T) {
	_, err := New[int, incAction](emptyModel{})
	if !errors.Is(err, ErrNoInitialStates) {
		t.Fatalf("expected ErrNoInitialStates, got %v", err)
	}
}

type emptyModel struct{}

func (emptyModel) InitialStates() []int                     { return nil }
func (emptyModel) Actions(int) []incAction                  { return nil }
func (emptyModel) NextState(s int, _ incAction) (int, bool) { return s, true }
func (emptyModel) Properties() []model.Property[int]        { return nil }

func TestTimeoutStopsExplorationAndReportsError(t *testing.T) {
	m := unboundedModel{}
	c, err := New[int, incAction](m, WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := c.Run(context.Background())
	if report.Err == nil {
		t.Fatalf("expected a TimeoutError")
	}
	if !errors.Is(report.Err, ErrTimeout) {
		t.Fatalf("expected an error wrapping ErrTimeout, got %T: %v", report.Err, report.Err)
	}
	var timeoutErr *TimeoutError
	if !errors.As(report.Err, &timeoutErr) {
		t.Fatalf("expected a *TimeoutError, got %T: %v", report.Err, report.Err)
	}
}

// unboundedModel never terminates, forcing WithTimeout to fire.
type unboundedModel struct{}

func (unboundedModel) InitialStates() []int                     { return []int{0} }
func (unboundedModel) Actions(int) []incAction                  { return []incAction{{}} }
func (unboundedModel) NextState(s int, _ incAction) (int, bool) { return s + 1, true }
func (unboundedModel) Properties() []model.Property[int]        { return nil }

func TestMetricsTrackExploration(t *testing.T) {
	c, err := New[int, incAction](counterModel{max: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Run(context.Background())
	if got := c.Metrics().Unique.Get(); got != 4 {
		t.Fatalf("expected Unique metric to report 4, got %d", got)
	}
}

// pairState is two counters whose Representative canonicalizes by sorted
// order, used to exercise symmetry reduction through a full Run.
type pairState [2]int

type bumpAction struct{ slot int }

func (a bumpAction) String() string { return fmt.Sprintf("bump%d", a.slot) }

type symmetricModel struct{ max int }

// InitialStates deliberately starts unsorted (canonical would be {0, 1})
// so that the representative's fingerprint differs from the initial
// state's own fingerprint from the very first expansion.
func (m symmetricModel) InitialStates() []pairState { return []pairState{{1, 0}} }

func (symmetricModel) Representative(s pairState) pairState {
	if s[0] > s[1] {
		return pairState{s[1], s[0]}
	}
	return s
}

func (m symmetricModel) Actions(s pairState) []bumpAction {
	var actions []bumpAction
	if s[0] < m.max {
		actions = append(actions, bumpAction{0})
	}
	if s[1] < m.max {
		actions = append(actions, bumpAction{1})
	}
	return actions
}

func (symmetricModel) NextState(s pairState, a bumpAction) (pairState, bool) {
	s[a.slot]++
	return s, true
}

func (m symmetricModel) Properties() []model.Property[pairState] {
	return []model.Property[pairState]{
		model.AlwaysProp("sum-below-limit", func(s pairState) bool { return s[0]+s[1] < 2*m.max }),
	}
}

// TestSymmetryReductionRecoversPathThroughRawStates guards against
// treating a Representative's fingerprint as the path/ancestry identity:
// doing so makes findInitialState compare a canonicalized fingerprint
// against initial states' own (non-canonicalized) fingerprints and fail
// path recovery for any model using symmetry reduction.
func TestSymmetryReductionRecoversPathThroughRawStates(t *testing.T) {
	c, err := New[pairState, bumpAction](symmetricModel{max: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := c.Run(context.Background())
	if report.Err != nil {
		t.Fatalf("unexpected error: %v", report.Err)
	}
	d := report.Discoveries[0]
	if d == nil {
		t.Fatalf("expected sum-below-limit to be violated once both slots reach 1")
	}
	path, ok := report.Paths[d.Name]
	if !ok {
		t.Fatalf("expected a recovered path for discovery %q", d.Name)
	}
	if len(path.States) == 0 || path.States[0] != (pairState{1, 0}) {
		t.Fatalf("expected the recovered path to start at the actual (unsorted) initial state {1,0}, got %v", path.States)
	}
	if last := path.States[len(path.States)-1]; last != (pairState{1, 1}) {
		t.Fatalf("expected the recovered path to end at the violating state {1,1}, got %v", last)
	}
}

func TestNewickRendersDiscoveredPaths(t *testing.T) {
	c, err := New[int, incAction](violatingModel{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := c.Run(context.Background())
	newick := report.Newick()
	if newick == "" {
		t.Fatalf("expected a non-empty Newick rendering")
	}
	fmt.Sprintln(newick) // exercise formatting without asserting exact shape
}
