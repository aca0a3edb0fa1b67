package twophase

import "testing"

func TestCommitRequiresAllPrepared(t *testing.T) {
	m := NewModel(2)
	state := New(2)

	for _, a := range m.Actions(state) {
		if a.Kind == TMCommit {
			t.Fatalf("TMCommit should not be available before any RM has prepared")
		}
	}
}

func TestFullHappyPathCommits(t *testing.T) {
	m := NewModel(2)
	state := New(2)

	var ok bool
	state, ok = m.NextState(state, Action{Kind: RMPrepare, RM: 0})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: RMPrepare, RM: 1})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: TMRcvPrepared, RM: 0})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: TMRcvPrepared, RM: 1})
	assertOK(t, ok)

	foundCommit := false
	for _, a := range m.Actions(state) {
		if a.Kind == TMCommit {
			foundCommit = true
		}
	}
	if !foundCommit {
		t.Fatalf("expected TMCommit to be available once every RM has prepared")
	}

	state, ok = m.NextState(state, Action{Kind: TMCommit})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: RMRcvCommitMsg, RM: 0})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: RMRcvCommitMsg, RM: 1})
	assertOK(t, ok)

	props := m.Properties()
	if !props[0].Predicate(state) {
		t.Fatalf("no-conflicting-outcomes should hold when every RM committed")
	}
}

func TestAbortAfterOnePrepareIsConsistent(t *testing.T) {
	m := NewModel(2)
	state := New(2)

	var ok bool
	state, ok = m.NextState(state, Action{Kind: RMPrepare, RM: 0})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: TMAbort})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: RMRcvAbortMsg, RM: 0})
	assertOK(t, ok)
	state, ok = m.NextState(state, Action{Kind: RMChooseToAbort, RM: 1})
	assertOK(t, ok)

	props := m.Properties()
	if !props[0].Predicate(state) {
		t.Fatalf("no-conflicting-outcomes should hold when every RM aborted")
	}
}

func assertOK(t *testing.T, ok bool) {
	t.Helper()
	if !ok {
		t.Fatalf("NextState unexpectedly ignored the action")
	}
}
