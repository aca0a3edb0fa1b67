package checker

import (
	"statecheck/fingerprint"
	"statecheck/model"
)

// Path is a recovered counterexample or witness trace: the sequence of
// states and the actions that connect them, from an initial state to a
// discovered fingerprint. It is reconstructed by walking the VisitedSet's
// ancestry chain back to an initial state and replaying it forward
// through Model.NextState, since the engine discards state values once a
// state has been expanded (spec.md's memory-bounded design).
type Path[S model.State, A model.Action] struct {
	Fingerprints []fingerprint.Fingerprint
	Actions      []A // len(Actions) == len(Fingerprints)-1
	States       []S
}

// Name returns a deterministic path identifier, the fingerprint sequence
// joined the way the original stateright implementation's
// checker.rs::Path::name does.
func (p Path[S, A]) Name() string { return fingerprint.Sequence(p.Fingerprints) }

// pathTo walks fp's ancestry back to its initial state, then replays the
// action sequence forward through m.NextState to recover concrete states.
func pathTo[S model.State, A model.Action](m model.Model[S, A], vs stateStore[A], target fingerprint.Fingerprint) (Path[S, A], error) {
	var fps []fingerprint.Fingerprint
	var actions []A

	fp := target
	for {
		fps = append(fps, fp)
		anc, ok := vs.AncestryOf(fp)
		if !ok {
			return Path[S, A]{}, &UnknownFingerprintError{FP: fp}
		}
		if anc.ParentFP == fingerprint.Zero {
			// fp is an initial state: its recorded ancestry parent is the
			// reserved Zero fingerprint and it contributed no action.
			break
		}
		actions = append(actions, anc.Action)
		fp = anc.ParentFP
	}
	reverse(fps)
	reverse(actions)

	init, err := findInitialState(m, fps[0])
	if err != nil {
		return Path[S, A]{}, err
	}

	states := make([]S, 0, len(fps))
	states = append(states, init)
	cur := init
	for _, a := range actions {
		next, ok := m.NextState(cur, a)
		if !ok {
			return Path[S, A]{}, &ReplayError{Action: a}
		}
		states = append(states, next)
		cur = next
	}

	return Path[S, A]{Fingerprints: fps, Actions: actions, States: states}, nil
}

func findInitialState[S model.State, A model.Action](m model.Model[S, A], fp fingerprint.Fingerprint) (S, error) {
	for _, s := range m.InitialStates() {
		sfp, err := fingerprint.Of(s)
		if err != nil {
			var zero S
			return zero, &SerializationError{Err: err}
		}
		if sfp == fp {
			return s, nil
		}
	}
	var zero S
	return zero, &UnknownFingerprintError{FP: fp}
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// UnknownFingerprintError means a fingerprint was requested for path
// recovery but was never recorded in the VisitedSet.
type UnknownFingerprintError struct{ FP fingerprint.Fingerprint }

func (e *UnknownFingerprintError) Error() string {
	return "checker: no ancestry recorded for fingerprint " + fingerprint.Sequence([]fingerprint.Fingerprint{e.FP})
}

// ReplayError means replaying a recorded action sequence against
// Model.NextState no longer produces a successor, which can only happen
// if Model is nondeterministic in a way the probe did not catch.
type ReplayError struct{ Action any }

func (e *ReplayError) Error() string {
	return "checker: replay failed, action ignored on re-application (model nondeterminism?)"
}
