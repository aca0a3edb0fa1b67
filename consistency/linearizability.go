package consistency

import (
	"time"

	"statecheck/fingerprint"
)

// CheckLinearizable decides whether history is linearizable with respect
// to m: whether there exists a total order of all operations, consistent
// with each operation's real-time [Call, Return] interval, under which m
// accepts every operation's recorded input/output in sequence.
//
// This is the classical Wing & Gong / Lowe algorithm porcupine
// implements: a backtracking search over which not-yet-linearized
// operation can legally go next, memoized on (set of linearized
// operations, resulting model state) so that the same state reached by
// two different partial orders is only explored once. Model states are
// deduplicated with the checker's own fingerprint.Of rather than a
// separate hash, reusing the same collision-accepting tradeoff documented
// there.
func CheckLinearizable(m Model, history History, timeout time.Duration) (Result, error) {
	if len(history) > maxOperations {
		return Result{}, TooManyOperationsError{Count: len(history)}
	}
	constraint := func(ops []Operation, linearized uint64, i int) bool {
		for j := range ops {
			if linearized&(1<<uint(j)) != 0 || j == i {
				continue
			}
			if ops[j].Return < ops[i].Call {
				return false
			}
		}
		return true
	}
	return runSearch(m, history, constraint, timeout)
}

// CheckSequential decides whether history is sequentially consistent with
// respect to m: whether there exists a total order of all operations,
// consistent only with each client's own program order (not real time
// across clients), under which m accepts the recorded input/output
// sequence. It is strictly weaker than CheckLinearizable: every
// linearizable history is sequentially consistent, but not conversely.
func CheckSequential(m Model, history History, timeout time.Duration) (Result, error) {
	if len(history) > maxOperations {
		return Result{}, TooManyOperationsError{Count: len(history)}
	}
	constraint := func(ops []Operation, linearized uint64, i int) bool {
		for j := range ops {
			if linearized&(1<<uint(j)) != 0 || j == i {
				continue
			}
			if ops[j].ClientId == ops[i].ClientId && ops[j].Call < ops[i].Call {
				return false
			}
		}
		return true
	}
	return runSearch(m, history, constraint, timeout)
}

type cacheKey struct {
	linearized uint64
	state      fingerprint.Fingerprint
}

func runSearch(m Model, history History, minimal orderConstraint, timeout time.Duration) (Result, error) {
	ops := []Operation(history)
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	cache := make(map[cacheKey]bool)
	timedOut := false

	full := uint64(1)<<uint(len(ops)) - 1
	if len(ops) == 64 {
		full = ^uint64(0)
	}

	var search func(linearized uint64, state any) bool
	search = func(linearized uint64, state any) bool {
		if linearized == full {
			return true
		}
		if timedOut {
			return false
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			timedOut = true
			return false
		}

		fp, err := fingerprint.Of(state)
		key := cacheKey{linearized: linearized}
		if err == nil {
			key.state = fp
			if v, ok := cache[key]; ok {
				return v
			}
		}

		for i, op := range ops {
			bit := uint64(1) << uint(i)
			if linearized&bit != 0 {
				continue
			}
			if !minimal(ops, linearized, i) {
				continue
			}
			ok, next := m.Step(state, op.Input, op.Output)
			if !ok {
				continue
			}
			if search(linearized|bit, next) {
				return true
			}
		}
		if err == nil {
			cache[key] = false
		}
		return false
	}

	ok := search(0, m.Init())
	if timedOut {
		return Result{TimedOut: true}, nil
	}
	return Result{Consistent: ok}, nil
}
