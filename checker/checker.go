// Package checker implements the engine described in spec.md section 4: a
// parallel worker pool that drains a StateQueue, deduplicates states
// through a VisitedSet, evaluates properties on every newly discovered
// state, and reports counterexamples/witnesses with a recovered path.
//
// The worker-pool shape -- a fixed number of goroutines pulling from a
// shared blocking queue until it self-terminates -- is grounded on the
// teacher's config.PrepareSimulation/RunSimulation pairing
// (config_old/configSimulator.go): construction validates the Model and
// builds the shared machinery, then Run drives a bounded number of
// goroutines against it and reports one aggregated result. A Model that
// violates its own contract (e.g. no initial states) is reported by New as
// a returned error, not with log.Panicf.
package checker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"statecheck/fingerprint"
	"statecheck/model"
	"statecheck/property"
	"statecheck/queue"
	"statecheck/visited"
)

// payload is the value carried through the StateQueue: the state itself,
// the EventuallyBits still unproven along the path that reached it, and
// the action that produced it (needed by the VisitedSet's ancestry record
// for later path replay).
type payload[S model.State, A model.Action] struct {
	State  S
	Bits   property.EventuallyBits
	Action A
}

// stateStore is the raw-fingerprint dedup layer expand() inserts every
// discovered state's own (pre-canonicalization) fingerprint into. It is
// visited.Set when WithKeepPaths is enabled (the default), carrying an
// ancestry record per fingerprint so pathTo can replay a discovery back
// to an initial state, or a bare fingerprint-only stateStore backed by
// visited.Generated when it is disabled, per spec.md section 5's
// no-ancestry memory mode.
type stateStore[A any] interface {
	InsertIfAbsent(fp fingerprint.Fingerprint, anc visited.Ancestry[A]) bool
	AncestryOf(fp fingerprint.Fingerprint) (visited.Ancestry[A], bool)
	Contains(fp fingerprint.Fingerprint) bool
	Len() int64
	Generated() int64
}

// bareStore adapts a *visited.Generated -- an ancestry-less fingerprint
// set -- to the stateStore interface, discarding the ancestry argument on
// insert and always reporting AncestryOf as absent, so pathTo fails with
// an UnknownFingerprintError (caught and logged by buildReport) rather
// than recovering a path that was never recorded.
type bareStore[A any] struct{ g *visited.Generated }

func (b bareStore[A]) InsertIfAbsent(fp fingerprint.Fingerprint, _ visited.Ancestry[A]) bool {
	return b.g.InsertIfAbsent(fp)
}

func (b bareStore[A]) AncestryOf(fingerprint.Fingerprint) (visited.Ancestry[A], bool) {
	return visited.Ancestry[A]{}, false
}

func (b bareStore[A]) Contains(fp fingerprint.Fingerprint) bool { return b.g.Contains(fp) }

func (b bareStore[A]) Len() int64       { return b.g.Len() }
func (b bareStore[A]) Generated() int64 { return b.g.Generated() }

// Checker explores a Model's reachable state space and evaluates its
// declared properties against every state reached.
type Checker[S model.State, A model.Action] struct {
	m         model.Model[S, A]
	visited   stateStore[A]
	generated *visited.Generated // symmetry-class dedup only, see expand
	eval      *property.Evaluator[S]
	q         *queue.Queue[payload[S, A]]
	metrics   *Metrics
	st        settings

	failOnce sync.Once
	failErr  atomic.Pointer[error]

	probeCounter atomic.Int64
	maxDepth     atomic.Int64
}

// New constructs a Checker for m. It returns a construction error
// (ErrNoInitialStates, property.ErrDuplicateProperty, or
// property.ErrTooManyEventuallyProperties, checkable with errors.Is) if
// m's declaration is malformed; these are caller mistakes that should fail
// loudly and immediately, the same class of error the teacher's config.go
// raises via log.Panicf during PrepareSimulation.
func New[S model.State, A model.Action](m model.Model[S, A], opts ...Option) (*Checker[S, A], error) {
	if len(m.InitialStates()) == 0 {
		return nil, ErrNoInitialStates
	}
	eval, err := property.New(m.Properties())
	if err != nil {
		return nil, err
	}

	st := defaultSettings()
	for _, o := range opts {
		o.apply(&st)
	}
	if st.workers < 1 {
		st.workers = 1
	}

	qopts := []queue.Option{queue.WithDiscipline(st.discipline), queue.WithSeed(st.seed)}
	if st.strictBFS {
		qopts = append(qopts, queue.WithStrictBFS())
	}
	if st.maxQueueLen > 0 {
		qopts = append(qopts, queue.WithMaxLen(st.maxQueueLen))
	}

	var store stateStore[A]
	if st.keepPaths {
		store = visited.New[A](st.shardCount)
	} else {
		store = bareStore[A]{g: visited.NewGenerated(st.shardCount)}
	}

	return &Checker[S, A]{
		m:         m,
		visited:   store,
		generated: visited.NewGenerated(st.shardCount),
		eval:      eval,
		q:         queue.New[payload[S, A]](st.workers, qopts...),
		metrics:   newMetrics(st.metricsNS),
		st:        st,
	}, nil
}

// Metrics exposes the running counters described in spec.md section 6.
func (c *Checker[S, A]) Metrics() *Metrics { return c.metrics }

// MaxDepthReached returns the greatest queue depth expanded so far
// (initial states are depth 0), for the Explorer's status endpoint.
func (c *Checker[S, A]) MaxDepthReached() int64 { return c.maxDepth.Load() }

// Discoveries returns the discovery recorded so far for each property
// Model.Properties declares, nil for a property not yet resolved, in the
// same order Model.Properties returns -- usable while a Run is still in
// progress, unlike Report.Discoveries which is only populated once Run
// returns.
func (c *Checker[S, A]) Discoveries() []*property.Discovery { return c.eval.Discoveries() }

// Contains reports whether fp has already been expanded by this
// Checker, live or completed, for the Explorer's per-successor outcome.
func (c *Checker[S, A]) Contains(fp fingerprint.Fingerprint) bool { return c.visited.Contains(fp) }

// PathFor recovers the witness/counterexample path to fp by walking the
// VisitedSet's ancestry back to an initial state and replaying it
// forward. It returns an UnknownFingerprintError if fp was never
// expanded, or if the Checker was built with WithKeepPaths(false).
func (c *Checker[S, A]) PathFor(fp fingerprint.Fingerprint) (Path[S, A], error) {
	return pathTo(c.m, c.visited, fp)
}

// bumpMax atomically raises a to v if v is larger, retrying under
// concurrent writers rather than taking a lock.
func bumpMax(a *atomic.Int64, v int64) {
	for {
		cur := a.Load()
		if v <= cur || a.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Report is the outcome of a completed or stopped Run.
type Report[S model.State, A model.Action] struct {
	Explored    int64
	Unique      int64
	MaxDepth    int64
	Discoveries []*property.Discovery
	Paths       map[string]Path[S, A] // keyed by property name, only for resolved properties
	Err         error                 // set on TimeoutError, NondeterminismError, PropertyPanic, SerializationError
}

// Run explores the state space until the queue drains, ctx is canceled,
// the configured timeout elapses, or (with WithFinishWhenResolved) every
// property is resolved. It always returns a Report; Report.Err is set
// when the run stopped abnormally.
func (c *Checker[S, A]) Run(ctx context.Context) *Report[S, A] {
	if c.st.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.st.timeout)
		defer cancel()
	}

	for _, s := range c.m.InitialStates() {
		c.q.Push(queue.Entry[payload[S, A]]{
			State:    payload[S, A]{State: s, Bits: c.eval.InitialBits()},
			Depth:    0,
			ParentFP: fingerprint.Zero,
		})
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < c.st.workers; i++ {
		wg.Add(1)
		go c.worker(&wg, stop)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-ctx.Done():
		close(stop)
		c.q.Close()
		<-done
		if ctx.Err() != nil && c.loadErr() == nil {
			c.fail(&TimeoutError{Explored: c.visited.Generated()})
		}
	}

	return c.buildReport()
}

func (c *Checker[S, A]) worker(wg *sync.WaitGroup, stop <-chan struct{}) {
	defer wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}
		entry, ok := c.q.Pop()
		if !ok {
			return
		}
		c.expand(entry)
		if c.loadErr() != nil {
			c.q.Close()
			return
		}
	}
}

func (c *Checker[S, A]) expand(entry queue.Entry[payload[S, A]]) {
	state := entry.State.State
	bits := entry.State.Bits

	if c.st.maxDepth > 0 && entry.Depth > c.st.maxDepth {
		return
	}
	if wb, ok := any(c.m).(model.WithinBoundary[S]); ok && !wb.WithinBoundary(state) {
		return
	}
	bumpMax(&c.maxDepth, int64(entry.Depth))

	fp, err := fingerprint.Of(state)
	if err != nil {
		c.fail(&SerializationError{Err: err})
		return
	}

	c.metrics.Generated.Inc()
	if r, ok := any(c.m).(model.Representative[S]); ok {
		// Per original_source's checker/dfs.rs (marked IMPORTANT there):
		// the representative's fingerprint decides only whether this
		// state's equivalence class has already been expanded. The path
		// must continue with fp, the pre-canonicalized state's own
		// fingerprint, or ancestry/path recovery would jump to whatever
		// unrelated occurrence of the class was inserted first, which
		// generally has no path extension from this state's ancestry.
		dedupFP, err := fingerprint.Of(r.Representative(state))
		if err != nil {
			c.fail(&SerializationError{Err: err})
			return
		}
		if !c.generated.InsertIfAbsent(dedupFP) {
			return
		}
	}

	inserted := c.visited.InsertIfAbsent(fp, visited.Ancestry[A]{ParentFP: entry.ParentFP, Action: entry.State.Action})
	if !inserted {
		// Already expanded via another (possibly shorter) path. Per this
		// engine's approximation of Eventually tracking, only the
		// first-discovered path's bits are carried forward; a property
		// only provable via a different arrival at this same state is a
		// documented false negative.
		return
	}
	c.metrics.Unique.Inc()

	bits = c.recoverPanic("property evaluation", func() property.EventuallyBits {
		return c.eval.Evaluate(state, fp, entry.Depth, bits)
	}, bits)
	if c.loadErr() != nil {
		return
	}

	actions := c.safeActions(state)
	if c.st.probeRate > 0 && c.probeCounter.Add(1)%int64(c.st.probeRate) == 0 {
		c.probeNondeterminism(state, actions)
		if c.loadErr() != nil {
			return
		}
	}

	expanded := false
	for _, a := range actions {
		next, ok := c.safeNextState(state, a)
		if c.loadErr() != nil {
			return
		}
		if !ok {
			continue
		}
		expanded = true
		c.q.Push(queue.Entry[payload[S, A]]{
			State:    payload[S, A]{State: next, Bits: bits, Action: a},
			Depth:    entry.Depth + 1,
			ParentFP: fp,
			Action:   a.String(),
		})
	}
	if !expanded {
		c.eval.DeadEnd(fp, entry.Depth, bits)
	}
	c.metrics.Done.Inc()

	if c.st.finishFast && c.eval.AllResolved() {
		c.q.Close()
	}
}

// probeNondeterminism re-invokes Actions/NextState on state and compares
// the resulting successor fingerprint set against the one just computed
// from actions, catching a Model that violates the purity requirement
// documented on model.Model.Actions.
func (c *Checker[S, A]) probeNondeterminism(state S, actions []A) {
	first := make(map[fingerprint.Fingerprint]struct{}, len(actions))
	for _, a := range actions {
		if next, ok := c.safeNextState(state, a); ok {
			if fp, err := fingerprint.Of(next); err == nil {
				first[fp] = struct{}{}
			}
		}
	}
	replay := c.safeActions(state)
	second := make(map[fingerprint.Fingerprint]struct{}, len(replay))
	for _, a := range replay {
		if next, ok := c.safeNextState(state, a); ok {
			if fp, err := fingerprint.Of(next); err == nil {
				second[fp] = struct{}{}
			}
		}
	}
	if len(first) != len(second) {
		c.fail(&NondeterminismError{Action: "Actions", First: uint64(len(first)), Second: uint64(len(second))})
		return
	}
	for fp := range first {
		if _, ok := second[fp]; !ok {
			c.fail(&NondeterminismError{Action: "NextState", First: uint64(fp), Second: 0})
			return
		}
	}
}

func (c *Checker[S, A]) safeActions(state S) (actions []A) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(&PropertyPanic{Where: "Model.Actions", Value: r})
		}
	}()
	return c.m.Actions(state)
}

func (c *Checker[S, A]) safeNextState(state S, action A) (next S, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(&PropertyPanic{Where: "Model.NextState", Value: r})
		}
	}()
	return c.m.NextState(state, action)
}

func (c *Checker[S, A]) recoverPanic(where string, f func() property.EventuallyBits, fallback property.EventuallyBits) (result property.EventuallyBits) {
	result = fallback
	defer func() {
		if r := recover(); r != nil {
			c.fail(&PropertyPanic{Where: where, Value: r})
		}
	}()
	return f()
}

func (c *Checker[S, A]) fail(err error) {
	c.failOnce.Do(func() {
		c.failErr.Store(&err)
	})
}

func (c *Checker[S, A]) loadErr() error {
	if p := c.failErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *Checker[S, A]) buildReport() *Report[S, A] {
	discoveries := c.eval.Discoveries()
	paths := make(map[string]Path[S, A], len(discoveries))
	for _, d := range discoveries {
		if d == nil {
			continue
		}
		p, err := pathTo(c.m, c.visited, d.FP)
		if err != nil {
			log.Printf("statecheck: failed to recover path for property %q: %v", d.Name, err)
			continue
		}
		paths[d.Name] = p
	}
	return &Report[S, A]{
		Explored:    c.visited.Generated(),
		Unique:      c.visited.Len(),
		MaxDepth:    c.maxDepth.Load(),
		Discoveries: discoveries,
		Paths:       paths,
		Err:         c.loadErr(),
	}
}

