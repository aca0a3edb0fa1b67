// Package queue implements the checker's StateQueue: the work list of
// (state, depth, parent fingerprint, action) entries that the Checker's
// worker pool drains in parallel.
//
// The blocking/waking discipline is grounded on the teacher's
// scheduler.Prefix (scheduler_old/prefix.go): a mutex-guarded condition
// variable tracks how many workers are currently idle versus how many
// entries are pending, and the queue is exhausted only when every worker is
// idle and no entries remain -- exactly the termination condition
// scheduler.Prefix.getRun uses to decide "no more runs" versus "wait for
// one". Where the teacher schedules whole runs (a goroutine claims one
// full interleaving and drives it to completion), a StateQueue schedules
// individual expansion steps, since the checker here re-enumerates
// per-state rather than per-run.
package queue

import (
	"math/rand"
	"sync"

	"statecheck/fingerprint"
)

// Discipline controls the order in which pending entries are drained.
// BFS is the default per spec ("BFS discipline by default"); DFS and
// Random are grounded on the teacher's PrefixScheduler and RandomWalk
// scheduler respectively, offered here as alternative traversal orders
// over the same underlying dedup/ancestry machinery.
type Discipline int

const (
	BFS Discipline = iota
	DFS
	Random
)

// Entry is one unit of work: a state discovered at a given depth, along
// with the fingerprint of the state that produced it and the action that
// did so. Entries at depth 0 are initial states and carry a Zero parent
// fingerprint and empty action.
type Entry[S any] struct {
	State    S
	Depth    int
	ParentFP fingerprint.Fingerprint
	Action   string
}

// Queue is a bounded-or-unbounded multi-producer/multi-consumer StateQueue.
type Queue[S any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	discipline Discipline
	rnd        *rand.Rand

	// items holds the pending entries. BFS pops from the front, DFS pops
	// from the back (a stack), Random pops a uniformly chosen index the
	// same way scheduler.randomRun.GetEvent swaps-and-truncates.
	items []Entry[S]

	// strictBFS enforces that a worker never dequeues a depth-d+1 entry
	// while depth-d entries remain, per spec 4.3's bounded-depth search
	// requirement. It is only meaningful under BFS.
	strictBFS bool
	// currentDepth is the deepest depth dequeued so far.
	currentDepth int

	closed  bool
	idle    int
	workers int
	// maxLen bounds memory when non-zero; producers block until space
	// frees up, mirroring a bounded MPMC channel.
	maxLen int
}

// Option configures a Queue at construction, in the marker-interface style
// config/simulatorOption.go uses.
type Option interface{ apply(*queueConfig) }

type queueConfig struct {
	discipline Discipline
	seed       int64
	strictBFS  bool
	maxLen     int
}

type disciplineOpt Discipline

func (o disciplineOpt) apply(c *queueConfig) { c.discipline = Discipline(o) }

// WithDiscipline selects BFS (default), DFS, or Random traversal order.
func WithDiscipline(d Discipline) Option { return disciplineOpt(d) }

type seedOpt int64

func (o seedOpt) apply(c *queueConfig) { c.seed = int64(o) }

// WithSeed seeds the Random discipline. Ignored by BFS/DFS.
func WithSeed(seed int64) Option { return seedOpt(seed) }

type strictBFSOpt struct{}

func (strictBFSOpt) apply(c *queueConfig) { c.strictBFS = true }

// WithStrictBFS enforces monotonically non-decreasing depth across
// dequeues, used for bounded-depth search per spec 4.3.
func WithStrictBFS() Option { return strictBFSOpt{} }

type maxLenOpt int

func (o maxLenOpt) apply(c *queueConfig) { c.maxLen = int(o) }

// WithMaxLen bounds the queue length; Push blocks while full.
func WithMaxLen(n int) Option { return maxLenOpt(n) }

// New creates a Queue ready to be shared by workerCount concurrent workers.
func New[S any](workerCount int, opts ...Option) *Queue[S] {
	cfg := queueConfig{discipline: BFS}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	q := &Queue[S]{
		discipline: cfg.discipline,
		rnd:        rand.New(rand.NewSource(cfg.seed)),
		strictBFS:  cfg.strictBFS,
		workers:    workerCount,
		maxLen:     cfg.maxLen,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues an entry, waking every blocked worker.
func (q *Queue[S]) Push(e Entry[S]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.maxLen > 0 && len(q.items) >= q.maxLen && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return
	}
	q.items = append(q.items, e)
	q.cond.Broadcast()
}

// ErrEmpty-style sentinel via ok=false: Pop blocks until an entry is
// available, the queue is closed, or every worker is idle with nothing
// left to do (final termination), in which case ok is false.
func (q *Queue[S]) Pop() (Entry[S], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if e, ok := q.tryPopLocked(); ok {
			q.cond.Broadcast() // may have freed capacity for a blocked Push
			return e, true
		}
		if q.closed {
			return Entry[S]{}, false
		}
		q.idle++
		if q.idle >= q.workers {
			// Every worker is idle and the queue is empty: exploration is
			// done. Wake the others so they can observe the same thing.
			q.closed = true
			q.cond.Broadcast()
			q.idle--
			return Entry[S]{}, false
		}
		q.cond.Wait()
		q.idle--
	}
}

func (q *Queue[S]) tryPopLocked() (Entry[S], bool) {
	if len(q.items) == 0 {
		return Entry[S]{}, false
	}
	switch q.discipline {
	case DFS:
		last := len(q.items) - 1
		e := q.items[last]
		q.items = q.items[:last]
		return e, true
	case Random:
		i := q.rnd.Intn(len(q.items))
		e := q.items[i]
		q.items[i] = q.items[len(q.items)-1]
		q.items = q.items[:len(q.items)-1]
		return e, true
	default: // BFS
		i := 0
		if q.strictBFS {
			for j, it := range q.items {
				if it.Depth < q.items[i].Depth {
					i = j
				}
			}
		}
		e := q.items[i]
		q.items = append(q.items[:i], q.items[i+1:]...)
		if e.Depth > q.currentDepth {
			q.currentDepth = e.Depth
		}
		return e, true
	}
}

// Close forcibly stops the queue; blocked Pop/Push calls return
// immediately. Used to implement shutdown on timeout or fatal error.
func (q *Queue[S]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the current number of pending entries (approximate once
// concurrent Push/Pop calls are in flight).
func (q *Queue[S]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
