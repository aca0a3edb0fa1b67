// Package visited implements the checker's VisitedSet: a concurrent,
// sharded set of seen fingerprints with optional ancestry recording.
//
// The sharding scheme is grounded on the dKV maple engine's Shard/GetShard
// pattern (lib/db/engines/maple/internal/internal.go): the keyspace is
// split across a power-of-two number of shards, each backed by its own
// github.com/puzpuzpuz/xsync/v3 lock-free concurrent map, so inserts from
// different shards never contend on the same lock. Unlike maple's on-disk
// key-value shards, a VisitedSet shard stores nothing but a fingerprint and
// its ancestry record, since the engine never needs to reconstruct a state
// from the set itself (states are recovered by replaying actions, per
// checker.Path).
package visited

import (
	"math/bits"
	"runtime"

	"github.com/puzpuzpuz/xsync/v3"

	"statecheck/fingerprint"
)

// Ancestry records how a fingerprint was first reached: the fingerprint of
// its parent state and the action that produced it. A Zero ParentFP marks
// an initial state. The action is kept as a concrete value (not just its
// display string) so that Checker.Path can replay a counterexample trace
// from an initial state forward through Model.NextState, since the engine
// never retains full state values once a state has been expanded.
type Ancestry[A any] struct {
	ParentFP fingerprint.Fingerprint
	Action   A
}

// Set is a sharded concurrent set of fingerprints, each carrying at most
// one Ancestry record (the first one written, per spec's "exactly one
// ancestry entry per fingerprint" invariant).
type Set[A any] struct {
	shards    []*xsync.MapOf[fingerprint.Fingerprint, Ancestry[A]]
	shardBits uint
	generated int64Counter
	unique    int64Counter
}

// New creates a VisitedSet sharded across shardCount shards, rounded up to
// the next power of two. shardCount <= 0 defaults to GOMAXPROCS, mirroring
// GetShard's use of a runtime-derived shard count in the teacher's sibling
// packages.
func New[A any](shardCount int) *Set[A] {
	if shardCount <= 0 {
		shardCount = runtime.GOMAXPROCS(0)
	}
	n := nextPowerOfTwo(shardCount)
	shards := make([]*xsync.MapOf[fingerprint.Fingerprint, Ancestry[A]], n)
	for i := range shards {
		shards[i] = xsync.NewMapOf[fingerprint.Fingerprint, Ancestry[A]]()
	}
	return &Set[A]{
		shards:    shards,
		shardBits: uint(bits.TrailingZeros(uint(n))),
	}
}

func nextPowerOfTwo(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// shardFor picks a shard using the top bits of the fingerprint, the way
// spec.md's VisitedSet design calls for ("sharded by top bits of fp"), as
// opposed to maple's GetShard which shifts off low bits of a sequential
// key. Using the high bits keeps shard assignment stable under a
// power-of-two shard count without needing a modulo of a well-mixed hash.
func (s *Set[A]) shardFor(fp fingerprint.Fingerprint) *xsync.MapOf[fingerprint.Fingerprint, Ancestry[A]] {
	idx := shardIndex(fp, s.shardBits)
	return s.shards[idx]
}

func shardIndex(fp fingerprint.Fingerprint, shardBits uint) uint64 {
	if shardBits == 0 {
		return 0
	}
	return uint64(fp) >> (64 - shardBits)
}

// Generated is a sharded concurrent fingerprint membership set, with the
// same shard-by-top-bits scheme as Set but no ancestry payload. It backs
// the checker's symmetry-reduction dedup decision: per
// original_source's checker/dfs.rs, a Representative's fingerprint is
// used only to decide whether a state's equivalence class has already
// been expanded, never as the identity a path is recorded or continued
// under (that stays the actual, non-canonicalized state's own
// fingerprint, tracked separately in a Set).
type Generated struct {
	shards    []*xsync.MapOf[fingerprint.Fingerprint, struct{}]
	shardBits uint
	generated int64Counter
	unique    int64Counter
}

// NewGenerated creates a Generated set sharded the same way New does.
func NewGenerated(shardCount int) *Generated {
	if shardCount <= 0 {
		shardCount = runtime.GOMAXPROCS(0)
	}
	n := nextPowerOfTwo(shardCount)
	shards := make([]*xsync.MapOf[fingerprint.Fingerprint, struct{}], n)
	for i := range shards {
		shards[i] = xsync.NewMapOf[fingerprint.Fingerprint, struct{}]()
	}
	return &Generated{
		shards:    shards,
		shardBits: uint(bits.TrailingZeros(uint(n))),
	}
}

// InsertIfAbsent reports whether fp was newly inserted.
func (g *Generated) InsertIfAbsent(fp fingerprint.Fingerprint) bool {
	g.generated.add(1)
	idx := shardIndex(fp, g.shardBits)
	_, loaded := g.shards[idx].LoadOrStore(fp, struct{}{})
	if !loaded {
		g.unique.add(1)
	}
	return !loaded
}

// Contains reports whether fp has already been recorded.
func (g *Generated) Contains(fp fingerprint.Fingerprint) bool {
	idx := shardIndex(fp, g.shardBits)
	_, ok := g.shards[idx].Load(fp)
	return ok
}

// Len returns the number of unique fingerprints recorded.
func (g *Generated) Len() int64 { return g.unique.load() }

// Generated returns the number of fingerprints ever offered to
// InsertIfAbsent, including duplicates.
func (g *Generated) Generated() int64 { return g.generated.load() }

// InsertIfAbsent inserts fp with the given ancestry iff it is not already
// present. Returns true iff this call performed the insertion. Later calls
// with a different ancestry for the same fingerprint are no-ops, per the
// "first insertion wins" invariant.
func (s *Set[A]) InsertIfAbsent(fp fingerprint.Fingerprint, anc Ancestry[A]) bool {
	s.generated.add(1)
	_, loaded := s.shardFor(fp).LoadOrStore(fp, anc)
	if !loaded {
		s.unique.add(1)
	}
	return !loaded
}

// Contains reports whether fp has already been visited.
func (s *Set[A]) Contains(fp fingerprint.Fingerprint) bool {
	_, ok := s.shardFor(fp).Load(fp)
	return ok
}

// AncestryOf returns the recorded ancestry of fp, if any.
func (s *Set[A]) AncestryOf(fp fingerprint.Fingerprint) (Ancestry[A], bool) {
	return s.shardFor(fp).Load(fp)
}

// Len returns the number of unique fingerprints recorded (VisitedSet size).
func (s *Set[A]) Len() int64 { return s.unique.load() }

// Generated returns the number of successors ever produced and offered to
// InsertIfAbsent, including duplicates. Generated - Len is the number of
// states discarded as already-visited.
func (s *Set[A]) Generated() int64 { return s.generated.load() }
