package checker

import (
	"time"

	"statecheck/queue"
)

// Option configures a Checker, following the marker-interface pattern the
// teacher's config package uses for SimOpt/RunOpt (config/simulatorOption.go).
type Option interface{ apply(*settings) }

type settings struct {
	workers     int
	discipline  queue.Discipline
	seed        int64
	strictBFS   bool
	maxDepth    int
	shardCount  int
	timeout     time.Duration
	maxQueueLen int
	finishFast  bool
	metricsNS   string
	probeRate   int
	keepPaths   bool
}

func defaultSettings() settings {
	return settings{
		workers:    1,
		discipline: queue.BFS,
		keepPaths:  true,
	}
}

type workersOpt int

func (o workersOpt) apply(s *settings) { s.workers = int(o) }

// WithWorkers sets the size of the checker's worker pool. Default is 1.
func WithWorkers(n int) Option { return workersOpt(n) }

type disciplineOpt queue.Discipline

func (o disciplineOpt) apply(s *settings) { s.discipline = queue.Discipline(o) }

// WithDiscipline selects BFS (default), DFS, or Random traversal.
func WithDiscipline(d queue.Discipline) Option { return disciplineOpt(d) }

type seedOpt int64

func (o seedOpt) apply(s *settings) { s.seed = int64(o) }

// WithSeed seeds the Random discipline and any randomized tie-breaking.
func WithSeed(seed int64) Option { return seedOpt(seed) }

type strictBFSOpt struct{}

func (strictBFSOpt) apply(s *settings) { s.strictBFS = true }

// WithStrictBFS enforces monotonic depth ordering under BFS, guaranteeing
// the shortest counterexample path is found first (spec.md 4.3).
func WithStrictBFS() Option { return strictBFSOpt{} }

type maxDepthOpt int

func (o maxDepthOpt) apply(s *settings) { s.maxDepth = int(o) }

// WithMaxDepth bounds exploration depth. States discovered past maxDepth
// are neither inserted into the VisitedSet nor expanded. Zero (default)
// means unbounded.
func WithMaxDepth(n int) Option { return maxDepthOpt(n) }

type shardCountOpt int

func (o shardCountOpt) apply(s *settings) { s.shardCount = int(o) }

// WithShardCount sets the VisitedSet's shard count. Zero (default) picks
// GOMAXPROCS.
func WithShardCount(n int) Option { return shardCountOpt(n) }

type timeoutOpt time.Duration

func (o timeoutOpt) apply(s *settings) { s.timeout = time.Duration(o) }

// WithTimeout stops the check after d elapses, returning a TimeoutError
// and whatever discoveries were made so far. Zero (default) means no
// timeout.
func WithTimeout(d time.Duration) Option { return timeoutOpt(d) }

type maxQueueLenOpt int

func (o maxQueueLenOpt) apply(s *settings) { s.maxQueueLen = int(o) }

// WithMaxQueueLen bounds the StateQueue's length, applying backpressure to
// producers once reached. Zero (default) means unbounded.
func WithMaxQueueLen(n int) Option { return maxQueueLenOpt(n) }

type finishFastOpt struct{}

func (finishFastOpt) apply(s *settings) { s.finishFast = true }

// WithFinishWhenResolved stops the check as soon as every declared
// property has a discovery, rather than exhausting the state space. Off
// by default, since a full run is usually wanted to compute VisitedSet
// size and other summary statistics.
func WithFinishWhenResolved() Option { return finishFastOpt{} }

type metricsNSOpt string

func (o metricsNSOpt) apply(s *settings) { s.metricsNS = string(o) }

// WithMetricsNamespace prefixes the counters exported at Checker.Metrics
// with ns. Default is "statecheck".
func WithMetricsNamespace(ns string) Option { return metricsNSOpt(ns) }

type probeRateOpt int

func (o probeRateOpt) apply(s *settings) { s.probeRate = int(o) }

// WithNondeterminismProbe re-invokes Actions/NextState on every n-th
// expanded state and compares the resulting successor fingerprint set
// against the one computed the first time, failing the run with a
// NondeterminismError on mismatch. Zero (default) disables the probe.
func WithNondeterminismProbe(n int) Option { return probeRateOpt(n) }

type keepPathsOpt bool

func (o keepPathsOpt) apply(s *settings) { s.keepPaths = bool(o) }

// WithKeepPaths controls whether the VisitedSet records an ancestry entry
// (parent fingerprint plus the action that produced it) alongside every
// fingerprint it stores. Default is true.
//
// Set to false for the memory mode spec.md section 5 describes: only
// fingerprints are kept (8 bytes per unique state plus shard overhead),
// so a run over a very large state space costs less memory, at the price
// that Report.Paths cannot recover a witness/counterexample trace for
// any discovery -- Checker.Run still records which properties were
// violated or satisfied and at what depth, it just can't replay the path
// there, and buildReport logs and skips that discovery's Path entry
// rather than failing the run.
func WithKeepPaths(keep bool) Option { return keepPathsOpt(keep) }
