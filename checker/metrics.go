package checker

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics is the Checker's counter bundle, exported over
// github.com/VictoriaMetrics/metrics rather than the standard library's
// expvar: the pack's storage/server layers (ValentinKolb-dKV) use this
// library for exactly this shape of "a handful of monotonic counters
// exposed over HTTP", and the Explorer's status endpoint (spec.md section
// 6) wants the same kind of live counters.
//
// A private *metrics.Set is used instead of the package-level default set
// so that multiple Checkers -- one per test, for instance -- never collide
// on metric name registration.
type Metrics struct {
	set *metrics.Set

	Generated *metrics.Counter
	Unique    *metrics.Counter
	Done      *metrics.Counter
}

func newMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "statecheck"
	}
	set := metrics.NewSet()
	return &Metrics{
		set:       set,
		Generated: set.NewCounter(namespace + `_states_generated_total`),
		Unique:    set.NewCounter(namespace + `_states_unique_total`),
		Done:      set.NewCounter(namespace + `_states_done_total`),
	}
}

// WritePrometheus writes the Checker's counters in Prometheus exposition
// format. The Explorer's status endpoint does not use it; it reads the
// Checker's counts directly.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}
