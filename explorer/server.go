package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"statecheck/checker"
	"statecheck/fingerprint"
	"statecheck/model"
	"statecheck/property"
)

// Server exposes a Model over HTTP for interactive, on-demand state
// exploration, and can additionally drive a full Checker run in the
// background on request.
type Server[S model.State, A model.Action] struct {
	m    model.Model[S, A]
	opts []checker.Option

	mu         sync.Mutex
	running    bool
	report     *checker.Report[S, A]
	cancel     context.CancelFunc
	live       *checker.Checker[S, A]
	recentPath string
}

// New builds a Server for m. opts configure the Checker constructed when
// a background run is requested via POST /.run-to-completion.
func New[S model.State, A model.Action](m model.Model[S, A], opts ...checker.Option) *Server[S, A] {
	return &Server[S, A]{m: m, opts: opts}
}

// Handler returns the http.Handler implementing the Explorer/Report API.
func (s *Server[S, A]) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.status", s.handleStatus)
	mux.HandleFunc("GET /.states/{path...}", s.handleStates)
	mux.HandleFunc("GET /.states", s.handleStates)
	mux.HandleFunc("POST /.run-to-completion", s.handleRun)
	mux.HandleFunc("DELETE /.run-to-completion", s.handleCancel)
	return mux
}

func (s *Server[S, A]) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancel == nil {
		http.Error(w, "no run in progress", http.StatusConflict)
		return
	}
	s.cancel()
	w.WriteHeader(http.StatusAccepted)
}

// handleStatus implements GET /.status per spec.md section 6: done,
// live/final state counts, the deepest depth reached, the model's type
// name, every declared property's discovery status, and the most
// recently walked /.states path.
func (s *Server[S, A]) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := StatusReport{
		Model:      fmt.Sprintf("%T", s.m),
		Properties: s.propertyStatusesLocked(),
		RecentPath: s.recentPath,
	}
	switch {
	case s.report != nil:
		report.Done = true
		report.StateCount = s.report.Explored
		report.UniqueStateCount = s.report.Unique
		report.MaxDepth = s.report.MaxDepth
	case s.live != nil:
		report.StateCount = int64(s.live.Metrics().Generated.Get())
		report.UniqueStateCount = int64(s.live.Metrics().Unique.Get())
		report.MaxDepth = s.live.MaxDepthReached()
	}
	writeJSON(w, http.StatusOK, report)
}

// propertyStatusesLocked builds the properties field shared by
// StatusReport and every StateReport, sourced from whichever discovery
// information is available: a completed Report's Discoveries/Paths, a
// live Checker's Discoveries/PathFor, or (before any run) just the
// Model's declared properties with no discoveries yet. Callers must hold
// s.mu.
func (s *Server[S, A]) propertyStatusesLocked() []PropertyStatus {
	props := s.m.Properties()
	out := make([]PropertyStatus, len(props))
	for i, p := range props {
		out[i] = PropertyStatus{Expectation: string(p.Kind), Name: p.Name}
	}

	var discoveries []*property.Discovery
	switch {
	case s.report != nil:
		discoveries = s.report.Discoveries
	case s.live != nil:
		discoveries = s.live.Discoveries()
	default:
		return out
	}

	for i, d := range discoveries {
		if d == nil || i >= len(out) {
			continue
		}
		if path, ok := s.pathForLocked(d); ok {
			joined := hexPath(path)
			out[i].Path = &joined
		}
	}
	return out
}

// pathForLocked recovers the fingerprint chain to a discovery, preferring
// a completed Report's already-recovered Path and falling back to the
// live Checker's ancestry when a run is still in progress. Callers must
// hold s.mu.
func (s *Server[S, A]) pathForLocked(d *property.Discovery) ([]fingerprint.Fingerprint, bool) {
	if s.report != nil {
		if path, ok := s.report.Paths[d.Name]; ok {
			return path.Fingerprints, true
		}
		return nil, false
	}
	if s.live != nil {
		if path, err := s.live.PathFor(d.FP); err == nil {
			return path.Fingerprints, true
		}
	}
	return nil, false
}

func (s *Server[S, A]) propertyStatuses() []PropertyStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propertyStatusesLocked()
}

func (s *Server[S, A]) handleRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}
	c, err := checker.New(s.m, s.opts...)
	if err != nil {
		s.mu.Unlock()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.report = nil
	s.live = c
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		report := c.Run(ctx)
		if report.Err != nil {
			log.Printf("statecheck: background run finished with an error: %v", report.Err)
		}
		s.mu.Lock()
		s.running = false
		s.report = report
		s.mu.Unlock()
	}()

	w.WriteHeader(http.StatusAccepted)
}

// handleStates implements GET /.states/<fp1>/<fp2>/... per spec.md
// section 6: path is a slash-separated chain of fingerprints starting
// from an initial state's fingerprint, and the response is the array of
// successors of the state that chain lands on. An empty path lists the
// initial states themselves, each with no action or outcome, mirroring
// how the explorer this spec was distilled from renders the root of the
// tree.
func (s *Server[S, A]) handleStates(w http.ResponseWriter, r *http.Request) {
	raw := strings.Trim(r.PathValue("path"), "/")

	s.mu.Lock()
	s.recentPath = raw
	s.mu.Unlock()

	if raw == "" {
		out := make([]StateReport, 0, len(s.m.InitialStates()))
		for _, init := range s.m.InitialStates() {
			rep, err := s.describeSuccessor("", init, false)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, rep)
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	segments := strings.Split(raw, "/")
	targets := make([]fingerprint.Fingerprint, len(segments))
	for i, seg := range segments {
		v, err := strconv.ParseUint(seg, 16, 64)
		if err != nil {
			http.Error(w, "invalid fingerprint segment: "+seg, http.StatusBadRequest)
			return
		}
		targets[i] = fingerprint.Fingerprint(v)
	}

	state, ok, err := s.walk(targets)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no such state along that fingerprint chain", http.StatusNotFound)
		return
	}

	out := make([]StateReport, 0, len(s.m.Actions(state)))
	for _, a := range s.m.Actions(state) {
		label := a.String()
		if disp, ok := any(s.m).(model.ActionDisplay[S, A]); ok {
			label = disp.DisplayAction(a, state)
		}
		next, ok := s.m.NextState(state, a)
		if !ok {
			out = append(out, StateReport{Action: label, Outcome: "ignored", Properties: s.propertyStatuses()})
			continue
		}
		rep, err := s.describeSuccessor(label, next, true)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out = append(out, rep)
	}
	writeJSON(w, http.StatusOK, out)
}

// describeSuccessor builds a StateReport for state, reached via action
// (empty for an initial state). hasAction controls whether Outcome is
// populated: initial states have no action, so no outcome to report
// either.
func (s *Server[S, A]) describeSuccessor(action string, state S, hasAction bool) (StateReport, error) {
	fp, err := fingerprint.Of(state)
	if err != nil {
		return StateReport{}, err
	}
	rep := StateReport{
		Action:      action,
		State:       state,
		Fingerprint: fpHex(fp),
		Properties:  s.propertyStatuses(),
	}
	if hasAction {
		rep.Outcome = s.outcomeFor(fp)
	}
	return rep, nil
}

// outcomeFor reports whether fp has already been expanded by a live or
// completed background Checker run, distinguishing a freshly generated
// successor from one revisited via a different path. Without any
// background run, every successor is reported "new", since the on-demand
// walk keeps no record of what it has already shown.
func (s *Server[S, A]) outcomeFor(fp fingerprint.Fingerprint) string {
	s.mu.Lock()
	live := s.live
	s.mu.Unlock()
	if live != nil && live.Contains(fp) {
		return "visited"
	}
	return "new"
}

// walk finds the initial state whose fingerprint matches targets[0], then
// repeatedly picks the action whose resulting state's fingerprint matches
// the next target, failing if any link in the chain can't be matched.
func (s *Server[S, A]) walk(targets []fingerprint.Fingerprint) (S, bool, error) {
	var cur S
	var found bool
	for _, init := range s.m.InitialStates() {
		fp, err := fingerprint.Of(init)
		if err != nil {
			var zero S
			return zero, false, err
		}
		if fp == targets[0] {
			cur, found = init, true
			break
		}
	}
	if !found {
		var zero S
		return zero, false, nil
	}

	for _, target := range targets[1:] {
		next, ok, err := s.step(cur, target)
		if err != nil {
			var zero S
			return zero, false, err
		}
		if !ok {
			var zero S
			return zero, false, nil
		}
		cur = next
	}
	return cur, true, nil
}

func (s *Server[S, A]) step(state S, target fingerprint.Fingerprint) (S, bool, error) {
	for _, a := range s.m.Actions(state) {
		next, ok := s.m.NextState(state, a)
		if !ok {
			continue
		}
		fp, err := fingerprint.Of(next)
		if err != nil {
			var zero S
			return zero, false, err
		}
		if fp == target {
			return next, true, nil
		}
	}
	var zero S
	return zero, false, nil
}

func fpHex(fp fingerprint.Fingerprint) string {
	return strconv.FormatUint(uint64(fp), 16)
}

// hexPath joins a fingerprint chain into the same slash-separated hex
// form GET /.states/<fp1>/<fp2>/... accepts, so a client can navigate
// straight to a property's discovery from its properties entry.
func hexPath(fps []fingerprint.Fingerprint) string {
	parts := make([]string, len(fps))
	for i, fp := range fps {
		parts[i] = fpHex(fp)
	}
	return strings.Join(parts, "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("statecheck: failed to encode response: %v", err)
	}
}
