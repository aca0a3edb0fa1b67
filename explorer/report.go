// Package explorer implements the Explorer/Report HTTP API described in
// spec.md section 6: a small JSON surface for stepping through a Model's
// state graph interactively (on-demand mode, with no full check running)
// and for kicking off and polling a full check running in the
// background.
//
// The transport is stdlib net/http using Go 1.22's method+wildcard
// ServeMux patterns, grounded on ValentinKolb-dKV's HTTP RPC transport
// (rpc/transport/http/server.go): no example repo in the pack pulls in a
// web framework (chi, gin, echo) for anything, so net/http's own router is
// the ambient choice, not a fallback.
//
// The JSON shapes here follow the stateright explorer this spec was
// distilled from (original_source/src/checker/explorer.rs's StatusView
// and StateView): a property is rendered as a 3-element JSON tuple
// [expectation, name, discovery-path-or-null] rather than an object, and
// every StateReport in a /.states response carries the same global
// property list, not one re-evaluated per state.
package explorer

import (
	"encoding/json"
	"fmt"
)

// StatusReport is the payload for GET /.status.
type StatusReport struct {
	Done             bool             `json:"done"`
	StateCount       int64            `json:"state_count"`
	UniqueStateCount int64            `json:"unique_state_count"`
	MaxDepth         int64            `json:"max_depth"`
	Model            string           `json:"model"`
	Properties       []PropertyStatus `json:"properties"`
	RecentPath       string           `json:"recent_path"`
}

// StateReport is one element of the array GET /.states/<fp1>/<fp2>/...
// returns: a successor of the state reached by walking that path, plus
// the same property-discovery snapshot StatusReport carries.
type StateReport struct {
	Action      string           `json:"action,omitempty"`
	Outcome     string           `json:"outcome,omitempty"`
	State       any              `json:"state,omitempty"`
	SVG         *string          `json:"svg,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Properties  []PropertyStatus `json:"properties"`
}

// PropertyStatus is one property's expectation, name, and (if resolved)
// the path to its discovery, encoded per spec.md section 6 as the
// 3-element JSON array [expectation, name, discovery-path-or-null]
// rather than an object with named fields.
type PropertyStatus struct {
	Expectation string
	Name        string
	Path        *string // nil encodes as JSON null: no discovery yet
}

func (p PropertyStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{p.Expectation, p.Name, p.Path})
}

func (p *PropertyStatus) UnmarshalJSON(data []byte) error {
	var tuple [3]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("explorer: decoding property status tuple: %w", err)
	}
	if err := json.Unmarshal(tuple[0], &p.Expectation); err != nil {
		return fmt.Errorf("explorer: decoding property expectation: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &p.Name); err != nil {
		return fmt.Errorf("explorer: decoding property name: %w", err)
	}
	return json.Unmarshal(tuple[2], &p.Path)
}
