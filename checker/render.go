package checker

import (
	"sort"

	"statecheck/fingerprint"
	"statecheck/tree"
)

// Newick renders every recovered discovery path in the report as one
// merged tree in Newick format, sharing common prefixes the way
// tree.Tree.MergePath is built for. A report with no discoveries renders
// an empty root.
func (r *Report[S, A]) Newick() string {
	root := tree.New(fingerprint.Zero, func(a, b fingerprint.Fingerprint) bool { return a == b })

	names := make([]string, 0, len(r.Paths))
	for name := range r.Paths {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		root.MergePath(r.Paths[name].Fingerprints)
	}
	return root.Newick()
}
