package tree

import "testing"

func TestTreeAddChild(t *testing.T) {
	tree := New("Tree 1", func(a, b string) bool { return a == b })
	tree.AddChild("Tree 1-1")
	child := tree.AddChild("Tree 1-2")
	child.AddChild("Tree 1-2-1")

	if !tree.IsRoot() {
		t.Fatalf("Tree should be root node")
	}
	if tree.Len() != 4 {
		t.Fatalf("Added four elements to the tree. Has length: %v", tree.Len())
	}
	if len(tree.Children()) != 2 {
		t.Fatalf("Added two children to the tree. Got: %v", len(tree.Children()))
	}
	if child.IsRoot() {
		t.Fatalf("This should be a child node. IsRoot(): %v", child.IsRoot())
	}

	if !tree.DepthFirstSearch(func(s string) bool {
		return s == "Tree 1-2-1"
	}) {
		t.Fatalf("The value \"Tree 1-2-1\" should be a descendant of this node, but it cant be found with a depth first search")
	}

	if tree.SearchLeafNodes(func(s string) bool {
		return s == "Tree 1-2"
	}) {
		t.Fatalf("There is no element with value \"Tree 1-2\" in a leaf node")
	}

	if !tree.SearchLeafNodes(func(s string) bool {
		return s == "Tree 1-1"
	}) {
		t.Fatalf("There should be an element with value \"Tree 1-1\" in a leaf node")
	}
}

func TestMergePathSharesCommonPrefix(t *testing.T) {
	root := New(0, func(a, b int) bool { return a == b })

	leaf1 := root.MergePath([]int{1, 2, 3})
	leaf2 := root.MergePath([]int{1, 2, 4})

	if leaf1 == leaf2 {
		t.Fatalf("paths diverging at the third element should end at different nodes")
	}
	if leaf1.Parent() != leaf2.Parent() {
		t.Fatalf("paths sharing a two-element prefix should share a parent")
	}
	if root.Len() != 5 {
		t.Fatalf("expected 5 total nodes (root, 1, 2, 3, 4), got %d", root.Len())
	}
	if len(root.Children()) != 1 {
		t.Fatalf("root should have a single child (1), got %d", len(root.Children()))
	}
}

func TestMergePathReusesExistingBranch(t *testing.T) {
	root := New(0, func(a, b int) bool { return a == b })

	root.MergePath([]int{1, 2})
	leaf := root.MergePath([]int{1, 2, 3})

	if root.Len() != 4 {
		t.Fatalf("merging an extension of an existing path should not duplicate the shared prefix; got %d nodes", root.Len())
	}
	if leaf.Payload() != 3 {
		t.Fatalf("expected the returned node to be the new leaf, got %v", leaf.Payload())
	}
}

func TestNewickRendersMergedPaths(t *testing.T) {
	root := New("root", func(a, b string) bool { return a == b })
	root.MergePath([]string{"a", "b"})
	root.MergePath([]string{"a", "c"})

	want := `(("b","c")"a")"root";`
	if got := root.Newick(); got != want {
		t.Fatalf("Newick() = %q, want %q", got, want)
	}
}
