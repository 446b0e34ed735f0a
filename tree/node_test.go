package tree

import (
	"testing"
)

func buildFixture() (*Node[string], *Node[string], *Node[string], *Node[string]) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")
	root.AddChild(a).AddChild(b)
	a.AddChild(c)
	return root, a, b, c
}

func TestNodeOwnership(t *testing.T) {
	root, a, b, c := buildFixture()
	if root.ChildCount() != 2 {
		t.Errorf("expected root to have 2 children, has %d", root.ChildCount())
	}
	if a.Parent() != root || b.Parent() != root {
		t.Error("expected a and b to be owned by root, aren't")
	}
	if c.Parent() != a {
		t.Error("expected c to be owned by a, isn't")
	}
}

func TestNodeReparent(t *testing.T) {
	root, a, b, c := buildFixture()
	b.AddChild(c) // steals c from a
	if a.ChildCount() != 0 {
		t.Errorf("expected a to have no children after re-parenting, has %d", a.ChildCount())
	}
	if c.Parent() != b {
		t.Error("expected c to be owned by b after re-parenting, isn't")
	}
	if Count(root) != 4 {
		t.Errorf("expected tree to still hold 4 nodes, holds %d", Count(root))
	}
}

func TestNodeReplaceChild(t *testing.T) {
	root, a, _, _ := buildFixture()
	repl := NewNode("r")
	if out := root.ReplaceChild(a, repl); out != repl {
		t.Fatalf("expected ReplaceChild to return the replacement, returned %v", out)
	}
	ch, ok := root.Child(0)
	if !ok || ch != repl {
		t.Error("expected replacement to sit at position 0, doesn't")
	}
	if a.Parent() != nil {
		t.Error("expected replaced child to be orphaned, isn't")
	}
}

func TestNodeIsolate(t *testing.T) {
	root, a, _, _ := buildFixture()
	a.Isolate()
	if root.ChildCount() != 1 {
		t.Errorf("expected root to have 1 child after isolation, has %d", root.ChildCount())
	}
	if a.Parent() != nil {
		t.Error("expected isolated node to have no parent, has one")
	}
}

func TestWalkOrder(t *testing.T) {
	root, _, _, _ := buildFixture()
	var order []string
	err := Walk(root, func(n *Node[string], parent *Node[string], position int) error {
		order = append(order, n.Payload)
		return nil
	})
	if err != nil {
		t.Fatalf("walk returned error: %v", err)
	}
	want := []string{"root", "a", "c", "b"}
	if len(order) != len(want) {
		t.Fatalf("expected %d visits, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("visit %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}
