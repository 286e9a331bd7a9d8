package tree_test

import (
	"context"
	"testing"

	"github.com/kestrelui/canopy/pkg/tree"
)

func moveFixture(t *testing.T) *tree.Tree[item] {
	t.Helper()
	data := map[string][]item{
		rootKey: {{"A", true}, {"B", true}},
		"A":     {{"A1", true}, {"A2", false}},
		"A1":    {{"A1a", false}},
		"B":     {{"B1", false}},
	}
	tr, _ := newFixture(data)
	if err := tr.RefreshSubtree(context.Background(), tr.Root(), false); err != nil {
		t.Fatalf("warm: %v", err)
	}
	return tr
}

func TestMoveIntoOwnSubtreeRejected(t *testing.T) {
	tr := moveFixture(t)
	a := childByName(t, tr, tr.Root(), "A")
	a1 := childByName(t, tr, a, "A1")

	before, _ := tr.Flatten(context.Background(), false, true)
	if tr.Move(a, a1) {
		t.Fatal("move of a node into its own subtree was accepted")
	}
	after, _ := tr.Flatten(context.Background(), false, true)
	if !equalStrings(names(before), names(after)) {
		t.Errorf("rejected move still mutated the tree: %v -> %v", names(before), names(after))
	}
}

func TestMoveRootRejected(t *testing.T) {
	tr := moveFixture(t)
	if tr.Move(tr.Root(), childByName(t, tr, tr.Root(), "A")) {
		t.Error("moving the root was accepted")
	}
}

func TestMoveOntoBranchAdoptsAsChild(t *testing.T) {
	tr := moveFixture(t)
	a := childByName(t, tr, tr.Root(), "A")
	b := childByName(t, tr, tr.Root(), "B")
	a2 := childByName(t, tr, a, "A2")

	if !tr.Move(a2, b) {
		t.Fatal("move rejected")
	}
	if a2.Depth() != b.Depth()+1 {
		t.Errorf("moved node depth = %d, want %d", a2.Depth(), b.Depth()+1)
	}
	if !a2.IsDescendantOf(b) {
		t.Errorf("moved node path %q is not under %q", a2.Path(), b.Path())
	}
	childByName(t, tr, b, "A2")
	for _, c := range tr.Children(a) {
		if c == a2 {
			t.Error("moved node still cached under old parent")
		}
	}
}

func TestMoveOntoLeafBecomesSibling(t *testing.T) {
	tr := moveFixture(t)
	a := childByName(t, tr, tr.Root(), "A")
	b := childByName(t, tr, tr.Root(), "B")
	a2 := childByName(t, tr, a, "A2")
	b1 := childByName(t, tr, b, "B1")

	if !tr.Move(a2, b1) {
		t.Fatal("move rejected")
	}
	if a2.Depth() != b1.Depth() {
		t.Errorf("moved node depth = %d, want sibling depth %d", a2.Depth(), b1.Depth())
	}
	childByName(t, tr, b, "A2")
}

func TestMoveEmptiesOldParent(t *testing.T) {
	tr := moveFixture(t)
	b := childByName(t, tr, tr.Root(), "B")
	b1 := childByName(t, tr, b, "B1")

	if !tr.Move(b1, childByName(t, tr, tr.Root(), "A")) {
		t.Fatal("move rejected")
	}
	if b.HasChild() {
		t.Error("old parent still reports hasChild after losing its only child")
	}
	if len(tr.Children(b)) != 0 {
		t.Error("old parent still has a cached child entry")
	}
}

func TestMoveDescendantDepthStaleUntilRefresh(t *testing.T) {
	tr := moveFixture(t)
	a := childByName(t, tr, tr.Root(), "A")
	a1 := childByName(t, tr, a, "A1")
	a1a := childByName(t, tr, a1, "A1a")

	// Moving A1 to the top level changes its depth from 1 to 0.
	if !tr.Move(a1, tr.Root()) {
		t.Fatal("move rejected")
	}
	if a1.Depth() != 0 {
		t.Errorf("moved node depth = %d, want 0", a1.Depth())
	}
	// A1's own depth is rewritten, its subtree's is not.
	if a1a.Depth() != 2 {
		t.Errorf("descendant depth = %d immediately after move, want stale 2", a1a.Depth())
	}

	// Reconciling the moved branch heals its children.
	if _, err := tr.Refresh(context.Background(), a1); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	healed := childByName(t, tr, a1, "A1a")
	if healed != a1a {
		t.Error("reconciliation replaced the descendant instead of retaining it")
	}
	if a1a.Depth() != a1.Depth()+1 {
		t.Errorf("descendant depth = %d after refresh, want %d", a1a.Depth(), a1.Depth()+1)
	}
}

// vetoGen rejects every reparenting.
type vetoGen struct {
	*fakeGen
	asked int
}

func (g *vetoGen) ConfirmMove(src, dst *tree.Node[item]) bool {
	g.asked++
	return false
}

func TestMoveGeneratorVeto(t *testing.T) {
	alloc := tree.NewAllocator()
	gen := &vetoGen{fakeGen: newFakeGen(alloc, map[string][]item{
		rootKey: {{"A", true}, {"B", true}},
	})}
	tr := tree.New[item](gen, alloc)
	if _, err := tr.Refresh(context.Background(), tr.Root()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	a := childByName(t, tr, tr.Root(), "A")
	b := childByName(t, tr, tr.Root(), "B")

	if tr.Move(a, b) {
		t.Error("vetoed move was accepted")
	}
	if gen.asked != 1 {
		t.Errorf("ConfirmMove called %d times, want 1", gen.asked)
	}
	if a.Depth() != 0 || !a.IsDescendantOf(tr.Root()) {
		t.Error("vetoed move mutated the source node")
	}
}
