package tree_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kestrelui/canopy/pkg/tree"
)

// item is the test payload. Equality is plain struct equality, which is
// all the reconciliation relies on.
type item struct {
	Name   string
	Branch bool
}

const rootKey = "<root>"

// fakeGen serves children from an in-memory map keyed by parent name.
type fakeGen struct {
	alloc   *tree.Allocator
	data    map[string][]item
	fetches map[string]int
	err     error
	block   chan struct{} // when set, FetchChildren waits on it
	entered chan string   // when set, receives the parent key on entry
}

func newFakeGen(alloc *tree.Allocator, data map[string][]item) *fakeGen {
	return &fakeGen{
		alloc:   alloc,
		data:    data,
		fetches: make(map[string]int),
	}
}

func (g *fakeGen) key(n *tree.Node[item]) string {
	if !n.HasData() {
		return rootKey
	}
	return n.Data().Name
}

func (g *fakeGen) FetchChildren(_ context.Context, n *tree.Node[item]) ([]item, error) {
	key := g.key(n)
	if g.entered != nil {
		g.entered <- key
	}
	if g.block != nil {
		<-g.block
	}
	g.fetches[key]++
	if g.err != nil {
		return nil, g.err
	}
	return append([]item(nil), g.data[key]...), nil
}

func (g *fakeGen) CreateNode(parent *tree.Node[item], data item) *tree.Node[item] {
	return tree.NewChildNode(g.alloc, parent, data, data.Name, data.Branch)
}

func newFixture(data map[string][]item, opts ...tree.Option[item]) (*tree.Tree[item], *fakeGen) {
	alloc := tree.NewAllocator()
	gen := newFakeGen(alloc, data)
	return tree.New[item](gen, alloc, opts...), gen
}

// childByName fails the test when the cached children of n do not
// include a node with the given name.
func childByName(t *testing.T, tr *tree.Tree[item], n *tree.Node[item], name string) *tree.Node[item] {
	t.Helper()
	for _, c := range tr.Children(n) {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("no child %q under %v", name, n)
	return nil
}

func names(nodes []*tree.Node[item]) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRefreshIdempotent(t *testing.T) {
	tr, gen := newFixture(map[string][]item{
		rootKey: {{"a", true}, {"b", false}},
	})

	first, err := tr.Refresh(context.Background(), tr.Root())
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	second, err := tr.Refresh(context.Background(), tr.Root())
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("child counts = %d, %d, want 2, 2", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("child %d: got a different node object after identical fetch", i)
		}
	}
	if gen.fetches[rootKey] != 2 {
		t.Errorf("root fetches = %d, want 2", gen.fetches[rootKey])
	}
}

func TestRefreshPreservesIdentity(t *testing.T) {
	data := map[string][]item{
		rootKey: {{"a", true}, {"b", false}},
	}
	tr, _ := newFixture(data)

	if _, err := tr.Refresh(context.Background(), tr.Root()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	a := childByName(t, tr, tr.Root(), "a")
	b := childByName(t, tr, tr.Root(), "b")
	a.SetExpanded(true)
	tr.Select(a, true)
	wantID := a.ID()

	// "b" disappears, "c" appears, "a" survives.
	data[rootKey] = []item{{"a", true}, {"c", false}}
	if _, err := tr.Refresh(context.Background(), tr.Root()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	a2 := childByName(t, tr, tr.Root(), "a")
	if a2 != a {
		t.Error("retained child is not the same node object")
	}
	if a2.ID() != wantID {
		t.Errorf("retained child id = %d, want %d", a2.ID(), wantID)
	}
	if !a2.Expanded() || !a2.Selected() {
		t.Error("retained child lost expand/selection state")
	}

	defer func() {
		if recover() == nil {
			t.Error("dropped child still reachable by id")
		}
	}()
	tr.GetNode(b.ID())
}

func TestRefreshEmptyFetchEvictsAll(t *testing.T) {
	data := map[string][]item{
		rootKey: {{"a", true}},
		"a":     {{"a1", false}, {"a2", false}},
	}
	tr, _ := newFixture(data)
	if err := tr.RefreshSubtree(context.Background(), tr.Root(), false); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if tr.Len() != 4 {
		t.Fatalf("warmed tree has %d nodes, want 4", tr.Len())
	}

	data[rootKey] = nil
	kids, err := tr.Refresh(context.Background(), tr.Root())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(kids) != 0 {
		t.Errorf("children after empty fetch = %d, want 0", len(kids))
	}
	if tr.Root().HasChild() {
		t.Error("root still reports hasChild after empty fetch")
	}
	// The whole cached subtree under "a" must be gone too.
	if tr.Len() != 1 {
		t.Errorf("store has %d nodes after eviction, want 1", tr.Len())
	}
}

func TestRefreshErrorLeavesStoreUntouched(t *testing.T) {
	data := map[string][]item{
		rootKey: {{"a", true}, {"b", false}},
	}
	tr, gen := newFixture(data)
	if _, err := tr.Refresh(context.Background(), tr.Root()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	before := names(tr.Children(tr.Root()))

	gen.err = errors.New("backend down")
	if _, err := tr.Refresh(context.Background(), tr.Root()); err == nil {
		t.Fatal("refresh with failing fetch returned nil error")
	}

	after := names(tr.Children(tr.Root()))
	if !equalStrings(before, after) {
		t.Errorf("children changed across failed refresh: %v -> %v", before, after)
	}
	if !tr.Root().HasChild() {
		t.Error("hasChild flag changed across failed refresh")
	}
}

func TestRefreshSubtreeOnlyExpanded(t *testing.T) {
	data := map[string][]item{
		rootKey: {{"open", true}, {"closed", true}},
		"open":  {{"o1", false}},
		"closed": {
			{"c1", false},
		},
	}
	tr, gen := newFixture(data)
	if _, err := tr.Refresh(context.Background(), tr.Root()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	childByName(t, tr, tr.Root(), "open").SetExpanded(true)

	if err := tr.RefreshSubtree(context.Background(), tr.Root(), true); err != nil {
		t.Fatalf("refresh subtree: %v", err)
	}
	if gen.fetches["open"] != 1 {
		t.Errorf("expanded branch fetched %d times, want 1", gen.fetches["open"])
	}
	if gen.fetches["closed"] != 0 {
		t.Errorf("collapsed branch fetched %d times, want 0", gen.fetches["closed"])
	}
}

func TestRootReservation(t *testing.T) {
	tr, _ := newFixture(nil)
	if tr.Root().ID() != tree.RootID {
		t.Errorf("synthetic root id = %d, want %d", tr.Root().ID(), tree.RootID)
	}

	alloc := tree.NewAllocator()
	gen := &rootedGen{fakeGen: newFakeGen(alloc, nil)}
	tr2 := tree.New[item](gen, alloc)
	if tr2.Root().ID() != tree.RootID {
		t.Errorf("provided root id = %d, want %d", tr2.Root().ID(), tree.RootID)
	}
	if tr2.Root().Depth() != 0 {
		t.Errorf("provided root depth = %d, want 0", tr2.Root().Depth())
	}
}

// rootedGen supplies its own visible root at depth 0, with a deliberately
// wrong id that the tree must override.
type rootedGen struct {
	*fakeGen
}

func (g *rootedGen) CreateRootNode() *tree.Node[item] {
	return tree.NewNode(g.alloc.NextID(), item{Name: "root", Branch: true}, "root", 0, true)
}

func TestGetNodeUnknownIDPanics(t *testing.T) {
	tr, _ := newFixture(nil)
	defer func() {
		if recover() == nil {
			t.Error("GetNode with unknown id did not panic")
		}
	}()
	tr.GetNode(999)
}

func TestSyntheticNodeDataPanics(t *testing.T) {
	tr, _ := newFixture(nil)
	defer func() {
		if recover() == nil {
			t.Error("Data on a synthetic node did not panic")
		}
	}()
	tr.Root().Data()
}
