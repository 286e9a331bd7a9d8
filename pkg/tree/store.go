package tree

import (
	"fmt"
	"sort"
)

// Tree is the node store plus the parent→children adjacency cache. It
// owns every live node by id; nodes are reachable only through it.
//
// The adjacency cache is a cache, not ground truth: an entry reflects
// the last reconciliation of that parent, not necessarily the
// generator's current data, until the parent is refreshed again.
//
// A Tree is driven by a single logical task. Fetches may suspend that
// task, but the tree spawns no workers of its own and performs no
// internal locking apart from the id allocator. Callers that can issue
// overlapping refreshes must serialize them (see Guard).
type Tree[T comparable] struct {
	gen      Generator[T]
	alloc    *Allocator
	mode     SelectionMode
	nodes    map[ID]*Node[T]
	children map[ID][]ID // ascending id order, which is sibling creation order

	lastSelected ID // single-selection bookkeeping; noSelection when unset
}

const noSelection ID = -1

// Option configures a Tree at construction.
type Option[T comparable] func(*Tree[T])

// WithSelectionMode sets the selection policy applied by Select. The
// default is SelectionMulti.
func WithSelectionMode[T comparable](mode SelectionMode) Option[T] {
	return func(t *Tree[T]) { t.mode = mode }
}

// New constructs a tree over the given generator. The allocator is the
// one shared with every generator creating nodes for this tree; passing
// nil creates a fresh allocator, which is only correct when the
// generator obtained its allocator the same way (see builder.New for an
// example of wiring this up).
//
// If the generator implements RootProvider and returns a node, that node
// becomes the root, forced onto RootID. Otherwise the tree synthesizes a
// hidden root at depth -1 which never appears in the flattened
// projection.
func New[T comparable](gen Generator[T], alloc *Allocator, opts ...Option[T]) *Tree[T] {
	if alloc == nil {
		alloc = NewAllocator()
	}
	t := &Tree[T]{
		gen:          gen,
		alloc:        alloc,
		mode:         SelectionMulti,
		nodes:        make(map[ID]*Node[T]),
		children:     make(map[ID][]ID),
		lastSelected: noSelection,
	}
	for _, opt := range opts {
		opt(t)
	}

	var root *Node[T]
	if rp, ok := gen.(RootProvider[T]); ok {
		root = rp.CreateRootNode()
	}
	if root == nil {
		root = NewSyntheticNode[T](RootID, "", -1)
		root.expand = true
	}
	root.id = RootID
	root.branch = true
	root.path = "/0"
	t.nodes[RootID] = root
	return t
}

// Root returns the tree's root node.
func (t *Tree[T]) Root() *Node[T] {
	return t.nodes[RootID]
}

// GetNode returns the node with the given id. An id not present in the
// store is a programmer error, so the lookup panics instead of
// returning a sentinel.
func (t *Tree[T]) GetNode(id ID) *Node[T] {
	n, ok := t.nodes[id]
	if !ok {
		panic(fmt.Sprintf("tree: no node with id %d", id))
	}
	return n
}

// Children returns n's currently cached children in sibling order. It
// never fetches; an empty result means either a leaf or a branch whose
// children have not been reconciled yet.
func (t *Tree[T]) Children(n *Node[T]) []*Node[T] {
	ids := t.children[n.id]
	out := make([]*Node[T], 0, len(ids))
	for _, id := range ids {
		out = append(out, t.nodes[id])
	}
	return out
}

// GenerateID draws a fresh id from the tree's allocator.
func (t *Tree[T]) GenerateID() ID {
	return t.alloc.NextID()
}

// Allocator returns the id allocator shared by this tree's generators.
func (t *Tree[T]) Allocator() *Allocator {
	return t.alloc
}

// Len returns the number of live nodes, the root included.
func (t *Tree[T]) Len() int {
	return len(t.nodes)
}

// link registers child under parent, deriving its path. The adjacency
// entry itself is maintained by the caller.
func (t *Tree[T]) link(parent, child *Node[T]) {
	child.path = pathUnder(parent, child.id)
	t.nodes[child.id] = child
}

// evictSubtree removes the node and every cached descendant from the
// store and the adjacency cache.
func (t *Tree[T]) evictSubtree(id ID) {
	for _, cid := range t.children[id] {
		t.evictSubtree(cid)
	}
	delete(t.children, id)
	delete(t.nodes, id)
}

// setChildren replaces parent's adjacency entry with the given ids,
// keeping them in ascending order, and maintains hasChild.
func (t *Tree[T]) setChildren(parent *Node[T], ids []ID) {
	if len(ids) == 0 {
		delete(t.children, parent.id)
		parent.hasChild = false
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	t.children[parent.id] = ids
	parent.hasChild = true
}

// parentOf finds the node whose adjacency entry contains id. The root
// has no parent. Found by scanning the adjacency cache rather than by
// parsing paths, because paths under a recently moved subtree can be
// stale until reconciliation.
func (t *Tree[T]) parentOf(id ID) *Node[T] {
	for pid, ids := range t.children {
		for _, cid := range ids {
			if cid == id {
				return t.nodes[pid]
			}
		}
	}
	return nil
}
