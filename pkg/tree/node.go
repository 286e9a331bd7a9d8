// Package tree implements a lazily-populated, mutable tree over
// externally-sourced data. Nodes are owned by a Tree and keep a stable
// identity (id, expand state, selection state) across repeated
// asynchronous refreshes, so a consumer such as a list widget can
// re-fetch child data without losing the user's view state.
package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a node for the lifetime of the process. Ids are never
// reused; once assigned to a node an id is either retired with that node
// or kept for the same logical entity across reconciliation.
type ID int64

// RootID is reserved for the root node of every tree.
const RootID ID = 0

// Node is a vertex in the tree. It carries an optional generic payload
// and the presentation flags a list widget needs (expand, selected).
// Nodes are created by a Generator or synthesized by the store and are
// mutated in place; they are only reachable through their owning Tree.
type Node[T comparable] struct {
	id       ID
	data     *T // nil for synthetic nodes
	name     string
	depth    int
	branch   bool
	hasChild bool
	expand   bool
	selected bool
	path     string
}

// NewNode constructs a node with the given payload. Generators normally
// use NewChildNode instead, which derives id and depth from the parent.
func NewNode[T comparable](id ID, data T, name string, depth int, branch bool) *Node[T] {
	return &Node[T]{
		id:     id,
		data:   &data,
		name:   name,
		depth:  depth,
		branch: branch,
	}
}

// NewSyntheticNode constructs a payload-less node. A negative depth marks
// a virtual node (typically a hidden super-root) that is excluded from
// the flattened projection.
func NewSyntheticNode[T comparable](id ID, name string, depth int) *Node[T] {
	return &Node[T]{
		id:     id,
		name:   name,
		depth:  depth,
		branch: true,
	}
}

// NewChildNode constructs a node one level below parent, drawing a fresh
// id from alloc. This is the constructor generators should call from
// CreateNode.
func NewChildNode[T comparable](alloc *Allocator, parent *Node[T], data T, name string, branch bool) *Node[T] {
	return NewNode(alloc.NextID(), data, name, parent.depth+1, branch)
}

// ID returns the node's id. Immutable once assigned.
func (n *Node[T]) ID() ID { return n.id }

// Name returns the display label.
func (n *Node[T]) Name() string { return n.name }

// Depth returns the node's distance from the root. The root is 0 (or -1
// for a synthetic hidden root); depths of a moved subtree may be stale
// until the subtree is next reconciled.
func (n *Node[T]) Depth() int { return n.depth }

// IsBranch reports whether the node is allowed to have children.
func (n *Node[T]) IsBranch() bool { return n.branch }

// HasChild reports whether the node currently has at least one child in
// the adjacency cache.
func (n *Node[T]) HasChild() bool { return n.hasChild }

// Expanded reports whether descendants are included when flattening.
func (n *Node[T]) Expanded() bool { return n.expand }

// SetExpanded toggles whether descendants are included when flattening.
func (n *Node[T]) SetExpanded(expand bool) { n.expand = expand }

// Selected reports the node's selection state. Use Tree.Select to change
// it so the tree's selection policy is applied.
func (n *Node[T]) Selected() bool { return n.selected }

// HasData reports whether the node carries a payload. Synthetic nodes do
// not.
func (n *Node[T]) HasData() bool { return n.data != nil }

// Data returns the node's payload. It panics if the node is synthetic;
// "children not yet fetched" is represented by an empty adjacency entry,
// never by an absent payload.
func (n *Node[T]) Data() T {
	if n.data == nil {
		panic(fmt.Sprintf("tree: node %d has no payload", n.id))
	}
	return *n.data
}

// Path returns the string encoding of the node's ancestry chain, e.g.
// "/0/3/17". A node's path strictly extends its parent's path, which is
// what makes descendant tests a prefix check instead of a tree walk.
func (n *Node[T]) Path() string { return n.path }

// IsDescendantOf reports whether n sits somewhere below other, decided by
// the path prefix relation.
func (n *Node[T]) IsDescendantOf(other *Node[T]) bool {
	return strings.HasPrefix(n.path, other.path+"/")
}

func (n *Node[T]) String() string {
	return fmt.Sprintf("node(%d %q depth=%d)", n.id, n.name, n.depth)
}

// pathUnder derives the path a node has when linked under parent.
func pathUnder[T comparable](parent *Node[T], id ID) string {
	return parent.path + "/" + strconv.FormatInt(int64(id), 10)
}
