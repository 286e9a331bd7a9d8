package tree

import "context"

// Generator is the data-fetching collaborator a Tree calls into. The
// tree never knows how or when child data is produced; it only asks the
// generator for the current children of a node and for node objects
// wrapping fresh payloads.
//
// Implementations must draw ids from the same Allocator the tree was
// constructed with (NewChildNode does this correctly) and must assign
// each created node a depth of parent depth + 1.
type Generator[T comparable] interface {
	// FetchChildren returns the current payloads under n. It may block
	// on I/O; the context carries cancellation for that I/O only. An
	// abandoned fetch leaves the tree exactly as it was, since the tree
	// mutates nothing until a fetch has succeeded.
	FetchChildren(ctx context.Context, n *Node[T]) ([]T, error)

	// CreateNode constructs a brand-new node for a payload that had no
	// matching cached child after a fetch.
	CreateNode(parent *Node[T], data T) *Node[T]
}

// RootProvider is implemented by generators that want to supply their
// own root node. Whatever id the generator assigns, the tree forces the
// root onto RootID. Returning nil falls back to the tree's default
// hidden synthetic root.
type RootProvider[T comparable] interface {
	CreateRootNode() *Node[T]
}

// MoveConfirmer is implemented by generators that want to veto or react
// to a reparenting. When absent, every move is accepted.
type MoveConfirmer[T comparable] interface {
	ConfirmMove(src, dst *Node[T]) bool
}
