package ui

import "github.com/kestrelui/canopy/pkg/tree"

// NodeItem wraps a tree node to implement list.Item.
type NodeItem[T comparable] struct {
	Node *tree.Node[T]
}

// FilterValue feeds the fuzzy filter with the node's display name.
func (i NodeItem[T]) FilterValue() string {
	return i.Node.Name()
}
