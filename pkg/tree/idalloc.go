package tree

import "sync/atomic"

// Allocator issues unique node ids. It is safe for concurrent use and
// never reuses a value for the lifetime of the process. The zero id is
// reserved for tree roots, so the first NextID call returns 1.
//
// An Allocator is owned explicitly: the caller constructs one and hands
// it to the tree and to every generator that creates nodes for that
// tree. Sharing one allocator across several trees is fine and keeps
// ids unique across all of them.
type Allocator struct {
	last atomic.Int64
}

// NewAllocator returns an allocator whose first NextID is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// NextID returns the next unused id, monotonically increasing.
func (a *Allocator) NextID() ID {
	return ID(a.last.Add(1))
}
