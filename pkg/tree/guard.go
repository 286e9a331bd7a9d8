package tree

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Guard serializes refreshes of a tree. The tree itself gives no
// cross-call guarantee: overlapping Refresh calls mutate the shared
// store unsynchronized. Callers whose events can overlap (rapid UI
// events, a file watcher firing during a manual refresh) route every
// refresh through one Guard: calls run one at a time, and concurrent
// calls for the same node additionally collapse into a single fetch
// whose result is shared.
//
// The guard only covers the methods it exposes. Reads and mutations
// made directly on the tree are safe only from the same task that is
// issuing the guarded refreshes.
type Guard[T comparable] struct {
	tree  *Tree[T]
	mu    sync.Mutex
	group singleflight.Group
}

// NewGuard wraps the tree with a refresh guard.
func NewGuard[T comparable](t *Tree[T]) *Guard[T] {
	return &Guard[T]{tree: t}
}

// Refresh behaves like Tree.Refresh. Concurrent calls for the same node
// share one underlying reconciliation; calls for distinct nodes run one
// after the other.
func (g *Guard[T]) Refresh(ctx context.Context, n *Node[T]) ([]*Node[T], error) {
	key := strconv.FormatInt(int64(n.ID()), 10)
	v, err, _ := g.group.Do(key, func() (any, error) {
		g.mu.Lock()
		defer g.mu.Unlock()
		kids, err := g.tree.Refresh(ctx, n)
		return kids, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Node[T]), nil
}

// RefreshSubtree behaves like Tree.RefreshSubtree under the same lock as
// Refresh, so a subtree warm-up cannot interleave with a single-node
// refresh.
func (g *Guard[T]) RefreshSubtree(ctx context.Context, n *Node[T], onlyExpanded bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tree.RefreshSubtree(ctx, n, onlyExpanded)
}

// Tree returns the guarded tree for everything other than refreshing.
func (g *Guard[T]) Tree() *Tree[T] {
	return g.tree
}
