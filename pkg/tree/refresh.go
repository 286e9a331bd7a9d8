package tree

import (
	"context"
	"fmt"
)

// Refresh reconciles n's cached children against a fresh fetch from the
// generator. n must be a branch node.
//
// This is a diff-merge, not a wholesale replace: a cached child whose
// payload is still present (by value equality) among the fetched
// payloads is retained as the same object, keeping its id, expand and
// selection state; a cached child with no matching payload is removed
// from the store together with its cached subtree; every fetched payload
// with no matching cached child becomes a brand-new node. The adjacency
// entry is replaced in one step after the fetch has succeeded, so a
// fetch error or an abandoned fetch leaves the tree exactly as it
// was.
//
// The retained children's depth and path are re-derived from n, which is
// also what heals the stale depths left behind by Move once the moved
// subtree is reconciled again.
func (t *Tree[T]) Refresh(ctx context.Context, n *Node[T]) ([]*Node[T], error) {
	if !n.branch {
		panic(fmt.Sprintf("tree: refresh of leaf %v", n))
	}

	cached := t.children[n.id]
	fetched, err := t.gen.FetchChildren(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("fetch children of %q: %w", n.name, err)
	}

	if len(fetched) == 0 {
		for _, cid := range cached {
			t.evictSubtree(cid)
		}
		delete(t.children, n.id)
		n.hasChild = false
		return nil, nil
	}

	// Match cached children against the fetched payload pool. Each
	// payload can satisfy at most one cached child, so duplicates in the
	// fetched set keep their multiplicity.
	used := make([]bool, len(fetched))
	var retained []*Node[T]
	for _, cid := range cached {
		child := t.nodes[cid]
		matched := false
		if child.data != nil {
			for i, data := range fetched {
				if !used[i] && data == *child.data {
					used[i] = true
					matched = true
					break
				}
			}
		}
		if matched {
			retained = append(retained, child)
		} else {
			t.evictSubtree(cid)
		}
	}

	final := retained
	for i, data := range fetched {
		if used[i] {
			continue
		}
		child := t.gen.CreateNode(n, data)
		final = append(final, child)
	}

	ids := make([]ID, len(final))
	for i, child := range final {
		child.depth = n.depth + 1
		t.link(n, child)
		ids[i] = child.id
	}
	t.setChildren(n, ids)
	return t.Children(n), nil
}

// RefreshSubtree eagerly warms the cache below n, breadth-first,
// reconciling every branch it reaches. When onlyExpanded is true the
// walk stops at collapsed branches, warming the cache exactly down to
// the currently-expanded frontier.
func (t *Tree[T]) RefreshSubtree(ctx context.Context, n *Node[T], onlyExpanded bool) error {
	if !n.branch {
		return nil
	}
	queue := []*Node[T]{n}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		kids, err := t.Refresh(ctx, next)
		if err != nil {
			return err
		}
		for _, kid := range kids {
			if !kid.branch {
				continue
			}
			if onlyExpanded && !kid.expand {
				continue
			}
			queue = append(queue, kid)
		}
	}
	return nil
}
