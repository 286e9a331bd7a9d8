package tree

import "context"

// Visitor receives nodes during a Visit walk. Either callback may be
// nil. Branch decides whether to descend below the node; callers that
// want the visible projection return the node's expand flag.
type Visitor[T comparable] struct {
	Branch func(n *Node[T]) bool
	Leaf   func(n *Node[T])
}

// Visit walks the tree from the root in pre-order, siblings in creation
// order, each subtree fully visited before the next sibling.
//
// With useCache true, children come straight from the adjacency cache
// and the walk never fetches. With useCache false, every branch the walk
// descends into is reconciled first, which lazily populates the tree on
// the way down and may suspend on generator I/O.
func (t *Tree[T]) Visit(ctx context.Context, v Visitor[T], useCache bool) error {
	stack := []*Node[T]{t.Root()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.branch {
			if v.Leaf != nil {
				v.Leaf(n)
			}
			continue
		}

		descend := true
		if v.Branch != nil {
			descend = v.Branch(n)
		}
		if !descend {
			continue
		}

		var kids []*Node[T]
		if useCache {
			kids = t.Children(n)
		} else {
			var err error
			kids, err = t.Refresh(ctx, n)
			if err != nil {
				return err
			}
		}
		// Pushed in reverse so the stack pops them in sibling order.
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return nil
}

// Flatten produces the ordered list of visible nodes: a pre-order walk
// collecting every node with non-negative depth, so a synthetic hidden
// root never appears. With onlyExpanded true the walk does not descend
// into collapsed branches, which is the projection a list widget renders;
// with onlyExpanded false the whole cached (or, with useCache false,
// freshly reconciled) tree is flattened.
func (t *Tree[T]) Flatten(ctx context.Context, onlyExpanded, useCache bool) ([]*Node[T], error) {
	var out []*Node[T]
	add := func(n *Node[T]) {
		if n.depth >= 0 {
			out = append(out, n)
		}
	}
	err := t.Visit(ctx, Visitor[T]{
		Branch: func(n *Node[T]) bool {
			add(n)
			if onlyExpanded {
				return n.expand
			}
			return true
		},
		Leaf: add,
	}, useCache)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VisibleNodes is the projection a list widget renders between
// mutations: only expanded subtrees, served entirely from the cache.
func (t *Tree[T]) VisibleNodes() []*Node[T] {
	out, _ := t.Flatten(context.Background(), true, true)
	return out
}
