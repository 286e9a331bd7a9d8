package tree

// Move reparents src onto dst and reports whether the move happened.
// Rejections (moving the root, moving a node into its own subtree, or a
// generator veto via MoveConfirmer) are expected outcomes of user-driven
// gestures, so they come back as false rather than an error and leave
// the tree unchanged.
//
// A branch target adopts src as its child; a leaf target gains src as a
// sibling, at the leaf's own depth. Only src itself gets its depth and
// path rewritten: descendants keep stale values until their subtree is
// next reconciled, at which point Refresh re-derives them.
func (t *Tree[T]) Move(src, dst *Node[T]) bool {
	if src.id == RootID || src == dst {
		return false
	}
	// Path prefix relation, no tree walk.
	if dst.IsDescendantOf(src) {
		return false
	}

	parent := dst
	depth := dst.depth + 1
	if !dst.branch {
		parent = t.parentOf(dst.id)
		depth = dst.depth
	}
	if parent == nil || parent == src {
		return false
	}

	if mc, ok := t.gen.(MoveConfirmer[T]); ok && !mc.ConfirmMove(src, dst) {
		return false
	}

	if old := t.parentOf(src.id); old != nil {
		ids := t.children[old.id]
		kept := ids[:0]
		for _, id := range ids {
			if id != src.id {
				kept = append(kept, id)
			}
		}
		t.setChildren(old, kept)
	}

	src.depth = depth
	t.link(parent, src)
	t.setChildren(parent, append(t.children[parent.id], src.id))
	return true
}
