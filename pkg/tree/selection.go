package tree

import "sort"

// SelectionMode is the selection policy a Tree applies in Select. The
// caller picks it at construction; the tree never changes it.
type SelectionMode int

const (
	// SelectionNone disallows selection entirely; Select is a no-op.
	SelectionNone SelectionMode = iota
	// SelectionSingle keeps at most one node selected; selecting a node
	// first deselects whichever other node was selected.
	SelectionSingle
	// SelectionMulti allows any number of independently selected nodes.
	SelectionMulti
	// SelectionMultiCascade is SelectionMulti plus cascading: selecting
	// or deselecting a branch applies the same state to every
	// currently-cached descendant.
	SelectionMultiCascade
)

// Select sets n's selection state under the tree's policy and returns
// the number of nodes whose state the call changed.
//
// Cascading touches only descendants already materialized in the
// adjacency cache. It deliberately does not fetch: one click must not
// turn into an unbounded fetch storm over an uncached subtree. A leaf
// cascades to nothing, since leaves have no children by definition.
func (t *Tree[T]) Select(n *Node[T], selected bool) int {
	switch t.mode {
	case SelectionNone:
		return 0
	case SelectionSingle:
		changed := 0
		if selected && t.lastSelected != noSelection && t.lastSelected != n.id {
			if prev, ok := t.nodes[t.lastSelected]; ok && prev.selected {
				prev.selected = false
				changed++
			}
		}
		if n.selected != selected {
			n.selected = selected
			changed++
		}
		if selected {
			t.lastSelected = n.id
		} else if t.lastSelected == n.id {
			t.lastSelected = noSelection
		}
		return changed
	case SelectionMultiCascade:
		return t.cascade(n, selected)
	default: // SelectionMulti
		if n.selected == selected {
			return 0
		}
		n.selected = selected
		return 1
	}
}

func (t *Tree[T]) cascade(n *Node[T], selected bool) int {
	changed := 0
	if n.selected != selected {
		n.selected = selected
		changed++
	}
	for _, cid := range t.children[n.id] {
		changed += t.cascade(t.nodes[cid], selected)
	}
	return changed
}

// SelectedNodes returns every selected node in id order.
func (t *Tree[T]) SelectedNodes() []*Node[T] {
	var out []*Node[T]
	for _, n := range t.nodes {
		if n.selected {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// ClearSelection deselects every node and returns how many were
// selected.
func (t *Tree[T]) ClearSelection() int {
	cleared := 0
	for _, n := range t.nodes {
		if n.selected {
			n.selected = false
			cleared++
		}
	}
	t.lastSelected = noSelection
	return cleared
}
