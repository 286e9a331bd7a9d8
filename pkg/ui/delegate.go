package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/kestrelui/canopy/pkg/tree"
)

// NodeDelegate renders one visible node per row: indentation by depth,
// an expand glyph for branches, a check mark for selected nodes.
type NodeDelegate[T comparable] struct {
	// BaseDepth is subtracted from every node's depth, so a visible
	// (depth 0) root does not waste an indent level on itself.
	BaseDepth int
	// MarkedID highlights the node marked as a move source.
	MarkedID tree.ID
	// HasMark tells the delegate whether MarkedID is meaningful, since
	// the root id is a valid id.
	HasMark bool
}

func (d NodeDelegate[T]) Height() int  { return 1 }
func (d NodeDelegate[T]) Spacing() int { return 0 }

func (d NodeDelegate[T]) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Glyph returns the expand marker for a node.
func Glyph[T comparable](n *tree.Node[T]) string {
	switch {
	case !n.IsBranch():
		return " "
	case n.Expanded():
		return "▾"
	default:
		return "▸"
	}
}

func (d NodeDelegate[T]) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(NodeItem[T])
	if !ok {
		return
	}
	n := item.Node

	depth := n.Depth() - d.BaseDepth
	if depth < 0 {
		depth = 0
	}
	indent := strings.Repeat("  ", depth)

	check := "  "
	if n.Selected() {
		check = CheckStyle.Render("✓ ")
	}

	name := n.Name()
	avail := m.Width() - len(indent) - 6
	if avail < 8 {
		avail = 8
	}
	name = runewidth.Truncate(name, avail, "…")

	style := ItemStyle
	switch {
	case index == m.Index():
		style = SelectedItemStyle
	case d.HasMark && n.ID() == d.MarkedID:
		style = MarkedStyle
	case n.IsBranch():
		style = BranchStyle
	}

	line := fmt.Sprintf("%s%s%s %s", check, indent, Glyph(n), style.Render(name))
	if index == m.Index() {
		line = SelectedItemStyle.Render("› ") + line
	} else {
		line = "  " + line
	}
	fmt.Fprint(w, line)
}
