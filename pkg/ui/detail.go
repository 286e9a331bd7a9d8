package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// DetailOverlay renders a node's markdown detail in a scrollable
// viewport over the list.
type DetailOverlay struct {
	visible bool
	vp      viewport.Model
	width   int
	height  int
}

// NewDetailOverlay returns a hidden overlay.
func NewDetailOverlay() DetailOverlay {
	return DetailOverlay{vp: viewport.New(0, 0)}
}

// SetSize resizes the overlay.
func (d *DetailOverlay) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.vp.Width = width
	d.vp.Height = height - 1
}

// Show renders the markdown and makes the overlay visible.
func (d *DetailOverlay) Show(markdown string) error {
	wrap := d.width - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	d.vp.SetContent(out)
	d.vp.GotoTop()
	d.visible = true
	return nil
}

// Hide closes the overlay.
func (d *DetailOverlay) Hide() { d.visible = false }

// Visible reports whether the overlay is showing.
func (d DetailOverlay) Visible() bool { return d.visible }

// Update forwards scroll keys to the viewport.
func (d *DetailOverlay) Update(msg tea.Msg) {
	d.vp, _ = d.vp.Update(msg)
}

// View renders the overlay.
func (d DetailOverlay) View() string {
	return d.vp.View() + "\n" + StatusStyle.Render("esc to close · ↑/↓ to scroll")
}
