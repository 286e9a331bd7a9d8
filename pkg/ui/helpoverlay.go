package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpOverlay shows the keyboard shortcuts.
type HelpOverlay struct {
	visible bool
}

// NewHelpOverlay returns a hidden overlay.
func NewHelpOverlay() HelpOverlay {
	return HelpOverlay{}
}

// Show makes the overlay visible.
func (h *HelpOverlay) Show() { h.visible = true }

// Hide makes the overlay invisible.
func (h *HelpOverlay) Hide() { h.visible = false }

// Visible reports whether the overlay is showing.
func (h HelpOverlay) Visible() bool { return h.visible }

// View renders the overlay centered in the given area.
func (h HelpOverlay) View(width, height int) string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	section := lipgloss.NewStyle().Bold(true).Foreground(ColorMuted)
	key := lipgloss.NewStyle().Foreground(ColorPrimary).Width(10)
	desc := lipgloss.NewStyle().Foreground(ColorSubtext)

	b.WriteString(title.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	groups := []struct {
		name string
		keys [][2]string
	}{
		{"NAVIGATE", [][2]string{
			{"j/↓ k/↑", "move"},
			{"enter/⎵", "expand, collapse or open"},
			{"/", "fuzzy filter visible nodes"},
		}},
		{"TREE", [][2]string{
			{"r", "refresh branch"},
			{"R", "refresh all expanded branches"},
			{"s", "toggle selection"},
			{"c", "clear selection"},
			{"m", "mark node for move"},
			{"M", "move marked node here"},
			{"y", "copy node to clipboard"},
		}},
		{"OTHER", [][2]string{
			{"?", "toggle this help"},
			{"q", "quit"},
		}},
	}
	for _, g := range groups {
		b.WriteString(section.Render(g.name) + "\n")
		for _, k := range g.keys {
			b.WriteString("  " + key.Render(k[0]) + desc.Render(k[1]) + "\n")
		}
		b.WriteString("\n")
	}

	box := OverlayStyle.Render(strings.TrimRight(b.String(), "\n"))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
