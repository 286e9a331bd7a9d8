// Package ui renders a tree's visible projection in a terminal list
// widget. The widget owns navigation and display; every structural
// question (what is visible, what survives a refresh) is answered by
// the tree core.
package ui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/kestrelui/canopy/pkg/analysis"
	"github.com/kestrelui/canopy/pkg/tree"
)

// RefreshedMsg reports a completed asynchronous reconciliation.
type RefreshedMsg struct {
	ID  tree.ID
	Err error
}

// TreeChangedMsg tells the model that the underlying data source
// changed (for example a watcher fired) and the expanded frontier
// should be re-reconciled. Senders use Program.Send.
type TreeChangedMsg struct{}

type detailMsg struct {
	content string
	err     error
}

// Option configures a Model.
type Option[T comparable] func(*Model[T])

// WithClipboardText sets the text copied for a node; the default is the
// node's display name.
func WithClipboardText[T comparable](fn func(*tree.Node[T]) string) Option[T] {
	return func(m *Model[T]) { m.clipText = fn }
}

// WithDetail enables the detail overlay on leaves: fn returns markdown
// for a node, rendered when the user opens it.
func WithDetail[T comparable](fn func(*tree.Node[T]) (string, error)) Option[T] {
	return func(m *Model[T]) { m.detailFn = fn }
}

// Model is the bubbletea model over one tree.
type Model[T comparable] struct {
	tr    *tree.Tree[T]
	guard *tree.Guard[T]

	list      list.Model
	filter    textinput.Model
	filtering bool
	query     string

	help   HelpOverlay
	detail DetailOverlay

	clipText func(*tree.Node[T]) string
	detailFn func(*tree.Node[T]) (string, error)

	marked *tree.Node[T]
	status string
	errmsg string

	width  int
	height int
}

// NewModel wraps a tree. The tree's root should already be expanded;
// Init issues the first reconciliation.
func NewModel[T comparable](tr *tree.Tree[T], opts ...Option[T]) Model[T] {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.PromptStyle = FilterPromptStyle
	filter.Placeholder = "filter"

	l := list.New(nil, NodeDelegate[T]{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	m := Model[T]{
		tr:       tr,
		guard:    tree.NewGuard(tr),
		list:     l,
		filter:   filter,
		help:     NewHelpOverlay(),
		detail:   NewDetailOverlay(),
		clipText: func(n *tree.Node[T]) string { return n.Name() },
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init kicks off the initial reconciliation of the expanded frontier.
func (m Model[T]) Init() tea.Cmd {
	return m.refreshAllCmd()
}

func (m Model[T]) refreshCmd(n *tree.Node[T]) tea.Cmd {
	return func() tea.Msg {
		_, err := m.guard.Refresh(context.Background(), n)
		return RefreshedMsg{ID: n.ID(), Err: err}
	}
}

func (m Model[T]) refreshAllCmd() tea.Cmd {
	root := m.tr.Root()
	return func() tea.Msg {
		err := m.guard.RefreshSubtree(context.Background(), root, true)
		return RefreshedMsg{ID: root.ID(), Err: err}
	}
}

func (m Model[T]) detailCmd(n *tree.Node[T]) tea.Cmd {
	fn := m.detailFn
	return func() tea.Msg {
		content, err := fn(n)
		return detailMsg{content: content, err: err}
	}
}

// current returns the node under the cursor.
func (m *Model[T]) current() *tree.Node[T] {
	item, ok := m.list.SelectedItem().(NodeItem[T])
	if !ok {
		return nil
	}
	return item.Node
}

// reload rebuilds the list items from the visible projection, applying
// the fuzzy filter when a query is active.
func (m *Model[T]) reload() {
	visible := m.tr.VisibleNodes()

	if m.query != "" {
		names := make([]string, len(visible))
		for i, n := range visible {
			names[i] = n.Name()
		}
		matched := make(map[int]bool)
		for _, match := range fuzzy.Find(m.query, names) {
			matched[match.Index] = true
		}
		kept := visible[:0]
		for i, n := range visible {
			if matched[i] {
				kept = append(kept, n)
			}
		}
		visible = kept
	}

	baseDepth := 0
	if len(visible) > 0 {
		baseDepth = visible[0].Depth()
		for _, n := range visible {
			if n.Depth() < baseDepth {
				baseDepth = n.Depth()
			}
		}
	}

	items := make([]list.Item, len(visible))
	for i, n := range visible {
		items[i] = NodeItem[T]{Node: n}
	}
	delegate := NodeDelegate[T]{BaseDepth: baseDepth}
	if m.marked != nil {
		delegate.MarkedID = m.marked.ID()
		delegate.HasMark = true
	}
	m.list.SetDelegate(delegate)
	m.list.SetItems(items)
}

func (m Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		m.filter.Width = msg.Width - 4
		m.detail.SetSize(msg.Width, msg.Height)
		return m, nil

	case RefreshedMsg:
		if msg.Err != nil {
			m.errmsg = msg.Err.Error()
		} else {
			m.errmsg = ""
		}
		m.reload()
		return m, nil

	case TreeChangedMsg:
		return m, m.refreshAllCmd()

	case detailMsg:
		if msg.err != nil {
			m.errmsg = msg.err.Error()
			return m, nil
		}
		if err := m.detail.Show(msg.content); err != nil {
			m.errmsg = err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.help.Visible() {
			m.help.Hide()
			return m, nil
		}
		if m.detail.Visible() {
			if msg.String() == "esc" || msg.String() == "q" {
				m.detail.Hide()
				return m, nil
			}
			m.detail.Update(msg)
			return m, nil
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model[T]) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.query = ""
		m.filter.SetValue("")
		m.filter.Blur()
		m.reload()
		return m, nil
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.query = m.filter.Value()
	m.reload()
	return m, cmd
}

func (m Model[T]) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.help.Show()
		return m, nil

	case "/":
		m.filtering = true
		return m, m.filter.Focus()

	case "esc":
		if m.marked != nil {
			m.marked = nil
			m.status = ""
			m.reload()
			return m, nil
		}
		if m.query != "" {
			m.query = ""
			m.filter.SetValue("")
			m.reload()
		}
		return m, nil

	case "enter", " ":
		n := m.current()
		if n == nil {
			return m, nil
		}
		if !n.IsBranch() {
			if m.detailFn != nil {
				return m, m.detailCmd(n)
			}
			return m, nil
		}
		if n.Expanded() {
			n.SetExpanded(false)
			m.reload()
			return m, nil
		}
		n.SetExpanded(true)
		if !n.HasChild() {
			return m, m.refreshCmd(n)
		}
		m.reload()
		return m, nil

	case "r":
		if n := m.current(); n != nil && n.IsBranch() {
			m.status = fmt.Sprintf("refreshing %s", n.Name())
			return m, m.refreshCmd(n)
		}
		return m, nil

	case "R":
		m.status = "refreshing expanded branches"
		return m, m.refreshAllCmd()

	case "s":
		if n := m.current(); n != nil {
			changed := m.tr.Select(n, !n.Selected())
			m.status = fmt.Sprintf("%d node(s) toggled", changed)
			m.reload()
		}
		return m, nil

	case "c":
		cleared := m.tr.ClearSelection()
		m.status = fmt.Sprintf("cleared %d selection(s)", cleared)
		m.reload()
		return m, nil

	case "m":
		if n := m.current(); n != nil {
			m.marked = n
			m.status = fmt.Sprintf("marked %s; press M on the target", n.Name())
			m.reload()
		}
		return m, nil

	case "M":
		if m.marked == nil {
			m.status = "nothing marked; press m on the source first"
			return m, nil
		}
		n := m.current()
		if n == nil {
			return m, nil
		}
		if m.tr.Move(m.marked, n) {
			m.status = fmt.Sprintf("moved %s", m.marked.Name())
		} else {
			m.status = "move rejected"
		}
		m.marked = nil
		m.reload()
		return m, nil

	case "y":
		if n := m.current(); n != nil {
			if err := clipboard.WriteAll(m.clipText(n)); err != nil {
				m.errmsg = fmt.Sprintf("clipboard: %v", err)
			} else {
				m.status = "copied"
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model[T]) View() string {
	if m.help.Visible() {
		return m.help.View(m.width, m.height)
	}
	if m.detail.Visible() {
		return m.detail.View()
	}

	statusLine := StatusStyle.Render(analysis.Measure(m.tr).Summary())
	if m.status != "" {
		statusLine += StatusStyle.Render(" · ") + StatusStyle.Render(m.status)
	}
	if m.errmsg != "" {
		statusLine += "  " + ErrorStyle.Render(m.errmsg)
	}

	bottom := statusLine
	if m.filtering || m.query != "" {
		bottom = m.filter.View() + "\n" + statusLine
	}
	return m.list.View() + "\n" + bottom
}
