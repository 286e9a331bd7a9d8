// Package fsgen generates tree nodes from a directory hierarchy.
// Directories are branches, files are leaves, and a refresh of a branch
// re-reads the directory so nodes for unchanged entries survive with
// their expand and selection state intact.
package fsgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kestrelui/canopy/pkg/tree"
)

// Entry is the payload of a filesystem node. The absolute path makes
// payload equality stable across refreshes: an entry that is still on
// disk reconciles onto the same node.
type Entry struct {
	Path string
	Dir  bool
}

// Name returns the entry's base name.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// Generator serves directory listings through the tree.Generator
// contract.
type Generator struct {
	root   string
	alloc  *tree.Allocator
	hidden bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithHidden includes dot-files in listings.
func WithHidden() Option {
	return func(g *Generator) { g.hidden = true }
}

// New returns a generator rooted at the given directory, drawing ids
// from alloc. The same allocator must be passed to tree.New.
func New(root string, alloc *tree.Allocator, opts ...Option) (*Generator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", abs)
	}
	g := &Generator{root: abs, alloc: alloc}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Root returns the absolute root directory.
func (g *Generator) Root() string {
	return g.root
}

// CreateRootNode makes the root directory itself the visible, expanded
// root of the tree.
func (g *Generator) CreateRootNode() *tree.Node[Entry] {
	n := tree.NewNode(tree.RootID, Entry{Path: g.root, Dir: true}, filepath.Base(g.root), 0, true)
	n.SetExpanded(true)
	return n
}

// FetchChildren lists the directory behind n. Entries come back
// directories first, each group sorted by name, which fixes sibling
// creation order on the first fetch of a directory.
func (g *Generator) FetchChildren(ctx context.Context, n *tree.Node[Entry]) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := g.root
	if n.HasData() {
		dir = n.Data().Path
	}

	listed, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(listed))
	for _, e := range listed {
		if !g.hidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		entries = append(entries, Entry{
			Path: filepath.Join(dir, e.Name()),
			Dir:  e.IsDir(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Dir != entries[j].Dir {
			return entries[i].Dir
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// CreateNode wraps a directory entry in a node.
func (g *Generator) CreateNode(parent *tree.Node[Entry], data Entry) *tree.Node[Entry] {
	return tree.NewChildNode(g.alloc, parent, data, data.Name(), data.Dir)
}
