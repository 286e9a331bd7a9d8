// Package builder lets a caller describe a small branch/leaf data source
// declaratively instead of writing a custom generator. It is sugar over
// the tree.Generator contract: the specs compile into a generator the
// tree fetches from like any other.
package builder

import (
	"context"
	"fmt"

	"github.com/kestrelui/canopy/pkg/tree"
)

// Spec describes one node of a declarative data source. Payloads must be
// distinct across the whole description, since the generator finds a
// node's spec by payload value.
type Spec[T comparable] struct {
	Data     T
	Name     string
	Branch   bool
	Children []Spec[T]
	// Fetch lazily materializes a branch's children. It is consulted on
	// every reconciliation of the branch, so it may return different
	// children over time.
	Fetch func(ctx context.Context) ([]Spec[T], error)
}

// Leaf describes a childless node.
func Leaf[T comparable](data T, name string) Spec[T] {
	return Spec[T]{Data: data, Name: name}
}

// Branch describes a node with a fixed set of children.
func Branch[T comparable](data T, name string, children ...Spec[T]) Spec[T] {
	return Spec[T]{Data: data, Name: name, Branch: true, Children: children}
}

// LazyBranch describes a node whose children are produced on demand.
func LazyBranch[T comparable](data T, name string, fetch func(ctx context.Context) ([]Spec[T], error)) Spec[T] {
	return Spec[T]{Data: data, Name: name, Branch: true, Fetch: fetch}
}

// Generator serves a declarative description through the tree.Generator
// contract. Construct one with New and hand it, with the same allocator,
// to tree.New.
type Generator[T comparable] struct {
	alloc *tree.Allocator
	roots []Spec[T]
	specs map[T]Spec[T]
}

// New compiles top-level specs into a generator backed by alloc.
func New[T comparable](alloc *tree.Allocator, roots ...Spec[T]) *Generator[T] {
	g := &Generator[T]{
		alloc: alloc,
		roots: roots,
		specs: make(map[T]Spec[T]),
	}
	g.register(roots)
	return g
}

func (g *Generator[T]) register(specs []Spec[T]) {
	for _, s := range specs {
		g.specs[s.Data] = s
		g.register(s.Children)
	}
}

// FetchChildren serves the described children of n. The hidden root maps
// to the top-level specs.
func (g *Generator[T]) FetchChildren(ctx context.Context, n *tree.Node[T]) ([]T, error) {
	var children []Spec[T]
	switch {
	case !n.HasData():
		children = g.roots
	default:
		spec, ok := g.specs[n.Data()]
		if !ok {
			return nil, nil
		}
		if spec.Fetch != nil {
			fetched, err := spec.Fetch(ctx)
			if err != nil {
				return nil, fmt.Errorf("materialize %q: %w", spec.Name, err)
			}
			g.register(fetched)
			children = fetched
		} else {
			children = spec.Children
		}
	}

	payloads := make([]T, len(children))
	for i, c := range children {
		payloads[i] = c.Data
	}
	return payloads, nil
}

// ConfirmMove re-parents src's spec in the description so the move
// survives later reconciliations. Moves into a lazily fetched branch
// are refused, since that branch's children come from its own source.
func (g *Generator[T]) ConfirmMove(src, dst *tree.Node[T]) bool {
	if !src.HasData() {
		return false
	}
	if dst.HasData() && dst.IsBranch() {
		spec, ok := g.specs[dst.Data()]
		if !ok || spec.Fetch != nil {
			return false
		}
	}
	moved, ok := g.detach(src.Data())
	if !ok {
		return false
	}
	return g.attach(moved, dst)
}

// detach removes data's spec from its current parent and returns it.
func (g *Generator[T]) detach(data T) (Spec[T], bool) {
	for i, s := range g.roots {
		if s.Data == data {
			g.roots = append(g.roots[:i:i], g.roots[i+1:]...)
			return s, true
		}
	}
	for key, parent := range g.specs {
		for i, s := range parent.Children {
			if s.Data == data {
				parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
				g.specs[key] = parent
				return s, true
			}
		}
	}
	return Spec[T]{}, false
}

// attach inserts moved under a branch dst, or next to a leaf dst.
func (g *Generator[T]) attach(moved Spec[T], dst *tree.Node[T]) bool {
	if !dst.HasData() {
		g.roots = append(g.roots, moved)
		return true
	}
	target := dst.Data()
	if dst.IsBranch() {
		spec, ok := g.specs[target]
		if !ok {
			return false
		}
		spec.Children = append(spec.Children, moved)
		g.specs[target] = spec
		return true
	}
	for i, s := range g.roots {
		if s.Data == target {
			rest := append([]Spec[T]{moved}, g.roots[i+1:]...)
			g.roots = append(g.roots[:i+1:i+1], rest...)
			return true
		}
	}
	for key, parent := range g.specs {
		for i, s := range parent.Children {
			if s.Data == target {
				rest := append([]Spec[T]{moved}, parent.Children[i+1:]...)
				parent.Children = append(parent.Children[:i+1:i+1], rest...)
				g.specs[key] = parent
				return true
			}
		}
	}
	return false
}

// CreateNode wraps a payload in a node, using the spec's name and branch
// flag.
func (g *Generator[T]) CreateNode(parent *tree.Node[T], data T) *tree.Node[T] {
	name := fmt.Sprint(data)
	branch := false
	if spec, ok := g.specs[data]; ok {
		if spec.Name != "" {
			name = spec.Name
		}
		branch = spec.Branch
	}
	return tree.NewChildNode(g.alloc, parent, data, name, branch)
}
