// Package analysis computes shape metrics over a materialized tree:
// how many nodes are cached, how deep the tree goes, and how bushy its
// branches are. The TUI status line and the export summary use these.
package analysis

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kestrelui/canopy/pkg/tree"
)

// Shape describes the cached tree at one point in time. Branching
// statistics are taken over reconciled branches only; a branch whose
// children were never fetched says nothing about its fan-out.
type Shape struct {
	Nodes    int // all cached nodes, hidden root excluded
	Branches int
	Leaves   int
	Visible  int // nodes in the expanded projection
	MaxDepth int

	MeanBranching   float64
	StdDevBranching float64
	P90Branching    float64
}

// Measure walks the cached tree and returns its shape. It never fetches.
func Measure[T comparable](tr *tree.Tree[T]) Shape {
	var s Shape
	var factors []float64

	_ = tr.Visit(context.Background(), tree.Visitor[T]{
		Branch: func(n *tree.Node[T]) bool {
			if n.Depth() >= 0 {
				s.Nodes++
				s.Branches++
				if n.Depth() > s.MaxDepth {
					s.MaxDepth = n.Depth()
				}
			}
			if n.HasChild() {
				factors = append(factors, float64(len(tr.Children(n))))
			}
			return true
		},
		Leaf: func(n *tree.Node[T]) {
			s.Nodes++
			s.Leaves++
			if n.Depth() > s.MaxDepth {
				s.MaxDepth = n.Depth()
			}
		},
	}, true)

	s.Visible = len(tr.VisibleNodes())

	if len(factors) > 0 {
		s.MeanBranching = stat.Mean(factors, nil)
		if len(factors) > 1 {
			s.StdDevBranching = stat.StdDev(factors, nil)
		}
		sort.Float64s(factors)
		s.P90Branching = stat.Quantile(0.9, stat.Empirical, factors, nil)
	}
	return s
}

// Summary renders the shape as a one-line status string.
func (s Shape) Summary() string {
	return fmt.Sprintf("%d nodes (%d dirs, %d leaves) · depth %d · fan-out %.1f avg",
		s.Nodes, s.Branches, s.Leaves, s.MaxDepth, s.MeanBranching)
}
