// Package export renders structure snapshots of a tree's visible
// projection: SVG and PNG images, a plain-text outline, and a small
// HTML bundle the preview server can serve.
package export

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/kestrelui/canopy/pkg/tree"
)

// row is one line of the rendered projection.
type row struct {
	name     string
	depth    int
	branch   bool
	expanded bool
	selected bool
}

func rowsOf[T comparable](tr *tree.Tree[T]) []row {
	nodes := tr.VisibleNodes()
	rows := make([]row, len(nodes))
	for i, n := range nodes {
		rows[i] = row{
			name:     n.Name(),
			depth:    n.Depth(),
			branch:   n.IsBranch(),
			expanded: n.Expanded(),
			selected: n.Selected(),
		}
	}
	return rows
}

func glyph(r row) string {
	switch {
	case !r.branch:
		return "·"
	case r.expanded:
		return "▾"
	default:
		return "▸"
	}
}

// Layout constants for the image renderers.
const (
	rowHeight = 18
	indent    = 16
	charWidth = 8
	padding   = 12
)

func imageSize(rows []row) (w, h int) {
	maxLine := 20
	for _, r := range rows {
		line := r.depth*2 + len([]rune(r.name)) + 2
		if line > maxLine {
			maxLine = line
		}
	}
	return maxLine*charWidth + 2*padding, len(rows)*rowHeight + 2*padding
}

// WriteSVG renders the visible projection as an SVG document.
func WriteSVG[T comparable](w io.Writer, tr *tree.Tree[T]) error {
	rows := rowsOf(tr)
	width, height := imageSize(rows)

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#282a36")
	for i, r := range rows {
		y := padding + (i+1)*rowHeight - 5
		x := padding + r.depth*indent
		if r.selected {
			canvas.Rect(padding/2, padding+i*rowHeight, width-padding, rowHeight, "fill:#44475a")
		}
		fill := "#f8f8f2"
		if r.branch {
			fill = "#8be9fd"
		}
		canvas.Text(x, y, fmt.Sprintf("%s %s", glyph(r), r.name),
			fmt.Sprintf("font-family:monospace;font-size:13px;fill:%s", fill))
	}
	canvas.End()
	return nil
}

// WriteOutline renders the visible projection as indented text.
func WriteOutline[T comparable](w io.Writer, tr *tree.Tree[T]) error {
	for _, r := range rowsOf(tr) {
		mark := " "
		if r.selected {
			mark = "*"
		}
		if _, err := fmt.Fprintf(w, "%s%s%s %s\n",
			mark, strings.Repeat("  ", r.depth), glyph(r), r.name); err != nil {
			return err
		}
	}
	return nil
}

// WriteHTML wraps the SVG snapshot in a minimal standalone page.
func WriteHTML[T comparable](w io.Writer, tr *tree.Tree[T], title string) error {
	if _, err := fmt.Fprintf(w,
		"<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n<body style=\"margin:0;background:#282a36\">\n", title); err != nil {
		return err
	}
	if err := WriteSVG(w, tr); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n</body></html>\n")
	return err
}
