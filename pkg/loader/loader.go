// Package loader reads flat node rows from JSONL documents and compiles
// them into a declarative data source. It is the zero-code path for
// feeding an exported or hand-written node list into a tree.
package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kestrelui/canopy/pkg/builder"
)

// Row is one line of a node document. Parent is empty for top-level
// rows.
type Row struct {
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"`
	Label  string `json:"label,omitempty"`
	Branch bool   `json:"branch,omitempty"`
}

// LoadRows reads rows from a JSONL file.
func LoadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node document: %w", err)
	}
	defer f.Close()
	return ReadRows(f)
}

// ReadRows reads rows from JSONL input. Malformed lines are skipped so a
// partially corrupt document still loads the rest.
func ReadRows(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	// Rows are small, but leave room for documents with long labels.
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, maxLine), maxLine)

	var rows []Row
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row Row
		if err := json.Unmarshal(line, &row); err != nil {
			continue
		}
		if row.ID == "" {
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read node document: %w", err)
	}
	return rows, nil
}

// Specs compiles rows into top-level builder specs. A row is a branch
// when flagged as one or when any row names it as parent.
func Specs(rows []Row) ([]builder.Spec[string], error) {
	byID := make(map[string]Row, len(rows))
	childRows := make(map[string][]Row)
	for _, row := range rows {
		if _, dup := byID[row.ID]; dup {
			return nil, fmt.Errorf("duplicate row id %q", row.ID)
		}
		byID[row.ID] = row
		if row.Parent != "" {
			childRows[row.Parent] = append(childRows[row.Parent], row)
		}
	}

	var roots []Row
	for _, row := range rows {
		if row.Parent == "" {
			roots = append(roots, row)
		} else if _, ok := byID[row.Parent]; !ok {
			return nil, fmt.Errorf("row %q has unknown parent %q", row.ID, row.Parent)
		}
	}
	// Only rows reachable from a top-level row are compiled, so a cyclic
	// document cannot recurse forever.
	return compile(roots, childRows), nil
}

func compile(rows []Row, childRows map[string][]Row) []builder.Spec[string] {
	specs := make([]builder.Spec[string], 0, len(rows))
	for _, row := range rows {
		label := row.Label
		if label == "" {
			label = row.ID
		}
		children := compile(childRows[row.ID], childRows)
		specs = append(specs, builder.Spec[string]{
			Data:     row.ID,
			Name:     label,
			Branch:   row.Branch || len(children) > 0,
			Children: children,
		})
	}
	return specs
}
