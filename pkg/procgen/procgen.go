// Package procgen sources tree children from an external command.
//
// The command is invoked once per branch reconciliation with the
// branch's path as its final argument, and must print a JSON array of
// items on stdout. Invocations are bounded in time, count and output
// size so a misbehaving command cannot wedge the viewer.
package procgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/kestrelui/canopy/pkg/tree"
)

// DefaultTimeout bounds a single child fetch.
const DefaultTimeout = 5 * time.Second

// MaxOutputSize is the most stdout bytes read per invocation (1MB).
const MaxOutputSize = 1 << 20

// MaxConcurrentFetches limits how many commands run at once.
const MaxConcurrentFetches = 2

// Item is one child reported by the command.
type Item struct {
	Path   string `json:"path"`   // opaque key passed back on the next fetch
	Label  string `json:"label"`  // display name; Path is used when empty
	Branch bool   `json:"branch"` // whether the item can have children
}

// Generator runs an external command to enumerate children.
type Generator struct {
	alloc   *tree.Allocator
	name    string
	args    []string
	timeout time.Duration
	sem     chan struct{}

	// overridable for tests
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout overrides the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// New returns a generator invoking name with args plus the branch path.
func New(alloc *tree.Allocator, name string, args []string, opts ...Option) *Generator {
	g := &Generator{
		alloc:      alloc,
		name:       name,
		args:       args,
		timeout:    DefaultTimeout,
		sem:        make(chan struct{}, MaxConcurrentFetches),
		runCommand: runCommand,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchChildren invokes the command for the branch and parses its
// output. The branch path is "" for the synthetic root.
func (g *Generator) FetchChildren(ctx context.Context, n *tree.Node[Item]) ([]Item, error) {
	select {
	case g.sem <- struct{}{}:
		defer func() { <-g.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	path := ""
	if n.HasData() {
		path = n.Data().Path
	}
	out, err := g.runCommand(fetchCtx, g.name, append(append([]string{}, g.args...), path)...)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", g.name, err)
	}
	return parseItems(out)
}

// CreateNode materializes one reported item.
func (g *Generator) CreateNode(parent *tree.Node[Item], data Item) *tree.Node[Item] {
	label := data.Label
	if label == "" {
		label = data.Path
	}
	return tree.NewChildNode(g.alloc, parent, data, label, data.Branch)
}

func parseItems(out []byte) ([]Item, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(out, &items); err != nil {
		return nil, fmt.Errorf("parsing command output: %w", err)
	}
	return items, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &cappedWriter{w: &stdout, limit: MaxOutputSize}

	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// cappedWriter discards bytes past limit while reporting full writes,
// so the command is not killed by a broken pipe.
type cappedWriter struct {
	w       io.Writer
	limit   int
	written int
}

func (cw *cappedWriter) Write(p []byte) (int, error) {
	remaining := cw.limit - cw.written
	if remaining <= 0 {
		return len(p), nil
	}
	chunk := p
	if len(chunk) > remaining {
		chunk = chunk[:remaining]
	}
	n, err := cw.w.Write(chunk)
	cw.written += n
	if err != nil {
		return n, err
	}
	return len(p), nil
}
