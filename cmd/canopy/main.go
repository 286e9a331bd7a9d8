package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/kestrelui/canopy/pkg/builder"
	"github.com/kestrelui/canopy/pkg/export"
	"github.com/kestrelui/canopy/pkg/fsgen"
	"github.com/kestrelui/canopy/pkg/loader"
	"github.com/kestrelui/canopy/pkg/procgen"
	"github.com/kestrelui/canopy/pkg/sqlgen"
	"github.com/kestrelui/canopy/pkg/tree"
	"github.com/kestrelui/canopy/pkg/ui"
	"github.com/kestrelui/canopy/pkg/updater"
)

const version = "0.1.0"

type options struct {
	yamlPath  string
	jsonlPath string
	dbPath    string
	execCmd   string
	hidden    bool
	watch     bool

	svgPath     string
	pngPath     string
	outlinePath string
	htmlPath    string
	preview     int
	depth       int
}

func main() {
	var opts options
	help := flag.Bool("help", false, "Show help")
	showVersion := flag.Bool("version", false, "Show version")
	flag.StringVar(&opts.yamlPath, "yaml", "", "Browse a tree described by a YAML document")
	flag.StringVar(&opts.jsonlPath, "jsonl", "", "Browse a tree described by a JSONL row dump")
	flag.StringVar(&opts.dbPath, "db", "", "Browse a tree stored in a SQLite database")
	flag.StringVar(&opts.execCmd, "exec", "", "Browse a tree reported by an external command")
	flag.BoolVar(&opts.hidden, "hidden", false, "Include dot-files when browsing a directory")
	flag.BoolVar(&opts.watch, "watch", true, "Reconcile when the browsed directory changes")
	flag.StringVar(&opts.svgPath, "svg", "", "Write an SVG snapshot to this file and exit")
	flag.StringVar(&opts.pngPath, "png", "", "Write a PNG snapshot to this file and exit")
	flag.StringVar(&opts.outlinePath, "outline", "", "Write a text outline to this file and exit")
	flag.StringVar(&opts.htmlPath, "html", "", "Write an HTML snapshot to this file and exit")
	flag.IntVar(&opts.preview, "preview", 0, "Serve an HTML snapshot on this port and exit on interrupt")
	flag.IntVar(&opts.depth, "depth", 2, "Materialization depth for snapshots")
	flag.Parse()

	if *help {
		fmt.Println("Usage: canopy [options] [directory]")
		fmt.Println("\nA lazily-populated tree browser over directories, YAML, JSONL, SQLite and external commands.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("canopy version %s\n", version)
		if tag, url, err := updater.CheckForUpdates("v" + version); err == nil && tag != "" {
			fmt.Printf("update available: %s (%s)\n", tag, url)
		}
		os.Exit(0)
	}

	if err := run(opts, flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "canopy: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, dir string) error {
	switch {
	case opts.yamlPath != "":
		specs, err := builder.FromYAMLFile(opts.yamlPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", opts.yamlPath, err)
		}
		alloc := tree.NewAllocator()
		tr := tree.New[string](builder.New(alloc, specs...), alloc)
		return present(tr, opts, nil)

	case opts.jsonlPath != "":
		rows, err := loader.LoadRows(opts.jsonlPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", opts.jsonlPath, err)
		}
		specs, err := loader.Specs(rows)
		if err != nil {
			return fmt.Errorf("loading %s: %w", opts.jsonlPath, err)
		}
		alloc := tree.NewAllocator()
		tr := tree.New[string](builder.New(alloc, specs...), alloc)
		return present(tr, opts, nil)

	case opts.dbPath != "":
		db, err := sqlgen.Open(opts.dbPath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", opts.dbPath, err)
		}
		defer db.Close()
		alloc := tree.NewAllocator()
		tr := tree.New[sqlgen.Row](sqlgen.New(db, alloc), alloc)
		return present(tr, opts, nil)

	case opts.execCmd != "":
		words := strings.Fields(opts.execCmd)
		if len(words) == 0 {
			return fmt.Errorf("-exec needs a command")
		}
		alloc := tree.NewAllocator()
		gen := procgen.New(alloc, words[0], words[1:])
		tr := tree.New[procgen.Item](gen, alloc)
		return present(tr, opts, nil)

	default:
		return runFS(opts, dir)
	}
}

func runFS(opts options, dir string) error {
	if dir == "" {
		dir = askDirectory()
	}
	var fsOpts []fsgen.Option
	if opts.hidden {
		fsOpts = append(fsOpts, fsgen.WithHidden())
	}
	alloc := tree.NewAllocator()
	gen, err := fsgen.New(dir, alloc, fsOpts...)
	if err != nil {
		return err
	}
	tr := tree.New[fsgen.Entry](gen, alloc)

	uiOpts := []ui.Option[fsgen.Entry]{
		ui.WithClipboardText(func(n *tree.Node[fsgen.Entry]) string {
			return n.Data().Path
		}),
		ui.WithDetail(detailFor),
	}
	if !headless(opts) && opts.watch {
		return presentWatched(tr, gen.Root(), uiOpts)
	}
	return present(tr, opts, uiOpts)
}

// askDirectory prompts for a directory when none was given on the
// command line. Non-interactive callers fall back to the working
// directory.
func askDirectory() string {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "."
	}
	dir := "."
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Directory to browse").
			Placeholder(".").
			Value(&dir),
	))
	if err := form.Run(); err != nil || dir == "" {
		return "."
	}
	return dir
}

// detailFor renders a leaf for the detail overlay. Markdown files show
// their content; everything else shows its location.
func detailFor(n *tree.Node[fsgen.Entry]) (string, error) {
	path := n.Data().Path
	if strings.EqualFold(filepath.Ext(path), ".md") {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(b), nil
	}
	return fmt.Sprintf("# %s\n\n`%s`", n.Name(), path), nil
}

func headless(opts options) bool {
	return opts.svgPath != "" || opts.pngPath != "" || opts.outlinePath != "" ||
		opts.htmlPath != "" || opts.preview != 0
}

func present[T comparable](tr *tree.Tree[T], opts options, uiOpts []ui.Option[T]) error {
	if headless(opts) {
		if err := materialize(context.Background(), tr, opts.depth); err != nil {
			return err
		}
		return snapshot(tr, opts)
	}
	m := ui.NewModel(tr, uiOpts...)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}

func presentWatched(tr *tree.Tree[fsgen.Entry], root string, uiOpts []ui.Option[fsgen.Entry]) error {
	m := ui.NewModel(tr, uiOpts...)
	p := tea.NewProgram(m, tea.WithAltScreen())

	w, err := fsgen.NewWatcher(0,
		func(string) { p.Send(ui.TreeChangedMsg{}) },
		func(error) {},
	)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}

// materialize reconciles and expands branches down to the given depth
// so snapshots have something to show. depth <= 0 means the whole tree.
func materialize[T comparable](ctx context.Context, tr *tree.Tree[T], depth int) error {
	root := tr.Root()
	frontier := []*tree.Node[T]{root}
	for level := 0; len(frontier) > 0 && (depth <= 0 || level <= depth); level++ {
		var next []*tree.Node[T]
		for _, n := range frontier {
			if !n.IsBranch() {
				continue
			}
			n.SetExpanded(true)
			kids, err := tr.Refresh(ctx, n)
			if err != nil {
				return fmt.Errorf("materializing %s: %w", n.Name(), err)
			}
			next = append(next, kids...)
		}
		frontier = next
	}
	return nil
}

func snapshot[T comparable](tr *tree.Tree[T], opts options) error {
	writes := []struct {
		path string
		fn   func(f *os.File) error
	}{
		{opts.svgPath, func(f *os.File) error { return export.WriteSVG(f, tr) }},
		{opts.pngPath, func(f *os.File) error { return export.WritePNG(f, tr) }},
		{opts.outlinePath, func(f *os.File) error { return export.WriteOutline(f, tr) }},
		{opts.htmlPath, func(f *os.File) error { return export.WriteHTML(f, tr, "canopy") }},
	}
	for _, w := range writes {
		if w.path == "" {
			continue
		}
		f, err := os.Create(w.path)
		if err != nil {
			return err
		}
		if err := w.fn(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", w.path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if opts.preview != 0 {
		return servePreview(tr, opts.preview)
	}
	return nil
}

// servePreview writes an HTML bundle to a temporary directory and
// serves it until interrupted.
func servePreview[T comparable](tr *tree.Tree[T], port int) error {
	dir, err := os.MkdirTemp("", "canopy-preview-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return err
	}
	if err := export.WriteHTML(f, tr, "canopy"); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return export.NewPreviewServer(dir, port).StartWithGracefulShutdown()
}
