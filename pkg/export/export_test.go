package export_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kestrelui/canopy/pkg/builder"
	"github.com/kestrelui/canopy/pkg/export"
	"github.com/kestrelui/canopy/pkg/tree"
)

func sampleTree(t *testing.T) *tree.Tree[string] {
	t.Helper()
	alloc := tree.NewAllocator()
	gen := builder.New(alloc,
		builder.Branch("src", "src",
			builder.Leaf("src/main.go", "main.go"),
		),
		builder.Leaf("README.md", "README.md"),
	)
	tr := tree.New[string](gen, alloc)
	if err := tr.RefreshSubtree(context.Background(), tr.Root(), false); err != nil {
		t.Fatalf("warm: %v", err)
	}
	tr.Children(tr.Root())[0].SetExpanded(true)
	return tr
}

func TestWriteOutline(t *testing.T) {
	tr := sampleTree(t)
	tr.Select(tr.Children(tr.Root())[1], true)

	var buf bytes.Buffer
	if err := export.WriteOutline(&buf, tr); err != nil {
		t.Fatalf("outline: %v", err)
	}
	got := buf.String()
	want := "" +
		" ▾ src\n" +
		"   · main.go\n" +
		"*· README.md\n"
	if got != want {
		t.Errorf("outline:\n%q\nwant:\n%q", got, want)
	}
}

func TestWriteSVG(t *testing.T) {
	tr := sampleTree(t)
	var buf bytes.Buffer
	if err := export.WriteSVG(&buf, tr); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	for _, frag := range []string{"<svg", "main.go", "README.md", "</svg>"} {
		if !strings.Contains(out, frag) {
			t.Errorf("svg output missing %q", frag)
		}
	}
}

func TestWritePNG(t *testing.T) {
	tr := sampleTree(t)
	var buf bytes.Buffer
	if err := export.WritePNG(&buf, tr); err != nil {
		t.Fatalf("png: %v", err)
	}
	// PNG signature.
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestPreviewServesSnapshot(t *testing.T) {
	tr := sampleTree(t)
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if err := export.WriteHTML(f, tr, "snapshot"); err != nil {
		t.Fatalf("html: %v", err)
	}
	f.Close()

	srv := httptest.NewServer(export.NewPreviewServer(dir, 0).Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.String(), "<svg") {
		t.Error("served page has no snapshot")
	}
}
