package sqlgen_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/kestrelui/canopy/pkg/sqlgen"
	"github.com/kestrelui/canopy/pkg/tree"
)

// openTestDB uses the pure-Go driver so the tests run without cgo.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "nodes.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlgen.InitSchema(context.Background(), db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func seed(t *testing.T, db *sql.DB) (projects, alpha int64) {
	t.Helper()
	ctx := context.Background()
	projects, err := sqlgen.Insert(ctx, db, nil, "projects", true)
	if err != nil {
		t.Fatal(err)
	}
	alpha, err = sqlgen.Insert(ctx, db, &projects, "alpha", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sqlgen.Insert(ctx, db, &alpha, "notes.txt", false); err != nil {
		t.Fatal(err)
	}
	if _, err := sqlgen.Insert(ctx, db, nil, "inbox", false); err != nil {
		t.Fatal(err)
	}
	return projects, alpha
}

func newDBTree(t *testing.T, db *sql.DB) *tree.Tree[sqlgen.Row] {
	t.Helper()
	alloc := tree.NewAllocator()
	return tree.New[sqlgen.Row](sqlgen.New(db, alloc), alloc)
}

func TestFetchTopLevelAndNested(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	tr := newDBTree(t, db)
	ctx := context.Background()

	kids, err := tr.Refresh(ctx, tr.Root())
	if err != nil {
		t.Fatalf("refresh root: %v", err)
	}
	if len(kids) != 2 || kids[0].Name() != "projects" || kids[1].Name() != "inbox" {
		t.Fatalf("top level = %v", kids)
	}
	if !kids[0].IsBranch() || kids[1].IsBranch() {
		t.Error("branch flags wrong")
	}

	nested, err := tr.Refresh(ctx, kids[0])
	if err != nil {
		t.Fatalf("refresh projects: %v", err)
	}
	if len(nested) != 1 || nested[0].Name() != "alpha" {
		t.Fatalf("projects children = %v", nested)
	}
}

func TestRowIdentitySurvivesRelabeledSiblings(t *testing.T) {
	db := openTestDB(t)
	projects, _ := seed(t, db)
	tr := newDBTree(t, db)
	ctx := context.Background()

	kids, err := tr.Refresh(ctx, tr.Root())
	if err != nil {
		t.Fatal(err)
	}
	projectsNode := kids[0]
	projectsNode.SetExpanded(true)
	wantID := projectsNode.ID()

	// Add another top-level row; the projects node must be retained.
	if _, err := sqlgen.Insert(ctx, db, nil, "archive", true); err != nil {
		t.Fatal(err)
	}
	kids, err = tr.Refresh(ctx, tr.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 3 {
		t.Fatalf("top level = %d rows, want 3", len(kids))
	}
	if kids[0] != projectsNode || kids[0].ID() != wantID || !kids[0].Expanded() {
		t.Error("projects node lost identity after sibling insert")
	}

	// Deleting the subtree drops its node on the next refresh.
	if err := sqlgen.Delete(ctx, db, projects); err != nil {
		t.Fatal(err)
	}
	kids, err = tr.Refresh(ctx, tr.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range kids {
		if k.Name() == "projects" {
			t.Error("deleted row still materialized")
		}
	}
}

func TestConfirmMovePersistsReparenting(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	tr := newDBTree(t, db)
	ctx := context.Background()

	if err := tr.RefreshSubtree(ctx, tr.Root(), false); err != nil {
		t.Fatal(err)
	}
	var projects, inbox *tree.Node[sqlgen.Row]
	for _, k := range tr.Children(tr.Root()) {
		switch k.Name() {
		case "projects":
			projects = k
		case "inbox":
			inbox = k
		}
	}
	if projects == nil || inbox == nil {
		t.Fatal("seed rows missing")
	}

	if !tr.Move(inbox, projects) {
		t.Fatal("move rejected")
	}

	// The write went through: a fresh refresh of both branches agrees
	// with the cache.
	if _, err := tr.Refresh(ctx, tr.Root()); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Refresh(ctx, projects); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, k := range tr.Children(projects) {
		if k.Name() == "inbox" {
			found = true
			if k != inbox {
				t.Error("moved node lost identity after refresh")
			}
		}
	}
	if !found {
		t.Error("reparented row not under its new parent")
	}
	for _, k := range tr.Children(tr.Root()) {
		if k.Name() == "inbox" {
			t.Error("reparented row still at top level")
		}
	}
}
