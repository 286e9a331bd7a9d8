// Package sqlgen generates tree nodes from a SQLite table. Each row is
// one node; refreshing a branch re-queries the rows under it, so nodes
// for unchanged rows keep their identity across refreshes. Moves are
// confirmed by rewriting the row's parent, which makes the reparenting
// durable instead of cache-only.
package sqlgen

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kestrelui/canopy/pkg/tree"
)

// Row is the payload of a database-backed node. The row id is the stable
// key: a row that is still present reconciles onto the same node even
// when siblings around it changed.
type Row struct {
	ID     int64
	Label  string
	Branch bool
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parent_id INTEGER REFERENCES nodes(id),
		label TEXT NOT NULL,
		branch INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id)`,
}

// Open opens (or creates) a node database at the given path and ensures
// the schema exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open node database: %w", err)
	}
	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema creates the nodes table if missing. Callers that open the
// database themselves (for example with a different driver) run this
// once before constructing a Generator.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init node schema: %w", err)
		}
	}
	return nil
}

// Generator serves node rows through the tree.Generator contract.
type Generator struct {
	db    *sql.DB
	alloc *tree.Allocator
}

// New returns a generator over db, drawing ids from alloc. The same
// allocator must be passed to tree.New.
func New(db *sql.DB, alloc *tree.Allocator) *Generator {
	return &Generator{db: db, alloc: alloc}
}

// FetchChildren queries the rows under n. The tree's hidden root maps to
// rows with a NULL parent.
func (g *Generator) FetchChildren(ctx context.Context, n *tree.Node[Row]) ([]Row, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if n.HasData() {
		rows, err = g.db.QueryContext(ctx,
			`SELECT id, label, branch FROM nodes WHERE parent_id = ? ORDER BY position, id`,
			n.Data().ID)
	} else {
		rows, err = g.db.QueryContext(ctx,
			`SELECT id, label, branch FROM nodes WHERE parent_id IS NULL ORDER BY position, id`)
	}
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Label, &r.Branch); err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read node rows: %w", err)
	}
	return out, nil
}

// CreateNode wraps a row in a node.
func (g *Generator) CreateNode(parent *tree.Node[Row], data Row) *tree.Node[Row] {
	return tree.NewChildNode(g.alloc, parent, data, data.Label, data.Branch)
}

// ConfirmMove persists the reparenting before the cache applies it. A
// failed write vetoes the move, keeping cache and table in agreement.
func (g *Generator) ConfirmMove(src, dst *tree.Node[Row]) bool {
	if !src.HasData() {
		return false
	}
	newParent, ok := g.moveTarget(dst)
	if !ok {
		return false
	}
	_, err := g.db.Exec(`UPDATE nodes SET parent_id = ? WHERE id = ?`, newParent, src.Data().ID)
	return err == nil
}

// moveTarget resolves the row the moved node ends up under: a branch
// target itself, or a leaf target's own parent.
func (g *Generator) moveTarget(dst *tree.Node[Row]) (any, bool) {
	if !dst.HasData() {
		return nil, true // the hidden root: becomes a top-level row
	}
	if dst.IsBranch() {
		return dst.Data().ID, true
	}
	var parent sql.NullInt64
	err := g.db.QueryRow(`SELECT parent_id FROM nodes WHERE id = ?`, dst.Data().ID).Scan(&parent)
	if err != nil {
		return nil, false
	}
	if !parent.Valid {
		return nil, true
	}
	return parent.Int64, true
}

// Insert adds a row under parent (nil for top level) and returns its row
// id. Position defaults to the insertion order.
func Insert(ctx context.Context, db *sql.DB, parent *int64, label string, branch bool) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO nodes (parent_id, label, branch, position)
		 VALUES (?, ?, ?, (SELECT COUNT(*) FROM nodes n WHERE n.parent_id IS ?))`,
		parent, label, branch, parent)
	if err != nil {
		return 0, fmt.Errorf("insert node %q: %w", label, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert node %q: %w", label, err)
	}
	return id, nil
}

// Delete removes a row and, recursively, the rows under it.
func Delete(ctx context.Context, db *sql.DB, id int64) error {
	rows, err := db.QueryContext(ctx, `SELECT id FROM nodes WHERE parent_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete node %d: %w", id, err)
	}
	var children []int64
	for rows.Next() {
		var cid int64
		if err := rows.Scan(&cid); err != nil {
			rows.Close()
			return fmt.Errorf("delete node %d: %w", id, err)
		}
		children = append(children, cid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("delete node %d: %w", id, err)
	}
	for _, cid := range children {
		if err := Delete(ctx, db, cid); err != nil {
			return err
		}
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete node %d: %w", id, err)
	}
	return nil
}
