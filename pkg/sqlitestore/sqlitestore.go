package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/henderiw/nstree/pkg/nestedset"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	lft  INTEGER NOT NULL,
	rgt  INTEGER NOT NULL,
	data TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS nodes_lft ON nodes (lft)`,
	`CREATE INDEX IF NOT EXISTS nodes_rgt ON nodes (rgt)`,
}

// Store persists nodes in a SQLite table, one row per node, the payload
// serialized as JSON. Durable rows handed to a caller are kept in an
// identity map so that a bulk Shift updates both the table and every node
// the caller still holds; staged nodes live in memory until Flush inserts
// them in one transaction.
type Store[T1 any] struct {
	m       *sync.RWMutex
	db      *sql.DB
	tracked map[int64]*nestedset.Node[T1]
	staged  []*nestedset.Node[T1]
}

var _ nestedset.Store[struct{}] = (*Store[struct{}])(nil)

// New opens (and if needed creates) the node table behind dsn. The
// connection pool is capped at one connection: the manager is single-writer
// and a cap keeps ":memory:" databases on a single connection.
func New[T1 any](ctx context.Context, dsn string) (*Store[T1], error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store[T1]{
		m:       new(sync.RWMutex),
		db:      db,
		tracked: map[int64]*nestedset.Node[T1]{},
	}, nil
}

func (r *Store[T1]) Close() error {
	return r.db.Close()
}

func (r *Store[T1]) List(ctx context.Context) (nestedset.Nodes[T1], error) {
	r.m.Lock()
	defer r.m.Unlock()

	return r.query(ctx, "SELECT id, lft, rgt, data FROM nodes", nestedset.Span{}, nestedset.FieldLeft)
}

func (r *Store[T1]) Range(ctx context.Context, field nestedset.Field, span nestedset.Span) (nestedset.Nodes[T1], error) {
	r.m.Lock()
	defer r.m.Unlock()

	q := "SELECT id, lft, rgt, data FROM nodes"
	conds, args := conditions(field, span)
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	return r.query(ctx, q, span, field, args...)
}

// query merges the durable rows matching q with the staged nodes matching
// span and returns them ordered by left. Callers hold the write lock: rows
// read back from the table are folded into the identity map.
func (r *Store[T1]) query(ctx context.Context, q string, span nestedset.Span, field nestedset.Field, args ...any) (nestedset.Nodes[T1], error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes nestedset.Nodes[T1]
	for rows.Next() {
		var (
			id, lft, rgt int64
			payload      string
		)
		if err := rows.Scan(&id, &lft, &rgt, &payload); err != nil {
			return nil, err
		}
		n, ok := r.tracked[id]
		if !ok {
			var d T1
			if err := json.Unmarshal([]byte(payload), &d); err != nil {
				return nil, fmt.Errorf("node %d: %w", id, err)
			}
			n = nestedset.RestoreNode(id, lft, rgt, d)
			r.tracked[id] = n
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, n := range r.staged {
		if span.Matches(fieldOf(n, field)) {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Left() < nodes[j].Left()
	})
	return nodes, nil
}

func (r *Store[T1]) Shift(ctx context.Context, field nestedset.Field, span nestedset.Span, delta int64) error {
	r.m.Lock()
	defer r.m.Unlock()

	col := column(field)
	q := fmt.Sprintf("UPDATE nodes SET %s = %s + ?", col, col)
	args := []any{delta}
	conds, condArgs := conditions(field, span)
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
		args = append(args, condArgs...)
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return err
	}
	// keep the nodes handed out and the staged tier aligned with the table
	for _, n := range r.tracked {
		applyShift(n, field, span, delta)
	}
	for _, n := range r.staged {
		applyShift(n, field, span, delta)
	}
	return nil
}

func (r *Store[T1]) Add(ctx context.Context, n *nestedset.Node[T1]) error {
	r.m.Lock()
	defer r.m.Unlock()

	if r.has(n) {
		return fmt.Errorf("node %s is already attached", n)
	}
	r.staged = append(r.staged, n)
	return nil
}

func (r *Store[T1]) Has(n *nestedset.Node[T1]) bool {
	r.m.RLock()
	defer r.m.RUnlock()

	return r.has(n)
}

func (r *Store[T1]) has(n *nestedset.Node[T1]) bool {
	if n == nil {
		return false
	}
	if n.ID() != 0 {
		if _, ok := r.tracked[n.ID()]; ok {
			return true
		}
	}
	for _, staged := range r.staged {
		if staged == n {
			return true
		}
	}
	return false
}

func (r *Store[T1]) Bounds(ctx context.Context) (int64, int64, bool, error) {
	r.m.RLock()
	defer r.m.RUnlock()

	var min, max sql.NullInt64
	row := r.db.QueryRowContext(ctx, "SELECT MIN(lft), MAX(rgt) FROM nodes")
	if err := row.Scan(&min, &max); err != nil {
		return 0, 0, false, err
	}
	lo, hi := min.Int64, max.Int64
	found := min.Valid
	for _, n := range r.staged {
		if !found {
			lo, hi = n.Left(), n.Right()
			found = true
			continue
		}
		if n.Left() < lo {
			lo = n.Left()
		}
		if n.Right() > hi {
			hi = n.Right()
		}
	}
	return lo, hi, found, nil
}

// Flush inserts every staged node in one transaction; only after commit do
// the nodes receive their row ids and join the durable tier.
func (r *Store[T1]) Flush(ctx context.Context) error {
	r.m.Lock()
	defer r.m.Unlock()

	if len(r.staged) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(r.staged))
	for _, n := range r.staged {
		payload, err := json.Marshal(n.Data())
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO nodes (lft, rgt, data) VALUES (?, ?, ?)",
			n.Left(), n.Right(), string(payload))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for i, n := range r.staged {
		n.SetID(ids[i])
		r.tracked[n.ID()] = n
	}
	r.staged = nil
	return nil
}

// Staged returns the number of nodes awaiting Flush.
func (r *Store[T1]) Staged() int {
	r.m.RLock()
	defer r.m.RUnlock()

	return len(r.staged)
}

func column(field nestedset.Field) string {
	if field == nestedset.FieldRight {
		return "rgt"
	}
	return "lft"
}

func conditions(field nestedset.Field, span nestedset.Span) ([]string, []any) {
	col := column(field)
	var conds []string
	var args []any
	if span.From != nil {
		conds = append(conds, col+" >= ?")
		args = append(args, *span.From)
	}
	if span.To != nil {
		conds = append(conds, col+" < ?")
		args = append(args, *span.To)
	}
	return conds, args
}

func applyShift[T1 any](n *nestedset.Node[T1], field nestedset.Field, span nestedset.Span, delta int64) {
	if !span.Matches(fieldOf(n, field)) {
		return
	}
	if field == nestedset.FieldRight {
		n.SetInterval(n.Left(), n.Right()+delta)
		return
	}
	n.SetInterval(n.Left()+delta, n.Right())
}

func fieldOf[T1 any](n *nestedset.Node[T1], field nestedset.Field) int64 {
	if field == nestedset.FieldRight {
		return n.Right()
	}
	return n.Left()
}
