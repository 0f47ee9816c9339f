// Package sqlstore implements the collection store over database/sql. The SQLite
// and Postgres packages open the connection and pick the dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaakkos/brainstorm/internal/domain"
)

// Dialect selects the placeholder style.
type Dialect int

const (
	// DialectSQLite uses ? placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $n placeholders.
	DialectPostgres
)

// Each statement is executed on its own; some drivers reject multi-statement Exec.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS reference_items (
	id TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_reference_items_collection_name ON reference_items(collection, name)`,
}

// Store implements the collection store on a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string
}

// New applies the schema and returns a Store that owns db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db, dialect: dialect, now: time.Now, newID: uuid.NewString}, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database connection. Call on shutdown for clean exit.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// List returns the items of c sorted by name. Rows are re-sorted in Go so the
// order does not depend on the server collation.
func (s *Store) List(ctx context.Context, c domain.Collection) ([]domain.ReferenceItem, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT id, name FROM reference_items WHERE collection = ? ORDER BY name, id"), string(c))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.ReferenceItem{}
	for rows.Next() {
		var it domain.ReferenceItem
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, fmt.Errorf("list %s: scan: %w", c, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s iteration: %w", c, err)
	}
	domain.SortItems(items)
	return items, nil
}

// Add inserts a new document with a fresh id.
func (s *Store) Add(ctx context.Context, c domain.Collection, name string) (domain.ReferenceItem, error) {
	item := domain.ReferenceItem{ID: s.newID(), Name: name}
	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO reference_items (id, collection, name, created_at) VALUES (?, ?, ?, ?)"),
		item.ID, string(c), item.Name, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return domain.ReferenceItem{}, fmt.Errorf("add to %s: %w", c, err)
	}
	return item, nil
}

// Rename updates the name field of document id in c.
func (s *Store) Rename(ctx context.Context, c domain.Collection, id, newName string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE reference_items SET name = ? WHERE id = ? AND collection = ?"),
		newName, id, string(c))
	if err != nil {
		return fmt.Errorf("rename %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("rename %s in %s: %w", id, c, domain.ErrNotFound)
	}
	return nil
}

// Remove deletes document id from c. Deleting a missing id is not an error.
func (s *Store) Remove(ctx context.Context, c domain.Collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM reference_items WHERE id = ? AND collection = ?"), id, string(c)); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

// rebind rewrites ? placeholders for the store's dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	return Rebind(query)
}

// Rebind rewrites ? placeholders to $1, $2, ...
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
