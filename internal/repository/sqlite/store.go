// Package sqlite opens the collection store on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/jaakkos/brainstorm/internal/repository/sqlstore"
)

// New opens the SQLite database at path (creating parent dirs and schema) and returns the store.
func New(path string) (*sqlstore.Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway and this avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	store, err := sqlstore.New(context.Background(), db, sqlstore.DialectSQLite)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return store, nil
}
