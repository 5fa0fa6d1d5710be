// Package sqlitetest creates in-memory SQLite stores for tests.
package sqlitetest

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/kuitang/notes-admin/internal/store/sqlite"
)

// counter gives each test database a unique shared-cache name so parallel
// tests never collide.
var counter atomic.Int64

// NewStore creates a fresh in-memory store with the schema applied.
// The store is closed automatically when the test finishes.
func NewStore(t testing.TB) *sqlite.Store {
	t.Helper()

	s, err := newStore()
	if err != nil {
		t.Fatalf("failed to create in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// NewStoreE is NewStore for callers without a testing.TB (rapid checks).
func NewStoreE() (*sqlite.Store, error) {
	return newStore()
}

func newStore() (*sqlite.Store, error) {
	name := fmt.Sprintf("notes-admin-test-%d", counter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := sql.Open(sqlite.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(10)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping in-memory database: %w", err)
	}

	if err := applyFastPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply fast pragmas: %w", err)
	}

	if _, err := db.Exec(sqlite.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return sqlite.NewFromSQL(db), nil
}

func applyFastPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
