// Package testutil holds shared test fixtures for the catalog
// packages.
package testutil

import (
	"testing"

	"packdb/internal/database"
	"packdb/internal/packdb"
)

// NewTestStore creates a new in-memory SQLite store with the schema
// applied. The store is automatically closed when the test completes
// unless something else (a controller) closes it first.
func NewTestStore(t *testing.T) packdb.Store {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(func() { store.Close() })
	return store
}
