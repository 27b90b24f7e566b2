package testutil

import (
	"context"
	"testing"

	"github.com/avolkov/vitrine/internal/catalog"
	"github.com/avolkov/vitrine/internal/store"
)

// NewStore creates an in-memory SQLiteStore for testing.
// The store is automatically closed when the test completes.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewCatalogStore creates an in-memory store with the catalog schema applied.
func NewCatalogStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db := NewStore(t)
	if err := db.Migrate(context.Background(), "catalog", catalog.Migrations()); err != nil {
		t.Fatalf("testutil.NewCatalogStore: migrate: %v", err)
	}
	return db
}
