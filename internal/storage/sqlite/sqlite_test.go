package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/shopcredit/internal/storage"
	"github.com/mmynk/shopcredit/internal/storage/storagetest"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "shopcredit-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, newTestStore)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "nested", "again.db")

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	second.Close()
}
