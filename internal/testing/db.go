// Package testing provides testing utilities and helpers for the tradejournal project.
package testing

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/aristath/tradejournal/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB opens a ledger-profile SQLite database in the test's temp dir and
// applies the embedded schema for name ("ledger" creates accounts and trades;
// unknown names stay empty).
// The returned cleanup closes the connection; it is idempotent and also runs
// automatically when the test ends.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// File-backed so every pooled connection sees the same data
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileLedger,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := db.Close(); err != nil {
				t.Logf("Warning: Failed to close test database %s: %v", name, err)
			}
		})
	}
	t.Cleanup(cleanup)

	if err := db.Migrate(); err != nil {
		cleanup()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, cleanup
}
