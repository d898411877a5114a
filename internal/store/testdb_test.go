package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/groceryguru/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestPerson(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	p, err := NewPersonStore(db).Create(context.Background(), email, "Test User", "not-a-real-hash")
	if err != nil {
		t.Fatalf("create person %s: %v", email, err)
	}
	return p.ID
}
