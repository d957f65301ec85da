package store

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/rowanvale/bridgewell/internal/database"
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

// createTestAccount inserts an account row directly and returns its id.
func createTestAccount(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO accounts (id, email, password_hash) VALUES (?, ?, 'x')`,
		id, email,
	)
	if err != nil {
		t.Fatalf("insert test account: %v", err)
	}
	return id
}
