package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the accounts schema
// applied. The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE accounts (
			email TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			must_change_password INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE INDEX idx_accounts_is_admin ON accounts(is_admin);
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying accounts migration: %v", err)
	}

	return db
}

// seedTestAccount inserts an account with the given flags and returns it.
// The password is always "test-password".
func seedTestAccount(t *testing.T, store Store, email string, isAdmin bool) *Account {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	account := &Account{
		Email:              email,
		PasswordHash:       hash,
		IsAdmin:            isAdmin,
		MustChangePassword: false,
	}
	if err := store.Create(context.Background(), account); err != nil {
		t.Fatalf("creating test account %s: %v", email, err)
	}
	return account
}

// testService builds a Service over a fresh temp database.
func testService(t *testing.T) (*Service, Store) {
	t.Helper()

	store := NewStore(testDB(t))
	tokens := NewTokenIssuer("test-secret-at-least-32-characters-long", 60)
	return NewService(store, tokens, nil), store
}
