package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store defines the interface for account persistence.
type Store interface {
	Get(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, email string, patch Patch) (*Account, error)
	Delete(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]Account, error)
	AnyAccounts(ctx context.Context) (bool, error)
	AnyAdmin(ctx context.Context) (bool, error)
	DeleteAll(ctx context.Context) (int, error)
}

// SQLiteStore implements Store using SQLite. The email column is the
// primary key; every method normalises the email before touching the
// database, so lookups are case-insensitive by construction.
type SQLiteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-backed account store.
func NewStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const accountColumns = "email, password_hash, is_admin, must_change_password, created_at, updated_at"

// Get retrieves an account by email.
func (s *SQLiteStore) Get(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = ?",
		NormalizeEmail(email))
	return scanAccountFrom(row)
}

// Create inserts an account, replacing any existing row with the same
// email. Overwrite-on-conflict is intentional: the identity key is the
// email and the latest write wins. Callers wanting create-only semantics
// check existence first.
func (s *SQLiteStore) Create(ctx context.Context, account *Account) error {
	account.Email = NormalizeEmail(account.Email)

	now := time.Now().UTC().Format(time.RFC3339)
	account.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	account.UpdatedAt = account.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO accounts (email, password_hash, is_admin, must_change_password, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		account.Email, account.PasswordHash,
		boolToInt(account.IsAdmin), boolToInt(account.MustChangePassword),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}

// Update applies a partial patch to an account and returns the updated
// row. Unset patch fields are left untouched.
func (s *SQLiteStore) Update(ctx context.Context, email string, patch Patch) (*Account, error) {
	email = NormalizeEmail(email)
	now := time.Now().UTC().Format(time.RFC3339)

	query := "UPDATE accounts SET updated_at = ?"
	args := []any{now}

	if patch.PasswordHash != nil {
		query += ", password_hash = ?"
		args = append(args, *patch.PasswordHash)
	}
	if patch.IsAdmin != nil {
		query += ", is_admin = ?"
		args = append(args, boolToInt(*patch.IsAdmin))
	}
	if patch.MustChangePassword != nil {
		query += ", must_change_password = ?"
		args = append(args, boolToInt(*patch.MustChangePassword))
	}

	query += " WHERE email = ?"
	args = append(args, email)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating account: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return nil, ErrAccountNotFound
	}

	return s.Get(ctx, email)
}

// Delete removes an account. It reports whether a row existed; deleting
// an unknown email is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, email string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM accounts WHERE email = ?", NormalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("deleting account: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows > 0, nil
}

// List returns all accounts ordered by creation date.
func (s *SQLiteStore) List(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at ASC, email ASC")
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccountFrom(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	if accounts == nil {
		accounts = []Account{}
	}
	return accounts, nil
}

// AnyAccounts reports whether at least one account exists.
func (s *SQLiteStore) AnyAccounts(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts)").Scan(&n); err != nil {
		return false, fmt.Errorf("checking accounts: %w", err)
	}
	return n != 0, nil
}

// AnyAdmin reports whether at least one admin account exists. This is the
// registration gate: open while false.
func (s *SQLiteStore) AnyAdmin(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE is_admin = 1)").Scan(&n); err != nil {
		return false, fmt.Errorf("checking admins: %w", err)
	}
	return n != 0, nil
}

// DeleteAll removes every account and returns how many were removed.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM accounts")
	if err != nil {
		return 0, fmt.Errorf("clearing accounts: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return int(rows), nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanAccountFrom scans an account from any scanner (Row or Rows).
func scanAccountFrom(s scanner) (*Account, error) {
	var a Account
	var isAdmin, mustChange int
	var createdAt, updatedAt string

	err := s.Scan(&a.Email, &a.PasswordHash, &isAdmin, &mustChange, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.IsAdmin = isAdmin != 0
	a.MustChangePassword = mustChange != 0
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
