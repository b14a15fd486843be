package energy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DateFormat is the canonical day key for energy rows.
const DateFormat = "2006-01-02"

// ErrSnapshotNotFound is returned when no row exists for a date.
var ErrSnapshotNotFound = errors.New("energy: snapshot not found")

// Snapshot is one day of energy usage and cost.
type Snapshot struct {
	Date      string    `json:"date"`
	UsageKWh  float64   `json:"usage_kwh"`
	CostUSD   float64   `json:"cost_usd"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists daily snapshots in the energy_daily table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a SQLite-backed snapshot repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the snapshot for a date, replacing any existing row.
// One row per day; the latest write wins.
func (r *Repository) Upsert(ctx context.Context, date string, usageKWh, costUSD float64) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO energy_daily (date, usage_kwh, cost_usd, created_at)
		 VALUES (?, ?, ?, ?)`,
		date, usageKWh, costUSD, now,
	)
	if err != nil {
		return fmt.Errorf("upserting energy snapshot: %w", err)
	}
	return nil
}

// Get returns the snapshot for one date.
func (r *Repository) Get(ctx context.Context, date string) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT date, usage_kwh, cost_usd, created_at FROM energy_daily WHERE date = ?", date)

	s, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// History returns snapshots in ascending date order. Either bound may be
// empty to leave that side of the range open.
func (r *Repository) History(ctx context.Context, from, to string) ([]Snapshot, error) {
	query := "SELECT date, usage_kwh, cost_usd, created_at FROM energy_daily"
	var args []any
	var clauses []string

	if from != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, from)
	}
	if to != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, to)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY date ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying energy history: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating energy history: %w", err)
	}

	if snapshots == nil {
		snapshots = []Snapshot{}
	}
	return snapshots, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (*Snapshot, error) {
	var snap Snapshot
	var createdAt string

	err := s.Scan(&snap.Date, &snap.UsageKWh, &snap.CostUSD, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("scanning energy snapshot: %w", err)
	}

	snap.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &snap, nil
}
