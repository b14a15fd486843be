package energy

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the energy schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "energy-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE energy_daily (
			date TEXT PRIMARY KEY,
			usage_kwh REAL,
			cost_usd REAL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying energy migration: %v", err)
	}

	return db
}

func TestRepository_UpsertAndGet(t *testing.T) {
	repo := NewRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, "2026-08-27", 12.5, 3.40); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	snap, err := repo.Get(ctx, "2026-08-27")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.UsageKWh != 12.5 {
		t.Errorf("usage = %v, want 12.5", snap.UsageKWh)
	}
	if snap.CostUSD != 3.40 {
		t.Errorf("cost = %v, want 3.40", snap.CostUSD)
	}
	if snap.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}
}

func TestRepository_Upsert_ReplacesSameDay(t *testing.T) {
	repo := NewRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, "2026-08-27", 10.0, 2.00); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Upsert(ctx, "2026-08-27", 12.5, 3.40); err != nil {
		t.Fatalf("Upsert() second write error = %v", err)
	}

	snap, err := repo.Get(ctx, "2026-08-27")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.UsageKWh != 12.5 {
		t.Errorf("usage after re-upsert = %v, want 12.5 (latest wins)", snap.UsageKWh)
	}

	history, err := repo.History(ctx, "", "")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Errorf("History() = %d rows, want 1", len(history))
	}
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo := NewRepository(testDB(t))

	_, err := repo.Get(context.Background(), "2026-01-01")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Get() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestRepository_History_Range(t *testing.T) {
	repo := NewRepository(testDB(t))
	ctx := context.Background()

	days := []string{"2026-08-24", "2026-08-25", "2026-08-26", "2026-08-27"}
	for i, day := range days {
		if err := repo.Upsert(ctx, day, float64(i+1), float64(i)*0.5); err != nil {
			t.Fatalf("Upsert(%s) error = %v", day, err)
		}
	}

	tests := []struct {
		name      string
		from, to  string
		wantDates []string
	}{
		{"unbounded", "", "", days},
		{"from only", "2026-08-26", "", []string{"2026-08-26", "2026-08-27"}},
		{"to only", "", "2026-08-25", []string{"2026-08-24", "2026-08-25"}},
		{"both bounds", "2026-08-25", "2026-08-26", []string{"2026-08-25", "2026-08-26"}},
		{"empty range", "2026-09-01", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := repo.History(ctx, tt.from, tt.to)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(history) != len(tt.wantDates) {
				t.Fatalf("History() = %d rows, want %d", len(history), len(tt.wantDates))
			}
			for i, want := range tt.wantDates {
				if history[i].Date != want {
					t.Errorf("History()[%d].Date = %q, want %q (ascending)", i, history[i].Date, want)
				}
			}
		})
	}
}
