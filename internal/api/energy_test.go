package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/mwhitby/homehub-core/internal/energy"
)

func TestEnergyHistory(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAdmin(t, "admin@example.com", "bootstrap-pw")

	// Empty store yields an empty list, not null.
	rec := env.do(t, http.MethodGet, "/api/v1/energy/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	if body := rec.Body.String(); body == "null\n" {
		t.Error("empty history should encode as [], not null")
	}

	repo := energy.NewRepository(env.db)
	days := []string{"2026-08-25", "2026-08-26", "2026-08-27"}
	for i, day := range days {
		if err := repo.Upsert(context.Background(), day, float64(10+i), float64(i)); err != nil {
			t.Fatalf("seeding snapshot %s: %v", day, err)
		}
	}

	rec = env.do(t, http.MethodGet, "/api/v1/energy/history", token, nil)
	var history []energy.Snapshot
	decodeBody(t, rec, &history)
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3", len(history))
	}
	if history[0].Date >= history[2].Date {
		t.Error("history should be ascending by date")
	}

	// Bounded query.
	rec = env.do(t, http.MethodGet, "/api/v1/energy/history?from=2026-08-26&to=2026-08-26", token, nil)
	decodeBody(t, rec, &history)
	if len(history) != 1 || history[0].UsageKWh != 11 {
		t.Errorf("bounded history = %+v, want the single 2026-08-26 row", history)
	}

	// Malformed bounds are rejected.
	rec = env.do(t, http.MethodGet, "/api/v1/energy/history?from=yesterday", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed from status = %d, want 400", rec.Code)
	}
}

func TestEnergySnapshotEndpoint(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.registerAdmin(t, "admin@example.com", "bootstrap-pw")
	userToken := env.createUser(t, "user@example.com", "user-password")

	// Admin only.
	rec := env.do(t, http.MethodPost, "/api/v1/energy/snapshot", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin snapshot status = %d, want 403", rec.Code)
	}

	// No Home Assistant link: nothing recorded, but not an error.
	rec = env.do(t, http.MethodPost, "/api/v1/energy/snapshot", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result map[string]any
	decodeBody(t, rec, &result)
	if recorded, _ := result["recorded"].(bool); recorded {
		t.Error("snapshot without a meter source should report recorded=false")
	}
}
