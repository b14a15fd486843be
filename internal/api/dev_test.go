package api

import (
	"net/http"
	"testing"

	"github.com/mwhitby/homehub-core/internal/auth"
	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
)

func TestDevRoutesAbsentByDefault(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/auth/dev/clear-users",
		"/api/v1/auth/dev/seed-users",
		"/api/v1/auth/dev/seed-status",
	} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404 when dev mode off", path, rec.Code)
		}
	}
}

func TestDevClearAndSeed(t *testing.T) {
	seeds := []auth.SeedAccount{
		{Email: "admin@example.com", Password: "seed-admin-pw", IsAdmin: true},
		{Email: "user@example.com", Password: "seed-user-pw"},
	}
	env := newTestEnv(t, func(d *Deps) {
		d.Dev = config.DevConfig{AllowUserReset: true}
		d.SeedAccounts = seeds
	})

	rec := env.do(t, http.MethodPost, "/api/v1/auth/dev/seed-users", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed status = %d, body %s", rec.Code, rec.Body.String())
	}
	var seeded map[string]int
	decodeBody(t, rec, &seeded)
	if seeded["seeded"] != 2 {
		t.Errorf("seeded = %d, want 2", seeded["seeded"])
	}

	// Seeded accounts can log in without a forced password change.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "user@example.com", "password": "seed-user-pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seeded login status = %d", rec.Code)
	}
	var resp tokenResponse
	decodeBody(t, rec, &resp)
	if resp.User.MustChangePassword {
		t.Error("seeded accounts should not be forced to change password")
	}

	// Seed status reports both present.
	rec = env.do(t, http.MethodGet, "/api/v1/auth/dev/seed-status", "", nil)
	var status struct {
		Seeds []struct {
			Email  string `json:"email"`
			Exists bool   `json:"exists"`
		} `json:"seeds"`
	}
	decodeBody(t, rec, &status)
	if len(status.Seeds) != 2 {
		t.Fatalf("seed status entries = %d, want 2", len(status.Seeds))
	}
	for _, s := range status.Seeds {
		if !s.Exists {
			t.Errorf("seed %s reported missing", s.Email)
		}
	}

	// Clear empties the store and reopens registration.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/dev/clear-users", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	var cleared map[string]any
	decodeBody(t, rec, &cleared)
	if n, ok := cleared["cleared"].(float64); !ok || int(n) != 2 {
		t.Errorf("cleared = %v, want 2", cleared["cleared"])
	}

	rec = env.do(t, http.MethodGet, "/api/v1/auth/registration-allowed", "", nil)
	var allowed map[string]bool
	decodeBody(t, rec, &allowed)
	if !allowed["allowed"] {
		t.Error("registration should reopen after clear-users")
	}
}
