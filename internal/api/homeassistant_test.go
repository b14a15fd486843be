package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwhitby/homehub-core/internal/homeassistant"
	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
)

// fakeHA serves a minimal Home Assistant states API.
func fakeHA(t *testing.T) *httptest.Server {
	t.Helper()

	const states = `[
		{"entity_id": "weather.home", "state": "sunny", "attributes": {"friendly_name": "Home"}},
		{"entity_id": "sensor.smud_usage", "state": "12500", "attributes": {"friendly_name": "SMUD Usage", "unit_of_measurement": "Wh"}},
		{"entity_id": "light.kitchen", "state": "on", "attributes": {"friendly_name": "Kitchen Light"}}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/states":
			w.Write([]byte(states))
		case "/api/states/weather.home":
			w.Write([]byte(`{"entity_id": "weather.home", "state": "sunny", "attributes": {"friendly_name": "Home"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Entity not found."}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func withHA(url string) func(*Deps) {
	return func(d *Deps) {
		d.HomeAssistant = homeassistant.New(config.HomeAssistantConfig{
			URL:   url,
			Token: "test-token",
		}, testLogger())
	}
}

func TestHAStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/homeassistant/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status map[string]bool
	decodeBody(t, rec, &status)
	if status["configured"] {
		t.Error("unconfigured link should report configured=false")
	}

	upstream := fakeHA(t)
	env = newTestEnv(t, withHA(upstream.URL))
	rec = env.do(t, http.MethodGet, "/api/v1/homeassistant/status", "", nil)
	decodeBody(t, rec, &status)
	if !status["configured"] {
		t.Error("configured link should report configured=true")
	}
}

func TestHAEntities(t *testing.T) {
	upstream := fakeHA(t)
	env := newTestEnv(t, withHA(upstream.URL))
	token := env.registerAdmin(t, "admin@example.com", "bootstrap-pw")

	rec := env.do(t, http.MethodGet, "/api/v1/homeassistant/entities", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated entities status = %d, want 401", rec.Code)
	}

	// Default filter keeps dashboard domains only.
	rec = env.do(t, http.MethodGet, "/api/v1/homeassistant/entities", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("entities status = %d, body %s", rec.Code, rec.Body.String())
	}
	var entities []homeassistant.Entity
	decodeBody(t, rec, &entities)
	if len(entities) != 2 {
		t.Fatalf("dashboard entities = %d, want 2 (light excluded)", len(entities))
	}
	for _, e := range entities {
		if e.Domain() == "light" {
			t.Errorf("light entity leaked through dashboard filter: %s", e.EntityID)
		}
	}

	// Explicit domain filter.
	rec = env.do(t, http.MethodGet, "/api/v1/homeassistant/entities?domain=weather", token, nil)
	decodeBody(t, rec, &entities)
	if len(entities) != 1 || entities[0].EntityID != "weather.home" {
		t.Errorf("weather filter returned %+v", entities)
	}
}

func TestHAEntitiesUnconfigured(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAdmin(t, "admin@example.com", "bootstrap-pw")

	rec := env.do(t, http.MethodGet, "/api/v1/homeassistant/entities", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unconfigured entities status = %d, want 200", rec.Code)
	}
	var entities []homeassistant.Entity
	decodeBody(t, rec, &entities)
	if len(entities) != 0 {
		t.Errorf("unconfigured entities = %d, want empty list", len(entities))
	}
}

func TestHAEntity(t *testing.T) {
	upstream := fakeHA(t)
	env := newTestEnv(t, withHA(upstream.URL))
	token := env.registerAdmin(t, "admin@example.com", "bootstrap-pw")

	rec := env.do(t, http.MethodGet, "/api/v1/homeassistant/entities/weather.home", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("entity status = %d, body %s", rec.Code, rec.Body.String())
	}
	var entity homeassistant.Entity
	decodeBody(t, rec, &entity)
	if entity.State != "sunny" {
		t.Errorf("state = %q, want sunny", entity.State)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/homeassistant/entities/light.ghost", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown entity status = %d, want 404", rec.Code)
	}
}

func TestHAUpstreamFailure(t *testing.T) {
	upstream := fakeHA(t)
	url := upstream.URL
	upstream.Close()

	env := newTestEnv(t, withHA(url))
	token := env.registerAdmin(t, "admin@example.com", "bootstrap-pw")

	rec := env.do(t, http.MethodGet, "/api/v1/homeassistant/entities", token, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("dead upstream status = %d, want 502", rec.Code)
	}
	// The error body must not leak the upstream address.
	if body := rec.Body.String(); strings.Contains(body, url) {
		t.Errorf("error body leaks upstream URL: %s", body)
	}
}
