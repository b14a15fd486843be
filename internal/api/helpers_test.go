package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mwhitby/homehub-core/internal/auth"
	"github.com/mwhitby/homehub-core/internal/energy"
	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
)

const testJWTSecret = "test-secret-at-least-32-characters-long"

// testLogger returns a quiet logger for handler tests.
func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

// testDB creates a temporary SQLite database with the accounts and
// energy_daily schemas applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
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

	schema := `
		CREATE TABLE accounts (
			email TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			must_change_password INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE energy_daily (
			date TEXT PRIMARY KEY,
			usage_kwh REAL NOT NULL DEFAULT 0,
			cost_usd REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

// testEnv bundles a server, its router, and the stores behind it.
type testEnv struct {
	server  *Server
	handler http.Handler
	db      *sql.DB
	auth    *auth.Service
	store   auth.Store
}

// newTestEnv builds a server over a fresh database. Mutate deps before
// the server is constructed to enable optional components.
func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	db := testDB(t)
	store := auth.NewStore(db)
	logger := testLogger()
	svc := auth.NewService(store, auth.NewTokenIssuer(testJWTSecret, 60), logger)

	deps := Deps{
		Config:    config.APIConfig{},
		WS:        config.WebSocketConfig{MaxMessageSize: 1 << 20, PingInterval: 30, PongTimeout: 60},
		Logger:    logger,
		Auth:      svc,
		AuthStore: store,
		Energy:    energy.NewService(energy.NewRepository(db), nil, nil, config.EnergyConfig{}, logger),
		Version:   "test",
	}
	for _, fn := range mutate {
		fn(&deps)
	}

	server, err := New(deps)
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	return &testEnv{
		server:  server,
		handler: server.buildRouter(),
		db:      db,
		auth:    svc,
		store:   store,
	}
}

// do executes a request against the router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// registerAdmin bootstraps the first admin and returns its token.
func (e *testEnv) registerAdmin(t *testing.T, email, password string) string {
	t.Helper()

	token, _, err := e.auth.Register(context.Background(), email, password)
	if err != nil {
		t.Fatalf("registering admin: %v", err)
	}
	return token
}

// createUser adds a non-admin account directly and returns a login token.
func (e *testEnv) createUser(t *testing.T, email, password string) string {
	t.Helper()

	if _, err := e.auth.CreateAccount(context.Background(), email, password, false); err != nil {
		t.Fatalf("creating account: %v", err)
	}
	token, _, err := e.auth.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	return token
}

// decodeBody unmarshals the response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}
