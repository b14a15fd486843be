package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
)

// DashboardDomains are the entity domains the dashboard renders by
// default when no explicit domain filter is given.
var DashboardDomains = []string{"weather", "sun", "sensor"}

// Defaults applied when config values are missing or invalid.
const (
	defaultCacheTTL       = 10 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

// Sentinel errors for Home Assistant operations. Check with errors.Is.
var (
	// ErrNotConfigured is returned by single-entity lookups when no URL
	// or token is configured. Bulk state queries return empty results
	// instead.
	ErrNotConfigured = errors.New("homeassistant: not configured")

	// ErrUpstream is returned when the Home Assistant instance cannot be
	// reached or answers with an error status.
	ErrUpstream = errors.New("homeassistant: upstream request failed")

	// ErrEntityNotFound is returned when an entity ID does not exist.
	ErrEntityNotFound = errors.New("homeassistant: entity not found")
)

// Entity is one Home Assistant entity state, passed through to the
// dashboard as-is.
type Entity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

// Domain returns the entity's domain (the part before the first dot).
func (e Entity) Domain() string {
	domain, _, _ := strings.Cut(e.EntityID, ".")
	return domain
}

// FriendlyName returns the friendly_name attribute, or "" when unset.
func (e Entity) FriendlyName() string {
	name, _ := e.Attributes["friendly_name"].(string)
	return name
}

// Client talks to the Home Assistant REST API with a short-lived cache
// over the full state list. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cacheTTL   time.Duration
	logger     *logging.Logger

	mu       sync.Mutex
	cached   []Entity
	cachedAt time.Time
}

// New creates a client from configuration. The URL and token may be
// empty; the client then reports itself unconfigured.
func New(cfg config.HomeAssistantConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}

	cacheTTL := time.Duration(cfg.CacheTTL) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: requestTimeout},
		cacheTTL:   cacheTTL,
		logger:     logger.With("component", "homeassistant"),
	}
}

// Configured reports whether both URL and token are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.token != ""
}

// GetStates returns entity states, optionally filtered to a single
// domain. An empty domain returns the dashboard domains. The full state
// list is fetched at most once per cache interval.
//
// When the integration is unconfigured the result is an empty slice,
// not an error.
func (c *Client) GetStates(ctx context.Context, domain string) ([]Entity, error) {
	if !c.Configured() {
		return []Entity{}, nil
	}

	states, err := c.allStates(ctx)
	if err != nil {
		return nil, err
	}

	domains := DashboardDomains
	if domain != "" {
		domains = []string{domain}
	}

	filtered := make([]Entity, 0, len(states))
	for _, entity := range states {
		for _, d := range domains {
			if entity.Domain() == d {
				filtered = append(filtered, entity)
				break
			}
		}
	}
	return filtered, nil
}

// GetEntity fetches a single entity state directly (no cache).
func (c *Client) GetEntity(ctx context.Context, entityID string) (*Entity, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := c.newRequest(ctx, "/api/states/"+entityID)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrEntityNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var entity Entity
	if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
	}
	return &entity, nil
}

// FindByFriendlyName scans the (cached) state list for an entity whose
// friendly_name contains the given fragment, case-insensitively. Used by
// the energy snapshot to locate utility sensors without hardcoding
// entity IDs.
func (c *Client) FindByFriendlyName(ctx context.Context, fragment string) (*Entity, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if fragment == "" {
		return nil, ErrEntityNotFound
	}

	states, err := c.allStates(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(fragment)
	for _, entity := range states {
		if strings.Contains(strings.ToLower(entity.FriendlyName()), needle) {
			return &entity, nil
		}
	}
	return nil, ErrEntityNotFound
}

// InvalidateCache drops the cached state list. Mostly for tests.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.cachedAt = time.Time{}
}

// allStates returns the full state list, served from cache while fresh.
func (c *Client) allStates(ctx context.Context) ([]Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cachedAt) < c.cacheTTL {
		return c.cached, nil
	}

	req, err := c.newRequest(ctx, "/api/states")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var states []Entity
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
	}

	c.cached = states
	c.cachedAt = time.Now()
	return states, nil
}

func (c *Client) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
