// Package homeassistant is a read-only REST client for a Home Assistant
// instance.
//
// The hub proxies a small slice of the Home Assistant API to its own
// dashboard: entity states, filtered by domain, plus single-entity
// lookups. The full state list is cached briefly so a dashboard poll
// storm does not hammer the upstream instance.
//
// The integration is optional. When no URL or token is configured the
// client reports itself unconfigured and state queries return empty
// results rather than errors; the dashboard simply renders nothing.
package homeassistant
