// Package energy keeps a daily history of household energy usage and
// cost.
//
// Once a day (23:50 by default) a snapshot job reads the utility meter
// sensors out of Home Assistant, normalises their units, and upserts one
// row per calendar day into the energy_daily table. Re-running the job
// on the same day overwrites that day's row with the latest reading, so
// the final run of the day wins.
//
// The SQLite table is the source of truth for the dashboard's history
// endpoint; an optional InfluxDB mirror receives the same snapshots for
// long-range Grafana dashboards.
package energy
