// Package influxdb provides the optional time-series mirror for energy
// snapshots.
//
// The canonical energy history lives in SQLite; when InfluxDB is enabled
// in config.yaml each daily snapshot is additionally written here as a
// point, so long-range dashboards (Grafana) can query it without going
// through the API.
//
// Writes are non-blocking and batched by the underlying client. Async
// write failures surface through the SetOnError callback and are logged,
// never propagated — the mirror is best-effort by design.
package influxdb
