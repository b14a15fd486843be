// Package database manages the SQLite connection for Home Hub Core.
//
// It wraps database/sql with lifecycle management (directory creation, WAL
// mode, busy timeout, restrictive file permissions), a health check, and an
// embedded-migration runner driven by the migrations package.
//
// SQLite is opened with a single writer connection: the store is small
// (accounts plus daily energy rows) and a single connection sidesteps
// SQLITE_BUSY contention entirely.
package database
