// Package auth provides authentication and authorisation for Home Hub Core.
//
// It implements a deliberately small two-tier model (user / admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Stateless HS256 bearer tokens with signed expiry (no session store,
//     no revocation list — a token dies only at its expiry)
//   - A SQLite-backed account store keyed by lowercased email
//   - An admin bootstrap gate: self-registration is open only while no
//     admin account exists; the very first registration creates the sole
//     administrator and closes the gate
//
// The gate is re-derived from store contents on every check, so deleting
// the last admin deliberately reopens registration. The check-then-create
// pair in Register is serialised so two concurrent registrations cannot
// both observe an empty store and both become admin.
package auth
