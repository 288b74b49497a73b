// Package store provides SQLite-backed history of vector runs.
//
// Each run is one row in runs; every executed vector and every fixture that
// failed to load is one row in outcomes. The store is append-only.
//
// # Ordering
//
//   - Runs carry a logical seq assigned at write time, never a timestamp
//   - Outcomes are ordered by seq within their run, then id COLLATE BINARY
//
// # Identity
//
// Outcome IDs are content addressed: SHA-256 over the canonical JSON of
// run ID, seq and place, with domain separation. Writing the same outcome
// twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
