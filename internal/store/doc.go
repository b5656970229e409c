// Package store provides SQLite-backed durable storage for compiled
// process systems and recorded rate evaluations.
//
//   - Systems: one row per compiled system, keyed by its content hash,
//     with the process/component orderings and the canonical textual
//     form of the stoichiometry matrix and rate expressions.
//   - Runs: recorded rate evaluations against a stored system, keyed
//     by UUID, with the state and rate vectors as JSON.
//
// Saving a system is idempotent: the content hash is the primary key
// and a re-save of an identical compilation is a no-op.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: runs must reference a stored system
package store
