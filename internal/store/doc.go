// Package store provides SQLite-backed storage for results and the record
// audit log.
//
// The store holds one logical Result table partitioned by
// (event_id, category). Every engine operation runs inside a single
// transaction obtained from Begin, so partial cascades are never visible to
// readers. Callers must serialize writes to one (event, category)
// partition; the connection pool is limited to a single writer to make
// that the default.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// # Conventions
//
//   - Dates are stored as ISO YYYY-MM-DD TEXT; lexicographic comparison
//     matches chronological order.
//   - Record tag columns are NULL when no tag is held; the Go side maps
//     NULL to the empty string.
//   - Attempts are stored as a JSON integer array.
package store
