// Package records implements record tag consistency: assignment of
// World/Continental/National tags to new results, cascade invalidation of
// later tags shadowed by a new record, and cascade restoration of tags
// after a record holder disappears.
//
// All three operations run inside the caller's transaction and maintain,
// per (event, category, metric) partition:
//
//   - minimality: the latest-dated World holder is no worse than every
//     qualifying result dated on or before it
//   - hierarchy: a Continental or National tag never coexists with a
//     claim to a stronger tag as of its own date
//   - date-tie non-cancellation: same-day equal results keep their tags;
//     only a strictly better result cancels or downgrades
//   - category isolation: partitions never interact
package records
