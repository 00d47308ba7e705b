// Package store provides the geometry stores used by the snapping engine.
//
// Store is the durable implementation: a SQLite database holding one row per
// road line plus a run history. MemStore is an in-memory equivalent used for
// in-process resolution and tests.
//
// # Lines table
//
//   - geom: WKB encoding of the line (LineString or MultiLineString)
//   - attrs: JSON object of the source attributes
//   - snap_start / snap_end: persisted endpoint status text, NULL until the
//     first commit pass reaches the line
//   - snap_status: "finished" once both endpoints are done, NULL otherwise
//   - seq: incremented on every geometry write
//
// # Deterministic reads
//
// Every listing query is ORDER BY id ASC. The engine never depends on SQLite
// row order.
//
// # Database configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection; the engine is the only writer
package store
