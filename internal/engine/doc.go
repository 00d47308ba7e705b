// Package engine implements the endpoint-snapping resolution engine.
//
// A run takes the lines held by a GeometryStore and closes small gaps
// between endpoints that represent the same network node:
//
//  1. Short-segment filter: lines shorter than the minimum length (or with
//     no usable geometry) are deleted and never snapped.
//  2. Endpoint extraction: two endpoints per surviving line, with stable ids.
//  3. One proximity query over all endpoints (the near table).
//  4. Neighborhood derivation: each distinct non-zero near pair yields a
//     neighborhood around its query point.
//  5. Resolution: per neighborhood, the first line in (near distance, id)
//     order is the anchor; every other line may move one endpoint onto the
//     anchor following a fixed case priority.
//  6. Commit: tracker state is written back as per-line status fields.
//
// DETERMINISM:
// Every ordering the algorithm depends on is an explicit sort key: candidates
// by (distance, point id, neighbor id), neighborhood members by
// (near distance, line id). Nothing relies on store or index default order.
//
// SINGLE PASS:
// Each neighborhood is processed once. A chain where A snaps to B and C should
// then follow the merged point is not revisited; C may stay unresolved. This
// is a known limitation of the contract, not something the engine retries.
//
// The engine is single-threaded. It owns the store and the tracker for the
// duration of Run, and later neighborhoods observe every write made by earlier
// ones.
package engine
