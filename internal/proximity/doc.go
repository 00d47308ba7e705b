// Package proximity defines the near-table contract consumed by the snapping
// engine and a quadtree-backed implementation of it.
//
// A query takes every endpoint of the network and a radius and returns the
// ordered list of (point, neighbor, distance) pairs within that radius.
// Ordering is explicit: distance ascending, then point id, then neighbor id.
// Callers must not rely on any other ordering an implementation might produce.
package proximity
