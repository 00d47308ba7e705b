// Package geom defines the road-network line model used by the snapping
// engine and the Geometry Mutator that rebuilds a line with one terminal
// vertex replaced.
//
// Lines are treated as immutable values. Every mutation returns a new Line
// whose coordinate slices share no memory with the input, so a geometry read
// before a snap can never observe the snapped coordinates.
//
// Coordinates are planar (projected units, typically meters). Reprojection
// happens outside this module.
package geom
