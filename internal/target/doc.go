// Package target describes the devices circuits are transpiled for.
//
// A Target is immutable once built: its native operation names, an
// undirected CouplingMap over its physical qubits and optional calibration
// figures. Targets are shared read-only by concurrent transpiler runs.
//
// Coupling maps precompute all-pair BFS distances. Neighbour lists are
// sorted, so ShortestPath breaks ties toward the lowest physical index.
package target
