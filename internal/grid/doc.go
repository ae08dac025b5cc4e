// Package grid owns the occupancy-grid layer of the world model.
//
// Responsibilities: the fixed-resolution 2-D cell grid and its
// world↔grid coordinate mapping, observation projection by ray casting,
// temporal confidence decay, frontier detection, and snapshot/delta
// serialization.
// Key types: Grid, Cell, Projector, DecayEngine, Frontier, Snapshot.
//
// The grid layer never reads tracking state; object identity lives in
// the tracking package.
package grid
