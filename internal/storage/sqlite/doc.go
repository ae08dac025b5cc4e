// Package sqlite persists world-model state: grid snapshots for crash
// recovery and map replay, plus tracks and lifecycle events for offline
// analysis. All SQL lives here so the grid and tracking packages stay
// free of storage noise.
package sqlite
