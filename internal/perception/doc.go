// Package perception wires the world model together for one device: an
// occupancy grid with ray-cast projection and temporal decay, plus a
// track store for persistent object identities. A Registry owns one
// Pipeline per device; there is no hidden global state, so multi-robot
// deployments simply hold independent pipelines.
package perception
