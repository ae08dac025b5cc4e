// Package tracking maintains persistent object identities from streams of
// ephemeral observations. A Store owns the tracks for one device: each
// Update call predicts active tracks forward, associates observations via
// gated cost matching, advances the tentative/confirmed/occluded/lost
// lifecycle, and returns the associations and events the cycle produced.
// Lost tracks can be re-identified by feature similarity so an object
// reappearing after an occlusion gap keeps its original identity.
package tracking
