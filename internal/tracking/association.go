package tracking

import (
	"sort"

	"github.com/fieldrover/worldmodel/internal/geom"
)

// Cost weighting between gated distance and feature dissimilarity.
const (
	distanceCostWeight = 0.6
	featureCostWeight  = 0.4
)

// candidatePair is one finite-cost (track, observation) pairing.
type candidatePair struct {
	trackID  string
	obsIndex int
	cost     float64
}

// gatedCost computes the association cost between a predicted track and an
// observation, or reports that the pair is gated out. The distance is
// normalized by the combined positional uncertainty so a confident track
// gates tighter than a freshly predicted one.
func gatedCost(track *Track, obs Observation, p Params) (float64, bool) {
	dist := geom.EuclideanDistance(track.X, track.Y, obs.X, obs.Y)

	obsUncertainty := obs.PositionUncertainty
	if obsUncertainty < p.MinObservationUncertaintyM {
		obsUncertainty = p.MinObservationUncertaintyM
	}
	combined := track.PositionUncertainty + obsUncertainty
	if combined <= 0 {
		return 0, false
	}

	gated := dist / combined
	if gated > p.GatingThreshold {
		return 0, false
	}

	sim := FeatureSimilarity(track.Features, obs.Features)
	if sim < p.FeatureSimilarityThreshold {
		return 0, false
	}

	return distanceCostWeight*gated + featureCostWeight*(1-sim), true
}

// associate resolves observation-to-track assignment greedily: all
// finite-cost pairs sorted ascending, accepted in order unless either side
// is already claimed. Greedy is not globally optimal, but per-cycle
// cardinalities are tens at most. Ties break on track ID then observation
// index so identical inputs always produce identical assignments.
func associate(tracks []*Track, observations []Observation, p Params) []Association {
	var pairs []candidatePair
	for _, track := range tracks {
		for oi, obs := range observations {
			if cost, ok := gatedCost(track, obs, p); ok {
				pairs = append(pairs, candidatePair{trackID: track.TrackID, obsIndex: oi, cost: cost})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].cost != pairs[j].cost {
			return pairs[i].cost < pairs[j].cost
		}
		if pairs[i].trackID != pairs[j].trackID {
			return pairs[i].trackID < pairs[j].trackID
		}
		return pairs[i].obsIndex < pairs[j].obsIndex
	})

	trackClaimed := make(map[string]bool)
	obsClaimed := make(map[int]bool)
	var out []Association
	for _, pair := range pairs {
		if trackClaimed[pair.trackID] || obsClaimed[pair.obsIndex] {
			continue
		}
		trackClaimed[pair.trackID] = true
		obsClaimed[pair.obsIndex] = true
		out = append(out, Association{
			ObservationIndex: pair.obsIndex,
			TrackID:          pair.trackID,
			Cost:             pair.cost,
		})
	}
	return out
}
