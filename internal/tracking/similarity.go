package tracking

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Component weights for feature similarity. Only components present on
// both sides contribute; the final score is renormalized over the weights
// actually compared so a sparsely-described object is not penalized for
// what the detector never reported.
const (
	labelWeight     = 0.4
	categoryWeight  = 0.2
	dimensionWeight = 0.2
	colorWeight     = 0.1
	shapeWeight     = 0.1
)

// FeatureSimilarity scores how alike two feature sets are, in [0,1].
// Labels are compared by normalized edit distance so minor vision-pipeline
// variations ("trashcan" vs "trash can") still score high; category,
// color, and shape are exact matches; dimensions compare by relative size.
func FeatureSimilarity(a, b Features) float64 {
	var score, weight float64

	if a.Label != "" && b.Label != "" {
		score += labelWeight * labelSimilarity(a.Label, b.Label)
		weight += labelWeight
	}
	if a.Category != "" && b.Category != "" {
		if strings.EqualFold(a.Category, b.Category) {
			score += categoryWeight
		}
		weight += categoryWeight
	}
	if dimSim, ok := dimensionSimilarity(a, b); ok {
		score += dimensionWeight * dimSim
		weight += dimensionWeight
	}
	if a.Color != "" && b.Color != "" {
		if strings.EqualFold(a.Color, b.Color) {
			score += colorWeight
		}
		weight += colorWeight
	}
	if a.Shape != "" && b.Shape != "" {
		if strings.EqualFold(a.Shape, b.Shape) {
			score += shapeWeight
		}
		weight += shapeWeight
	}

	if weight == 0 {
		return 0
	}
	return score / weight
}

// labelSimilarity is 1 minus the normalized Levenshtein distance.
func labelSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// dimensionSimilarity compares physical extents axis by axis, scoring the
// smaller over the larger. Axes unknown on either side are skipped.
func dimensionSimilarity(a, b Features) (float64, bool) {
	var sum float64
	var n int
	for _, pair := range [][2]float64{
		{a.WidthM, b.WidthM},
		{a.HeightM, b.HeightM},
		{a.DepthM, b.DepthM},
	} {
		if pair[0] <= 0 || pair[1] <= 0 {
			continue
		}
		sum += math.Min(pair[0], pair[1]) / math.Max(pair[0], pair[1])
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
