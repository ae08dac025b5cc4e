package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureSimilarityIdenticalFeatures(t *testing.T) {
	f := Features{Label: "chair", Category: "furniture", WidthM: 0.5, HeightM: 0.9, Color: "red", Shape: "boxy"}
	assert.Equal(t, 1.0, FeatureSimilarity(f, f))
}

func TestFeatureSimilarityLabelTypoScoresHigh(t *testing.T) {
	a := Features{Label: "trashcan"}
	b := Features{Label: "trash can"}
	sim := FeatureSimilarity(a, b)
	assert.Greater(t, sim, 0.8)
	assert.Less(t, sim, 1.0)
}

func TestFeatureSimilarityDifferentObjectsScoresLow(t *testing.T) {
	a := Features{Label: "chair", Category: "furniture", Color: "red"}
	b := Features{Label: "dog", Category: "animal", Color: "brown"}
	assert.Less(t, FeatureSimilarity(a, b), 0.3)
}

func TestFeatureSimilaritySkipsAbsentFields(t *testing.T) {
	// Only labels on both sides; missing color must not drag the score down.
	a := Features{Label: "bottle", Color: "green"}
	b := Features{Label: "bottle"}
	assert.Equal(t, 1.0, FeatureSimilarity(a, b))
}

func TestFeatureSimilarityCaseInsensitive(t *testing.T) {
	a := Features{Label: "Chair", Category: "Furniture", Color: "RED"}
	b := Features{Label: "chair", Category: "furniture", Color: "red"}
	assert.Equal(t, 1.0, FeatureSimilarity(a, b))
}

func TestFeatureSimilarityDimensions(t *testing.T) {
	a := Features{Label: "box", WidthM: 1.0, HeightM: 1.0}
	b := Features{Label: "box", WidthM: 0.5, HeightM: 1.0}

	// Label exact (weight 0.4) plus dimension ratio (0.5+1.0)/2 (weight 0.2).
	want := (0.4*1.0 + 0.2*0.75) / 0.6
	assert.InDelta(t, want, FeatureSimilarity(a, b), 1e-9)
}

func TestFeatureSimilarityNothingComparable(t *testing.T) {
	assert.Equal(t, 0.0, FeatureSimilarity(Features{}, Features{Label: "chair"}))
}
