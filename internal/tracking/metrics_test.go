package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEmptyStore(t *testing.T) {
	s := newTestStore(t)
	m := s.Metrics()
	assert.Equal(t, Metrics{}, m)
}

func TestMetricsCountsAndSpeeds(t *testing.T) {
	s := newTestStore(t)

	// One moving object, sampled to confirmation.
	for i := 0; i < 4; i++ {
		now := testBase.Add(time.Duration(i) * 500 * time.Millisecond)
		s.Update([]Observation{obsAt(float64(i)*0.5, 0, "cart", 0.9, now)}, now)
	}

	m := s.Metrics()
	require.Equal(t, 1, m.TotalTracks)
	assert.Equal(t, 1, m.ActiveTracks)
	assert.Equal(t, 1, m.ConfirmedTracks)
	assert.Equal(t, 0, m.LostTracks)
	assert.Greater(t, m.MeanSpeedMps, 0.0)
	assert.Greater(t, m.MeanConfidence, 0.0)
}
