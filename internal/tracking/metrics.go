package tracking

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes the store's current track population. Speed figures
// cover active tracks only; lost tracks keep their last velocity but it no
// longer describes anything observable.
type Metrics struct {
	TotalTracks     int
	ActiveTracks    int
	ConfirmedTracks int
	LostTracks      int

	MeanConfidence float64

	MeanSpeedMps   float64
	StdDevSpeedMps float64
	P50SpeedMps    float64
	P95SpeedMps    float64
}

// Metrics computes population statistics over the current tracks.
func (s *Store) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := Metrics{TotalTracks: len(s.tracks)}

	var speeds, confidences []float64
	for _, track := range s.tracks {
		confidences = append(confidences, track.Confidence)
		switch {
		case track.State == TrackLost:
			m.LostTracks++
		case track.active():
			m.ActiveTracks++
			if track.State == TrackConfirmed {
				m.ConfirmedTracks++
			}
			speeds = append(speeds, math.Hypot(track.VX, track.VY))
		}
	}

	if len(confidences) > 0 {
		m.MeanConfidence = stat.Mean(confidences, nil)
	}
	if len(speeds) > 0 {
		sort.Float64s(speeds)
		m.MeanSpeedMps = stat.Mean(speeds, nil)
		if len(speeds) > 1 {
			m.StdDevSpeedMps = stat.StdDev(speeds, nil)
		}
		m.P50SpeedMps = stat.Quantile(0.5, stat.Empirical, speeds, nil)
		m.P95SpeedMps = stat.Quantile(0.95, stat.Empirical, speeds, nil)
	}
	return m
}
