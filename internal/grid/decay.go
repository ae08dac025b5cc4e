package grid

import (
	"time"

	"github.com/fieldrover/worldmodel/internal/config"
)

// DecayParams configures temporal confidence decay. All values are in
// seconds except the rate, which is confidence per second.
type DecayParams struct {
	DecayStartSeconds     float64
	DecayRatePerSecond    float64
	MinConfidence         float64
	StaleThresholdSeconds float64
}

// DecayParamsFromTuning builds decay parameters from a loaded TuningConfig.
func DecayParamsFromTuning(cfg *config.TuningConfig) DecayParams {
	return DecayParams{
		DecayStartSeconds:     cfg.GetDecayStartSeconds(),
		DecayRatePerSecond:    cfg.GetDecayRatePerSecond(),
		MinConfidence:         cfg.GetMinCellConfidence(),
		StaleThresholdSeconds: cfg.GetStaleThresholdSeconds(),
	}
}

// DecayEngine ages non-explored cells so unobserved regions regress toward
// ignorance. It runs after every projection cycle.
type DecayEngine struct {
	Params DecayParams
}

// NewDecayEngine creates a decay engine with the given parameters.
func NewDecayEngine(p DecayParams) *DecayEngine {
	return &DecayEngine{Params: p}
}

// Decay ages every cell whose state is neither unknown nor explored.
//
// The decayed confidence is recomputed from the cell's SeedConfidence and
// its age, never from the previously decayed value, so calling Decay twice
// with the same timestamp leaves the grid unchanged on the second pass.
// Explored cells are exempt: once the robot has occupied a cell, that
// knowledge is kept indefinitely.
func (e *DecayEngine) Decay(g *Grid, now time.Time) {
	nowNanos := now.UnixNano()

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.cells {
		cell := &g.cells[i]
		if cell.State == CellUnknown || cell.State == CellExplored {
			continue
		}
		if cell.LastUpdateUnixNanos == 0 {
			continue
		}

		ageSeconds := float64(nowNanos-cell.LastUpdateUnixNanos) / 1e9
		if ageSeconds < e.Params.DecayStartSeconds {
			continue
		}

		elapsed := ageSeconds - e.Params.DecayStartSeconds
		decayed := cell.SeedConfidence - elapsed*e.Params.DecayRatePerSecond

		if decayed < e.Params.MinConfidence || ageSeconds > e.Params.StaleThresholdSeconds {
			cell.State = CellUnknown
			cell.Confidence = 0
			cell.SeedConfidence = 0
			cell.LastUpdateUnixNanos = 0
			cell.Revision = g.bumpRevision()
			continue
		}

		if decayed != cell.Confidence {
			cell.Confidence = decayed
			cell.Revision = g.bumpRevision()
		}
	}
}
