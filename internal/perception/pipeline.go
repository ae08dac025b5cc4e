package perception

import (
	"time"

	"github.com/fieldrover/worldmodel/internal/config"
	"github.com/fieldrover/worldmodel/internal/grid"
	"github.com/fieldrover/worldmodel/internal/tracking"
	"github.com/fieldrover/worldmodel/internal/vision"
)

// Pipeline is the world model for one device. All entry points are
// synchronous and caller-driven: one sensor tick, one call. The grid and
// track store handle their own locking, so a pipeline is safe to share
// between a perception loop and read-side consumers.
type Pipeline struct {
	DeviceID string

	grid      *grid.Grid
	projector *grid.Projector
	decay     *grid.DecayEngine
	tracks    *tracking.Store
}

// NewPipeline builds a pipeline for one device from tuning config.
func NewPipeline(deviceID string, cfg *config.TuningConfig) (*Pipeline, error) {
	g, err := grid.NewGrid(deviceID, grid.ParamsFromTuning(cfg))
	if err != nil {
		return nil, err
	}
	tracks, err := tracking.NewStore(deviceID, tracking.ParamsFromTuning(cfg))
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		DeviceID:  deviceID,
		grid:      g,
		projector: grid.NewProjector(grid.ProjectionParamsFromTuning(cfg)),
		decay:     grid.NewDecayEngine(grid.DecayParamsFromTuning(cfg)),
		tracks:    tracks,
	}, nil
}

// ProcessFrame folds one (pose, vision frame) pair into the grid and then
// ages it, so unobserved regions regress toward unknown every cycle.
func (p *Pipeline) ProcessFrame(pose vision.Pose, frame vision.VisionFrame, now time.Time) {
	p.projector.Project(p.grid, pose, frame, now)
	p.decay.Decay(p.grid, now)
}

// ProcessObservations runs one tracking cycle and returns the
// associations and lifecycle events it produced.
func (p *Pipeline) ProcessObservations(observations []tracking.Observation, now time.Time) tracking.UpdateResult {
	return p.tracks.Update(observations, now)
}

// Frontiers returns the current exploration candidates.
func (p *Pipeline) Frontiers() []grid.Frontier {
	return grid.FindFrontiers(p.grid)
}

// Grid exposes the device's occupancy grid for read-side consumers and
// persistence.
func (p *Pipeline) Grid() *grid.Grid {
	return p.grid
}

// Tracks exposes the device's track store.
func (p *Pipeline) Tracks() *tracking.Store {
	return p.tracks
}
