package grid

import (
	"math"
	"time"

	"github.com/fieldrover/worldmodel/internal/config"
	"github.com/fieldrover/worldmodel/internal/geom"
	"github.com/fieldrover/worldmodel/internal/vision"
)

// blockedObstacleConfidence is the fixed confidence written for obstacles
// inferred from a blocked scene direction without a specific detection.
const blockedObstacleConfidence = 0.6

// ProjectionParams configures how a vision frame is projected onto the grid.
type ProjectionParams struct {
	RayStepMeters          float64
	OpenRayDepthMeters     float64
	BlockedRayDepthMeters  float64
	BaseFreeConfidence     float64
	BaseObstacleConfidence float64
	CameraFOVRadians       float64
	// DefaultDetectionDepthM substitutes for detections whose depth
	// estimate is absent.
	DefaultDetectionDepthM float64
}

// ProjectionParamsFromTuning builds projection parameters from a loaded
// TuningConfig. Depth defaults arrive in centimetres and are converted.
func ProjectionParamsFromTuning(cfg *config.TuningConfig) ProjectionParams {
	return ProjectionParams{
		RayStepMeters:          cfg.GetRayStepMeters(),
		OpenRayDepthMeters:     cfg.GetOpenRayDepthMeters(),
		BlockedRayDepthMeters:  cfg.GetBlockedRayDepthMeters(),
		BaseFreeConfidence:     cfg.GetBaseFreeConfidence(),
		BaseObstacleConfidence: cfg.GetBaseObstacleConfidence(),
		CameraFOVRadians:       cfg.GetCameraFOVRadians(),
		DefaultDetectionDepthM: cfg.GetDefaultDetectionDepth() / 100.0,
	}
}

// Projector converts one (pose, vision frame) pair into grid cell updates
// by ray casting. Project never fails: out-of-bounds coordinates are
// silent per-cell no-ops, expected whenever a ray leaves the grid.
type Projector struct {
	Params ProjectionParams
}

// NewProjector creates a projector with the given parameters.
func NewProjector(p ProjectionParams) *Projector {
	return &Projector{Params: p}
}

// Project mutates the grid in place from one vision frame.
//
// Order of writes matters for the invariants: the robot's own cell is
// marked explored first, open directions carve free space, detections
// place obstacles at their estimated depth, and blocked directions fill
// in conservative obstacles only where no detection already spoke for
// that region.
func (p *Projector) Project(g *Grid, pose vision.Pose, frame vision.VisionFrame, now time.Time) {
	nowNanos := now.UnixNano()

	g.mu.Lock()
	defer g.mu.Unlock()

	// 1. The robot's own cell is ground truth: explored, full confidence.
	if gx, gy := g.WorldToGrid(pose.X, pose.Y); g.InBounds(gx, gy) {
		cell := &g.cells[g.Idx(gx, gy)]
		cell.State = CellExplored
		cell.Confidence = 1.0
		cell.SeedConfidence = 1.0
		cell.VisitCount++
		cell.LastUpdateUnixNanos = nowNanos
		cell.Revision = g.bumpRevision()
	}

	// 2. Open directions carve free rays to the configured open depth.
	for _, region := range frame.Scene.Openings {
		if !region.Valid() {
			continue
		}
		angle := pose.Rotation + region.AngleOffset()
		p.castFree(g, pose, angle, p.Params.OpenRayDepthMeters, nowNanos)
	}

	// 3. Detections: fine angle from the bbox horizontal center across the
	// camera field of view, free cells up to depth − step, obstacle at the
	// terminal cell. Track which regions had detections so blocked
	// directions don't double-mark.
	regionsWithDetections := make(map[vision.Region]bool, len(frame.Detections))
	for _, det := range frame.Detections {
		if !det.Region.Valid() {
			continue
		}
		regionsWithDetections[det.Region] = true

		depth := p.Params.DefaultDetectionDepthM
		if det.HasDepth() {
			depth = det.EstimatedDepthCm / 100.0
		}
		// BBox center 0 is the left image edge, which maps to the positive
		// (counter-clockwise) half of the field of view.
		angle := pose.Rotation + (0.5-det.BBox.CenterX())*p.Params.CameraFOVRadians

		p.castFree(g, pose, angle, depth-p.Params.RayStepMeters, nowNanos)
		p.markObstacle(g, pose, angle, depth, det.Confidence*p.Params.BaseObstacleConfidence, nowNanos)
	}

	// 4. Blocked directions without a detection in the same region get a
	// conservative fixed-confidence obstacle at the default blocked depth.
	for _, region := range frame.Scene.Blocked {
		if !region.Valid() || regionsWithDetections[region] {
			continue
		}
		angle := pose.Rotation + region.AngleOffset()
		depth := p.Params.BlockedRayDepthMeters
		p.castFree(g, pose, angle, depth-p.Params.RayStepMeters, nowNanos)
		p.markObstacle(g, pose, angle, depth, blockedObstacleConfidence, nowNanos)
	}
}

// castFree walks a fixed-step ray from the pose along angle, marking
// traversed cells free with distance-tapered confidence. Only unknown and
// free cells are written; explored and obstacle cells are never
// downgraded. A non-positive depth is a no-op (zero-length ray).
// Caller must hold g.mu.
func (p *Projector) castFree(g *Grid, pose vision.Pose, angle, depth float64, nowNanos int64) {
	if depth <= 0 || p.Params.RayStepMeters <= 0 {
		return
	}
	sin, cos := math.Sincos(angle)
	for d := p.Params.RayStepMeters; d <= depth; d += p.Params.RayStepMeters {
		gx, gy := g.WorldToGrid(pose.X+d*cos, pose.Y+d*sin)
		if !g.InBounds(gx, gy) {
			continue
		}
		cell := &g.cells[g.Idx(gx, gy)]
		if cell.State != CellUnknown && cell.State != CellFree {
			continue
		}
		taper := 1 - d/depth
		if taper < 0.5 {
			taper = 0.5
		}
		conf := geom.Clamp01(p.Params.BaseFreeConfidence * taper)
		cell.State = CellFree
		cell.Confidence = conf
		cell.SeedConfidence = conf
		cell.LastUpdateUnixNanos = nowNanos
		cell.Revision = g.bumpRevision()
	}
}

// markObstacle writes the terminal obstacle cell at depth along angle.
// Confidence only rises here (max against any existing value); decay
// handles decreases. An explored cell is never overwritten.
// Caller must hold g.mu.
func (p *Projector) markObstacle(g *Grid, pose vision.Pose, angle, depth, confidence float64, nowNanos int64) {
	sin, cos := math.Sincos(angle)
	gx, gy := g.WorldToGrid(pose.X+depth*cos, pose.Y+depth*sin)
	if !g.InBounds(gx, gy) {
		return
	}
	cell := &g.cells[g.Idx(gx, gy)]
	if cell.State == CellExplored {
		return
	}
	conf := geom.Clamp01(confidence)
	if cell.State == CellObstacle && cell.Confidence > conf {
		conf = cell.Confidence
	}
	cell.State = CellObstacle
	cell.Confidence = conf
	cell.SeedConfidence = conf
	cell.LastUpdateUnixNanos = nowNanos
	cell.Revision = g.bumpRevision()
}
