package grid

import (
	"fmt"
	"math"
	"sync"

	"github.com/fieldrover/worldmodel/internal/config"
)

// CellState is the belief state of a single grid cell.
type CellState string

const (
	CellUnknown  CellState = "unknown"  // never observed, or decayed back to ignorance
	CellFree     CellState = "free"     // traversable per ray casting
	CellExplored CellState = "explored" // the robot has physically occupied this cell
	CellObstacle CellState = "obstacle" // blocked per detection or scene summary
)

// Cell is one occupancy cell.
//
// SeedConfidence is the confidence written by the most recent observation;
// Confidence is the current (possibly decayed) view. The decay engine
// recomputes Confidence from SeedConfidence and the cell age, so repeated
// decay passes at the same timestamp are idempotent.
type Cell struct {
	State               CellState
	Confidence          float64
	SeedConfidence      float64
	LastUpdateUnixNanos int64
	VisitCount          uint32
	// Revision is the grid revision at which this cell last changed.
	// Used by DeltaSince for incremental serialization.
	Revision uint64
}

// Params is the grid geometry: cell dimensions, metres per cell, and the
// world coordinate of the grid's (0,0) corner.
type Params struct {
	Width      int
	Height     int
	Resolution float64
	OriginX    float64
	OriginY    float64
}

// ParamsFromTuning builds grid geometry from a loaded TuningConfig.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		Width:      cfg.GetGridWidth(),
		Height:     cfg.GetGridHeight(),
		Resolution: cfg.GetGridResolution(),
		OriginX:    cfg.GetGridOriginX(),
		OriginY:    cfg.GetGridOriginY(),
	}
}

// Grid is the occupancy grid for one device. All mutation happens through
// the Projector and DecayEngine during the owning pipeline's cycle call;
// the read accessors take copies and are safe from other goroutines.
type Grid struct {
	DeviceID string
	Params   Params

	mu       sync.RWMutex
	cells    []Cell
	revision uint64
}

// NewGrid allocates a grid with every cell unknown. Geometry is validated
// here so a misconfigured grid fails at construction.
func NewGrid(deviceID string, p Params) (*Grid, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Resolution <= 0 {
		return nil, fmt.Errorf("grid resolution must be positive, got %v", p.Resolution)
	}
	cells := make([]Cell, p.Width*p.Height)
	for i := range cells {
		cells[i].State = CellUnknown
	}
	return &Grid{
		DeviceID: deviceID,
		Params:   p,
		cells:    cells,
	}, nil
}

// Idx maps grid coordinates to the flat cell index.
func (g *Grid) Idx(gx, gy int) int { return gy*g.Params.Width + gx }

// InBounds reports whether (gx, gy) lies inside the grid.
func (g *Grid) InBounds(gx, gy int) bool {
	return gx >= 0 && gx < g.Params.Width && gy >= 0 && gy < g.Params.Height
}

// WorldToGrid maps a world coordinate in metres to grid cell coordinates.
// The result may be out of bounds; callers check InBounds.
func (g *Grid) WorldToGrid(wx, wy float64) (int, int) {
	gx := int(math.Floor((wx - g.Params.OriginX) / g.Params.Resolution))
	gy := int(math.Floor((wy - g.Params.OriginY) / g.Params.Resolution))
	return gx, gy
}

// GridToWorld maps grid cell coordinates to the world coordinate of the
// cell center.
func (g *Grid) GridToWorld(gx, gy int) (float64, float64) {
	wx := g.Params.OriginX + (float64(gx)+0.5)*g.Params.Resolution
	wy := g.Params.OriginY + (float64(gy)+0.5)*g.Params.Resolution
	return wx, wy
}

// CellAt returns a copy of the cell at (gx, gy) and whether the
// coordinates were in bounds.
func (g *Grid) CellAt(gx, gy int) (Cell, bool) {
	if !g.InBounds(gx, gy) {
		return Cell{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[g.Idx(gx, gy)], true
}

// Cells returns a copy of the full cell slice.
func (g *Grid) Cells() []Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// KnownCellCount returns the number of cells whose state is not unknown.
func (g *Grid) KnownCellCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for i := range g.cells {
		if g.cells[i].State != CellUnknown {
			n++
		}
	}
	return n
}

// CountByState returns per-state cell counts.
func (g *Grid) CountByState() map[CellState]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	counts := make(map[CellState]int, 4)
	for i := range g.cells {
		counts[g.cells[i].State]++
	}
	return counts
}

// Revision returns the grid's current revision counter. The revision
// advances on every cell change and anchors incremental deltas.
func (g *Grid) Revision() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.revision
}

// bumpRevision advances the revision counter and returns the new value.
// Caller must hold g.mu.
func (g *Grid) bumpRevision() uint64 {
	g.revision++
	return g.revision
}
