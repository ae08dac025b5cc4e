// Package monitor renders world-model state to image files for
// debugging. Rendering is offline tooling; nothing here runs inside the
// perception cycle.
package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldrover/worldmodel/internal/grid"
)

// GridRenderer writes occupancy-grid heatmaps as PNG files.
type GridRenderer struct {
	outputDir string
}

// NewGridRenderer creates a renderer writing into outputDir, creating the
// directory if needed.
func NewGridRenderer(outputDir string) (*GridRenderer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &GridRenderer{outputDir: outputDir}, nil
}

// RenderBelief writes a heatmap of the grid's current belief and returns
// the file path. Cells are encoded on a diverging scale: free and
// explored cells map to negative confidence (blue), obstacles to positive
// confidence (red), unknown cells to zero.
func (r *GridRenderer) RenderBelief(g *grid.Grid, now time.Time) (string, error) {
	data := &beliefXYZ{
		params: g.Params,
		cells:  g.Cells(),
	}

	pal := moreland.SmoothBlueRed().Palette(255)
	heatmap := plotter.NewHeatMap(data, pal)
	heatmap.Min = -1
	heatmap.Max = 1

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s occupancy belief", g.DeviceID)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(heatmap)

	path := filepath.Join(r.outputDir,
		fmt.Sprintf("%s_belief_%s.png", g.DeviceID, FormatTimestamp(now)))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save belief heatmap: %w", err)
	}
	return path, nil
}

// beliefXYZ adapts a grid cell snapshot to plotter.GridXYZ.
type beliefXYZ struct {
	params grid.Params
	cells  []grid.Cell
}

func (b *beliefXYZ) Dims() (c, r int) {
	return b.params.Width, b.params.Height
}

func (b *beliefXYZ) X(c int) float64 {
	return b.params.OriginX + (float64(c)+0.5)*b.params.Resolution
}

func (b *beliefXYZ) Y(r int) float64 {
	return b.params.OriginY + (float64(r)+0.5)*b.params.Resolution
}

func (b *beliefXYZ) Z(c, r int) float64 {
	cell := b.cells[r*b.params.Width+c]
	switch cell.State {
	case grid.CellObstacle:
		return cell.Confidence
	case grid.CellFree, grid.CellExplored:
		return -cell.Confidence
	default:
		return 0
	}
}

// FormatTimestamp names output files with a sortable timestamp.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
