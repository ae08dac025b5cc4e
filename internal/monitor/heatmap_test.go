package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldrover/worldmodel/internal/config"
	"github.com/fieldrover/worldmodel/internal/grid"
	"github.com/fieldrover/worldmodel/internal/vision"
)

func TestRenderBeliefWritesPNG(t *testing.T) {
	cfg := &config.TuningConfig{}
	g, err := grid.NewGrid("robot-01", grid.ParamsFromTuning(cfg))
	require.NoError(t, err)

	// Put some belief on the grid so the heatmap is not uniform.
	projector := grid.NewProjector(grid.ProjectionParamsFromTuning(cfg))
	frame := vision.VisionFrame{
		Scene: vision.SceneSummary{
			Openings: []vision.Region{vision.RegionLeft, vision.RegionCenter},
			Blocked:  []vision.Region{vision.RegionRight},
		},
	}
	projector.Project(g, vision.Pose{}, frame, time.Now())

	dir := t.TempDir()
	renderer, err := NewGridRenderer(dir)
	require.NoError(t, err)

	path, err := renderer.RenderBelief(g, time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestNewGridRendererCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "plots")
	_, err := NewGridRenderer(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
