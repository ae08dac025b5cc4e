package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDecayParams() DecayParams {
	return DecayParams{
		DecayStartSeconds:     30,
		DecayRatePerSecond:    0.01,
		MinConfidence:         0.1,
		StaleThresholdSeconds: 300,
	}
}

// seedCell writes a cell with a timestamp, as projection would.
func seedCell(t *testing.T, g *Grid, gx, gy int, state CellState, conf float64, at time.Time) {
	t.Helper()
	setCell(t, g, gx, gy, state, conf)
	g.mu.Lock()
	g.cells[g.Idx(gx, gy)].LastUpdateUnixNanos = at.UnixNano()
	g.mu.Unlock()
}

func TestDecayBeforeStartIsUnchanged(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())
	t0 := time.Now()

	seedCell(t, g, 5, 5, CellFree, 0.6, t0)
	e.Decay(g, t0.Add(10*time.Second))

	cell, _ := g.CellAt(5, 5)
	assert.Equal(t, CellFree, cell.State)
	assert.Equal(t, 0.6, cell.Confidence)
}

func TestDecayReducesConfidencePastStart(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())
	t0 := time.Now()

	seedCell(t, g, 5, 5, CellFree, 0.6, t0)
	e.Decay(g, t0.Add(40*time.Second)) // 10s past decay start

	cell, _ := g.CellAt(5, 5)
	assert.Equal(t, CellFree, cell.State)
	assert.InDelta(t, 0.5, cell.Confidence, 1e-9)
}

func TestDecayIsIdempotentAtFixedNow(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())
	t0 := time.Now()
	now := t0.Add(60 * time.Second)

	seedCell(t, g, 5, 5, CellFree, 0.6, t0)
	seedCell(t, g, 6, 6, CellObstacle, 0.9, t0)

	e.Decay(g, now)
	first := g.Cells()
	e.Decay(g, now)
	second := g.Cells()

	require.Equal(t, first, second, "second decay pass at the same instant changed the grid")
}

func TestDecayConfidenceNonIncreasingWithAge(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())
	t0 := time.Now()
	seedCell(t, g, 5, 5, CellObstacle, 0.9, t0)

	prev := 0.9
	for _, offset := range []time.Duration{20, 40, 60, 90, 120, 200} {
		e.Decay(g, t0.Add(offset*time.Second))
		cell, _ := g.CellAt(5, 5)
		if cell.State == CellUnknown {
			assert.Equal(t, 0.0, cell.Confidence)
			break
		}
		assert.LessOrEqual(t, cell.Confidence, prev, "confidence rose with age at +%ds", offset)
		prev = cell.Confidence
	}
}

func TestDecayRevertsLowConfidenceToUnknown(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())
	t0 := time.Now()

	// Seeded just above the floor: a long age pushes it below MinConfidence.
	seedCell(t, g, 5, 5, CellFree, 0.15, t0)
	e.Decay(g, t0.Add(40*time.Second)) // decayed = 0.15 - 10*0.01 = 0.05 < 0.1

	cell, _ := g.CellAt(5, 5)
	assert.Equal(t, CellUnknown, cell.State)
	assert.Equal(t, 0.0, cell.Confidence)
	assert.EqualValues(t, 0, cell.LastUpdateUnixNanos)
}

func TestDecayRevertsStaleCellsRegardlessOfConfidence(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())
	t0 := time.Now()

	seedCell(t, g, 5, 5, CellObstacle, 1.0, t0)
	e.Decay(g, t0.Add(301*time.Second))

	cell, _ := g.CellAt(5, 5)
	assert.Equal(t, CellUnknown, cell.State)
	assert.Equal(t, 0.0, cell.Confidence)
}

func TestDecayNeverTouchesExploredCells(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())
	t0 := time.Now()

	seedCell(t, g, 5, 5, CellExplored, 1.0, t0)
	e.Decay(g, t0.Add(24*time.Hour))

	cell, _ := g.CellAt(5, 5)
	assert.Equal(t, CellExplored, cell.State)
	assert.Equal(t, 1.0, cell.Confidence)
}

func TestDecaySkipsCellsWithoutTimestamp(t *testing.T) {
	g := mustNewGrid(t)
	e := NewDecayEngine(testDecayParams())

	// State set but LastUpdate left at zero; decay must not touch it.
	setCell(t, g, 5, 5, CellFree, 0.6)
	e.Decay(g, time.Now().Add(time.Hour))

	cell, _ := g.CellAt(5, 5)
	assert.Equal(t, CellFree, cell.State)
	assert.Equal(t, 0.6, cell.Confidence)
}
