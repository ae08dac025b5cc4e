package grid

import (
	"math"
	"testing"
)

func testParams() Params {
	return Params{Width: 50, Height: 50, Resolution: 0.1, OriginX: -2.5, OriginY: -2.5}
}

func mustNewGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid("robot-01", testParams())
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

// setCell overwrites a cell directly for test setup.
func setCell(t *testing.T, g *Grid, gx, gy int, state CellState, conf float64) {
	t.Helper()
	if !g.InBounds(gx, gy) {
		t.Fatalf("setCell out of bounds: (%d,%d)", gx, gy)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	cell := &g.cells[g.Idx(gx, gy)]
	cell.State = state
	cell.Confidence = conf
	cell.SeedConfidence = conf
	cell.Revision = g.bumpRevision()
}

func TestNewGridStartsUnknown(t *testing.T) {
	g := mustNewGrid(t)
	if got := g.KnownCellCount(); got != 0 {
		t.Errorf("new grid should have 0 known cells, got %d", got)
	}
	cell, ok := g.CellAt(10, 10)
	if !ok {
		t.Fatal("CellAt(10,10) should be in bounds")
	}
	if cell.State != CellUnknown {
		t.Errorf("expected unknown, got %v", cell.State)
	}
	if cell.Confidence != 0 {
		t.Errorf("unknown cell confidence should be 0, got %v", cell.Confidence)
	}
}

func TestNewGridRejectsBadGeometry(t *testing.T) {
	cases := []struct {
		name string
		p    Params
	}{
		{"zero width", Params{Width: 0, Height: 10, Resolution: 0.1}},
		{"negative height", Params{Width: 10, Height: -1, Resolution: 0.1}},
		{"zero resolution", Params{Width: 10, Height: 10, Resolution: 0}},
	}
	for _, c := range cases {
		if _, err := NewGrid("robot-01", c.p); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	g := mustNewGrid(t)

	// World origin maps to the center cell.
	gx, gy := g.WorldToGrid(0, 0)
	if gx != 25 || gy != 25 {
		t.Errorf("WorldToGrid(0,0) = (%d,%d), want (25,25)", gx, gy)
	}

	// GridToWorld returns the cell center; mapping it back is stable.
	wx, wy := g.GridToWorld(gx, gy)
	gx2, gy2 := g.WorldToGrid(wx, wy)
	if gx2 != gx || gy2 != gy {
		t.Errorf("round trip moved cell: (%d,%d) -> (%d,%d)", gx, gy, gx2, gy2)
	}

	// A coordinate just inside the origin corner maps to cell (0,0).
	gx, gy = g.WorldToGrid(-2.45, -2.45)
	if gx != 0 || gy != 0 {
		t.Errorf("WorldToGrid near origin = (%d,%d), want (0,0)", gx, gy)
	}
}

func TestInBounds(t *testing.T) {
	g := mustNewGrid(t)
	cases := []struct {
		gx, gy int
		want   bool
	}{
		{0, 0, true},
		{49, 49, true},
		{-1, 0, false},
		{0, -1, false},
		{50, 0, false},
		{0, 50, false},
	}
	for _, c := range cases {
		if got := g.InBounds(c.gx, c.gy); got != c.want {
			t.Errorf("InBounds(%d,%d) = %v, want %v", c.gx, c.gy, got, c.want)
		}
	}
}

func TestCellAtOutOfBounds(t *testing.T) {
	g := mustNewGrid(t)
	if _, ok := g.CellAt(-1, 5); ok {
		t.Error("CellAt(-1,5) should report out of bounds")
	}
	if _, ok := g.CellAt(5, 500); ok {
		t.Error("CellAt(5,500) should report out of bounds")
	}
}

func TestCountByState(t *testing.T) {
	g := mustNewGrid(t)
	setCell(t, g, 1, 1, CellFree, 0.5)
	setCell(t, g, 2, 2, CellObstacle, 0.9)
	setCell(t, g, 3, 3, CellExplored, 1.0)

	counts := g.CountByState()
	if counts[CellFree] != 1 || counts[CellObstacle] != 1 || counts[CellExplored] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
	if counts[CellUnknown] != 50*50-3 {
		t.Errorf("unknown count = %d, want %d", counts[CellUnknown], 50*50-3)
	}
}

func TestConfidenceAlwaysInUnitRange(t *testing.T) {
	g := mustNewGrid(t)
	setCell(t, g, 1, 1, CellFree, 0.5)
	setCell(t, g, 2, 2, CellObstacle, 1.0)
	for _, cell := range g.Cells() {
		if cell.Confidence < 0 || cell.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", cell.Confidence)
		}
		if math.IsNaN(cell.Confidence) {
			t.Fatal("confidence is NaN")
		}
	}
}
