package grid

import "sort"

// Frontier is a known cell bordering unknown space, a candidate
// exploration target. UnknownNeighbors counts the four-connected unknown
// neighbours (1–4).
type Frontier struct {
	GX               int
	GY               int
	UnknownNeighbors int
}

// FindFrontiers returns every free or explored cell with at least one
// four-connected unknown neighbour, sorted descending by unknown-neighbour
// count. Cells on the grid border are excluded: their out-of-grid
// neighbours say nothing about the environment. Ties break on ascending
// cell index so output order is deterministic.
//
// No path cost or directionality is computed here; that is the planner's
// concern.
func FindFrontiers(g *Grid) []Frontier {
	g.mu.RLock()
	defer g.mu.RUnlock()

	w, h := g.Params.Width, g.Params.Height
	var frontiers []Frontier

	for gy := 1; gy < h-1; gy++ {
		for gx := 1; gx < w-1; gx++ {
			state := g.cells[g.Idx(gx, gy)].State
			if state != CellFree && state != CellExplored {
				continue
			}
			unknown := 0
			if g.cells[g.Idx(gx-1, gy)].State == CellUnknown {
				unknown++
			}
			if g.cells[g.Idx(gx+1, gy)].State == CellUnknown {
				unknown++
			}
			if g.cells[g.Idx(gx, gy-1)].State == CellUnknown {
				unknown++
			}
			if g.cells[g.Idx(gx, gy+1)].State == CellUnknown {
				unknown++
			}
			if unknown > 0 {
				frontiers = append(frontiers, Frontier{GX: gx, GY: gy, UnknownNeighbors: unknown})
			}
		}
	}

	sort.Slice(frontiers, func(i, j int) bool {
		if frontiers[i].UnknownNeighbors != frontiers[j].UnknownNeighbors {
			return frontiers[i].UnknownNeighbors > frontiers[j].UnknownNeighbors
		}
		return g.Idx(frontiers[i].GX, frontiers[i].GY) < g.Idx(frontiers[j].GX, frontiers[j].GY)
	})

	return frontiers
}
