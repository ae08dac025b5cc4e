package grid

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"time"
)

// Snapshot is a full serialized grid state. The cell payload is gob
// encoded and gzip compressed; the surrounding metadata is enough to
// reconstruct the grid without access to the original configuration.
type Snapshot struct {
	DeviceID       string
	TakenUnixNanos int64
	Width          int
	Height         int
	Resolution     float64
	OriginX        float64
	OriginY        float64
	Revision       uint64
	GridBlob       []byte
}

// CellDelta is one changed cell in an incremental delta.
type CellDelta struct {
	Index int
	Cell  Cell
}

// Delta is the set of cells changed between two grid revisions. Applying
// a delta whose FromRevision matches the receiver's revision reproduces
// the source grid's state at ToRevision.
type Delta struct {
	DeviceID     string
	FromRevision uint64
	ToRevision   uint64
	Cells        []CellDelta
}

// serializeCells compresses the cell slice using gob encoding and gzip.
func serializeCells(cells []Cell) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(cells); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deserializeCells reverses serializeCells.
func deserializeCells(blob []byte) ([]Cell, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("gzip open: %w", err)
	}
	defer gz.Close()
	var cells []Cell
	if err := gob.NewDecoder(gz).Decode(&cells); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return cells, nil
}

// Snapshot captures the full grid state at now.
func (g *Grid) Snapshot(now time.Time) (*Snapshot, error) {
	g.mu.RLock()
	cellsCopy := make([]Cell, len(g.cells))
	copy(cellsCopy, g.cells)
	revision := g.revision
	g.mu.RUnlock()

	blob, err := serializeCells(cellsCopy)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		DeviceID:       g.DeviceID,
		TakenUnixNanos: now.UnixNano(),
		Width:          g.Params.Width,
		Height:         g.Params.Height,
		Resolution:     g.Params.Resolution,
		OriginX:        g.Params.OriginX,
		OriginY:        g.Params.OriginY,
		Revision:       revision,
		GridBlob:       blob,
	}, nil
}

// RestoreSnapshot reconstructs a grid from a full snapshot.
func RestoreSnapshot(snap *Snapshot) (*Grid, error) {
	cells, err := deserializeCells(snap.GridBlob)
	if err != nil {
		return nil, err
	}
	if len(cells) != snap.Width*snap.Height {
		return nil, fmt.Errorf("snapshot cell count %d does not match %dx%d",
			len(cells), snap.Width, snap.Height)
	}
	g, err := NewGrid(snap.DeviceID, Params{
		Width:      snap.Width,
		Height:     snap.Height,
		Resolution: snap.Resolution,
		OriginX:    snap.OriginX,
		OriginY:    snap.OriginY,
	})
	if err != nil {
		return nil, err
	}
	g.cells = cells
	g.revision = snap.Revision
	return g, nil
}

// DeltaSince returns the cells changed after the given revision. A
// sinceRevision of zero returns every non-default cell, which makes the
// first delta equivalent to a sparse snapshot.
func (g *Grid) DeltaSince(sinceRevision uint64) Delta {
	g.mu.RLock()
	defer g.mu.RUnlock()

	d := Delta{
		DeviceID:     g.DeviceID,
		FromRevision: sinceRevision,
		ToRevision:   g.revision,
	}
	for i := range g.cells {
		if g.cells[i].Revision > sinceRevision {
			d.Cells = append(d.Cells, CellDelta{Index: i, Cell: g.cells[i]})
		}
	}
	return d
}

// ApplyDelta applies an incremental delta produced by DeltaSince on a grid
// with identical geometry. Indices outside the grid are rejected rather
// than silently dropped: a bad index means the geometries diverged.
func (g *Grid) ApplyDelta(d Delta) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, cd := range d.Cells {
		if cd.Index < 0 || cd.Index >= len(g.cells) {
			return fmt.Errorf("delta index %d out of range for %d cells", cd.Index, len(g.cells))
		}
	}
	for _, cd := range d.Cells {
		g.cells[cd.Index] = cd.Cell
	}
	if d.ToRevision > g.revision {
		g.revision = d.ToRevision
	}
	return nil
}
