package grid

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridDiff(a, b *Grid) string {
	return cmp.Diff(a.Cells(), b.Cells(), cmpopts.EquateEmpty())
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := mustNewGrid(t)
	setCell(t, g, 5, 5, CellFree, 0.6)
	setCell(t, g, 6, 5, CellObstacle, 0.87)
	setCell(t, g, 25, 25, CellExplored, 1.0)

	snap, err := g.Snapshot(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "robot-01", snap.DeviceID)
	assert.Equal(t, g.Revision(), snap.Revision)
	assert.NotEmpty(t, snap.GridBlob)

	restored, err := RestoreSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, g.DeviceID, restored.DeviceID)
	assert.Equal(t, g.Params, restored.Params)
	assert.Equal(t, g.Revision(), restored.Revision())
	if diff := gridDiff(g, restored); diff != "" {
		t.Errorf("restored grid differs (-want +got):\n%s", diff)
	}
}

func TestRestoreSnapshotRejectsCorruptBlob(t *testing.T) {
	g := mustNewGrid(t)
	snap, err := g.Snapshot(time.Now())
	require.NoError(t, err)

	snap.GridBlob = []byte("not a gzip stream")
	_, err = RestoreSnapshot(snap)
	assert.Error(t, err)
}

func TestRestoreSnapshotRejectsGeometryMismatch(t *testing.T) {
	g := mustNewGrid(t)
	snap, err := g.Snapshot(time.Now())
	require.NoError(t, err)

	snap.Width = 10
	snap.Height = 10
	_, err = RestoreSnapshot(snap)
	assert.Error(t, err)
}

func TestDeltaSinceZeroReturnsAllChangedCells(t *testing.T) {
	g := mustNewGrid(t)
	setCell(t, g, 5, 5, CellFree, 0.6)
	setCell(t, g, 6, 5, CellObstacle, 0.9)

	d := g.DeltaSince(0)
	assert.EqualValues(t, 0, d.FromRevision)
	assert.Equal(t, g.Revision(), d.ToRevision)
	assert.Len(t, d.Cells, 2)
}

func TestDeltaSinceReturnsOnlyNewerCells(t *testing.T) {
	g := mustNewGrid(t)
	setCell(t, g, 5, 5, CellFree, 0.6)
	mark := g.Revision()
	setCell(t, g, 6, 5, CellObstacle, 0.9)

	d := g.DeltaSince(mark)
	require.Len(t, d.Cells, 1)
	assert.Equal(t, g.Idx(6, 5), d.Cells[0].Index)
	assert.Equal(t, CellObstacle, d.Cells[0].Cell.State)
}

func TestApplyDeltaReproducesSourceGrid(t *testing.T) {
	source := mustNewGrid(t)
	follower := mustNewGrid(t)

	setCell(t, source, 5, 5, CellFree, 0.6)
	setCell(t, source, 6, 5, CellObstacle, 0.9)
	require.NoError(t, follower.ApplyDelta(source.DeltaSince(0)))

	mark := follower.Revision()
	setCell(t, source, 7, 5, CellExplored, 1.0)
	setCell(t, source, 5, 5, CellObstacle, 0.8)
	require.NoError(t, follower.ApplyDelta(source.DeltaSince(mark)))

	assert.Equal(t, source.Revision(), follower.Revision())
	if diff := gridDiff(source, follower); diff != "" {
		t.Errorf("follower diverged from source (-want +got):\n%s", diff)
	}
}

func TestApplyDeltaRejectsOutOfRangeIndexWithoutPartialWrite(t *testing.T) {
	g := mustNewGrid(t)
	before := g.Cells()

	err := g.ApplyDelta(Delta{
		Cells: []CellDelta{
			{Index: 0, Cell: Cell{State: CellFree, Confidence: 0.5}},
			{Index: 50 * 50, Cell: Cell{State: CellObstacle, Confidence: 0.9}},
		},
	})
	require.Error(t, err)
	assert.Equal(t, before, g.Cells(), "failed delta must not modify any cell")
}
