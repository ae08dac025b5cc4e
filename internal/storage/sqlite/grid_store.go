package sqlite

import (
	"fmt"

	"github.com/fieldrover/worldmodel/internal/grid"
)

// GridStore persists full grid snapshots. Incremental deltas stay in
// memory between snapshots; a snapshot is the recovery baseline.
type GridStore struct {
	db *DB
}

// NewGridStore creates a GridStore backed by the given database.
func NewGridStore(db *DB) *GridStore {
	return &GridStore{db: db}
}

// SaveSnapshot inserts one snapshot row and returns its ID.
func (s *GridStore) SaveSnapshot(snap *grid.Snapshot) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO grid_snapshots (
			device_id, taken_unix_nanos, width, height,
			resolution, origin_x, origin_y, revision, grid_blob
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.DeviceID,
		snap.TakenUnixNanos,
		snap.Width,
		snap.Height,
		snap.Resolution,
		snap.OriginX,
		snap.OriginY,
		snap.Revision,
		snap.GridBlob,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get snapshot insert ID: %w", err)
	}
	return id, nil
}

// LoadLatestSnapshot returns the most recent snapshot for a device, or
// sql.ErrNoRows when the device has never been persisted.
func (s *GridStore) LoadLatestSnapshot(deviceID string) (*grid.Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT device_id, taken_unix_nanos, width, height,
		       resolution, origin_x, origin_y, revision, grid_blob
		FROM grid_snapshots
		WHERE device_id = ?
		ORDER BY taken_unix_nanos DESC
		LIMIT 1
	`, deviceID)

	var snap grid.Snapshot
	err := row.Scan(
		&snap.DeviceID,
		&snap.TakenUnixNanos,
		&snap.Width,
		&snap.Height,
		&snap.Resolution,
		&snap.OriginX,
		&snap.OriginY,
		&snap.Revision,
		&snap.GridBlob,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// PruneSnapshots deletes all but the newest keep snapshots for a device.
func (s *GridStore) PruneSnapshots(deviceID string, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be >= 1, got %d", keep)
	}
	result, err := s.db.Exec(`
		DELETE FROM grid_snapshots
		WHERE device_id = ? AND id NOT IN (
			SELECT id FROM grid_snapshots
			WHERE device_id = ?
			ORDER BY taken_unix_nanos DESC
			LIMIT ?
		)
	`, deviceID, deviceID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

// SnapshotCount reports how many snapshots a device has stored.
func (s *GridStore) SnapshotCount(deviceID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM grid_snapshots WHERE device_id = ?`, deviceID,
	).Scan(&n)
	return n, err
}
