package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fieldrover/worldmodel/internal/tracking"
)

// TrackStore persists tracks and their lifecycle events. Features and
// position history are stored as JSON: they are read back whole, never
// queried by field.
type TrackStore struct {
	db *DB
}

// NewTrackStore creates a TrackStore backed by the given database.
func NewTrackStore(db *DB) *TrackStore {
	return &TrackStore{db: db}
}

// UpsertTrack inserts or updates one track keyed by track ID.
func (s *TrackStore) UpsertTrack(track *tracking.Track) error {
	featuresJSON, err := json.Marshal(track.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	historyJSON, err := json.Marshal(track.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO tracks (
			track_id, device_id, state, x, y, vx, vy,
			position_uncertainty, features_json, feature_confidence,
			match_count, missed_count, confidence,
			created_unix_nanos, last_seen_unix_nanos, history_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			state = excluded.state,
			x = excluded.x,
			y = excluded.y,
			vx = excluded.vx,
			vy = excluded.vy,
			position_uncertainty = excluded.position_uncertainty,
			features_json = excluded.features_json,
			feature_confidence = excluded.feature_confidence,
			match_count = excluded.match_count,
			missed_count = excluded.missed_count,
			confidence = excluded.confidence,
			last_seen_unix_nanos = excluded.last_seen_unix_nanos,
			history_json = excluded.history_json
	`,
		track.TrackID, track.DeviceID, string(track.State),
		track.X, track.Y, track.VX, track.VY,
		track.PositionUncertainty, string(featuresJSON), track.FeatureConfidence,
		track.MatchCount, track.MissedCount, track.Confidence,
		track.CreatedUnixNanos, track.LastSeenUnixNanos, string(historyJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert track %s: %w", track.TrackID, err)
	}
	return nil
}

// GetTrack loads one track by ID.
func (s *TrackStore) GetTrack(trackID string) (*tracking.Track, error) {
	row := s.db.QueryRow(trackSelect+` WHERE track_id = ?`, trackID)
	return scanTrack(row)
}

// GetTracksByDevice loads a device's tracks, optionally filtered by
// state. Results are ordered by most recently seen.
func (s *TrackStore) GetTracksByDevice(deviceID string, state string, limit int) ([]*tracking.Track, error) {
	query := trackSelect + ` WHERE device_id = ?`
	args := []interface{}{deviceID}
	if state != "" {
		query += ` AND state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY last_seen_unix_nanos DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*tracking.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// GetTracksSeenSince loads a device's tracks last seen at or after the
// given timestamp, most recent first.
func (s *TrackStore) GetTracksSeenSince(deviceID string, sinceUnixNanos int64) ([]*tracking.Track, error) {
	rows, err := s.db.Query(
		trackSelect+` WHERE device_id = ? AND last_seen_unix_nanos >= ? ORDER BY last_seen_unix_nanos DESC`,
		deviceID, sinceUnixNanos,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracks since: %w", err)
	}
	defer rows.Close()

	var tracks []*tracking.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// DeleteTracks removes every track for a device, returning how many rows
// were deleted.
func (s *TrackStore) DeleteTracks(deviceID string) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM tracks WHERE device_id = ?`, deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete tracks: %w", err)
	}
	return result.RowsAffected()
}

// InsertEvents appends a cycle's events to the device's persistent log.
func (s *TrackStore) InsertEvents(deviceID string, events []tracking.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin event insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO track_events (device_id, event_type, track_id, other_track_id, ts_unix_nanos)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(deviceID, string(ev.Type), ev.TrackID, ev.OtherTrackID, ev.TSUnixNanos); err != nil {
			return fmt.Errorf("insert event %s/%s: %w", ev.Type, ev.TrackID, err)
		}
	}
	return tx.Commit()
}

// GetEvents loads a device's events newest first.
func (s *TrackStore) GetEvents(deviceID string, limit int) ([]tracking.Event, error) {
	query := `
		SELECT event_type, track_id, other_track_id, ts_unix_nanos
		FROM track_events
		WHERE device_id = ?
		ORDER BY ts_unix_nanos DESC, id DESC
	`
	args := []interface{}{deviceID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []tracking.Event
	for rows.Next() {
		var ev tracking.Event
		var eventType string
		if err := rows.Scan(&eventType, &ev.TrackID, &ev.OtherTrackID, &ev.TSUnixNanos); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = tracking.EventType(eventType)
		events = append(events, ev)
	}
	return events, rows.Err()
}

const trackSelect = `
	SELECT track_id, device_id, state, x, y, vx, vy,
	       position_uncertainty, features_json, feature_confidence,
	       match_count, missed_count, confidence,
	       created_unix_nanos, last_seen_unix_nanos, history_json
	FROM tracks`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row scanner) (*tracking.Track, error) {
	var track tracking.Track
	var state, featuresJSON, historyJSON string
	err := row.Scan(
		&track.TrackID, &track.DeviceID, &state,
		&track.X, &track.Y, &track.VX, &track.VY,
		&track.PositionUncertainty, &featuresJSON, &track.FeatureConfidence,
		&track.MatchCount, &track.MissedCount, &track.Confidence,
		&track.CreatedUnixNanos, &track.LastSeenUnixNanos, &historyJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan track: %w", err)
	}
	track.State = tracking.TrackState(state)
	if err := json.Unmarshal([]byte(featuresJSON), &track.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features for %s: %w", track.TrackID, err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &track.History); err != nil {
		return nil, fmt.Errorf("unmarshal history for %s: %w", track.TrackID, err)
	}
	return &track, nil
}
