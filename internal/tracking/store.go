package tracking

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldrover/worldmodel/internal/geom"
	"github.com/fieldrover/worldmodel/internal/monitoring"
)

// Smoothing and merge constants shared by every store.
const (
	// VelocityAlpha is the exponential smoothing factor for velocity updates.
	VelocityAlpha = 0.3
	// FeatureAlpha is the exponential smoothing factor for numeric features.
	FeatureAlpha = 0.2
	// MaxVelocityDtSeconds bounds the observation gap over which a velocity
	// estimate is still meaningful.
	MaxVelocityDtSeconds = 10.0
	// ReidAcceptScore is the minimum re-identification score for reclaiming
	// a lost track instead of creating a new one.
	ReidAcceptScore = 0.5
	// ReidSpeedBudgetMps widens the re-identification radius for every
	// second a track has been lost.
	ReidSpeedBudgetMps = 1.0
	// MergeDistanceM and MergeSimilarity define duplicate-track detection.
	MergeDistanceM  = 0.2
	MergeSimilarity = 0.8
	// MergeConfidenceBoost is added to the survivor's confidence on merge.
	MergeConfidenceBoost = 0.1
	// ConfidenceDecayGraceSeconds is how long a track keeps full confidence
	// after its last observation before decay starts.
	ConfidenceDecayGraceSeconds = 1.0
)

// Store owns the tracks for one device. All mutation happens inside
// Update; query methods return deep copies so callers can never reach the
// live state.
type Store struct {
	DeviceID string

	mu              sync.RWMutex
	params          Params
	tracks          map[string]*Track
	events          []Event
	lastUpdateNanos int64
}

// NewStore creates an empty track store. Invalid parameters fail fast.
func NewStore(deviceID string, p Params) (*Store, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		DeviceID: deviceID,
		params:   p,
		tracks:   make(map[string]*Track),
	}, nil
}

func newTrackID() string {
	return "trk_" + uuid.New().String()
}

// Update runs one tracking cycle: predict, associate, fold matched
// observations in, re-identify or birth the rest, advance the lifecycle of
// unmatched tracks, merge duplicates, and decay stale confidence. Empty
// observation lists and empty stores are both fine; the cycle still
// predicts, ages, and decays.
func (s *Store) Update(observations []Observation, now time.Time) UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowNanos := now.UnixNano()
	var dt float64
	if s.lastUpdateNanos > 0 && nowNanos > s.lastUpdateNanos {
		dt = float64(nowNanos-s.lastUpdateNanos) / 1e9
	}
	s.lastUpdateNanos = nowNanos

	var result UpdateResult

	// Predict active tracks forward; uncertainty grows while unobserved.
	active := make([]*Track, 0, len(s.tracks))
	for _, id := range s.sortedTrackIDs() {
		track := s.tracks[id]
		if !track.active() {
			continue
		}
		track.X += track.VX * dt
		track.Y += track.VY * dt
		track.PositionUncertainty += s.params.UncertaintyGrowthPerSec * dt
		active = append(active, track)
	}

	matchedTracks := make(map[string]bool)
	matchedObs := make(map[int]bool)
	for _, assoc := range associate(active, observations, s.params) {
		track := s.tracks[assoc.TrackID]
		s.foldObservation(track, observations[assoc.ObservationIndex], nowNanos)
		recordMatch(track, s.params)
		matchedTracks[assoc.TrackID] = true
		matchedObs[assoc.ObservationIndex] = true
		result.Associations = append(result.Associations, assoc)
		result.Events = append(result.Events, Event{
			Type: EventMatch, TrackID: track.TrackID, TSUnixNanos: nowNanos,
		})
	}

	// Unmatched observations: reclaim a lost track when features and
	// position agree, otherwise start a new identity.
	for oi, obs := range observations {
		if matchedObs[oi] {
			continue
		}
		if lostID, ok := s.reidentify(obs, nowNanos, matchedTracks); ok {
			track := s.tracks[lostID]
			s.foldObservation(track, obs, nowNanos)
			recordMatch(track, s.params)
			matchedTracks[lostID] = true
			result.Associations = append(result.Associations, Association{
				ObservationIndex: oi, TrackID: lostID,
			})
			result.Events = append(result.Events, Event{
				Type: EventReidentification, TrackID: lostID, TSUnixNanos: nowNanos,
			})
			continue
		}
		if len(s.tracks) >= s.params.MaxTracks {
			monitoring.Logf("tracking[%s]: track limit %d reached, dropping observation %d",
				s.DeviceID, s.params.MaxTracks, oi)
			continue
		}
		track := s.newTrack(obs, nowNanos)
		s.tracks[track.TrackID] = track
		matchedTracks[track.TrackID] = true
		result.Events = append(result.Events, Event{
			Type: EventBirth, TrackID: track.TrackID, TSUnixNanos: nowNanos,
		})
	}

	// Unmatched tracks miss a cycle and advance the state machine.
	var removed []string
	for _, id := range s.sortedTrackIDs() {
		track := s.tracks[id]
		if matchedTracks[id] {
			continue
		}
		if eventType, ok := recordMiss(track, s.params); ok {
			result.Events = append(result.Events, Event{
				Type: eventType, TrackID: id, TSUnixNanos: nowNanos,
			})
		}
		if track.State == TrackDeleted {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(s.tracks, id)
	}

	result.Events = append(result.Events, s.mergeDuplicates(nowNanos)...)
	s.decayConfidence(nowNanos, dt)
	s.appendEvents(result.Events)

	return result
}

// foldObservation blends one observation into a track: smoothed velocity,
// Kalman-style position update, and feature smoothing.
func (s *Store) foldObservation(track *Track, obs Observation, nowNanos int64) {
	obsNanos := obs.TimestampUnixNanos
	if obsNanos == 0 {
		obsNanos = nowNanos
	}

	// Velocity from displacement since the previous sighting, smoothed.
	// Skipped outside (0, MaxVelocityDtSeconds): a zero gap has no rate
	// and a long gap says nothing about current motion.
	if n := len(track.History); n > 0 {
		last := track.History[n-1]
		dtObs := float64(obsNanos-last.TimestampNanos) / 1e9
		if dtObs > 0 && dtObs < MaxVelocityDtSeconds {
			track.VX = geom.Smooth(track.VX, (obs.X-last.X)/dtObs, VelocityAlpha)
			track.VY = geom.Smooth(track.VY, (obs.Y-last.Y)/dtObs, VelocityAlpha)
		}
	}

	// Position blend with gain from the uncertainty ratio.
	obsUncertainty := obs.PositionUncertainty
	if obsUncertainty < s.params.MinObservationUncertaintyM {
		obsUncertainty = s.params.MinObservationUncertaintyM
	}
	k := track.PositionUncertainty / (track.PositionUncertainty + obsUncertainty)
	track.X += k * (obs.X - track.X)
	track.Y += k * (obs.Y - track.Y)
	track.PositionUncertainty *= (1 - k)
	if track.PositionUncertainty < s.params.MinObservationUncertaintyM {
		track.PositionUncertainty = s.params.MinObservationUncertaintyM
	}

	s.foldFeatures(track, obs)

	track.Confidence = geom.Clamp01(geom.Smooth(track.Confidence, obs.Confidence, VelocityAlpha))
	track.LastSeenUnixNanos = obsNanos

	track.History = append(track.History, TrackPoint{X: obs.X, Y: obs.Y, TimestampNanos: obsNanos})
	if len(track.History) > s.params.MaxHistoryLength {
		track.History = track.History[len(track.History)-s.params.MaxHistoryLength:]
	}
}

// foldFeatures smooths numeric features and overwrites symbolic ones only
// when the new observation is more confident than what the track holds.
func (s *Store) foldFeatures(track *Track, obs Observation) {
	f := obs.Features

	if f.WidthM > 0 {
		track.Features.WidthM = smoothOrSet(track.Features.WidthM, f.WidthM)
	}
	if f.HeightM > 0 {
		track.Features.HeightM = smoothOrSet(track.Features.HeightM, f.HeightM)
	}
	if f.DepthM > 0 {
		track.Features.DepthM = smoothOrSet(track.Features.DepthM, f.DepthM)
	}

	if obs.Confidence > track.FeatureConfidence {
		if f.Label != "" {
			track.Features.Label = f.Label
		}
		if f.Category != "" {
			track.Features.Category = f.Category
		}
		if f.Color != "" {
			track.Features.Color = f.Color
		}
		if f.Shape != "" {
			track.Features.Shape = f.Shape
		}
		for key, val := range f.Attributes {
			if track.Features.Attributes == nil {
				track.Features.Attributes = make(map[string]string)
			}
			track.Features.Attributes[key] = val
		}
		track.FeatureConfidence = obs.Confidence
	} else {
		track.FeatureConfidence = geom.Smooth(track.FeatureConfidence, obs.Confidence, FeatureAlpha)
	}
}

func smoothOrSet(prev, next float64) float64 {
	if prev <= 0 {
		return next
	}
	return geom.Smooth(prev, next, FeatureAlpha)
}

// reidentify searches the lost pool for the best-scoring identity for an
// unmatched observation. The acceptance radius widens with time since
// loss, bounded by an assumed walking-pace drift.
func (s *Store) reidentify(obs Observation, nowNanos int64, claimed map[string]bool) (string, bool) {
	if !s.params.ReidentificationEnabled {
		return "", false
	}

	bestID := ""
	bestScore := ReidAcceptScore
	for _, id := range s.sortedTrackIDs() {
		track := s.tracks[id]
		if track.State != TrackLost || claimed[id] {
			continue
		}
		sim := FeatureSimilarity(track.Features, obs.Features)
		if sim < s.params.FeatureSimilarityThreshold {
			continue
		}
		timeSinceLost := float64(nowNanos-track.LastSeenUnixNanos) / 1e9
		if timeSinceLost < 0 {
			timeSinceLost = 0
		}
		extended := s.params.ReidentificationThresholdM + timeSinceLost*ReidSpeedBudgetMps
		dist := geom.EuclideanDistance(track.X, track.Y, obs.X, obs.Y)
		score := sim * (1 - dist/extended)
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	return bestID, bestID != ""
}

// newTrack starts a tentative track from an unclaimed observation.
func (s *Store) newTrack(obs Observation, nowNanos int64) *Track {
	obsNanos := obs.TimestampUnixNanos
	if obsNanos == 0 {
		obsNanos = nowNanos
	}
	uncertainty := obs.PositionUncertainty
	if uncertainty < s.params.MinObservationUncertaintyM {
		uncertainty = s.params.MinObservationUncertaintyM
	}
	track := &Track{
		TrackID:             newTrackID(),
		DeviceID:            s.DeviceID,
		State:               TrackTentative,
		X:                   obs.X,
		Y:                   obs.Y,
		PositionUncertainty: uncertainty,
		Features:            obs.Features,
		FeatureConfidence:   obs.Confidence,
		MatchCount:          1,
		Confidence:          geom.Clamp01(obs.Confidence),
		CreatedUnixNanos:    nowNanos,
		LastSeenUnixNanos:   obsNanos,
		History:             []TrackPoint{{X: obs.X, Y: obs.Y, TimestampNanos: obsNanos}},
	}
	if obs.Features.Attributes != nil {
		track.Features.Attributes = make(map[string]string, len(obs.Features.Attributes))
		for k, v := range obs.Features.Attributes {
			track.Features.Attributes[k] = v
		}
	}
	return track
}

// mergeDuplicates collapses confirmed track pairs that are close enough in
// both position and features to be one object. The lower-confidence track
// is absorbed into the higher-confidence one.
func (s *Store) mergeDuplicates(nowNanos int64) []Event {
	ids := s.sortedTrackIDs()
	absorbed := make(map[string]bool)
	var events []Event

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := s.tracks[ids[i]], s.tracks[ids[j]]
			if absorbed[a.TrackID] || absorbed[b.TrackID] {
				continue
			}
			if a.State != TrackConfirmed || b.State != TrackConfirmed {
				continue
			}
			if geom.EuclideanDistance(a.X, a.Y, b.X, b.Y) >= MergeDistanceM {
				continue
			}
			if FeatureSimilarity(a.Features, b.Features) <= MergeSimilarity {
				continue
			}

			survivor, victim := a, b
			if b.Confidence > a.Confidence {
				survivor, victim = b, a
			}
			s.absorb(survivor, victim)
			absorbed[victim.TrackID] = true
			events = append(events, Event{
				Type:         EventMerge,
				TrackID:      survivor.TrackID,
				OtherTrackID: victim.TrackID,
				TSUnixNanos:  nowNanos,
			})
		}
	}

	for id := range absorbed {
		delete(s.tracks, id)
	}
	return events
}

// absorb folds the victim's history and match record into the survivor.
func (s *Store) absorb(survivor, victim *Track) {
	survivor.History = append(survivor.History, victim.History...)
	sort.Slice(survivor.History, func(i, j int) bool {
		return survivor.History[i].TimestampNanos < survivor.History[j].TimestampNanos
	})
	if len(survivor.History) > s.params.MaxHistoryLength {
		survivor.History = survivor.History[len(survivor.History)-s.params.MaxHistoryLength:]
	}
	survivor.MatchCount += victim.MatchCount
	survivor.Confidence = geom.Clamp01(survivor.Confidence + MergeConfidenceBoost)
	if victim.LastSeenUnixNanos > survivor.LastSeenUnixNanos {
		survivor.LastSeenUnixNanos = victim.LastSeenUnixNanos
	}
	if victim.CreatedUnixNanos < survivor.CreatedUnixNanos {
		survivor.CreatedUnixNanos = victim.CreatedUnixNanos
	}
}

// decayConfidence multiplicatively ages every track unobserved for longer
// than the grace period. Runs on cycle elapsed time so repeated cycles at
// the same instant change nothing.
func (s *Store) decayConfidence(nowNanos int64, dt float64) {
	if dt <= 0 || s.params.ConfidenceDecayRate == 0 {
		return
	}
	factor := math.Pow(1-s.params.ConfidenceDecayRate, dt)
	for _, track := range s.tracks {
		sinceSeen := float64(nowNanos-track.LastSeenUnixNanos) / 1e9
		if sinceSeen > ConfidenceDecayGraceSeconds {
			track.Confidence *= factor
		}
	}
}

func (s *Store) appendEvents(events []Event) {
	s.events = append(s.events, events...)
	if len(s.events) > s.params.MaxEventLogLength {
		s.events = s.events[len(s.events)-s.params.MaxEventLogLength:]
	}
}

func (s *Store) sortedTrackIDs() []string {
	ids := make([]string, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetActiveTracks returns copies of every tentative, confirmed, or
// occluded track, ordered by track ID.
func (s *Store) GetActiveTracks() []*Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Track
	for _, id := range s.sortedTrackIDs() {
		if track := s.tracks[id]; track.active() {
			out = append(out, track.clone())
		}
	}
	return out
}

// GetConfirmedTracks returns copies of the confirmed tracks, ordered by
// track ID.
func (s *Store) GetConfirmedTracks() []*Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Track
	for _, id := range s.sortedTrackIDs() {
		if track := s.tracks[id]; track.State == TrackConfirmed {
			out = append(out, track.clone())
		}
	}
	return out
}

// GetTrack returns a copy of one track by ID. Deleted tracks are gone and
// report false.
func (s *Store) GetTrack(trackID string) (*Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	track, ok := s.tracks[trackID]
	if !ok {
		return nil, false
	}
	return track.clone(), true
}

// QueryByLabel returns active tracks whose label matches, case
// insensitively.
func (s *Store) QueryByLabel(label string) []*Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Track
	for _, id := range s.sortedTrackIDs() {
		track := s.tracks[id]
		if track.active() && strings.EqualFold(track.Features.Label, label) {
			out = append(out, track.clone())
		}
	}
	return out
}

// QueryRadius returns active tracks within radius meters of (x, y).
func (s *Store) QueryRadius(x, y, radius float64) []*Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Track
	for _, id := range s.sortedTrackIDs() {
		track := s.tracks[id]
		if track.active() && geom.EuclideanDistance(track.X, track.Y, x, y) <= radius {
			out = append(out, track.clone())
		}
	}
	return out
}

// Events returns a copy of the bounded event log, oldest first.
func (s *Store) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// TrackCount reports how many tracks the store currently holds, including
// lost ones awaiting re-identification.
func (s *Store) TrackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}
