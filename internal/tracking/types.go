package tracking

import (
	"fmt"

	"github.com/fieldrover/worldmodel/internal/config"
)

// TrackState represents the lifecycle state of a track.
type TrackState string

const (
	TrackTentative TrackState = "tentative" // New track, needs confirmation
	TrackConfirmed TrackState = "confirmed" // Stable track with sufficient matches
	TrackOccluded  TrackState = "occluded"  // Confirmed track missing recent observations
	TrackLost      TrackState = "lost"      // Missing long enough to leave the active set
	TrackDeleted   TrackState = "deleted"   // Terminal; the ID is never reused
)

// EventType classifies a tracking event.
type EventType string

const (
	EventBirth            EventType = "birth"
	EventMatch            EventType = "match"
	EventLoss             EventType = "loss"
	EventDeletion         EventType = "deletion"
	EventReidentification EventType = "reidentification"
	EventMerge            EventType = "merge"
)

// Features holds the semantic description of an observed object. Zero
// values mean the field was not reported; similarity scoring skips absent
// fields rather than penalizing them.
type Features struct {
	Label    string
	Category string

	// Physical extents in meters, zero when unknown.
	WidthM  float64
	HeightM float64
	DepthM  float64

	Color string
	Shape string

	// Free-form attributes from the vision pipeline.
	Attributes map[string]string
}

// Observation is one ephemeral sighting of an object. Observations are
// folded into tracks and never stored.
type Observation struct {
	X                   float64
	Y                   float64
	PositionUncertainty float64 // meters, 1-sigma
	Features            Features
	Confidence          float64 // detector confidence [0,1]
	TimestampUnixNanos  int64
	Source              string
}

// TrackPoint is a single point in a track's position history.
type TrackPoint struct {
	X              float64
	Y              float64
	TimestampNanos int64
}

// Track is a persistent hypothesis that observations over time correspond
// to one real-world object. Tracks are owned exclusively by a Store;
// callers receive copies.
type Track struct {
	TrackID  string
	DeviceID string
	State    TrackState

	// Kinematics (world frame).
	X                   float64
	Y                   float64
	VX                  float64
	VY                  float64
	PositionUncertainty float64 // meters, 1-sigma

	// Semantics.
	Features          Features
	FeatureConfidence float64

	// Lifecycle counters.
	MatchCount  int
	MissedCount int
	Confidence  float64

	CreatedUnixNanos  int64
	LastSeenUnixNanos int64

	History []TrackPoint
}

// Event records one lifecycle transition produced during an Update cycle.
type Event struct {
	Type        EventType
	TrackID     string
	TSUnixNanos int64

	// OtherTrackID is set on merge events: the track absorbed into TrackID.
	OtherTrackID string
}

// Association pairs an observation index with the track it updated.
type Association struct {
	ObservationIndex int
	TrackID          string
	Cost             float64
}

// UpdateResult is everything one Update cycle produced.
type UpdateResult struct {
	Associations []Association
	Events       []Event
}

// Params holds the tracking thresholds and smoothing constants.
type Params struct {
	ConfirmationThreshold      int
	MissedThreshold            int
	DeletionThreshold          int
	GatingThreshold            float64
	FeatureSimilarityThreshold float64
	UncertaintyGrowthPerSec    float64
	ReidentificationThresholdM float64
	ReidentificationEnabled    bool
	ConfidenceDecayRate        float64
	MinObservationUncertaintyM float64
	MaxHistoryLength           int
	MaxEventLogLength          int
	MaxTracks                  int
}

// ParamsFromTuning extracts the tracking parameters from a tuning config.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		ConfirmationThreshold:      cfg.GetConfirmationThreshold(),
		MissedThreshold:            cfg.GetMissedThreshold(),
		DeletionThreshold:          cfg.GetDeletionThreshold(),
		GatingThreshold:            cfg.GetGatingThreshold(),
		FeatureSimilarityThreshold: cfg.GetFeatureSimilarityThreshold(),
		UncertaintyGrowthPerSec:    cfg.GetUncertaintyGrowthPerSecond(),
		ReidentificationThresholdM: cfg.GetReidentificationThresholdM(),
		ReidentificationEnabled:    cfg.GetReidentificationEnabled(),
		ConfidenceDecayRate:        cfg.GetTrackConfidenceDecayRate(),
		MinObservationUncertaintyM: cfg.GetMinObservationUncertainty(),
		MaxHistoryLength:           cfg.GetMaxTrackHistoryLength(),
		MaxEventLogLength:          cfg.GetMaxEventLogLength(),
		MaxTracks:                  cfg.GetMaxTracks(),
	}
}

// Validate rejects parameter sets that would break the lifecycle state
// machine or the association math.
func (p Params) Validate() error {
	if p.ConfirmationThreshold < 1 {
		return fmt.Errorf("confirmation threshold must be >= 1, got %d", p.ConfirmationThreshold)
	}
	if p.MissedThreshold < 1 {
		return fmt.Errorf("missed threshold must be >= 1, got %d", p.MissedThreshold)
	}
	if p.DeletionThreshold < p.MissedThreshold {
		return fmt.Errorf("deletion threshold %d must be >= missed threshold %d",
			p.DeletionThreshold, p.MissedThreshold)
	}
	if p.GatingThreshold <= 0 {
		return fmt.Errorf("gating threshold must be positive, got %g", p.GatingThreshold)
	}
	if p.FeatureSimilarityThreshold < 0 || p.FeatureSimilarityThreshold > 1 {
		return fmt.Errorf("feature similarity threshold must be in [0,1], got %g", p.FeatureSimilarityThreshold)
	}
	if p.UncertaintyGrowthPerSec < 0 {
		return fmt.Errorf("uncertainty growth must be non-negative, got %g", p.UncertaintyGrowthPerSec)
	}
	if p.ConfidenceDecayRate < 0 || p.ConfidenceDecayRate >= 1 {
		return fmt.Errorf("confidence decay rate must be in [0,1), got %g", p.ConfidenceDecayRate)
	}
	if p.MinObservationUncertaintyM <= 0 {
		return fmt.Errorf("min observation uncertainty must be positive, got %g", p.MinObservationUncertaintyM)
	}
	if p.MaxHistoryLength < 1 || p.MaxEventLogLength < 1 || p.MaxTracks < 1 {
		return fmt.Errorf("history, event log, and track limits must be >= 1")
	}
	return nil
}

// clone returns a deep copy suitable for handing to callers.
func (t *Track) clone() *Track {
	cp := *t
	if t.History != nil {
		cp.History = make([]TrackPoint, len(t.History))
		copy(cp.History, t.History)
	}
	if t.Features.Attributes != nil {
		cp.Features.Attributes = make(map[string]string, len(t.Features.Attributes))
		for k, v := range t.Features.Attributes {
			cp.Features.Attributes[k] = v
		}
	}
	return &cp
}
