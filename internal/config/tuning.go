// Package config loads the world-model tuning parameters from JSON.
//
// All fields are pointer-typed so a partial config file only overrides
// what it names; the Get* accessors supply defaults for absent fields.
// Validation happens at load time so an invalid threshold fails at
// construction instead of corrupting belief state later.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root tuning document. The same JSON schema is used
// for startup configuration and runtime parameter updates.
type TuningConfig struct {
	// Grid geometry
	GridWidth      *int     `json:"grid_width,omitempty"`
	GridHeight     *int     `json:"grid_height,omitempty"`
	GridResolution *float64 `json:"grid_resolution_m,omitempty"`
	GridOriginX    *float64 `json:"grid_origin_x_m,omitempty"`
	GridOriginY    *float64 `json:"grid_origin_y_m,omitempty"`

	// Projection params
	RayStepMeters          *float64 `json:"ray_step_m,omitempty"`
	OpenRayDepthMeters     *float64 `json:"open_ray_depth_m,omitempty"`
	BlockedRayDepthMeters  *float64 `json:"blocked_ray_depth_m,omitempty"`
	BaseFreeConfidence     *float64 `json:"base_free_confidence,omitempty"`
	BaseObstacleConfidence *float64 `json:"base_obstacle_confidence,omitempty"`
	CameraFOVRadians       *float64 `json:"camera_fov_rad,omitempty"`
	DefaultDetectionDepth  *float64 `json:"default_detection_depth_cm,omitempty"`

	// Decay params
	DecayStartSeconds     *float64 `json:"decay_start_seconds,omitempty"`
	DecayRatePerSecond    *float64 `json:"decay_rate_per_second,omitempty"`
	MinCellConfidence     *float64 `json:"min_cell_confidence,omitempty"`
	StaleThresholdSeconds *float64 `json:"stale_threshold_seconds,omitempty"`

	// Tracker params
	ConfirmationThreshold      *int     `json:"confirmation_threshold,omitempty"`
	MissedThreshold            *int     `json:"missed_threshold,omitempty"`
	DeletionThreshold          *int     `json:"deletion_threshold,omitempty"`
	GatingThreshold            *float64 `json:"gating_threshold,omitempty"`
	FeatureSimilarityThreshold *float64 `json:"feature_similarity_threshold,omitempty"`
	UncertaintyGrowthPerSecond *float64 `json:"uncertainty_growth_per_second,omitempty"`
	ReidentificationThresholdM *float64 `json:"reidentification_threshold_m,omitempty"`
	ReidentificationEnabled    *bool    `json:"reidentification_enabled,omitempty"`
	TrackConfidenceDecayRate   *float64 `json:"track_confidence_decay_rate,omitempty"`
	MinObservationUncertainty  *float64 `json:"min_observation_uncertainty_m,omitempty"`
	MaxTrackHistoryLength      *int     `json:"max_track_history_length,omitempty"`
	MaxEventLogLength          *int     `json:"max_event_log_length,omitempty"`
	MaxTracks                  *int     `json:"max_tracks,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// Grid geometry accessors.

func (c *TuningConfig) GetGridWidth() int {
	if c != nil && c.GridWidth != nil {
		return *c.GridWidth
	}
	return 200
}

func (c *TuningConfig) GetGridHeight() int {
	if c != nil && c.GridHeight != nil {
		return *c.GridHeight
	}
	return 200
}

func (c *TuningConfig) GetGridResolution() float64 {
	if c != nil && c.GridResolution != nil {
		return *c.GridResolution
	}
	return 0.1
}

func (c *TuningConfig) GetGridOriginX() float64 {
	if c != nil && c.GridOriginX != nil {
		return *c.GridOriginX
	}
	return -10.0
}

func (c *TuningConfig) GetGridOriginY() float64 {
	if c != nil && c.GridOriginY != nil {
		return *c.GridOriginY
	}
	return -10.0
}

// Projection accessors.

func (c *TuningConfig) GetRayStepMeters() float64 {
	if c != nil && c.RayStepMeters != nil {
		return *c.RayStepMeters
	}
	return 0.1
}

func (c *TuningConfig) GetOpenRayDepthMeters() float64 {
	if c != nil && c.OpenRayDepthMeters != nil {
		return *c.OpenRayDepthMeters
	}
	return 2.0
}

func (c *TuningConfig) GetBlockedRayDepthMeters() float64 {
	if c != nil && c.BlockedRayDepthMeters != nil {
		return *c.BlockedRayDepthMeters
	}
	return 1.0
}

func (c *TuningConfig) GetBaseFreeConfidence() float64 {
	if c != nil && c.BaseFreeConfidence != nil {
		return *c.BaseFreeConfidence
	}
	return 0.6
}

func (c *TuningConfig) GetBaseObstacleConfidence() float64 {
	if c != nil && c.BaseObstacleConfidence != nil {
		return *c.BaseObstacleConfidence
	}
	return 0.9
}

func (c *TuningConfig) GetCameraFOVRadians() float64 {
	if c != nil && c.CameraFOVRadians != nil {
		return *c.CameraFOVRadians
	}
	return math.Pi / 3 // 60° horizontal field of view
}

func (c *TuningConfig) GetDefaultDetectionDepth() float64 {
	if c != nil && c.DefaultDetectionDepth != nil {
		return *c.DefaultDetectionDepth
	}
	return 100.0 // cm
}

// Decay accessors.

func (c *TuningConfig) GetDecayStartSeconds() float64 {
	if c != nil && c.DecayStartSeconds != nil {
		return *c.DecayStartSeconds
	}
	return 30.0
}

func (c *TuningConfig) GetDecayRatePerSecond() float64 {
	if c != nil && c.DecayRatePerSecond != nil {
		return *c.DecayRatePerSecond
	}
	return 0.01
}

func (c *TuningConfig) GetMinCellConfidence() float64 {
	if c != nil && c.MinCellConfidence != nil {
		return *c.MinCellConfidence
	}
	return 0.1
}

func (c *TuningConfig) GetStaleThresholdSeconds() float64 {
	if c != nil && c.StaleThresholdSeconds != nil {
		return *c.StaleThresholdSeconds
	}
	return 300.0
}

// Tracker accessors.

func (c *TuningConfig) GetConfirmationThreshold() int {
	if c != nil && c.ConfirmationThreshold != nil {
		return *c.ConfirmationThreshold
	}
	return 3
}

func (c *TuningConfig) GetMissedThreshold() int {
	if c != nil && c.MissedThreshold != nil {
		return *c.MissedThreshold
	}
	return 5
}

func (c *TuningConfig) GetDeletionThreshold() int {
	if c != nil && c.DeletionThreshold != nil {
		return *c.DeletionThreshold
	}
	return 15
}

func (c *TuningConfig) GetGatingThreshold() float64 {
	if c != nil && c.GatingThreshold != nil {
		return *c.GatingThreshold
	}
	return 3.0
}

func (c *TuningConfig) GetFeatureSimilarityThreshold() float64 {
	if c != nil && c.FeatureSimilarityThreshold != nil {
		return *c.FeatureSimilarityThreshold
	}
	return 0.5
}

func (c *TuningConfig) GetUncertaintyGrowthPerSecond() float64 {
	if c != nil && c.UncertaintyGrowthPerSecond != nil {
		return *c.UncertaintyGrowthPerSecond
	}
	return 0.1
}

func (c *TuningConfig) GetReidentificationThresholdM() float64 {
	if c != nil && c.ReidentificationThresholdM != nil {
		return *c.ReidentificationThresholdM
	}
	return 2.0
}

func (c *TuningConfig) GetReidentificationEnabled() bool {
	if c != nil && c.ReidentificationEnabled != nil {
		return *c.ReidentificationEnabled
	}
	return true
}

func (c *TuningConfig) GetTrackConfidenceDecayRate() float64 {
	if c != nil && c.TrackConfidenceDecayRate != nil {
		return *c.TrackConfidenceDecayRate
	}
	return 0.05
}

func (c *TuningConfig) GetMinObservationUncertainty() float64 {
	if c != nil && c.MinObservationUncertainty != nil {
		return *c.MinObservationUncertainty
	}
	return 0.1
}

func (c *TuningConfig) GetMaxTrackHistoryLength() int {
	if c != nil && c.MaxTrackHistoryLength != nil {
		return *c.MaxTrackHistoryLength
	}
	return 100
}

func (c *TuningConfig) GetMaxEventLogLength() int {
	if c != nil && c.MaxEventLogLength != nil {
		return *c.MaxEventLogLength
	}
	return 500
}

func (c *TuningConfig) GetMaxTracks() int {
	if c != nil && c.MaxTracks != nil {
		return *c.MaxTracks
	}
	return 100
}

// Validate checks every set field for sanity. Fields left nil are skipped;
// their defaults are always valid.
func (c *TuningConfig) Validate() error {
	checkPositiveInt := func(name string, v *int) error {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
		return nil
	}
	checkPositive := func(name string, v *float64) error {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, *v)
		}
		return nil
	}
	checkNonNegative := func(name string, v *float64) error {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", name, *v)
		}
		return nil
	}
	checkUnit := func(name string, v *float64) error {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be in [0,1], got %v", name, *v)
		}
		return nil
	}

	checks := []error{
		checkPositiveInt("grid_width", c.GridWidth),
		checkPositiveInt("grid_height", c.GridHeight),
		checkPositive("grid_resolution_m", c.GridResolution),
		checkPositive("ray_step_m", c.RayStepMeters),
		checkNonNegative("open_ray_depth_m", c.OpenRayDepthMeters),
		checkNonNegative("blocked_ray_depth_m", c.BlockedRayDepthMeters),
		checkUnit("base_free_confidence", c.BaseFreeConfidence),
		checkUnit("base_obstacle_confidence", c.BaseObstacleConfidence),
		checkPositive("default_detection_depth_cm", c.DefaultDetectionDepth),
		checkNonNegative("decay_start_seconds", c.DecayStartSeconds),
		checkNonNegative("decay_rate_per_second", c.DecayRatePerSecond),
		checkUnit("min_cell_confidence", c.MinCellConfidence),
		checkNonNegative("stale_threshold_seconds", c.StaleThresholdSeconds),
		checkPositiveInt("confirmation_threshold", c.ConfirmationThreshold),
		checkPositiveInt("missed_threshold", c.MissedThreshold),
		checkPositiveInt("deletion_threshold", c.DeletionThreshold),
		checkPositive("gating_threshold", c.GatingThreshold),
		checkUnit("feature_similarity_threshold", c.FeatureSimilarityThreshold),
		checkNonNegative("uncertainty_growth_per_second", c.UncertaintyGrowthPerSecond),
		checkPositive("reidentification_threshold_m", c.ReidentificationThresholdM),
		checkUnit("track_confidence_decay_rate", c.TrackConfidenceDecayRate),
		checkPositive("min_observation_uncertainty_m", c.MinObservationUncertainty),
		checkPositiveInt("max_track_history_length", c.MaxTrackHistoryLength),
		checkPositiveInt("max_event_log_length", c.MaxEventLogLength),
		checkPositiveInt("max_tracks", c.MaxTracks),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if c.CameraFOVRadians != nil && (*c.CameraFOVRadians <= 0 || *c.CameraFOVRadians > math.Pi) {
		return fmt.Errorf("camera_fov_rad must be in (0, π], got %v", *c.CameraFOVRadians)
	}
	if c.MissedThreshold != nil && c.DeletionThreshold != nil && *c.DeletionThreshold < *c.MissedThreshold {
		return fmt.Errorf("deletion_threshold (%d) must be >= missed_threshold (%d)",
			*c.DeletionThreshold, *c.MissedThreshold)
	}
	return nil
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching in the current directory and common parent
// directories. Panics if the file cannot be loaded; intended for test
// setup and callers that have already validated config availability.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}
