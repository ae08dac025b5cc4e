package vision

import (
	"fmt"
	"math"
)

// Pose is the robot's planar pose in world coordinates. Rotation is in
// radians from the fixed reference heading (positive X axis),
// counter-clockwise positive.
type Pose struct {
	X        float64
	Y        float64
	Rotation float64
}

// Region is the coarse horizontal image region a detection or scene
// direction was reported in. The vocabulary is closed; unrecognised
// values are rejected by ParseRegion at the boundary.
type Region string

const (
	RegionLeft   Region = "left"
	RegionCenter Region = "center"
	RegionRight  Region = "right"
)

// regionAngleOffsets maps each region to its angular offset from the robot
// heading, in radians. Left is counter-clockwise (positive).
var regionAngleOffsets = map[Region]float64{
	RegionLeft:   math.Pi / 4,
	RegionCenter: 0,
	RegionRight:  -math.Pi / 4,
}

// ParseRegion validates a raw region string from the vision pipeline.
func ParseRegion(raw string) (Region, error) {
	r := Region(raw)
	if _, ok := regionAngleOffsets[r]; !ok {
		return "", fmt.Errorf("unrecognised region %q", raw)
	}
	return r, nil
}

// AngleOffset returns the region's angular offset from the robot heading.
// Unknown regions (zero value etc.) fall back to center; they cannot occur
// past ParseRegion.
func (r Region) AngleOffset() float64 {
	return regionAngleOffsets[r]
}

// Valid reports whether the region belongs to the closed vocabulary.
func (r Region) Valid() bool {
	_, ok := regionAngleOffsets[r]
	return ok
}

// BBox is a normalised bounding box in image coordinates; all fields are
// fractions of the image dimensions in [0, 1].
type BBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// CenterX returns the horizontal center of the box in [0, 1].
func (b BBox) CenterX() float64 {
	return b.X + b.Width/2
}

// Detection is one object detection from the vision pipeline.
// EstimatedDepthCm may be zero or negative when the estimator produced no
// depth; consumers treat that as absent.
type Detection struct {
	Label            string
	Confidence       float64
	BBox             BBox
	EstimatedDepthCm float64
	Region           Region
}

// HasDepth reports whether the detection carries a usable depth estimate.
func (d Detection) HasDepth() bool {
	return d.EstimatedDepthCm > 0
}

// SceneSummary is the coarse open/blocked direction summary for a frame.
type SceneSummary struct {
	Openings []Region
	Blocked  []Region
}

// VisionFrame is one parsed frame from the vision pipeline. Frame-level
// metadata (frame id, capture timestamp) is not consumed by the core and
// deliberately absent here.
type VisionFrame struct {
	Detections []Detection
	Scene      SceneSummary
}
