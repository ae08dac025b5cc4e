// Package vision defines the boundary types the perception core consumes
// from the camera pipeline: robot pose, parsed vision frames, detections
// with normalised bounding boxes, and the closed region vocabulary.
//
// Region strings from upstream are validated here; everything past this
// boundary works with the closed Region type and never re-parses strings.
package vision
