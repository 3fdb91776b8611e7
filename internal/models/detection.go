package models

import "time"

// ClassPerson is the detector class id for people.
const ClassPerson = 0

// Point is a pixel coordinate in the frame.
type Point struct {
	X float64 `json:"x" example:"120"`
	Y float64 `json:"y" example:"80"`
}

// BBox is an axis-aligned bounding box: top-left corner plus width and height.
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the box centre, the only part of a detection zones care about.
func (b BBox) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Detection represents a single object found by the detector
type Detection struct {
	Box     BBox    `json:"box"`
	Score   float64 `json:"score"`
	ClassID int     `json:"class_id"`
	Label   string  `json:"label,omitempty"`
}

// DetectionEvent is published for every result the tracking pool hands back
type DetectionEvent struct {
	WorkerID   string      `json:"worker_id"`
	Detections []Detection `json:"detections"`
	Centers    []Point     `json:"centers"`
	Timestamp  time.Time   `json:"timestamp"`
}

// MessagePublisher defines the interface for publishing messages
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
