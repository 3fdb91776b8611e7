package models

import "time"

// Frame represents a raw BGR frame from OpenCV
type Frame struct {
	ID        int64
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time
}

// PTZAction is a movement understood by the camera
type PTZAction string

const (
	PTZStop    PTZAction = "stop"
	PTZLeft    PTZAction = "left"
	PTZRight   PTZAction = "right"
	PTZUp      PTZAction = "up"
	PTZDown    PTZAction = "down"
	PTZZoomIn  PTZAction = "zoomin"
	PTZZoomOut PTZAction = "zoomout"
)

// String returns the string representation of PTZAction
func (a PTZAction) String() string {
	return string(a)
}

// IsValid checks if the action is one the camera accepts
func (a PTZAction) IsValid() bool {
	switch a {
	case PTZStop, PTZLeft, PTZRight, PTZUp, PTZDown, PTZZoomIn, PTZZoomOut:
		return true
	default:
		return false
	}
}

// PTZJob is one queued camera command. Continuous moves run until a stop job.
// Speed 0 means the queue's current speed.
type PTZJob struct {
	Action     PTZAction `json:"action" binding:"required" example:"left"`
	Continuous bool      `json:"continuous" example:"true"`
	Speed      int       `json:"speed,omitempty" example:"65"`
}
