package models

import "time"

// LightState is the debounce state of a zone light
type LightState string

const (
	LightOff        LightState = "off"
	LightOn         LightState = "on"
	LightPendingOff LightState = "pending_off"
)

func (s LightState) String() string {
	return string(s)
}

// ZoneLight is the light a zone drives. Implementations own their debounce
// state; callers only report occupancy edges.
type ZoneLight interface {
	Address() string
	State() LightState
	OnOccupancyChanged(count int) error
}

// LightSnapshot is a point-in-time copy of a light for display
type LightSnapshot struct {
	Address       string     `json:"address" example:"0/0/1"`
	StatusAddress string     `json:"status_address" example:"0/1/1"`
	State         LightState `json:"state" example:"on"`
	PendingSince  *time.Time `json:"pending_since,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
}
