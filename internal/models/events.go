package models

import "time"

// Event subjects, also used as Kafka message keys.
const (
	SubjectZoneCreated  = "zones.created"
	SubjectZonesCleared = "zones.cleared"
	SubjectOccupancy    = "zones.occupancy"
	SubjectLight        = "lights.transition"
	SubjectDetections   = "tracking.detections"
)

type ZoneEvent struct {
	WorkerID     string    `json:"worker_id"`
	ZoneID       string    `json:"zone_id,omitempty"`
	Polygon      []Point   `json:"polygon,omitempty"`
	LightAddress string    `json:"light_address,omitempty"`
	Cleared      int       `json:"cleared,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type OccupancyEvent struct {
	WorkerID     string    `json:"worker_id"`
	ZoneID       string    `json:"zone_id"`
	LightAddress string    `json:"light_address"`
	Previous     int       `json:"previous"`
	Occupancy    int       `json:"occupancy"`
	Timestamp    time.Time `json:"timestamp"`
}

// LightEvent records one debounce transition. Actuated is set when a
// physical command was sent for it.
type LightEvent struct {
	WorkerID  string     `json:"worker_id"`
	Address   string     `json:"address"`
	From      LightState `json:"from"`
	To        LightState `json:"to"`
	Actuated  bool       `json:"actuated"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
