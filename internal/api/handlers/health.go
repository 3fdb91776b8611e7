package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	WorkerID  string
	Version   string
	probes    map[string]func() bool
	startTime time.Time
}

func NewHealthHandler(workerID, version string, probes map[string]func() bool) *HealthHandler {
	if probes == nil {
		probes = map[string]func() bool{}
	}
	return &HealthHandler{
		WorkerID:  workerID,
		Version:   version,
		probes:    probes,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status     string          `json:"status" example:"healthy"`
	WorkerID   string          `json:"worker_id" example:"worker-1"`
	Components map[string]bool `json:"components"`
}

type WorkerInfoResponse struct {
	WorkerID     string    `json:"worker_id" example:"worker-1"`
	Status       string    `json:"status" example:"running"`
	Version      string    `json:"version" example:"1.0.0"`
	StartTime    time.Time `json:"start_time"`
	Capabilities []string  `json:"capabilities"`
}

// @Summary Health check
// @Description Check if the worker and its dependencies are healthy
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	components := make(map[string]bool, len(h.probes))
	status, code := "healthy", http.StatusOK
	for name, probe := range h.probes {
		ok := probe()
		components[name] = ok
		if !ok {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, HealthResponse{
		Status:     status,
		WorkerID:   h.WorkerID,
		Components: components,
	})
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID:  h.WorkerID,
		Status:    "running",
		Version:   h.Version,
		StartTime: h.startTime,
		Capabilities: []string{
			"person_tracking",
			"zone_occupancy",
			"light_control",
			"ptz_control",
		},
	})
}
