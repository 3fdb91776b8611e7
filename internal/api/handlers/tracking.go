package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/logging"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/pipeline"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/tracking"
)

type TrackingHandler struct {
	driver *pipeline.Driver
	pool   *tracking.Pool
}

func NewTrackingHandler(driver *pipeline.Driver, pool *tracking.Pool) *TrackingHandler {
	return &TrackingHandler{driver: driver, pool: pool}
}

type TrackingStatusResponse struct {
	Enabled  bool           `json:"enabled" example:"true"`
	Pool     tracking.Stats `json:"pool"`
	Pipeline pipeline.Stats `json:"pipeline"`
}

// @Summary Start tracking
// @Description Start the detection workers and fold results into zone occupancy
// @Tags tracking
// @Produce json
// @Success 200 {object} TrackingStatusResponse
// @Router /tracking/start [post]
func (h *TrackingHandler) Start(c *gin.Context) {
	h.driver.StartTracking()
	logging.Info(c).Msg("Tracking enabled via API")
	h.Status(c)
}

// @Summary Stop tracking
// @Description Stop the detection workers; results still in flight are discarded
// @Tags tracking
// @Produce json
// @Success 200 {object} TrackingStatusResponse
// @Router /tracking/stop [post]
func (h *TrackingHandler) Stop(c *gin.Context) {
	h.driver.StopTracking()
	logging.Info(c).Msg("Tracking disabled via API")
	h.Status(c)
}

// @Summary Tracking status
// @Description Get the tracking flag with pool and pipeline counters
// @Tags tracking
// @Produce json
// @Success 200 {object} TrackingStatusResponse
// @Router /tracking/status [get]
func (h *TrackingHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, TrackingStatusResponse{
		Enabled:  h.driver.IsTracking(),
		Pool:     h.pool.Stats(),
		Pipeline: h.driver.Stats(),
	})
}
