package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/logging"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/ptz"
)

type PTZHandler struct {
	queue *ptz.Queue
}

func NewPTZHandler(queue *ptz.Queue) *PTZHandler {
	return &PTZHandler{queue: queue}
}

type SpeedRequest struct {
	Speed int `json:"speed" binding:"required" example:"40"`
}

type PTZAcceptedResponse struct {
	Accepted bool             `json:"accepted" example:"true"`
	Action   models.PTZAction `json:"action" example:"left"`
	Pending  int              `json:"pending" example:"1"`
}

// Move queues a camera movement
// @Summary Move the camera
// @Description Queue a pan/tilt/zoom job; continuous moves run until a stop job
// @Tags ptz
// @Accept json
// @Produce json
// @Param request body models.PTZJob true "PTZ job"
// @Success 202 {object} PTZAcceptedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /ptz/move [post]
func (h *PTZHandler) Move(c *gin.Context) {
	var job models.PTZJob
	if err := c.ShouldBindJSON(&job); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if !job.Action.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unknown action %q", job.Action)})
		return
	}
	h.enqueue(c, job)
}

// Stop queues a stop job
// @Summary Stop the camera
// @Description Queue a stop job behind any pending moves
// @Tags ptz
// @Produce json
// @Success 202 {object} PTZAcceptedResponse
// @Failure 503 {object} ErrorResponse
// @Router /ptz/stop [post]
func (h *PTZHandler) Stop(c *gin.Context) {
	h.enqueue(c, models.PTZJob{Action: models.PTZStop})
}

func (h *PTZHandler) enqueue(c *gin.Context, job models.PTZJob) {
	if !h.queue.Enqueue(job) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "ptz queue is shut down"})
		return
	}
	logging.Debug(c).Str("action", job.Action.String()).Bool("continuous", job.Continuous).Msg("PTZ job queued")
	c.JSON(http.StatusAccepted, PTZAcceptedResponse{
		Accepted: true,
		Action:   job.Action,
		Pending:  h.queue.Stats().Pending,
	})
}

// SetSpeed changes the default speed
// @Summary Set camera speed
// @Description Set the speed used by jobs that do not carry one; values are clamped to 1..65
// @Tags ptz
// @Accept json
// @Produce json
// @Param request body SpeedRequest true "Speed"
// @Success 200 {object} ptz.Stats
// @Failure 400 {object} ErrorResponse
// @Router /ptz/speed [post]
func (h *PTZHandler) SetSpeed(c *gin.Context) {
	var req SpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	h.queue.SetSpeed(req.Speed)
	c.JSON(http.StatusOK, h.queue.Stats())
}

// @Summary PTZ status
// @Description Get queue counters and the current speed
// @Tags ptz
// @Produce json
// @Success 200 {object} ptz.Stats
// @Router /ptz/status [get]
func (h *PTZHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Stats())
}
