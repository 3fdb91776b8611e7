package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/lights"
)

type LightHandler struct {
	controller *lights.Controller
}

func NewLightHandler(controller *lights.Controller) *LightHandler {
	return &LightHandler{controller: controller}
}

type LightListResponse struct {
	Lights         []models.LightSnapshot `json:"lights"`
	Count          int                    `json:"count" example:"1"`
	DebounceWindow string                 `json:"debounce_window" example:"5s"`
}

// @Summary List lights
// @Description Get every allocated light with its state and pending switch-off deadline
// @Tags lights
// @Produce json
// @Success 200 {object} LightListResponse
// @Router /lights [get]
func (h *LightHandler) ListLights(c *gin.Context) {
	list := h.controller.Lights()
	c.JSON(http.StatusOK, LightListResponse{
		Lights:         list,
		Count:          len(list),
		DebounceWindow: h.controller.Window().String(),
	})
}
