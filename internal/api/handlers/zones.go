package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/logging"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/services/zones"
)

type ZoneHandler struct {
	registry *zones.Registry
}

func NewZoneHandler(registry *zones.Registry) *ZoneHandler {
	return &ZoneHandler{registry: registry}
}

type CreateZoneRequest struct {
	Points []models.Point `json:"points" binding:"required"`
}

type ZoneListResponse struct {
	Zones  []zones.ZoneSnapshot `json:"zones"`
	Count  int                  `json:"count" example:"2"`
	Policy string               `json:"policy" example:"accumulate"`
}

type ZoneCountResponse struct {
	Zones int `json:"zones" example:"3"`
}

// zoneStatus maps registry errors to HTTP status codes.
func zoneStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrDuplicateZone):
		return http.StatusConflict
	case errors.Is(err, zones.ErrTooFewPoints):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListZones lists all zones
// @Summary List zones
// @Description Get every zone with its occupancy and light state, in creation order
// @Tags zones
// @Produce json
// @Success 200 {object} ZoneListResponse
// @Router /zones [get]
func (h *ZoneHandler) ListZones(c *gin.Context) {
	list := h.registry.Zones()
	c.JSON(http.StatusOK, ZoneListResponse{
		Zones:  list,
		Count:  len(list),
		Policy: string(h.registry.Policy()),
	})
}

// CreateZone creates a zone
// @Summary Create a zone
// @Description Register a polygon zone; the vertices are reordered clockwise and a light is assigned
// @Tags zones
// @Accept json
// @Produce json
// @Param request body CreateZoneRequest true "Zone vertices"
// @Success 201 {object} zones.ZoneSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /zones [post]
func (h *ZoneHandler) CreateZone(c *gin.Context) {
	var req CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Warn(c).Err(err).Msg("Invalid zone request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	zone, err := h.registry.CreateZone(req.Points)
	if err != nil {
		c.JSON(zoneStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	logging.Info(c).Str("zone_id", zone.ID).Str("light", zone.LightAddress).Msg("Zone created via API")
	c.JSON(http.StatusCreated, zone)
}

// DeleteZones deletes all zones
// @Summary Delete all zones
// @Description Remove every zone and release the lights assigned to them
// @Tags zones
// @Produce json
// @Success 200 {object} ZoneCountResponse
// @Router /zones [delete]
func (h *ZoneHandler) DeleteZones(c *gin.Context) {
	n := h.registry.DeleteAllZones()
	logging.Info(c).Int("zones", n).Msg("Zones deleted via API")
	c.JSON(http.StatusOK, ZoneCountResponse{Zones: n})
}

// SaveZones persists all zones
// @Summary Save zones
// @Description Write every zone polygon to the configured store
// @Tags zones
// @Produce json
// @Success 200 {object} ZoneCountResponse
// @Failure 500 {object} ErrorResponse
// @Router /zones/save [post]
func (h *ZoneHandler) SaveZones(c *gin.Context) {
	n, err := h.registry.SaveZones(c.Request.Context())
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to save zones")
		c.JSON(zoneStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ZoneCountResponse{Zones: n})
}

// LoadZones restores zones from the store
// @Summary Load zones
// @Description Read zone polygons from the configured store; polygons matching an existing zone are skipped
// @Tags zones
// @Produce json
// @Success 200 {object} zones.LoadResult
// @Failure 500 {object} ErrorResponse
// @Router /zones/load [post]
func (h *ZoneHandler) LoadZones(c *gin.Context) {
	result, err := h.registry.LoadZones(c.Request.Context())
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to load zones")
		c.JSON(zoneStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
