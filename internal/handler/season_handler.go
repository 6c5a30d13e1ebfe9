package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/response"
)

type seasonService interface {
	List(ctx context.Context) ([]models.Season, error)
	Get(ctx context.Context, id string) (*models.Season, error)
	Tribes(ctx context.Context, seasonID string) ([]models.Tribe, error)
	Contestants(ctx context.Context, filter models.ContestantFilter) ([]models.Contestant, *models.Pagination, error)
	Contestant(ctx context.Context, id string) (*models.Contestant, error)
}

// SeasonHandler exposes read-only season, tribe and contestant endpoints.
type SeasonHandler struct {
	service seasonService
}

// NewSeasonHandler builds a new handler.
func NewSeasonHandler(service seasonService) *SeasonHandler {
	return &SeasonHandler{service: service}
}

// List godoc
// @Summary List seasons
// @Tags Seasons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /seasons [get]
func (h *SeasonHandler) List(c *gin.Context) {
	seasons, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seasons, nil)
}

// Get godoc
// @Summary Get season
// @Tags Seasons
// @Produce json
// @Param id path string true "Season ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /seasons/{id} [get]
func (h *SeasonHandler) Get(c *gin.Context) {
	season, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, season, nil)
}

// Tribes godoc
// @Summary List tribes of a season
// @Tags Seasons
// @Produce json
// @Param id path string true "Season ID"
// @Success 200 {object} response.Envelope
// @Router /seasons/{id}/tribes [get]
func (h *SeasonHandler) Tribes(c *gin.Context) {
	tribes, err := h.service.Tribes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tribes, nil)
}

// Contestants godoc
// @Summary List contestants of a season
// @Tags Seasons
// @Produce json
// @Param id path string true "Season ID"
// @Param tribeId query string false "Tribe filter"
// @Param eliminated query bool false "Elimination filter"
// @Param q query string false "Name search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /seasons/{id}/contestants [get]
func (h *SeasonHandler) Contestants(c *gin.Context) {
	filter := models.ContestantFilter{
		SeasonID: c.Param("id"),
		TribeID:  strings.TrimSpace(c.Query("tribeId")),
		Search:   strings.TrimSpace(c.Query("q")),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "limit", 20),
	}
	if raw := c.Query("eliminated"); raw != "" {
		eliminated, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "eliminated must be true or false"))
			return
		}
		filter.Eliminated = &eliminated
	}
	items, pagination, err := h.service.Contestants(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Contestant godoc
// @Summary Get contestant
// @Tags Seasons
// @Produce json
// @Param id path string true "Contestant ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /contestants/{id} [get]
func (h *SeasonHandler) Contestant(c *gin.Context) {
	contestant, err := h.service.Contestant(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contestant, nil)
}

// Catalog godoc
// @Summary Scoring catalog
// @Description Every scoring event type with its fixed point value
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/events [get]
func Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, scoring.Catalog(), nil)
}

// GameEventTypes godoc
// @Summary Supported game event types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/game-events [get]
func GameEventTypes(c *gin.Context) {
	response.JSON(c, http.StatusOK, scoring.GameEventTypes(), nil)
}
