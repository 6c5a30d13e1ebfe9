package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/response"
)

type scoringEventService interface {
	Submit(ctx context.Context, req dto.SubmitScoringEventRequest, submitterID string) (*models.ScoringEvent, error)
	Get(ctx context.Context, id string) (*models.ScoringEvent, error)
	List(ctx context.Context, filter models.ScoringEventFilter) ([]models.ScoringEvent, *models.Pagination, error)
	Review(ctx context.Context, id string, req dto.ReviewRequest, reviewer *models.JWTClaims) (*models.ScoringEvent, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// ScoringEventHandler exposes atomic scoring events.
type ScoringEventHandler struct {
	service scoringEventService
}

// NewScoringEventHandler builds a new handler.
func NewScoringEventHandler(service scoringEventService) *ScoringEventHandler {
	return &ScoringEventHandler{service: service}
}

// List godoc
// @Summary List scoring events
// @Tags ScoringEvents
// @Produce json
// @Param seasonId query string false "Season ID"
// @Param contestantId query string false "Contestant ID"
// @Param gameEventId query string false "Parent game event"
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param week query int false "Week"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scoring-events [get]
func (h *ScoringEventHandler) List(c *gin.Context) {
	filter := models.ScoringEventFilter{
		SeasonID:     strings.TrimSpace(c.Query("seasonId")),
		ContestantID: strings.TrimSpace(c.Query("contestantId")),
		GameEventID:  strings.TrimSpace(c.Query("gameEventId")),
		Status:       models.ApprovalStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Week:         parseQueryInt(c, "week", 0),
		Page:         parseQueryInt(c, "page", 1),
		PageSize:     parseQueryInt(c, "limit", 50),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get scoring event
// @Tags ScoringEvents
// @Produce json
// @Param id path string true "Scoring event ID"
// @Success 200 {object} response.Envelope
// @Router /scoring-events/{id} [get]
func (h *ScoringEventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Submit godoc
// @Summary Submit a single scoring event
// @Tags ScoringEvents
// @Accept json
// @Produce json
// @Param payload body dto.SubmitScoringEventRequest true "Scoring event"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scoring-events [post]
func (h *ScoringEventHandler) Submit(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.SubmitScoringEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scoring event payload"))
		return
	}
	event, err := h.service.Submit(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Review godoc
// @Summary Approve or reject a standalone scoring event
// @Tags ScoringEvents
// @Accept json
// @Produce json
// @Param id path string true "Scoring event ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scoring-events/{id}/review [post]
func (h *ScoringEventHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	event, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete a standalone scoring event
// @Tags ScoringEvents
// @Param id path string true "Scoring event ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /scoring-events/{id} [delete]
func (h *ScoringEventHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
