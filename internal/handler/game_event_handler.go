package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/response"
)

type gameEventService interface {
	Preview(ctx context.Context, req dto.PreviewGameEventRequest) (*dto.DerivationPreview, error)
	Submit(ctx context.Context, req dto.SubmitGameEventRequest, submitterID string) (*models.GameEventDetail, error)
	Update(ctx context.Context, id string, req dto.UpdateGameEventRequest, actorID string) (*models.GameEventDetail, error)
	Review(ctx context.Context, id string, req dto.ReviewRequest, reviewer *models.JWTClaims) (*models.GameEventDetail, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	Get(ctx context.Context, id string) (*models.GameEventDetail, error)
	List(ctx context.Context, query dto.GameEventQuery) ([]models.GameEvent, *models.Pagination, error)
}

// GameEventHandler exposes compound event submission and moderation.
type GameEventHandler struct {
	service gameEventService
}

// NewGameEventHandler builds a new handler.
func NewGameEventHandler(service gameEventService) *GameEventHandler {
	return &GameEventHandler{service: service}
}

// List godoc
// @Summary List game events
// @Tags GameEvents
// @Produce json
// @Param seasonId query string false "Season ID"
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param type query string false "Game event type"
// @Param week query int false "Week"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /game-events [get]
func (h *GameEventHandler) List(c *gin.Context) {
	query := dto.GameEventQuery{
		SeasonID: strings.TrimSpace(c.Query("seasonId")),
		Status:   models.ApprovalStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Type:     scoring.GameEventType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
		Week:     parseQueryInt(c, "week", 0),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "limit", 20),
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get game event with derived scoring events
// @Tags GameEvents
// @Produce json
// @Param id path string true "Game event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /game-events/{id} [get]
func (h *GameEventHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Preview godoc
// @Summary Derive scoring events without saving
// @Tags GameEvents
// @Accept json
// @Produce json
// @Param payload body dto.PreviewGameEventRequest true "Game event"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /game-events/preview [post]
func (h *GameEventHandler) Preview(c *gin.Context) {
	var req dto.PreviewGameEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid game event payload"))
		return
	}
	preview, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Submit godoc
// @Summary Submit a game event for review
// @Tags GameEvents
// @Accept json
// @Produce json
// @Param payload body dto.SubmitGameEventRequest true "Game event"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /game-events [post]
func (h *GameEventHandler) Submit(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.SubmitGameEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid game event payload"))
		return
	}
	detail, err := h.service.Submit(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Replace a pending game event
// @Tags GameEvents
// @Accept json
// @Produce json
// @Param id path string true "Game event ID"
// @Param payload body dto.UpdateGameEventRequest true "Week and payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /game-events/{id} [put]
func (h *GameEventHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpdateGameEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid game event payload"))
		return
	}
	detail, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Review godoc
// @Summary Approve or reject a pending game event
// @Tags GameEvents
// @Accept json
// @Produce json
// @Param id path string true "Game event ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /game-events/{id}/review [post]
func (h *GameEventHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	detail, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a game event and its derived scoring events
// @Tags GameEvents
// @Param id path string true "Game event ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /game-events/{id} [delete]
func (h *GameEventHandler) Delete(c *gin.Context) {
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
