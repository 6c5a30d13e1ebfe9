package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/response"
)

type leagueService interface {
	Create(ctx context.Context, req dto.CreateLeagueRequest, ownerID string) (*models.League, error)
	Join(ctx context.Context, req dto.JoinLeagueRequest, userID string) (*models.Team, error)
	Get(ctx context.Context, id string) (*models.League, error)
	ListMine(ctx context.Context, userID string) ([]models.League, error)
	Teams(ctx context.Context, leagueID string) ([]models.Team, error)
	StartDraft(ctx context.Context, leagueID string, actor *models.JWTClaims) (*models.Draft, error)
}

type draftService interface {
	State(ctx context.Context, leagueID string) (*models.DraftState, error)
	MakePick(ctx context.Context, leagueID string, req dto.MakePickRequest, actor *models.JWTClaims) (*models.DraftState, error)
}

// LeagueHandler exposes league membership and the league's draft.
type LeagueHandler struct {
	leagues leagueService
	drafts  draftService
}

// NewLeagueHandler builds a new handler.
func NewLeagueHandler(leagues leagueService, drafts draftService) *LeagueHandler {
	return &LeagueHandler{leagues: leagues, drafts: drafts}
}

// Create godoc
// @Summary Create a league
// @Tags Leagues
// @Accept json
// @Produce json
// @Param payload body dto.CreateLeagueRequest true "League"
// @Success 201 {object} response.Envelope
// @Router /leagues [post]
func (h *LeagueHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateLeagueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid league payload"))
		return
	}
	league, err := h.leagues.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, league)
}

// Join godoc
// @Summary Join a league by invite code
// @Tags Leagues
// @Accept json
// @Produce json
// @Param payload body dto.JoinLeagueRequest true "Invite"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leagues/join [post]
func (h *LeagueHandler) Join(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.JoinLeagueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid join payload"))
		return
	}
	team, err := h.leagues.Join(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// Mine godoc
// @Summary Leagues the caller belongs to
// @Tags Leagues
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leagues [get]
func (h *LeagueHandler) Mine(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	leagues, err := h.leagues.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leagues, nil)
}

// Get godoc
// @Summary Get league
// @Tags Leagues
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} response.Envelope
// @Router /leagues/{id} [get]
func (h *LeagueHandler) Get(c *gin.Context) {
	league, err := h.leagues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, league, nil)
}

// Teams godoc
// @Summary List league teams
// @Tags Leagues
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} response.Envelope
// @Router /leagues/{id}/teams [get]
func (h *LeagueHandler) Teams(c *gin.Context) {
	teams, err := h.leagues.Teams(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teams, nil)
}

// StartDraft godoc
// @Summary Start the league draft
// @Tags Drafts
// @Produce json
// @Param id path string true "League ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /leagues/{id}/draft [post]
func (h *LeagueHandler) StartDraft(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	draft, err := h.leagues.StartDraft(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// DraftState godoc
// @Summary Current draft state
// @Tags Drafts
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} response.Envelope
// @Router /leagues/{id}/draft [get]
func (h *LeagueHandler) DraftState(c *gin.Context) {
	state, err := h.drafts.State(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Pick godoc
// @Summary Draft a contestant for the team on the clock
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path string true "League ID"
// @Param payload body dto.MakePickRequest true "Pick"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leagues/{id}/draft/picks [post]
func (h *LeagueHandler) Pick(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.MakePickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pick payload"))
		return
	}
	state, err := h.drafts.MakePick(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}
