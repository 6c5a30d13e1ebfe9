package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/simulation"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/response"
)

type simulationService interface {
	ScoreSeason(ctx context.Context, req dto.ScoreSeasonRequest) (*simulation.SeasonScores, error)
	Run(ctx context.Context, req dto.RunSimulationRequest) (*simulation.Result, error)
}

// SimulationHandler exposes what-if scoring over historical seasons.
type SimulationHandler struct {
	service simulationService
}

// NewSimulationHandler builds a new handler.
func NewSimulationHandler(service simulationService) *SimulationHandler {
	return &SimulationHandler{service: service}
}

// ScoreSeason godoc
// @Summary Rescore a historical season with point overrides
// @Tags Simulation
// @Accept json
// @Produce json
// @Param payload body dto.ScoreSeasonRequest true "Season and overrides"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /simulations/season-scores [post]
func (h *SimulationHandler) ScoreSeason(c *gin.Context) {
	var req dto.ScoreSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid simulation payload"))
		return
	}
	scores, err := h.service.ScoreSeason(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// Run godoc
// @Summary Monte Carlo draft simulation
// @Tags Simulation
// @Accept json
// @Produce json
// @Param payload body dto.RunSimulationRequest true "Simulation config"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /simulations/drafts [post]
func (h *SimulationHandler) Run(c *gin.Context) {
	var req dto.RunSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid simulation payload"))
		return
	}
	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"seed": result.Seed})
}
