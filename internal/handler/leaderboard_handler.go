package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/service"
	"github.com/noah-isme/castaway-league-api/pkg/response"
)

type leaderboardService interface {
	ContestantBoard(ctx context.Context, seasonID string) (*models.ContestantLeaderboard, bool, error)
	TeamBoard(ctx context.Context, leagueID string) (*models.TeamLeaderboard, bool, error)
	Export(ctx context.Context, scope service.LeaderboardScope, id string, format dto.ExportFormat) (*dto.ExportFile, error)
}

// LeaderboardHandler serves contestant and team standings.
type LeaderboardHandler struct {
	service leaderboardService
}

// NewLeaderboardHandler builds a new handler.
func NewLeaderboardHandler(service leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// Season godoc
// @Summary Contestant leaderboard for a season
// @Tags Leaderboards
// @Produce json
// @Param id path string true "Season ID"
// @Success 200 {object} response.Envelope
// @Router /seasons/{id}/leaderboard [get]
func (h *LeaderboardHandler) Season(c *gin.Context) {
	board, hit, err := h.service.ContestantBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil, withBoardMeta(c, hit, board.GeneratedAt))
}

// League godoc
// @Summary Team leaderboard for a league
// @Tags Leaderboards
// @Produce json
// @Param id path string true "League ID"
// @Success 200 {object} response.Envelope
// @Router /leagues/{id}/leaderboard [get]
func (h *LeaderboardHandler) League(c *gin.Context) {
	board, hit, err := h.service.TeamBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil, withBoardMeta(c, hit, board.GeneratedAt))
}

// ExportSeason godoc
// @Summary Download a season leaderboard
// @Tags Leaderboards
// @Produce octet-stream
// @Param id path string true "Season ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /seasons/{id}/leaderboard/export [get]
func (h *LeaderboardHandler) ExportSeason(c *gin.Context) {
	h.export(c, service.ScopeSeason)
}

// ExportLeague godoc
// @Summary Download a league leaderboard
// @Tags Leaderboards
// @Produce octet-stream
// @Param id path string true "League ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /leagues/{id}/leaderboard/export [get]
func (h *LeaderboardHandler) ExportLeague(c *gin.Context) {
	h.export(c, service.ScopeLeague)
}

func (h *LeaderboardHandler) export(c *gin.Context, scope service.LeaderboardScope) {
	format := dto.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	file, err := h.service.Export(c.Request.Context(), scope, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
