package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	"github.com/noah-isme/castaway-league-api/internal/simulation"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type simulationServiceMock struct {
	runReq dto.RunSimulationRequest
	runErr error
	scored dto.ScoreSeasonRequest
}

func (m *simulationServiceMock) ScoreSeason(ctx context.Context, req dto.ScoreSeasonRequest) (*simulation.SeasonScores, error) {
	m.scored = req
	return &simulation.SeasonScores{SeasonID: req.SeasonID}, nil
}

func (m *simulationServiceMock) Run(ctx context.Context, req dto.RunSimulationRequest) (*simulation.Result, error) {
	m.runReq = req
	if m.runErr != nil {
		return nil, m.runErr
	}
	return &simulation.Result{Runs: req.Runs, Seed: 99, Samples: req.Runs * req.Players}, nil
}

func TestSimulationHandlerRun(t *testing.T) {
	svc := &simulationServiceMock{}
	h := NewSimulationHandler(svc)

	body := []byte(`{"seasonIds":["s1","s2"],"players":4,"picksPerPlayer":2,"maxOwnersPerContestant":1,"runs":50,"overrides":{"WINNER":40}}`)
	c, w := newJSONContext(http.MethodPost, "/simulations/drafts", body)
	h.Run(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"s1", "s2"}, svc.runReq.SeasonIDs)
	assert.Equal(t, 40, svc.runReq.Overrides[scoring.EventWinner])

	var envelope struct {
		Data simulation.Result      `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 200, envelope.Data.Samples)
	assert.Equal(t, float64(99), envelope.Meta["seed"])
}

func TestSimulationHandlerRunRejected(t *testing.T) {
	h := NewSimulationHandler(&simulationServiceMock{runErr: appErrors.Clone(appErrors.ErrValidation, "runs exceeds maximum")})
	c, w := newJSONContext(http.MethodPost, "/simulations/drafts", []byte(`{"seasonIds":["s1"],"players":2,"picksPerPlayer":1,"maxOwnersPerContestant":1,"runs":999999}`))
	h.Run(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulationHandlerScoreSeason(t *testing.T) {
	svc := &simulationServiceMock{}
	h := NewSimulationHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/simulations/season-scores", []byte(`{"seasonId":"s1","overrides":{"QUIT":0}}`))
	h.ScoreSeason(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", svc.scored.SeasonID)
	assert.Equal(t, map[scoring.EventType]int{scoring.EventQuit: 0}, svc.scored.Overrides)
}
