package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/simulation"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type seasonHistory interface {
	LoadSeason(ctx context.Context, seasonID string) (*simulation.Season, error)
}

// SimulationConfig bounds what the API accepts for Monte Carlo runs.
type SimulationConfig struct {
	DefaultRuns   int
	MaxRuns       int
	HistogramBins int
	Seed          int64
}

// SimulationService rescores historical seasons and runs draft simulations
// against them.
type SimulationService struct {
	history   seasonHistory
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    SimulationConfig
}

// NewSimulationService wires the service and fills config defaults.
func NewSimulationService(history seasonHistory, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg SimulationConfig) *SimulationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultRuns <= 0 {
		cfg.DefaultRuns = 1000
	}
	if cfg.MaxRuns <= 0 {
		cfg.MaxRuns = 20000
	}
	return &SimulationService{history: history, metrics: metrics, validator: validate, logger: logger, config: cfg}
}

// ScoreSeason ranks a season's contestants under an alternative point table.
func (s *SimulationService) ScoreSeason(ctx context.Context, req dto.ScoreSeasonRequest) (*simulation.SeasonScores, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scoring request")
	}
	season, err := s.load(ctx, req.SeasonID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	scores, err := simulation.ScoreSeason(*season, simulation.Overrides(req.Overrides))
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSimulation("score_season", time.Since(start))
	return &scores, nil
}

// Run executes a Monte Carlo draft simulation across the requested seasons.
func (s *SimulationService) Run(ctx context.Context, req dto.RunSimulationRequest) (*simulation.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid simulation request")
	}
	runs := req.Runs
	if runs == 0 {
		runs = s.config.DefaultRuns
	}
	if runs > s.config.MaxRuns {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("runs must not exceed %d", s.config.MaxRuns))
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.config.Seed
	}
	bins := req.HistogramBins
	if bins == 0 {
		bins = s.config.HistogramBins
	}

	seen := make(map[string]struct{}, len(req.SeasonIDs))
	seasons := make([]simulation.Season, 0, len(req.SeasonIDs))
	for _, id := range req.SeasonIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		season, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, *season)
	}
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "simulation cancelled")
	}

	cfg := simulation.DraftConfig{
		Players:                req.Players,
		PicksPerPlayer:         req.PicksPerPlayer,
		MaxOwnersPerContestant: req.MaxOwnersPerContestant,
	}
	start := time.Now()
	result, err := simulation.Run(seasons, cfg, simulation.Options{
		Runs:          runs,
		Seed:          seed,
		HistogramBins: bins,
		Overrides:     simulation.Overrides(req.Overrides),
	})
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	s.metrics.ObserveSimulation("monte_carlo", elapsed)
	s.logger.Info("simulation finished",
		zap.Int("runs", result.Runs),
		zap.Int64("seed", result.Seed),
		zap.Int("seasons", len(seasons)),
		zap.Int("skipped_picks", result.SkippedPicks),
		zap.Duration("elapsed", elapsed),
	)
	return &result, nil
}

func (s *SimulationService) load(ctx context.Context, seasonID string) (*simulation.Season, error) {
	season, err := s.history.LoadSeason(ctx, seasonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("season %s not found", seasonID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load season history")
	}
	return season, nil
}
