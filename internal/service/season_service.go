package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/models"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type seasonReader interface {
	ListSeasons(ctx context.Context) ([]models.Season, error)
	FindSeason(ctx context.Context, id string) (*models.Season, error)
	ListTribes(ctx context.Context, seasonID string) ([]models.Tribe, error)
	ListContestants(ctx context.Context, filter models.ContestantFilter) ([]models.Contestant, int, error)
	FindContestant(ctx context.Context, id string) (*models.Contestant, error)
}

// SeasonService serves read-only season, tribe and cast data.
type SeasonService struct {
	repo   seasonReader
	logger *zap.Logger
}

// NewSeasonService constructs a SeasonService.
func NewSeasonService(repo seasonReader, logger *zap.Logger) *SeasonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeasonService{repo: repo, logger: logger}
}

// List returns every season.
func (s *SeasonService) List(ctx context.Context) ([]models.Season, error) {
	seasons, err := s.repo.ListSeasons(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seasons")
	}
	return seasons, nil
}

// Get returns a season.
func (s *SeasonService) Get(ctx context.Context, id string) (*models.Season, error) {
	season, err := s.repo.FindSeason(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "season not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load season")
	}
	return season, nil
}

// Tribes returns the tribes of a season.
func (s *SeasonService) Tribes(ctx context.Context, seasonID string) ([]models.Tribe, error) {
	if _, err := s.Get(ctx, seasonID); err != nil {
		return nil, err
	}
	tribes, err := s.repo.ListTribes(ctx, seasonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tribes")
	}
	return tribes, nil
}

// Contestants returns contestants matching filter.
func (s *SeasonService) Contestants(ctx context.Context, filter models.ContestantFilter) ([]models.Contestant, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize, 100)
	contestants, total, err := s.repo.ListContestants(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contestants")
	}
	return contestants, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Contestant returns one contestant.
func (s *SeasonService) Contestant(ctx context.Context, id string) (*models.Contestant, error) {
	contestant, err := s.repo.FindContestant(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contestant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contestant")
	}
	return contestant, nil
}
