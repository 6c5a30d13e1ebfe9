package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/draft"
	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/repository"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type draftStore interface {
	FindByLeague(ctx context.Context, leagueID string) (*models.Draft, error)
	ListPicks(ctx context.Context, draftID string) ([]models.DraftPick, error)
	RecordPick(ctx context.Context, params repository.RecordPickParams) (*models.DraftPick, *models.Draft, error)
}

type draftLeagues interface {
	FindByID(ctx context.Context, id string) (*models.League, error)
	ListTeams(ctx context.Context, leagueID string) ([]models.Team, error)
}

// DraftService exposes draft state and records picks.
type DraftService struct {
	repo        draftStore
	leagues     draftLeagues
	contestants contestantLookup
	audit       auditStore
	notifier    ScoreChangeNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDraftService wires the service.
func NewDraftService(repo draftStore, leagues draftLeagues, contestants contestantLookup, audit auditStore, notifier ScoreChangeNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DraftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{
		repo:        repo,
		leagues:     leagues,
		contestants: contestants,
		audit:       audit,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// State returns the league's draft with its picks and the team on the clock.
func (s *DraftService) State(ctx context.Context, leagueID string) (*models.DraftState, error) {
	league, err := s.findLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	d, err := s.findDraft(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	picks, err := s.repo.ListPicks(ctx, d.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load picks")
	}
	return buildDraftState(d, picks, league.PicksPerTeam), nil
}

// MakePick drafts a contestant for the actor's team when it is on the clock.
func (s *DraftService) MakePick(ctx context.Context, leagueID string, req dto.MakePickRequest, actor *models.JWTClaims) (*models.DraftState, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pick payload")
	}
	league, err := s.findLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	d, err := s.findDraft(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	teams, err := s.leagues.ListTeams(ctx, leagueID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teams")
	}
	var teamID string
	for _, team := range teams {
		if team.OwnerID == actor.UserID {
			teamID = team.ID
			break
		}
	}
	if teamID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you have no team in this league")
	}

	contestant, err := s.contestants.FindContestant(ctx, req.ContestantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contestant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contestant")
	}
	if contestant.SeasonID != league.SeasonID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "contestant is not part of this league's season")
	}
	if contestant.IsEliminated {
		return nil, appErrors.Clone(appErrors.ErrValidation, "eliminated contestants cannot be drafted")
	}

	pick, updated, err := s.repo.RecordPick(ctx, repository.RecordPickParams{
		DraftID:      d.ID,
		LeagueID:     leagueID,
		TeamID:       teamID,
		ContestantID: contestant.ID,
		PicksPerTeam: league.PicksPerTeam,
		MaxOwners:    league.MaxOwnersPerContestant,
	})
	if err != nil {
		return nil, mapPickError(err)
	}

	s.metrics.RecordDraftPick()
	recordAudit(ctx, s.audit, s.logger, "draft-service", &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionDraftPick,
		Resource:   "draft",
		ResourceID: &d.ID,
		NewValues:  []byte(fmt.Sprintf(`{"pick":%d,"team_id":%q,"contestant_id":%q}`, pick.PickNumber, teamID, contestant.ID)),
	})
	s.logger.Info("draft pick recorded",
		zap.String("draft_id", d.ID),
		zap.Int("pick", pick.PickNumber),
		zap.String("team_id", teamID),
		zap.String("contestant_id", contestant.ID),
	)
	if s.notifier != nil {
		s.notifier.SeasonScoresChanged(ctx, league.SeasonID)
	}

	picks, err := s.repo.ListPicks(ctx, d.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load picks")
	}
	return buildDraftState(updated, picks, league.PicksPerTeam), nil
}

func (s *DraftService) findLeague(ctx context.Context, id string) (*models.League, error) {
	league, err := s.leagues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "league not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load league")
	}
	return league, nil
}

func (s *DraftService) findDraft(ctx context.Context, leagueID string) (*models.Draft, error) {
	d, err := s.repo.FindByLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "draft has not started")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	return d, nil
}

func buildDraftState(d *models.Draft, picks []models.DraftPick, picksPerTeam int) *models.DraftState {
	teams := len(d.PickOrder)
	if picks == nil {
		picks = []models.DraftPick{}
	}
	state := &models.DraftState{
		Draft:      *d,
		Picks:      picks,
		TotalPicks: draft.TotalPicks(teams, picksPerTeam),
		Complete:   d.Status == models.DraftStatusComplete || draft.IsComplete(d.CurrentPick, teams, picksPerTeam),
	}
	if state.Complete {
		state.Round = picksPerTeam
		return state
	}
	state.Round = draft.Round(d.CurrentPick, teams)
	state.OnTheClock, _ = draft.TeamForPick(d.PickOrder, d.CurrentPick)
	return state
}

func mapPickError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotYourTurn):
		return appErrors.Clone(appErrors.ErrNotYourTurn, "your team is not on the clock")
	case errors.Is(err, repository.ErrDraftComplete):
		return appErrors.Clone(appErrors.ErrDraftComplete, "")
	case errors.Is(err, repository.ErrAlreadyDrafted):
		return appErrors.Clone(appErrors.ErrAlreadyDrafted, "contestant is unavailable to your team")
	case errors.Is(err, repository.ErrStaleState):
		return appErrors.Clone(appErrors.ErrConflict, "draft is not in progress")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "draft not found")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record pick")
	}
}
