package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/draft"
	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/repository"
	"github.com/noah-isme/castaway-league-api/internal/simulation"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type leagueStore interface {
	CreateWithOwnerTeam(ctx context.Context, league *models.League, team *models.Team) error
	FindByID(ctx context.Context, id string) (*models.League, error)
	FindByInviteCode(ctx context.Context, code string) (*models.League, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.League, error)
	CreateTeam(ctx context.Context, team *models.Team) error
	ListTeams(ctx context.Context, leagueID string) ([]models.Team, error)
}

type draftStarter interface {
	Start(ctx context.Context, leagueID string, plan repository.DraftPlan) (*models.Draft, error)
}

type seasonReadiness interface {
	FindSeason(ctx context.Context, id string) (*models.Season, error)
}

// LeagueConfig holds league creation defaults.
type LeagueConfig struct {
	InviteCodeLength int
	DefaultMaxTeams  int
	DefaultPicks     int
	DefaultMaxOwners int
}

// LeagueService manages leagues, their teams and the start of the draft.
type LeagueService struct {
	repo      leagueStore
	drafts    draftStarter
	seasons   seasonReadiness
	audit     auditStore
	validator *validator.Validate
	logger    *zap.Logger
	config    LeagueConfig
}

// NewLeagueService wires the service and fills config defaults.
func NewLeagueService(repo leagueStore, drafts draftStarter, seasons seasonReadiness, audit auditStore, validate *validator.Validate, logger *zap.Logger, cfg LeagueConfig) *LeagueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.InviteCodeLength <= 0 {
		cfg.InviteCodeLength = 8
	}
	if cfg.DefaultMaxTeams <= 0 {
		cfg.DefaultMaxTeams = 10
	}
	if cfg.DefaultPicks <= 0 {
		cfg.DefaultPicks = 2
	}
	if cfg.DefaultMaxOwners <= 0 {
		cfg.DefaultMaxOwners = 1
	}
	return &LeagueService{repo: repo, drafts: drafts, seasons: seasons, audit: audit, validator: validate, logger: logger, config: cfg}
}

// Create opens a league and enrolls the creator's team.
func (s *LeagueService) Create(ctx context.Context, req dto.CreateLeagueRequest, ownerID string) (*models.League, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid league payload")
	}
	if _, err := s.seasons.FindSeason(ctx, req.SeasonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "season not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load season")
	}

	leagueSlug, err := s.uniqueSlug(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	code, err := newInviteCode(s.config.InviteCodeLength)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invite code")
	}

	league := &models.League{
		Name:                   strings.TrimSpace(req.Name),
		Slug:                   leagueSlug,
		SeasonID:               req.SeasonID,
		OwnerID:                ownerID,
		InviteCode:             code,
		Status:                 models.LeagueStatusOpen,
		MaxTeams:               orDefault(req.MaxTeams, s.config.DefaultMaxTeams),
		PicksPerTeam:           orDefault(req.PicksPerTeam, s.config.DefaultPicks),
		MaxOwnersPerContestant: orDefault(req.MaxOwnersPerContestant, s.config.DefaultMaxOwners),
	}
	team := &models.Team{OwnerID: ownerID, Name: strings.TrimSpace(req.TeamName)}
	if err := s.repo.CreateWithOwnerTeam(ctx, league, team); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "league slug or invite code already taken, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create league")
	}
	recordAudit(ctx, s.audit, s.logger, "league-service", &models.AuditLog{
		UserID:     stringPtr(ownerID),
		Action:     models.AuditActionLeagueCreate,
		Resource:   "league",
		ResourceID: &league.ID,
	})
	s.logger.Info("league created", zap.String("league_id", league.ID), zap.String("slug", league.Slug))
	return league, nil
}

// Join enrolls a new team through an invite code.
func (s *LeagueService) Join(ctx context.Context, req dto.JoinLeagueRequest, userID string) (*models.Team, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid join payload")
	}
	league, err := s.repo.FindByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(req.InviteCode)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invite code not recognised")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load league")
	}
	if league.Status != models.LeagueStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrConflict, "league is no longer accepting teams")
	}

	team := &models.Team{LeagueID: league.ID, OwnerID: userID, Name: strings.TrimSpace(req.TeamName)}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a team in this league")
		case errors.Is(err, repository.ErrStaleState):
			return nil, appErrors.Clone(appErrors.ErrConflict, "league is no longer accepting teams")
		case errors.Is(err, repository.ErrCapacity):
			return nil, appErrors.Clone(appErrors.ErrConflict, "league is full")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team")
	}
	recordAudit(ctx, s.audit, s.logger, "league-service", &models.AuditLog{
		UserID:     stringPtr(userID),
		Action:     models.AuditActionLeagueJoin,
		Resource:   "league",
		ResourceID: &league.ID,
	})
	return team, nil
}

// Get returns a league by id.
func (s *LeagueService) Get(ctx context.Context, id string) (*models.League, error) {
	league, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "league not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load league")
	}
	return league, nil
}

// ListMine returns the leagues the user has a team in.
func (s *LeagueService) ListMine(ctx context.Context, userID string) ([]models.League, error) {
	leagues, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leagues")
	}
	return leagues, nil
}

// Teams lists the teams of a league.
func (s *LeagueService) Teams(ctx context.Context, leagueID string) ([]models.Team, error) {
	if _, err := s.Get(ctx, leagueID); err != nil {
		return nil, err
	}
	teams, err := s.repo.ListTeams(ctx, leagueID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
	}
	return teams, nil
}

// StartDraft checks the season can fill every roster, shuffles the first
// round order and moves the league into drafting.
func (s *LeagueService) StartDraft(ctx context.Context, leagueID string, actor *models.JWTClaims) (*models.Draft, error) {
	league, err := s.Get(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if actor == nil || (actor.UserID != league.OwnerID && actor.Role != models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the league owner can start the draft")
	}
	if league.Status != models.LeagueStatusOpen {
		return nil, appErrors.Clone(appErrors.ErrConflict, "draft already started")
	}
	seed, err := simulation.NewSeed()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed draft order")
	}

	var order []string
	d, err := s.drafts.Start(ctx, leagueID, func(teamIDs []string, active int) ([]string, error) {
		if err := checkDraftReadiness(league, len(teamIDs), active); err != nil {
			return nil, err
		}
		order = draft.Shuffle(teamIDs, mrand.New(mrand.NewSource(seed)))
		return order, nil
	})
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.Is(err, repository.ErrStaleState):
			return nil, appErrors.Clone(appErrors.ErrConflict, "draft already started")
		case errors.As(err, &appErr):
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start draft")
	}
	recordAudit(ctx, s.audit, s.logger, "league-service", &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionDraftStart,
		Resource:   "draft",
		ResourceID: &d.ID,
		NewValues:  []byte(fmt.Sprintf(`{"league_id":%q,"teams":%d}`, leagueID, len(order))),
	})
	s.logger.Info("draft started", zap.String("league_id", leagueID), zap.Strings("order", order))
	return d, nil
}

// checkDraftReadiness requires two teams and enough active contestants to
// fill every roster under the league's owner cap.
func checkDraftReadiness(league *models.League, teams, active int) error {
	if teams < 2 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "a draft needs at least two teams")
	}
	if active < league.PicksPerTeam || active*league.MaxOwnersPerContestant < teams*league.PicksPerTeam {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("%d active contestants cannot fill %d rosters of %d picks", active, teams, league.PicksPerTeam))
	}
	return nil
}

func (s *LeagueService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "league"
	}
	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check league slug")
		}
		if !exists {
			return candidate, nil
		}
		suffix, err := newInviteCode(4)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate slug suffix")
		}
		candidate = base + "-" + strings.ToLower(suffix)
	}
	return "", appErrors.Clone(appErrors.ErrConflict, "could not find a free league slug")
}

func newInviteCode(length int) (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(inviteAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(inviteAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
