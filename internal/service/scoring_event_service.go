package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type scoringEventStore interface {
	Create(ctx context.Context, event *models.ScoringEvent) error
	FindByID(ctx context.Context, id string) (*models.ScoringEvent, error)
	List(ctx context.Context, filter models.ScoringEventFilter) ([]models.ScoringEvent, int, error)
	Review(ctx context.Context, id string, status models.ApprovalStatus, reviewerID string, reviewedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type contestantLookup interface {
	FindContestant(ctx context.Context, id string) (*models.Contestant, error)
}

// ScoringEventService manages standalone scoring events. Events derived from
// a game event are only moderated through that game event.
type ScoringEventService struct {
	repo        scoringEventStore
	contestants contestantLookup
	audit       auditStore
	notifier    ScoreChangeNotifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScoringEventService wires the service.
func NewScoringEventService(repo scoringEventStore, contestants contestantLookup, audit auditStore, notifier ScoreChangeNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScoringEventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringEventService{
		repo:        repo,
		contestants: contestants,
		audit:       audit,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Submit records a pending scoring event with points copied from the catalog.
func (s *ScoringEventService) Submit(ctx context.Context, req dto.SubmitScoringEventRequest, submitterID string) (*models.ScoringEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scoring event payload")
	}
	points, err := scoring.PointsFor(req.Type)
	if err != nil {
		return nil, err
	}
	contestant, err := s.contestants.FindContestant(ctx, req.ContestantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contestant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contestant")
	}
	if contestant.SeasonID != req.SeasonID {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("contestant %s is not part of season %s", contestant.ID, req.SeasonID))
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description, _ = scoring.LabelFor(req.Type)
	}
	event := &models.ScoringEvent{
		SeasonID:     req.SeasonID,
		ContestantID: contestant.ID,
		Type:         req.Type,
		Week:         req.Week,
		Points:       points,
		Description:  description,
		Status:       models.ApprovalPending,
		SubmittedBy:  submitterID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scoring event")
	}
	recordAudit(ctx, s.audit, s.logger, "scoring-event-service", &models.AuditLog{
		UserID:     stringPtr(submitterID),
		Action:     models.AuditActionScoringSubmit,
		Resource:   "scoring_event",
		ResourceID: &event.ID,
		NewValues:  []byte(fmt.Sprintf(`{"type":%q,"points":%d}`, event.Type, event.Points)),
	})
	return event, nil
}

// Get returns a scoring event.
func (s *ScoringEventService) Get(ctx context.Context, id string) (*models.ScoringEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scoring event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scoring event")
	}
	return event, nil
}

// List returns scoring events matching the filter.
func (s *ScoringEventService) List(ctx context.Context, filter models.ScoringEventFilter) ([]models.ScoringEvent, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize, 200)
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scoring events")
	}
	return events, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Review approves or rejects a standalone pending scoring event.
func (s *ScoringEventService) Review(ctx context.Context, id string, req dto.ReviewRequest, reviewer *models.JWTClaims) (*models.ScoringEvent, error) {
	if reviewer == nil || !reviewer.Role.CanModerate() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "moderator role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.GameEventID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "derived scoring events are reviewed through their game event")
	}
	if event.Status != models.ApprovalPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "scoring event already reviewed")
	}

	status := models.ApprovalRejected
	if *req.Approved {
		status = models.ApprovalApproved
	}
	now := time.Now().UTC()
	if err := s.repo.Review(ctx, id, status, reviewer.UserID, now); err != nil {
		return nil, mapEventWriteError(err, "failed to review scoring event")
	}
	event.Status = status
	event.ReviewedBy = &reviewer.UserID
	event.ReviewedAt = &now

	s.metrics.RecordReview("scoring", status)
	recordAudit(ctx, s.audit, s.logger, "scoring-event-service", &models.AuditLog{
		UserID:     &reviewer.UserID,
		Action:     models.AuditActionScoringReview,
		Resource:   "scoring_event",
		ResourceID: &event.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, status)),
	})
	if status == models.ApprovalApproved && s.notifier != nil {
		s.notifier.SeasonScoresChanged(ctx, event.SeasonID)
	}
	return event, nil
}

// Delete removes a standalone scoring event.
func (s *ScoringEventService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil || !actor.Role.CanModerate() {
		return appErrors.Clone(appErrors.ErrForbidden, "moderator role required")
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if event.GameEventID != nil {
		return appErrors.Clone(appErrors.ErrConflict, "derived scoring events are removed with their game event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapEventWriteError(err, "failed to delete scoring event")
	}
	recordAudit(ctx, s.audit, s.logger, "scoring-event-service", &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionScoringDelete,
		Resource:   "scoring_event",
		ResourceID: &event.ID,
	})
	if event.Status == models.ApprovalApproved && s.notifier != nil {
		s.notifier.SeasonScoresChanged(ctx, event.SeasonID)
	}
	return nil
}
