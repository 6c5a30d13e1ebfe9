package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/repository"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type gameEventStore interface {
	CreateWithDerived(ctx context.Context, event *models.GameEvent, derived []models.ScoringEvent) error
	FindByID(ctx context.Context, id string) (*models.GameEvent, error)
	ListDerived(ctx context.Context, gameEventID string) ([]models.ScoringEvent, error)
	List(ctx context.Context, filter models.GameEventFilter) ([]models.GameEvent, int, error)
	ReplacePending(ctx context.Context, event *models.GameEvent, derived []models.ScoringEvent) error
	Review(ctx context.Context, params repository.ReviewParams) (int64, error)
	Delete(ctx context.Context, id string) error
}

type seasonRoster interface {
	FindSeason(ctx context.Context, id string) (*models.Season, error)
	ContestantsBySeason(ctx context.Context, seasonID string) ([]models.Contestant, error)
}

// ScoreChangeNotifier learns that the approved points of a season may have
// changed so cached standings can be dropped and rebuilt.
type ScoreChangeNotifier interface {
	SeasonScoresChanged(ctx context.Context, seasonID string)
}

// GameEventService turns compound game events into pending scoring events
// and applies moderator decisions to both atomically.
type GameEventService struct {
	repo      gameEventStore
	seasons   seasonRoster
	audit     auditStore
	notifier  ScoreChangeNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGameEventService wires the service. notifier and metrics may be nil.
func NewGameEventService(repo gameEventStore, seasons seasonRoster, audit auditStore, notifier ScoreChangeNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GameEventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameEventService{
		repo:      repo,
		seasons:   seasons,
		audit:     audit,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Preview derives the scoring events a submission would create without
// persisting anything.
func (s *GameEventService) Preview(ctx context.Context, req dto.PreviewGameEventRequest) (*dto.DerivationPreview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}
	derived, err := derive(req.Type, req.Payload)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, d := range derived {
		total += d.Points
	}
	return &dto.DerivationPreview{Type: req.Type, Derived: derived, Total: total}, nil
}

// Submit stores a pending game event together with every scoring event it
// derives.
func (s *GameEventService) Submit(ctx context.Context, req dto.SubmitGameEventRequest, submitterID string) (*models.GameEventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid game event payload")
	}
	if _, err := s.seasons.FindSeason(ctx, req.SeasonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "season not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load season")
	}
	derived, err := derive(req.Type, req.Payload)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRoster(ctx, req.SeasonID, derived); err != nil {
		return nil, err
	}

	now := s.now()
	event := &models.GameEvent{
		SeasonID:    req.SeasonID,
		Type:        req.Type,
		Week:        req.Week,
		Payload:     types.JSONText(req.Payload),
		Status:      models.ApprovalPending,
		SubmittedBy: submitterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	scoringEvents := toScoringEvents(derived, req.SeasonID, req.Week, submitterID, now)
	if err := s.repo.CreateWithDerived(ctx, event, scoringEvents); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store game event")
	}

	s.metrics.RecordGameEventSubmitted(string(event.Type))
	recordAudit(ctx, s.audit, s.logger, "game-event-service", &models.AuditLog{
		UserID:     stringPtr(submitterID),
		Action:     models.AuditActionGameEventSubmit,
		Resource:   "game_event",
		ResourceID: &event.ID,
		NewValues:  []byte(event.Payload),
	})
	s.logger.Info("game event submitted",
		zap.String("game_event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int("derived", len(scoringEvents)),
	)
	return &models.GameEventDetail{GameEvent: *event, Derived: scoringEvents}, nil
}

// Update re-derives a pending game event from a new payload and replaces its
// derived events in one transaction.
func (s *GameEventService) Update(ctx context.Context, id string, req dto.UpdateGameEventRequest, actorID string) (*models.GameEventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid game event payload")
	}
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.ApprovalPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending game events can be edited")
	}
	derived, err := derive(event.Type, req.Payload)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRoster(ctx, event.SeasonID, derived); err != nil {
		return nil, err
	}

	old := []byte(event.Payload)
	now := s.now()
	event.Week = req.Week
	event.Payload = types.JSONText(req.Payload)
	event.UpdatedAt = now
	scoringEvents := toScoringEvents(derived, event.SeasonID, event.Week, event.SubmittedBy, now)
	if err := s.repo.ReplacePending(ctx, event, scoringEvents); err != nil {
		return nil, mapEventWriteError(err, "failed to update game event")
	}
	recordAudit(ctx, s.audit, s.logger, "game-event-service", &models.AuditLog{
		UserID:     stringPtr(actorID),
		Action:     models.AuditActionGameEventUpdate,
		Resource:   "game_event",
		ResourceID: &event.ID,
		OldValues:  old,
		NewValues:  []byte(event.Payload),
	})
	return &models.GameEventDetail{GameEvent: *event, Derived: scoringEvents}, nil
}

// Review approves or rejects a pending game event. The decision cascades to
// all derived events, and approval of an elimination marks the contestant.
func (s *GameEventService) Review(ctx context.Context, id string, req dto.ReviewRequest, reviewer *models.JWTClaims) (*models.GameEventDetail, error) {
	if reviewer == nil || !reviewer.Role.CanModerate() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "moderator role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.ApprovalPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "game event already reviewed")
	}

	status := models.ApprovalRejected
	if *req.Approved {
		status = models.ApprovalApproved
	}
	params := repository.ReviewParams{
		ID:         event.ID,
		Status:     status,
		ReviewerID: reviewer.UserID,
		ReviewedAt: s.now(),
	}
	if status == models.ApprovalApproved {
		payload, err := scoring.DecodePayload(event.Type, json.RawMessage(event.Payload))
		if err != nil {
			return nil, err
		}
		if eliminated := scoring.EliminatedContestant(event.Type, payload); eliminated != "" {
			params.Elimination = &repository.Elimination{ContestantID: eliminated, Week: event.Week}
		}
	}

	updated, err := s.repo.Review(ctx, params)
	if err != nil {
		return nil, mapEventWriteError(err, "failed to review game event")
	}
	event.Status = status
	event.ReviewedBy = &params.ReviewerID
	event.ReviewedAt = &params.ReviewedAt

	s.metrics.RecordReview("game", status)
	recordAudit(ctx, s.audit, s.logger, "game-event-service", &models.AuditLog{
		UserID:     &reviewer.UserID,
		Action:     models.AuditActionGameEventReview,
		Resource:   "game_event",
		ResourceID: &event.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q,"derived":%d}`, status, updated)),
	})
	s.logger.Info("game event reviewed",
		zap.String("game_event_id", event.ID),
		zap.String("status", string(status)),
		zap.Int64("derived_updated", updated),
	)
	if status == models.ApprovalApproved {
		s.scoresChanged(ctx, event.SeasonID)
	}

	derived, err := s.repo.ListDerived(ctx, event.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load derived events")
	}
	return &models.GameEventDetail{GameEvent: *event, Derived: derived}, nil
}

// Delete removes a game event and every derived scoring event. Contestant
// eliminations already applied stay in place.
func (s *GameEventService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil || !actor.Role.CanModerate() {
		return appErrors.Clone(appErrors.ErrForbidden, "moderator role required")
	}
	event, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapEventWriteError(err, "failed to delete game event")
	}
	recordAudit(ctx, s.audit, s.logger, "game-event-service", &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionGameEventDelete,
		Resource:   "game_event",
		ResourceID: &event.ID,
		OldValues:  []byte(event.Payload),
	})
	if event.Status == models.ApprovalApproved {
		s.scoresChanged(ctx, event.SeasonID)
	}
	return nil
}

// Get returns a game event with its derived scoring events.
func (s *GameEventService) Get(ctx context.Context, id string) (*models.GameEventDetail, error) {
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	derived, err := s.repo.ListDerived(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load derived events")
	}
	return &models.GameEventDetail{GameEvent: *event, Derived: derived}, nil
}

// List returns game events matching the query.
func (s *GameEventService) List(ctx context.Context, query dto.GameEventQuery) ([]models.GameEvent, *models.Pagination, error) {
	page, size := normalizePage(query.Page, query.PageSize, 100)
	filter := models.GameEventFilter{
		SeasonID: query.SeasonID,
		Status:   query.Status,
		Type:     query.Type,
		Week:     query.Week,
		Page:     page,
		PageSize: size,
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list game events")
	}
	return events, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *GameEventService) find(ctx context.Context, id string) (*models.GameEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "game event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load game event")
	}
	return event, nil
}

// ensureRoster rejects derived events naming contestants outside the season.
func (s *GameEventService) ensureRoster(ctx context.Context, seasonID string, derived []scoring.Derived) error {
	contestants, err := s.seasons.ContestantsBySeason(ctx, seasonID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contestants")
	}
	roster := make(map[string]struct{}, len(contestants))
	for _, c := range contestants {
		roster[c.ID] = struct{}{}
	}
	for _, d := range derived {
		if _, ok := roster[d.ContestantID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("contestant %s is not part of season %s", d.ContestantID, seasonID))
		}
	}
	return nil
}

func (s *GameEventService) scoresChanged(ctx context.Context, seasonID string) {
	if s.notifier != nil {
		s.notifier.SeasonScoresChanged(ctx, seasonID)
	}
}

// derive decodes and expands a payload; an empty expansion is rejected.
func derive(t scoring.GameEventType, raw json.RawMessage) ([]scoring.Derived, error) {
	payload, err := scoring.DecodePayload(t, raw)
	if err != nil {
		return nil, err
	}
	derived, err := scoring.Derive(t, payload)
	if err != nil {
		return nil, err
	}
	if len(derived) == 0 {
		return nil, appErrors.Clone(appErrors.ErrDerivationEmpty, fmt.Sprintf("%s payload produced no scoring events", t))
	}
	return derived, nil
}

func toScoringEvents(derived []scoring.Derived, seasonID string, week int, submitterID string, now time.Time) []models.ScoringEvent {
	events := make([]models.ScoringEvent, 0, len(derived))
	for _, d := range derived {
		events = append(events, models.ScoringEvent{
			SeasonID:     seasonID,
			ContestantID: d.ContestantID,
			Type:         d.Type,
			Week:         week,
			Points:       d.Points,
			Description:  d.Description,
			Status:       models.ApprovalPending,
			SubmittedBy:  submitterID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return events
}

func mapEventWriteError(err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	case errors.Is(err, repository.ErrStaleState):
		return appErrors.Clone(appErrors.ErrConflict, "event is no longer pending")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
