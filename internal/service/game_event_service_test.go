package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/repository"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type stubGameEventStore struct {
	events      map[string]*models.GameEvent
	derived     map[string][]models.ScoringEvent
	reviewCalls []repository.ReviewParams
	reviewErr   error
	replaceErr  error
	deleted     []string
}

func newStubGameEventStore() *stubGameEventStore {
	return &stubGameEventStore{events: map[string]*models.GameEvent{}, derived: map[string][]models.ScoringEvent{}}
}

func (s *stubGameEventStore) CreateWithDerived(ctx context.Context, event *models.GameEvent, derived []models.ScoringEvent) error {
	event.ID = "ge-1"
	for i := range derived {
		derived[i].GameEventID = &event.ID
	}
	s.events[event.ID] = event
	s.derived[event.ID] = derived
	return nil
}

func (s *stubGameEventStore) FindByID(ctx context.Context, id string) (*models.GameEvent, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (s *stubGameEventStore) ListDerived(ctx context.Context, id string) ([]models.ScoringEvent, error) {
	return s.derived[id], nil
}

func (s *stubGameEventStore) List(ctx context.Context, filter models.GameEventFilter) ([]models.GameEvent, int, error) {
	var out []models.GameEvent
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (s *stubGameEventStore) ReplacePending(ctx context.Context, event *models.GameEvent, derived []models.ScoringEvent) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.events[event.ID] = event
	s.derived[event.ID] = derived
	return nil
}

func (s *stubGameEventStore) Review(ctx context.Context, params repository.ReviewParams) (int64, error) {
	if s.reviewErr != nil {
		return 0, s.reviewErr
	}
	s.reviewCalls = append(s.reviewCalls, params)
	if event, ok := s.events[params.ID]; ok {
		event.Status = params.Status
	}
	derived := s.derived[params.ID]
	for i := range derived {
		derived[i].Status = params.Status
	}
	return int64(len(derived)), nil
}

func (s *stubGameEventStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.events, id)
	delete(s.derived, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubSeasonRoster struct {
	contestants []models.Contestant
}

func (s stubSeasonRoster) FindSeason(ctx context.Context, id string) (*models.Season, error) {
	if id != "s1" {
		return nil, sql.ErrNoRows
	}
	return &models.Season{ID: "s1", Name: "Borneo"}, nil
}

func (s stubSeasonRoster) ContestantsBySeason(ctx context.Context, seasonID string) ([]models.Contestant, error) {
	return s.contestants, nil
}

type stubAudit struct {
	logs []*models.AuditLog
}

func (s *stubAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type stubNotifier struct {
	seasons []string
}

func (s *stubNotifier) SeasonScoresChanged(ctx context.Context, seasonID string) {
	s.seasons = append(s.seasons, seasonID)
}

func borneoRoster() stubSeasonRoster {
	return stubSeasonRoster{contestants: []models.Contestant{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}}
}

func newGameEventFixture() (*GameEventService, *stubGameEventStore, *stubAudit, *stubNotifier) {
	store := newStubGameEventStore()
	audit := &stubAudit{}
	notifier := &stubNotifier{}
	svc := NewGameEventService(store, borneoRoster(), audit, notifier, nil, nil, zap.NewNop())
	return svc, store, audit, notifier
}

func tribalPayload() json.RawMessage {
	return json.RawMessage(`{"eliminated":"d","votes":{"d":["a","b"],"c":["d"],"a":[]}}`)
}

func approve(v bool) dto.ReviewRequest {
	return dto.ReviewRequest{Approved: &v}
}

var moderator = &models.JWTClaims{UserID: "mod-1", Role: models.RoleModerator}

func TestGameEventSubmitDerivesPendingEvents(t *testing.T) {
	svc, store, audit, _ := newGameEventFixture()

	detail, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "s1", Type: scoring.GameTribalCouncil, Week: 3, Payload: tribalPayload(),
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, detail.Status)
	require.Len(t, detail.Derived, 4)

	byType := map[scoring.EventType]int{}
	for _, d := range detail.Derived {
		assert.Equal(t, models.ApprovalPending, d.Status)
		assert.Equal(t, 3, d.Week)
		assert.Equal(t, "ge-1", *d.GameEventID)
		byType[d.Type]++
	}
	assert.Equal(t, 2, byType[scoring.EventCorrectVote])
	assert.Equal(t, 1, byType[scoring.EventSurvivedWithVotes])
	assert.Equal(t, 1, byType[scoring.EventZeroVotesReceived])
	assert.Len(t, store.events, 1)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionGameEventSubmit, audit.logs[0].Action)
}

func TestGameEventSubmitRejectsEmptyDerivation(t *testing.T) {
	svc, store, _, _ := newGameEventFixture()

	_, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "s1", Type: scoring.GameTribalCouncil, Week: 2,
		Payload: json.RawMessage(`{"eliminated":"d","votes":{"c":["a"]}}`),
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDerivationEmpty.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.events)
}

func TestGameEventSubmitRejectsForeignContestant(t *testing.T) {
	svc, _, _, _ := newGameEventFixture()

	_, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "s1", Type: scoring.GameIdolFind, Week: 2,
		Payload: json.RawMessage(`{"contestantId":"zz"}`),
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGameEventSubmitUnknownSeason(t *testing.T) {
	svc, _, _, _ := newGameEventFixture()

	_, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "nope", Type: scoring.GameIdolFind, Week: 2,
		Payload: json.RawMessage(`{"contestantId":"a"}`),
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGameEventPreviewTotals(t *testing.T) {
	svc, store, _, _ := newGameEventFixture()

	preview, err := svc.Preview(context.Background(), dto.PreviewGameEventRequest{
		Type:    scoring.GameRewardChallenge,
		Payload: json.RawMessage(`{"winners":["a","b"],"isTeamChallenge":false}`),
	})
	require.NoError(t, err)
	assert.Len(t, preview.Derived, 2)
	assert.Equal(t, 6, preview.Total)
	assert.Empty(t, store.events)
}

func TestGameEventReviewApprovesAndEliminates(t *testing.T) {
	svc, store, audit, notifier := newGameEventFixture()
	detail, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "s1", Type: scoring.GameTribalCouncil, Week: 3, Payload: tribalPayload(),
	}, "user-1")
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), detail.ID, approve(true), moderator)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, reviewed.Status)
	for _, d := range reviewed.Derived {
		assert.Equal(t, models.ApprovalApproved, d.Status)
	}
	require.Len(t, store.reviewCalls, 1)
	require.NotNil(t, store.reviewCalls[0].Elimination)
	assert.Equal(t, repository.Elimination{ContestantID: "d", Week: 3}, *store.reviewCalls[0].Elimination)
	assert.Equal(t, []string{"s1"}, notifier.seasons)
	assert.Equal(t, models.AuditActionGameEventReview, audit.logs[len(audit.logs)-1].Action)
}

func TestGameEventReviewRejectSkipsElimination(t *testing.T) {
	svc, store, _, notifier := newGameEventFixture()
	detail, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "s1", Type: scoring.GameQuit, Week: 5, Payload: json.RawMessage(`{"contestantId":"b"}`),
	}, "user-1")
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), detail.ID, approve(false), moderator)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, reviewed.Status)
	assert.Nil(t, store.reviewCalls[0].Elimination)
	assert.Empty(t, notifier.seasons)
}

func TestGameEventReviewRequiresModerator(t *testing.T) {
	svc, _, _, _ := newGameEventFixture()
	player := &models.JWTClaims{UserID: "p", Role: models.RolePlayer}

	_, err := svc.Review(context.Background(), "ge-1", approve(true), player)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGameEventReviewTwiceConflicts(t *testing.T) {
	svc, _, _, _ := newGameEventFixture()
	detail, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "s1", Type: scoring.GameIdolFind, Week: 1, Payload: json.RawMessage(`{"contestantId":"a"}`),
	}, "user-1")
	require.NoError(t, err)
	_, err = svc.Review(context.Background(), detail.ID, approve(true), moderator)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), detail.ID, approve(false), moderator)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGameEventReviewStaleStateMapsToConflict(t *testing.T) {
	svc, store, _, _ := newGameEventFixture()
	store.events["ge-9"] = &models.GameEvent{ID: "ge-9", SeasonID: "s1", Type: scoring.GameIdolFind, Status: models.ApprovalPending, Payload: []byte(`{"contestantId":"a"}`)}
	store.reviewErr = repository.ErrStaleState

	_, err := svc.Review(context.Background(), "ge-9", approve(true), moderator)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGameEventUpdateReplacesDerived(t *testing.T) {
	svc, store, _, _ := newGameEventFixture()
	detail, err := svc.Submit(context.Background(), dto.SubmitGameEventRequest{
		SeasonID: "s1", Type: scoring.GameRewardChallenge, Week: 1, Payload: json.RawMessage(`{"winners":["a"]}`),
	}, "user-1")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), detail.ID, dto.UpdateGameEventRequest{
		Week: 2, Payload: json.RawMessage(`{"winners":["b","c"],"isTeamChallenge":true}`),
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Week)
	require.Len(t, store.derived[detail.ID], 2)
	for _, d := range store.derived[detail.ID] {
		assert.Equal(t, scoring.EventTeamChallengeWin, d.Type)
		assert.Equal(t, 2, d.Week)
	}
}

func TestGameEventUpdateRejectsReviewed(t *testing.T) {
	svc, store, _, _ := newGameEventFixture()
	store.events["ge-2"] = &models.GameEvent{ID: "ge-2", SeasonID: "s1", Type: scoring.GameIdolFind, Status: models.ApprovalApproved}

	_, err := svc.Update(context.Background(), "ge-2", dto.UpdateGameEventRequest{Week: 1, Payload: json.RawMessage(`{"contestantId":"a"}`)}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGameEventDeleteApprovedNotifies(t *testing.T) {
	svc, store, _, notifier := newGameEventFixture()
	store.events["ge-3"] = &models.GameEvent{ID: "ge-3", SeasonID: "s1", Type: scoring.GameIdolFind, Status: models.ApprovalApproved}

	require.NoError(t, svc.Delete(context.Background(), "ge-3", moderator))
	assert.Equal(t, []string{"ge-3"}, store.deleted)
	assert.Equal(t, []string{"s1"}, notifier.seasons)

	err := svc.Delete(context.Background(), "ge-3", moderator)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
