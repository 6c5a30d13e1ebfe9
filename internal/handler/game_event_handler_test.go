package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type gameEventServiceMock struct {
	submitted   dto.SubmitGameEventRequest
	submitter   string
	submitErr   error
	previewErr  error
	reviewer    *models.JWTClaims
	reviewErr   error
	deleteErr   error
	lastQuery   dto.GameEventQuery
	deleteCalls int
}

func (m *gameEventServiceMock) Preview(ctx context.Context, req dto.PreviewGameEventRequest) (*dto.DerivationPreview, error) {
	if m.previewErr != nil {
		return nil, m.previewErr
	}
	return &dto.DerivationPreview{Type: req.Type, Derived: []scoring.Derived{{Type: scoring.EventIdolFind, ContestantID: "c1", Points: 3}}, Total: 3}, nil
}

func (m *gameEventServiceMock) Submit(ctx context.Context, req dto.SubmitGameEventRequest, submitterID string) (*models.GameEventDetail, error) {
	m.submitted = req
	m.submitter = submitterID
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &models.GameEventDetail{GameEvent: models.GameEvent{ID: "ge-1", Type: req.Type, Status: models.ApprovalPending}}, nil
}

func (m *gameEventServiceMock) Update(ctx context.Context, id string, req dto.UpdateGameEventRequest, actorID string) (*models.GameEventDetail, error) {
	return &models.GameEventDetail{GameEvent: models.GameEvent{ID: id, Week: req.Week}}, nil
}

func (m *gameEventServiceMock) Review(ctx context.Context, id string, req dto.ReviewRequest, reviewer *models.JWTClaims) (*models.GameEventDetail, error) {
	m.reviewer = reviewer
	if m.reviewErr != nil {
		return nil, m.reviewErr
	}
	return &models.GameEventDetail{GameEvent: models.GameEvent{ID: id, Status: models.ApprovalApproved}}, nil
}

func (m *gameEventServiceMock) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	m.deleteCalls++
	return m.deleteErr
}

func (m *gameEventServiceMock) Get(ctx context.Context, id string) (*models.GameEventDetail, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "game event not found")
}

func (m *gameEventServiceMock) List(ctx context.Context, query dto.GameEventQuery) ([]models.GameEvent, *models.Pagination, error) {
	m.lastQuery = query
	return []models.GameEvent{{ID: "ge-1"}}, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: 1}, nil
}

func TestGameEventHandlerSubmit(t *testing.T) {
	svc := &gameEventServiceMock{}
	h := NewGameEventHandler(svc)

	body := []byte(`{"seasonId":"s1","type":"IDOL_FIND","week":2,"payload":{"contestantId":"c1"}}`)
	c, w := newJSONContext(http.MethodPost, "/game-events", body)
	asUser(c, "fan-1", models.RolePlayer)

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "fan-1", svc.submitter)
	assert.Equal(t, scoring.GameIdolFind, svc.submitted.Type)
	assert.JSONEq(t, `{"contestantId":"c1"}`, string(svc.submitted.Payload))

	var detail models.GameEventDetail
	decodeData(t, w, &detail)
	assert.Equal(t, models.ApprovalPending, detail.Status)
}

func TestGameEventHandlerSubmitRequiresUser(t *testing.T) {
	svc := &gameEventServiceMock{}
	h := NewGameEventHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/game-events", []byte(`{}`))
	h.Submit(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.submitter)
}

func TestGameEventHandlerSubmitDerivationEmpty(t *testing.T) {
	h := NewGameEventHandler(&gameEventServiceMock{submitErr: appErrors.ErrDerivationEmpty})

	c, w := newJSONContext(http.MethodPost, "/game-events", []byte(`{"seasonId":"s1","type":"TRIBAL_COUNCIL","week":1,"payload":{}}`))
	asUser(c, "fan-1", models.RolePlayer)
	h.Submit(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGameEventHandlerPreview(t *testing.T) {
	h := NewGameEventHandler(&gameEventServiceMock{})

	c, w := newJSONContext(http.MethodPost, "/game-events/preview", []byte(`{"type":"IDOL_FIND","payload":{"contestantId":"c1"}}`))
	h.Preview(c)
	require.Equal(t, http.StatusOK, w.Code)

	var preview dto.DerivationPreview
	decodeData(t, w, &preview)
	assert.Equal(t, 3, preview.Total)
	require.Len(t, preview.Derived, 1)
}

func TestGameEventHandlerListParsesFilters(t *testing.T) {
	svc := &gameEventServiceMock{}
	h := NewGameEventHandler(svc)

	c, w := newJSONContext(http.MethodGet, "/game-events?seasonId=s1&status=pending&type=quit&week=3&page=2&limit=5", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.GameEventQuery{
		SeasonID: "s1",
		Status:   models.ApprovalPending,
		Type:     scoring.GameQuit,
		Week:     3,
		Page:     2,
		PageSize: 5,
	}, svc.lastQuery)
}

func TestGameEventHandlerReviewForbidden(t *testing.T) {
	svc := &gameEventServiceMock{reviewErr: appErrors.ErrForbidden}
	h := NewGameEventHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/game-events/ge-1/review", []byte(`{"approved":true}`))
	asUser(c, "fan-1", models.RolePlayer)
	h.Review(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, svc.reviewer)
	assert.Equal(t, "fan-1", svc.reviewer.UserID)
}

func TestGameEventHandlerGetNotFound(t *testing.T) {
	h := NewGameEventHandler(&gameEventServiceMock{})
	c, w := newJSONContext(http.MethodGet, "/game-events/missing", nil)
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGameEventHandlerDelete(t *testing.T) {
	svc := &gameEventServiceMock{}
	h := NewGameEventHandler(svc)
	c, w := newJSONContext(http.MethodDelete, "/game-events/ge-1", nil)
	asUser(c, "mod", models.RoleModerator)
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, svc.deleteCalls)
}
