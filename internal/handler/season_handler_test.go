package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
)

type seasonServiceMock struct {
	filter models.ContestantFilter
}

func (m *seasonServiceMock) List(ctx context.Context) ([]models.Season, error) {
	return []models.Season{{ID: "s1", Status: models.SeasonStatusActive}}, nil
}

func (m *seasonServiceMock) Get(ctx context.Context, id string) (*models.Season, error) {
	return &models.Season{ID: id}, nil
}

func (m *seasonServiceMock) Tribes(ctx context.Context, seasonID string) ([]models.Tribe, error) {
	return nil, nil
}

func (m *seasonServiceMock) Contestants(ctx context.Context, filter models.ContestantFilter) ([]models.Contestant, *models.Pagination, error) {
	m.filter = filter
	return []models.Contestant{{ID: "c1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (m *seasonServiceMock) Contestant(ctx context.Context, id string) (*models.Contestant, error) {
	return &models.Contestant{ID: id}, nil
}

func TestSeasonHandlerContestantsFilter(t *testing.T) {
	svc := &seasonServiceMock{}
	h := NewSeasonHandler(svc)

	c, w := newJSONContext(http.MethodGet, "/seasons/s1/contestants?eliminated=false&q=rob&page=2", nil)
	c.Params = append(c.Params, ginParam("id", "s1"))
	h.Contestants(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", svc.filter.SeasonID)
	assert.Equal(t, "rob", svc.filter.Search)
	assert.Equal(t, 2, svc.filter.Page)
	require.NotNil(t, svc.filter.Eliminated)
	assert.False(t, *svc.filter.Eliminated)
}

func TestSeasonHandlerContestantsBadFlag(t *testing.T) {
	h := NewSeasonHandler(&seasonServiceMock{})
	c, w := newJSONContext(http.MethodGet, "/seasons/s1/contestants?eliminated=maybe", nil)
	h.Contestants(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogListsEveryEventType(t *testing.T) {
	c, w := newJSONContext(http.MethodGet, "/catalog/events", nil)
	Catalog(c)

	require.Equal(t, http.StatusOK, w.Code)
	var items []scoring.CatalogItem
	decodeData(t, w, &items)
	assert.Len(t, items, len(scoring.EventTypes()))
}

func TestGameEventTypesEndpoint(t *testing.T) {
	c, w := newJSONContext(http.MethodGet, "/catalog/game-events", nil)
	GameEventTypes(c)

	require.Equal(t, http.StatusOK, w.Code)
	var types []scoring.GameEventType
	decodeData(t, w, &types)
	assert.Equal(t, scoring.GameEventTypes(), types)
}
