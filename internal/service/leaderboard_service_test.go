package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/export"
)

type memoryCache struct {
	entries map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type stubSeasonEvents struct {
	events []models.ScoringEvent
	calls  int
}

func (s *stubSeasonEvents) ListBySeason(ctx context.Context, seasonID string) ([]models.ScoringEvent, error) {
	s.calls++
	return s.events, nil
}

type stubBoardSeasons struct{}

func (stubBoardSeasons) ListSeasons(ctx context.Context) ([]models.Season, error) {
	return []models.Season{
		{ID: "s1", Status: models.SeasonStatusActive},
		{ID: "s0", Status: models.SeasonStatusCompleted},
	}, nil
}

func (stubBoardSeasons) FindSeason(ctx context.Context, id string) (*models.Season, error) {
	if id != "s1" {
		return nil, sql.ErrNoRows
	}
	return &models.Season{ID: "s1"}, nil
}

func (stubBoardSeasons) ContestantsBySeason(ctx context.Context, seasonID string) ([]models.Contestant, error) {
	return []models.Contestant{
		{ID: "a", Name: "Amber"},
		{ID: "b", Name: "Boston Rob", IsEliminated: true},
		{ID: "c", Name: "Cirie"},
	}, nil
}

type stubBoardLeagues struct{}

func (stubBoardLeagues) FindByID(ctx context.Context, id string) (*models.League, error) {
	if id != "l1" {
		return nil, sql.ErrNoRows
	}
	return &models.League{ID: "l1", SeasonID: "s1"}, nil
}

func (stubBoardLeagues) ListBySeason(ctx context.Context, seasonID string) ([]models.League, error) {
	return []models.League{{ID: "l1", SeasonID: "s1"}}, nil
}

func (stubBoardLeagues) ListTeams(ctx context.Context, leagueID string) ([]models.Team, error) {
	return []models.Team{{ID: "t1", Name: "Tagi"}, {ID: "t2", Name: "Pagong"}}, nil
}

func (stubBoardLeagues) Rosters(ctx context.Context, leagueID string) ([]models.RosterEntry, error) {
	return []models.RosterEntry{
		{TeamID: "t1", ContestantID: "a"},
		{TeamID: "t2", ContestantID: "b"},
		{TeamID: "t2", ContestantID: "c"},
	}, nil
}

func boardEvents() []models.ScoringEvent {
	return []models.ScoringEvent{
		{ContestantID: "a", Type: scoring.EventIndividualImmunityWin, Week: 1, Points: 5, Status: models.ApprovalApproved},
		{ContestantID: "a", Type: scoring.EventCorrectVote, Week: 2, Points: 2, Status: models.ApprovalApproved},
		{ContestantID: "b", Type: scoring.EventQuit, Week: 2, Points: -10, Status: models.ApprovalApproved},
		{ContestantID: "c", Type: scoring.EventIdolFind, Week: 2, Points: 4, Status: models.ApprovalApproved},
		{ContestantID: "c", Type: scoring.EventWinner, Week: 13, Points: 20, Status: models.ApprovalPending},
	}
}

func newBoardFixture(cacheRepo CacheRepository) (*LeaderboardService, *stubSeasonEvents) {
	events := &stubSeasonEvents{events: boardEvents()}
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	}
	exporters := map[dto.ExportFormat]Exporter{
		dto.ExportFormatCSV: export.NewCSVExporter(),
		dto.ExportFormatPDF: export.NewPDFExporter(),
	}
	return NewLeaderboardService(events, stubBoardSeasons{}, stubBoardLeagues{}, cache, exporters, time.Minute, nil), events
}

func TestContestantBoardCountsApprovedOnly(t *testing.T) {
	svc, _ := newBoardFixture(nil)

	board, hit, err := svc.ContestantBoard(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, board.Standings, 3)

	assert.Equal(t, "a", board.Standings[0].ContestantID)
	assert.Equal(t, 7, board.Standings[0].Total)
	assert.Equal(t, map[int]int{1: 5, 2: 2}, board.Standings[0].ByWeek)
	assert.Equal(t, "c", board.Standings[1].ContestantID)
	assert.Equal(t, 4, board.Standings[1].Total)
	assert.Equal(t, "b", board.Standings[2].ContestantID)
	assert.Equal(t, -10, board.Standings[2].Total)
	assert.True(t, board.Standings[2].IsEliminated)
	assert.Equal(t, 3, board.Standings[2].Rank)
}

func TestContestantBoardUnknownSeason(t *testing.T) {
	svc, _ := newBoardFixture(nil)
	_, _, err := svc.ContestantBoard(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeamBoardSumsRosters(t *testing.T) {
	svc, _ := newBoardFixture(nil)

	board, _, err := svc.TeamBoard(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, board.Standings, 2)
	assert.Equal(t, "t1", board.Standings[0].TeamID)
	assert.Equal(t, 7, board.Standings[0].Total)
	assert.Equal(t, "t2", board.Standings[1].TeamID)
	assert.Equal(t, -6, board.Standings[1].Total)
	assert.Equal(t, []string{"b", "c"}, board.Standings[1].ContestantIDs)
}

func TestBoardsAreServedFromCache(t *testing.T) {
	cache := newMemoryCache()
	svc, events := newBoardFixture(cache)

	_, hit, err := svc.ContestantBoard(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = svc.ContestantBoard(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, events.calls)
	assert.Contains(t, cache.entries, "leaderboard:season:s1")

	require.NoError(t, svc.InvalidateSeason(context.Background(), "s1"))
	assert.ElementsMatch(t, []string{"leaderboard:season:s1", "leaderboard:league:l1"}, cache.deleted)
}

func TestRefreshSeasonWarmsEveryBoard(t *testing.T) {
	cache := newMemoryCache()
	svc, _ := newBoardFixture(cache)

	require.NoError(t, svc.RefreshSeason(context.Background(), "s1"))
	assert.Contains(t, cache.entries, "leaderboard:season:s1")
	assert.Contains(t, cache.entries, "leaderboard:league:l1")

	ids, err := svc.ActiveSeasonIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestExportLeaderboard(t *testing.T) {
	svc, _ := newBoardFixture(nil)

	file, err := svc.Export(context.Background(), ScopeSeason, "s1", dto.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "leaderboard-season-s1.csv", file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Body), "Rank,Contestant,Status,Points\n1,Amber,Active,7\n"))

	file, err = svc.Export(context.Background(), ScopeLeague, "l1", dto.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)

	_, err = svc.Export(context.Background(), ScopeSeason, "s1", "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
