package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/export"
)

type seasonEventSource interface {
	ListBySeason(ctx context.Context, seasonID string) ([]models.ScoringEvent, error)
}

type leaderboardSeasons interface {
	ListSeasons(ctx context.Context) ([]models.Season, error)
	FindSeason(ctx context.Context, id string) (*models.Season, error)
	ContestantsBySeason(ctx context.Context, seasonID string) ([]models.Contestant, error)
}

type leaderboardLeagues interface {
	FindByID(ctx context.Context, id string) (*models.League, error)
	ListBySeason(ctx context.Context, seasonID string) ([]models.League, error)
	ListTeams(ctx context.Context, leagueID string) ([]models.Team, error)
	Rosters(ctx context.Context, leagueID string) ([]models.RosterEntry, error)
}

// Exporter renders a tabular dataset into a downloadable document.
type Exporter interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// LeaderboardScope selects which board to render.
type LeaderboardScope string

const (
	ScopeSeason LeaderboardScope = "season"
	ScopeLeague LeaderboardScope = "league"
)

// LeaderboardService builds contestant and team standings from approved
// scoring events and keeps them cached.
type LeaderboardService struct {
	events    seasonEventSource
	seasons   leaderboardSeasons
	leagues   leaderboardLeagues
	cache     *CacheService
	exporters map[dto.ExportFormat]Exporter
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewLeaderboardService wires the service. A nil cache disables caching.
func NewLeaderboardService(events seasonEventSource, seasons leaderboardSeasons, leagues leaderboardLeagues, cache *CacheService, exporters map[dto.ExportFormat]Exporter, ttl time.Duration, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporters == nil {
		exporters = map[dto.ExportFormat]Exporter{}
	}
	return &LeaderboardService{
		events:    events,
		seasons:   seasons,
		leagues:   leagues,
		cache:     cache,
		exporters: exporters,
		ttl:       ttl,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func seasonBoardKey(seasonID string) string { return "leaderboard:season:" + seasonID }
func leagueBoardKey(leagueID string) string { return "leaderboard:league:" + leagueID }

// ContestantBoard returns the season's contestant standings and whether they came from cache.
func (s *LeaderboardService) ContestantBoard(ctx context.Context, seasonID string) (*models.ContestantLeaderboard, bool, error) {
	var cached models.ContestantLeaderboard
	if hit, _ := s.cache.Get(ctx, seasonBoardKey(seasonID), &cached); hit {
		return &cached, true, nil
	}
	board, err := s.buildContestantBoard(ctx, seasonID)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, seasonBoardKey(seasonID), board, s.ttl)
	return board, false, nil
}

// TeamBoard returns the league's team standings and whether they came from cache.
func (s *LeaderboardService) TeamBoard(ctx context.Context, leagueID string) (*models.TeamLeaderboard, bool, error) {
	var cached models.TeamLeaderboard
	if hit, _ := s.cache.Get(ctx, leagueBoardKey(leagueID), &cached); hit {
		return &cached, true, nil
	}
	league, err := s.findLeague(ctx, leagueID)
	if err != nil {
		return nil, false, err
	}
	board, err := s.buildTeamBoard(ctx, league)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, leagueBoardKey(leagueID), board, s.ttl)
	return board, false, nil
}

// RefreshSeason rebuilds the contestant board and every league board of a
// season and writes them to the cache.
func (s *LeaderboardService) RefreshSeason(ctx context.Context, seasonID string) error {
	board, err := s.buildContestantBoard(ctx, seasonID)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, seasonBoardKey(seasonID), board, s.ttl); err != nil {
		return err
	}
	leagues, err := s.leagues.ListBySeason(ctx, seasonID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list season leagues")
	}
	for i := range leagues {
		teamBoard, err := s.buildTeamBoard(ctx, &leagues[i])
		if err != nil {
			return err
		}
		if err := s.cache.Set(ctx, leagueBoardKey(leagues[i].ID), teamBoard, s.ttl); err != nil {
			return err
		}
	}
	s.logger.Debug("leaderboards refreshed", zap.String("season_id", seasonID), zap.Int("leagues", len(leagues)))
	return nil
}

// InvalidateSeason drops every cached board derived from the season.
func (s *LeaderboardService) InvalidateSeason(ctx context.Context, seasonID string) error {
	if !s.cache.Enabled() {
		return nil
	}
	keys := []string{seasonBoardKey(seasonID)}
	leagues, err := s.leagues.ListBySeason(ctx, seasonID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list season leagues")
	}
	for _, league := range leagues {
		keys = append(keys, leagueBoardKey(league.ID))
	}
	return s.cache.Delete(ctx, keys...)
}

// ActiveSeasonIDs lists seasons currently airing.
func (s *LeaderboardService) ActiveSeasonIDs(ctx context.Context) ([]string, error) {
	seasons, err := s.seasons.ListSeasons(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seasons")
	}
	var ids []string
	for _, season := range seasons {
		if season.Status == models.SeasonStatusActive {
			ids = append(ids, season.ID)
		}
	}
	return ids, nil
}

// Export renders a board in the requested format.
func (s *LeaderboardService) Export(ctx context.Context, scope LeaderboardScope, id string, format dto.ExportFormat) (*dto.ExportFile, error) {
	exporter, ok := s.exporters[dto.ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	var data export.Dataset
	switch scope {
	case ScopeSeason:
		board, _, err := s.ContestantBoard(ctx, id)
		if err != nil {
			return nil, err
		}
		data = contestantDataset(board)
	case ScopeLeague:
		board, _, err := s.TeamBoard(ctx, id)
		if err != nil {
			return nil, err
		}
		data = teamDataset(board)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported leaderboard scope %q", scope))
	}

	body, err := exporter.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render leaderboard")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("leaderboard-%s-%s.%s", scope, id, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

func (s *LeaderboardService) buildContestantBoard(ctx context.Context, seasonID string) (*models.ContestantLeaderboard, error) {
	if _, err := s.seasons.FindSeason(ctx, seasonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "season not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load season")
	}
	contestants, err := s.seasons.ContestantsBySeason(ctx, seasonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contestants")
	}
	byContestant, err := s.entriesByContestant(ctx, seasonID)
	if err != nil {
		return nil, err
	}

	standings := make([]models.ContestantStanding, 0, len(contestants))
	for _, c := range contestants {
		entries := byContestant[c.ID]
		standings = append(standings, models.ContestantStanding{
			ContestantID: c.ID,
			Name:         c.Name,
			IsEliminated: c.IsEliminated,
			Total:        scoring.TotalPoints(entries),
			ByWeek:       scoring.PointsByWeek(entries),
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Total != standings[j].Total {
			return standings[i].Total > standings[j].Total
		}
		return standings[i].Name < standings[j].Name
	})
	for i := range standings {
		if i > 0 && standings[i].Total == standings[i-1].Total {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
	return &models.ContestantLeaderboard{SeasonID: seasonID, Standings: standings, GeneratedAt: s.now()}, nil
}

func (s *LeaderboardService) buildTeamBoard(ctx context.Context, league *models.League) (*models.TeamLeaderboard, error) {
	teams, err := s.leagues.ListTeams(ctx, league.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teams")
	}
	rosters, err := s.leagues.Rosters(ctx, league.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rosters")
	}
	byContestant, err := s.entriesByContestant(ctx, league.SeasonID)
	if err != nil {
		return nil, err
	}

	rosterByTeam := make(map[string][]string, len(teams))
	for _, entry := range rosters {
		rosterByTeam[entry.TeamID] = append(rosterByTeam[entry.TeamID], entry.ContestantID)
	}

	standings := make([]models.TeamStanding, 0, len(teams))
	for _, team := range teams {
		roster := rosterByTeam[team.ID]
		perContestant := make([][]scoring.Entry, 0, len(roster))
		for _, contestantID := range roster {
			perContestant = append(perContestant, byContestant[contestantID])
		}
		standings = append(standings, models.TeamStanding{
			TeamID:        team.ID,
			TeamName:      team.Name,
			OwnerID:       team.OwnerID,
			Total:         scoring.TeamScore(perContestant),
			ContestantIDs: append([]string{}, roster...),
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Total != standings[j].Total {
			return standings[i].Total > standings[j].Total
		}
		return standings[i].TeamName < standings[j].TeamName
	})
	for i := range standings {
		if i > 0 && standings[i].Total == standings[i-1].Total {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
	return &models.TeamLeaderboard{LeagueID: league.ID, SeasonID: league.SeasonID, Standings: standings, GeneratedAt: s.now()}, nil
}

func (s *LeaderboardService) entriesByContestant(ctx context.Context, seasonID string) (map[string][]scoring.Entry, error) {
	events, err := s.events.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scoring events")
	}
	byContestant := make(map[string][]scoring.Entry)
	for _, entry := range models.Entries(events) {
		byContestant[entry.ContestantID] = append(byContestant[entry.ContestantID], entry)
	}
	return byContestant, nil
}

func (s *LeaderboardService) findLeague(ctx context.Context, id string) (*models.League, error) {
	league, err := s.leagues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "league not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load league")
	}
	return league, nil
}

func contestantDataset(board *models.ContestantLeaderboard) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Contestant standings, season %s", board.SeasonID),
		Headers: []string{"Rank", "Contestant", "Status", "Points"},
	}
	for _, row := range board.Standings {
		status := "Active"
		if row.IsEliminated {
			status = "Eliminated"
		}
		data.Rows = append(data.Rows, []string{strconv.Itoa(row.Rank), row.Name, status, strconv.Itoa(row.Total)})
	}
	return data
}

func teamDataset(board *models.TeamLeaderboard) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("League standings, league %s", board.LeagueID),
		Headers: []string{"Rank", "Team", "Roster size", "Points"},
	}
	for _, row := range board.Standings {
		data.Rows = append(data.Rows, []string{strconv.Itoa(row.Rank), row.TeamName, strconv.Itoa(len(row.ContestantIDs)), strconv.Itoa(row.Total)})
	}
	return data
}
