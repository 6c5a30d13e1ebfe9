package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/repository"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

type stubLeagueStore struct {
	leagues    map[string]*models.League
	teams      map[string][]models.Team
	takenSlugs map[string]bool
}

func newStubLeagueStore() *stubLeagueStore {
	return &stubLeagueStore{leagues: map[string]*models.League{}, teams: map[string][]models.Team{}, takenSlugs: map[string]bool{}}
}

func (s *stubLeagueStore) CreateWithOwnerTeam(ctx context.Context, league *models.League, team *models.Team) error {
	league.ID = "l-" + league.Slug
	team.ID = "t-owner"
	team.LeagueID = league.ID
	s.leagues[league.ID] = league
	s.teams[league.ID] = append(s.teams[league.ID], *team)
	return nil
}

func (s *stubLeagueStore) FindByID(ctx context.Context, id string) (*models.League, error) {
	league, ok := s.leagues[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return league, nil
}

func (s *stubLeagueStore) FindByInviteCode(ctx context.Context, code string) (*models.League, error) {
	for _, league := range s.leagues {
		if league.InviteCode == code {
			return league, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubLeagueStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.takenSlugs[slug], nil
}

func (s *stubLeagueStore) ListByUser(ctx context.Context, userID string) ([]models.League, error) {
	return nil, nil
}

func (s *stubLeagueStore) CreateTeam(ctx context.Context, team *models.Team) error {
	league := s.leagues[team.LeagueID]
	if league.Status != models.LeagueStatusOpen {
		return repository.ErrStaleState
	}
	if len(s.teams[team.LeagueID]) >= league.MaxTeams {
		return repository.ErrCapacity
	}
	for _, existing := range s.teams[team.LeagueID] {
		if existing.OwnerID == team.OwnerID {
			return repository.ErrDuplicate
		}
	}
	team.ID = "t-" + team.OwnerID
	s.teams[team.LeagueID] = append(s.teams[team.LeagueID], *team)
	return nil
}

func (s *stubLeagueStore) ListTeams(ctx context.Context, leagueID string) ([]models.Team, error) {
	return s.teams[leagueID], nil
}

// stubDraftStarter runs the plan against the store's teams, as the
// repository does under the league lock.
type stubDraftStarter struct {
	store  *stubLeagueStore
	active int
	order  []string
	err    error
}

func (s *stubDraftStarter) Start(ctx context.Context, leagueID string, plan repository.DraftPlan) (*models.Draft, error) {
	if s.err != nil {
		return nil, s.err
	}
	var ids []string
	for _, team := range s.store.teams[leagueID] {
		ids = append(ids, team.ID)
	}
	order, err := plan(ids, s.active)
	if err != nil {
		return nil, err
	}
	s.order = order
	s.store.leagues[leagueID].Status = models.LeagueStatusDrafting
	return &models.Draft{ID: "d1", LeagueID: leagueID, Status: models.DraftStatusInProgress, PickOrder: order}, nil
}

type stubReadiness struct{}

func (s stubReadiness) FindSeason(ctx context.Context, id string) (*models.Season, error) {
	if id != "s1" {
		return nil, sql.ErrNoRows
	}
	return &models.Season{ID: id}, nil
}

func newLeagueFixture(active int) (*LeagueService, *stubLeagueStore, *stubDraftStarter) {
	store := newStubLeagueStore()
	drafts := &stubDraftStarter{store: store, active: active}
	svc := NewLeagueService(store, drafts, stubReadiness{}, &stubAudit{}, nil, nil, LeagueConfig{InviteCodeLength: 6})
	return svc, store, drafts
}

func TestLeagueCreateAssignsSlugAndInviteCode(t *testing.T) {
	svc, store, _ := newLeagueFixture(18)
	store.takenSlugs["tribal-council-crew"] = true

	league, err := svc.Create(context.Background(), dto.CreateLeagueRequest{Name: "Tribal Council Crew!", SeasonID: "s1", TeamName: "Jeff's Picks"}, "owner")
	require.NoError(t, err)
	assert.Regexp(t, `^tribal-council-crew-[a-z0-9]{4}$`, league.Slug)
	assert.Regexp(t, `^[A-Z2-9]{6}$`, league.InviteCode)
	assert.Equal(t, models.LeagueStatusOpen, league.Status)
	assert.Equal(t, 10, league.MaxTeams)
	assert.Equal(t, 2, league.PicksPerTeam)
	assert.Equal(t, 1, league.MaxOwnersPerContestant)
	require.Len(t, store.teams[league.ID], 1)
	assert.Equal(t, "owner", store.teams[league.ID][0].OwnerID)
}

func TestLeagueCreateUnknownSeason(t *testing.T) {
	svc, _, _ := newLeagueFixture(18)
	_, err := svc.Create(context.Background(), dto.CreateLeagueRequest{Name: "Crew", SeasonID: "s9", TeamName: "A"}, "owner")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLeagueJoinRules(t *testing.T) {
	svc, store, _ := newLeagueFixture(18)
	league, err := svc.Create(context.Background(), dto.CreateLeagueRequest{Name: "Crew", SeasonID: "s1", TeamName: "A", MaxTeams: 2}, "owner")
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: league.InviteCode, TeamName: "A"}, "owner")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	team, err := svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: league.InviteCode, TeamName: "B"}, "second")
	require.NoError(t, err)
	assert.Equal(t, league.ID, team.LeagueID)

	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: league.InviteCode, TeamName: "C"}, "third")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, store.teams[league.ID], 2)

	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: "ZZZZZZ", TeamName: "C"}, "third")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLeagueStartDraftShufflesTeams(t *testing.T) {
	svc, store, drafts := newLeagueFixture(18)
	league, err := svc.Create(context.Background(), dto.CreateLeagueRequest{Name: "Crew", SeasonID: "s1", TeamName: "A"}, "owner")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: league.InviteCode, TeamName: "B"}, "second")
	require.NoError(t, err)

	_, err = svc.StartDraft(context.Background(), league.ID, &models.JWTClaims{UserID: "second", Role: models.RolePlayer})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	d, err := svc.StartDraft(context.Background(), league.ID, &models.JWTClaims{UserID: "owner", Role: models.RolePlayer})
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, d.Status)
	assert.ElementsMatch(t, []string{"t-owner", "t-second"}, drafts.order)
	assert.Len(t, store.teams[league.ID], 2)

	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: league.InviteCode, TeamName: "C"}, "late")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLeagueJoinLosingRaceToDraftStartConflicts(t *testing.T) {
	svc, store, _ := newLeagueFixture(18)
	league, err := svc.Create(context.Background(), dto.CreateLeagueRequest{Name: "Crew", SeasonID: "s1", TeamName: "A"}, "owner")
	require.NoError(t, err)

	// The invite lookup still sees OPEN; the locked insert sees DRAFTING.
	snapshot := *league
	store.leagues[league.ID].Status = models.LeagueStatusDrafting
	svc.repo = &snapshotStore{stubLeagueStore: store, snapshot: &snapshot}

	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: snapshot.InviteCode, TeamName: "Late"}, "late")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "league is no longer accepting teams", appErr.Message)
	assert.Len(t, store.teams[league.ID], 1)
}

type snapshotStore struct {
	*stubLeagueStore
	snapshot *models.League
}

func (s *snapshotStore) FindByInviteCode(ctx context.Context, code string) (*models.League, error) {
	if code == s.snapshot.InviteCode {
		return s.snapshot, nil
	}
	return s.stubLeagueStore.FindByInviteCode(ctx, code)
}

func TestLeagueStartDraftReadiness(t *testing.T) {
	svc, _, _ := newLeagueFixture(3)
	league, err := svc.Create(context.Background(), dto.CreateLeagueRequest{Name: "Crew", SeasonID: "s1", TeamName: "A"}, "owner")
	require.NoError(t, err)
	owner := &models.JWTClaims{UserID: "owner", Role: models.RolePlayer}

	_, err = svc.StartDraft(context.Background(), league.ID, owner)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code, "single team")

	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: league.InviteCode, TeamName: "B"}, "second")
	require.NoError(t, err)
	_, err = svc.StartDraft(context.Background(), league.ID, owner)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code, "3 contestants cannot fill 2x2")
}

func TestLeagueStartDraftStaleMapsToConflict(t *testing.T) {
	svc, _, drafts := newLeagueFixture(18)
	league, err := svc.Create(context.Background(), dto.CreateLeagueRequest{Name: "Crew", SeasonID: "s1", TeamName: "A"}, "owner")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), dto.JoinLeagueRequest{InviteCode: league.InviteCode, TeamName: "B"}, "second")
	require.NoError(t, err)
	drafts.err = repository.ErrStaleState

	_, err = svc.StartDraft(context.Background(), league.ID, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
