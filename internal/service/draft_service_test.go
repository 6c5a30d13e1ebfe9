package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/draft"
	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/repository"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

// memoryDraft mimics the locking repository with plain state.
type memoryDraft struct {
	draft *models.Draft
	picks []models.DraftPick
}

func (m *memoryDraft) FindByLeague(ctx context.Context, leagueID string) (*models.Draft, error) {
	if m.draft == nil {
		return nil, sql.ErrNoRows
	}
	copied := *m.draft
	return &copied, nil
}

func (m *memoryDraft) ListPicks(ctx context.Context, draftID string) ([]models.DraftPick, error) {
	return append([]models.DraftPick(nil), m.picks...), nil
}

func (m *memoryDraft) RecordPick(ctx context.Context, p repository.RecordPickParams) (*models.DraftPick, *models.Draft, error) {
	teams := len(m.draft.PickOrder)
	if draft.IsComplete(m.draft.CurrentPick, teams, p.PicksPerTeam) {
		return nil, nil, repository.ErrDraftComplete
	}
	if onClock, _ := draft.TeamForPick(m.draft.PickOrder, m.draft.CurrentPick); onClock != p.TeamID {
		return nil, nil, repository.ErrNotYourTurn
	}
	owners := 0
	for _, pick := range m.picks {
		if pick.ContestantID == p.ContestantID {
			if pick.TeamID == p.TeamID {
				return nil, nil, repository.ErrAlreadyDrafted
			}
			owners++
		}
	}
	if owners >= p.MaxOwners {
		return nil, nil, repository.ErrAlreadyDrafted
	}
	pick := models.DraftPick{DraftID: m.draft.ID, TeamID: p.TeamID, ContestantID: p.ContestantID, PickNumber: m.draft.CurrentPick, Round: draft.Round(m.draft.CurrentPick, teams)}
	m.picks = append(m.picks, pick)
	m.draft.CurrentPick++
	if draft.IsComplete(m.draft.CurrentPick, teams, p.PicksPerTeam) {
		m.draft.Status = models.DraftStatusComplete
	}
	copied := *m.draft
	return &pick, &copied, nil
}

type stubDraftLeagues struct {
	league *models.League
	teams  []models.Team
}

func (s stubDraftLeagues) FindByID(ctx context.Context, id string) (*models.League, error) {
	if s.league == nil || s.league.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.league, nil
}

func (s stubDraftLeagues) ListTeams(ctx context.Context, leagueID string) ([]models.Team, error) {
	return s.teams, nil
}

func newDraftFixture(maxOwners int) (*DraftService, *memoryDraft, *stubNotifier) {
	store := &memoryDraft{draft: &models.Draft{ID: "d1", LeagueID: "l1", Status: models.DraftStatusInProgress, PickOrder: pq.StringArray{"tA", "tB"}}}
	leagues := stubDraftLeagues{
		league: &models.League{ID: "l1", SeasonID: "s1", PicksPerTeam: 2, MaxOwnersPerContestant: maxOwners},
		teams:  []models.Team{{ID: "tA", OwnerID: "alice"}, {ID: "tB", OwnerID: "bob"}},
	}
	contestants := stubContestants{
		"c1":  {ID: "c1", SeasonID: "s1"},
		"c2":  {ID: "c2", SeasonID: "s1"},
		"c3":  {ID: "c3", SeasonID: "s1"},
		"c4":  {ID: "c4", SeasonID: "s1"},
		"out": {ID: "out", SeasonID: "s1", IsEliminated: true},
		"s2c": {ID: "s2c", SeasonID: "s2"},
	}
	notifier := &stubNotifier{}
	return NewDraftService(store, leagues, contestants, &stubAudit{}, notifier, nil, nil, nil), store, notifier
}

var (
	alice = &models.JWTClaims{UserID: "alice", Role: models.RolePlayer}
	bob   = &models.JWTClaims{UserID: "bob", Role: models.RolePlayer}
)

func pickFor(t *testing.T, svc *DraftService, actor *models.JWTClaims, contestantID string) *models.DraftState {
	t.Helper()
	state, err := svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: contestantID}, actor)
	require.NoError(t, err)
	return state
}

func TestDraftSnakeOrderToCompletion(t *testing.T) {
	svc, _, notifier := newDraftFixture(1)

	state, err := svc.State(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "tA", state.OnTheClock)
	assert.Equal(t, 1, state.Round)
	assert.Equal(t, 4, state.TotalPicks)

	state = pickFor(t, svc, alice, "c1")
	assert.Equal(t, "tB", state.OnTheClock)
	state = pickFor(t, svc, bob, "c2")
	assert.Equal(t, "tB", state.OnTheClock)
	assert.Equal(t, 2, state.Round)
	state = pickFor(t, svc, bob, "c3")
	assert.Equal(t, "tA", state.OnTheClock)
	state = pickFor(t, svc, alice, "c4")

	assert.True(t, state.Complete)
	assert.Empty(t, state.OnTheClock)
	assert.Len(t, state.Picks, 4)
	assert.Len(t, notifier.seasons, 4)

	_, err = svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: "c1"}, bob)
	assert.Equal(t, appErrors.ErrDraftComplete.Code, appErrors.FromError(err).Code)
}

func TestDraftRejectsOutOfTurnAndTakenContestants(t *testing.T) {
	svc, _, _ := newDraftFixture(1)

	_, err := svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: "c1"}, bob)
	assert.Equal(t, appErrors.ErrNotYourTurn.Code, appErrors.FromError(err).Code)

	pickFor(t, svc, alice, "c1")
	_, err = svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: "c1"}, bob)
	assert.Equal(t, appErrors.ErrAlreadyDrafted.Code, appErrors.FromError(err).Code)
}

func TestDraftAllowsSharedOwnershipUpToCap(t *testing.T) {
	svc, _, _ := newDraftFixture(2)

	pickFor(t, svc, alice, "c1")
	pickFor(t, svc, bob, "c1")
	_, err := svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: "c1"}, bob)
	assert.Equal(t, appErrors.ErrAlreadyDrafted.Code, appErrors.FromError(err).Code, "same team twice")
}

func TestDraftValidatesContestantAndTeam(t *testing.T) {
	svc, _, _ := newDraftFixture(1)

	_, err := svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: "out"}, alice)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: "s2c"}, alice)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.MakePick(context.Background(), "l1", dto.MakePickRequest{ContestantID: "c1"}, &models.JWTClaims{UserID: "carol"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDraftStateBeforeStart(t *testing.T) {
	svc, store, _ := newDraftFixture(1)
	store.draft = nil

	_, err := svc.State(context.Background(), "l1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
