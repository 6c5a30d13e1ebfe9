package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/castaway-league-api/internal/draft"
	"github.com/noah-isme/castaway-league-api/internal/models"
)

const draftColumns = `id, league_id, status, pick_order, current_pick, started_at, completed_at, created_at, updated_at`

// DraftRepository persists drafts and serialises picks per draft.
type DraftRepository struct {
	db *sqlx.DB
}

// NewDraftRepository constructs the repository.
func NewDraftRepository(db *sqlx.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// FindByLeague returns the draft of a league.
func (r *DraftRepository) FindByLeague(ctx context.Context, leagueID string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE league_id = $1`
	var d models.Draft
	if err := r.db.GetContext(ctx, &d, query, leagueID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find draft: %w", err)
	}
	return &d, nil
}

// ListPicks returns the picks of a draft in pick order.
func (r *DraftRepository) ListPicks(ctx context.Context, draftID string) ([]models.DraftPick, error) {
	const query = `SELECT id, draft_id, team_id, contestant_id, pick_number, round, created_at FROM draft_picks WHERE draft_id = $1 ORDER BY pick_number ASC`
	var picks []models.DraftPick
	if err := r.db.SelectContext(ctx, &picks, query, draftID); err != nil {
		return nil, fmt.Errorf("list draft picks: %w", err)
	}
	return picks, nil
}

// DraftPlan decides the first round order from the league's teams and its
// season's active contestant count, both read under the league lock. An
// error aborts the start.
type DraftPlan func(teamIDs []string, activeContestants int) ([]string, error)

// Start opens the draft of an OPEN league and moves the league to DRAFTING.
// The league row stays locked while the roster is read and the plan runs, so
// a concurrent join either lands before the order is fixed or sees a league
// that is no longer OPEN. A league that already left OPEN yields ErrStaleState.
func (r *DraftRepository) Start(ctx context.Context, leagueID string, plan DraftPlan) (d *models.Draft, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin draft start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var league struct {
		Status   models.LeagueStatus `db:"status"`
		SeasonID string              `db:"season_id"`
	}
	if err = tx.GetContext(ctx, &league, `SELECT status, season_id FROM leagues WHERE id = $1 FOR UPDATE`, leagueID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock league: %w", err)
	}
	if league.Status != models.LeagueStatusOpen {
		err = ErrStaleState
		return nil, err
	}

	var teamIDs []string
	if err = tx.SelectContext(ctx, &teamIDs, `SELECT id FROM teams WHERE league_id = $1 ORDER BY created_at ASC, id ASC`, leagueID); err != nil {
		return nil, fmt.Errorf("list draft teams: %w", err)
	}
	var active int
	if err = tx.GetContext(ctx, &active, `SELECT COUNT(*) FROM contestants WHERE season_id = $1 AND is_eliminated = FALSE`, league.SeasonID); err != nil {
		return nil, fmt.Errorf("count active contestants: %w", err)
	}
	order, err := plan(teamIDs, active)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d = &models.Draft{
		ID:          uuid.NewString(),
		LeagueID:    leagueID,
		Status:      models.DraftStatusInProgress,
		PickOrder:   pq.StringArray(order),
		CurrentPick: 0,
		StartedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	const insertDraft = `INSERT INTO drafts (` + draftColumns + `) VALUES (:id, :league_id, :status, :pick_order, :current_pick, :started_at, :completed_at, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertDraft, d); err != nil {
		if isUniqueViolation(err) {
			err = ErrStaleState
			return nil, err
		}
		return nil, fmt.Errorf("insert draft: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE leagues SET status = $2, updated_at = $3 WHERE id = $1`, leagueID, models.LeagueStatusDrafting, now); err != nil {
		return nil, fmt.Errorf("mark league drafting: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit draft start: %w", err)
	}
	return d, nil
}

// RecordPickParams describes one pick attempt.
type RecordPickParams struct {
	DraftID      string
	LeagueID     string
	TeamID       string
	ContestantID string
	PicksPerTeam int
	MaxOwners    int
}

// RecordPick appends a pick while holding the draft row lock, so concurrent
// attempts for the same turn observe each other. The draft advances and, on
// the final pick, completes and activates the league.
func (r *DraftRepository) RecordPick(ctx context.Context, params RecordPickParams) (pick *models.DraftPick, d *models.Draft, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin draft pick transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	d = &models.Draft{}
	if err = tx.GetContext(ctx, d, `SELECT `+draftColumns+` FROM drafts WHERE id = $1 FOR UPDATE`, params.DraftID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock draft: %w", err)
	}
	teams := len(d.PickOrder)
	if d.Status == models.DraftStatusComplete || draft.IsComplete(d.CurrentPick, teams, params.PicksPerTeam) {
		err = ErrDraftComplete
		return nil, nil, err
	}
	if d.Status != models.DraftStatusInProgress {
		err = ErrStaleState
		return nil, nil, err
	}
	onClock, ok := draft.TeamForPick(d.PickOrder, d.CurrentPick)
	if !ok || onClock != params.TeamID {
		err = ErrNotYourTurn
		return nil, nil, err
	}

	var ownership struct {
		Owners int  `db:"owners"`
		OnTeam bool `db:"on_team"`
	}
	const ownershipQuery = `SELECT COUNT(*) AS owners, COALESCE(BOOL_OR(team_id = $3), FALSE) AS on_team FROM draft_picks WHERE draft_id = $1 AND contestant_id = $2`
	if err = tx.GetContext(ctx, &ownership, ownershipQuery, params.DraftID, params.ContestantID, params.TeamID); err != nil {
		return nil, nil, fmt.Errorf("check contestant ownership: %w", err)
	}
	if ownership.OnTeam || ownership.Owners >= params.MaxOwners {
		err = ErrAlreadyDrafted
		return nil, nil, err
	}

	now := time.Now().UTC()
	pick = &models.DraftPick{
		ID:           uuid.NewString(),
		DraftID:      d.ID,
		TeamID:       params.TeamID,
		ContestantID: params.ContestantID,
		PickNumber:   d.CurrentPick,
		Round:        draft.Round(d.CurrentPick, teams),
		CreatedAt:    now,
	}
	const insertPick = `INSERT INTO draft_picks (id, draft_id, team_id, contestant_id, pick_number, round, created_at) VALUES (:id, :draft_id, :team_id, :contestant_id, :pick_number, :round, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertPick, pick); err != nil {
		if isUniqueViolation(err) {
			err = ErrAlreadyDrafted
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("insert draft pick: %w", err)
	}

	d.CurrentPick++
	d.UpdatedAt = now
	if draft.IsComplete(d.CurrentPick, teams, params.PicksPerTeam) {
		d.Status = models.DraftStatusComplete
		d.CompletedAt = &now
	}
	const advance = `UPDATE drafts SET current_pick = $2, status = $3, completed_at = $4, updated_at = $5 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, advance, d.ID, d.CurrentPick, d.Status, d.CompletedAt, now); err != nil {
		return nil, nil, fmt.Errorf("advance draft: %w", err)
	}
	if d.Status == models.DraftStatusComplete {
		if _, err = tx.ExecContext(ctx, `UPDATE leagues SET status = $2, updated_at = $3 WHERE id = $1`, params.LeagueID, models.LeagueStatusActive, now); err != nil {
			return nil, nil, fmt.Errorf("activate league: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit draft pick: %w", err)
	}
	return pick, d, nil
}
