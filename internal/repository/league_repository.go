package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/castaway-league-api/internal/models"
)

const leagueColumns = `id, name, slug, season_id, owner_id, invite_code, status, max_teams, picks_per_team, max_owners_per_contestant, created_at, updated_at`

// LeagueRepository persists leagues and their teams.
type LeagueRepository struct {
	db *sqlx.DB
}

// NewLeagueRepository constructs the repository.
func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

// CreateWithOwnerTeam inserts a league and the owner's team atomically. A
// taken slug or invite code yields ErrDuplicate.
func (r *LeagueRepository) CreateWithOwnerTeam(ctx context.Context, league *models.League, team *models.Team) (err error) {
	now := time.Now().UTC()
	if league.ID == "" {
		league.ID = uuid.NewString()
	}
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	league.CreatedAt, league.UpdatedAt = now, now
	team.LeagueID = league.ID
	team.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin league transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertLeague = `INSERT INTO leagues (` + leagueColumns + `) VALUES (:id, :name, :slug, :season_id, :owner_id, :invite_code, :status, :max_teams, :picks_per_team, :max_owners_per_contestant, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertLeague, league); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicate
			return err
		}
		return fmt.Errorf("insert league: %w", err)
	}
	const insertTeam = `INSERT INTO teams (id, league_id, owner_id, name, created_at) VALUES (:id, :league_id, :owner_id, :name, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertTeam, team); err != nil {
		return fmt.Errorf("insert owner team: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit league transaction: %w", err)
	}
	return nil
}

// FindByID returns a league by id.
func (r *LeagueRepository) FindByID(ctx context.Context, id string) (*models.League, error) {
	return r.findOne(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, id)
}

// FindByInviteCode returns the league using code.
func (r *LeagueRepository) FindByInviteCode(ctx context.Context, code string) (*models.League, error) {
	return r.findOne(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE invite_code = $1`, code)
}

func (r *LeagueRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.League, error) {
	var league models.League
	if err := r.db.GetContext(ctx, &league, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find league: %w", err)
	}
	return &league, nil
}

// SlugExists reports whether slug is already used.
func (r *LeagueRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM leagues WHERE slug = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("check league slug: %w", err)
	}
	return exists, nil
}

// ListByUser returns the leagues userID has a team in.
func (r *LeagueRepository) ListByUser(ctx context.Context, userID string) ([]models.League, error) {
	const query = `SELECT l.id, l.name, l.slug, l.season_id, l.owner_id, l.invite_code, l.status, l.max_teams, l.picks_per_team, l.max_owners_per_contestant, l.created_at, l.updated_at
FROM leagues l JOIN teams t ON t.league_id = l.id WHERE t.owner_id = $1 ORDER BY l.created_at DESC`
	var leagues []models.League
	if err := r.db.SelectContext(ctx, &leagues, query, userID); err != nil {
		return nil, fmt.Errorf("list user leagues: %w", err)
	}
	return leagues, nil
}

// ListByStatus returns leagues in status, used by background refreshers.
func (r *LeagueRepository) ListByStatus(ctx context.Context, status models.LeagueStatus) ([]models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE status = $1 ORDER BY created_at`
	var leagues []models.League
	if err := r.db.SelectContext(ctx, &leagues, query, status); err != nil {
		return nil, fmt.Errorf("list leagues by status: %w", err)
	}
	return leagues, nil
}

// ListBySeason returns every league playing seasonID.
func (r *LeagueRepository) ListBySeason(ctx context.Context, seasonID string) ([]models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE season_id = $1 ORDER BY created_at`
	var leagues []models.League
	if err := r.db.SelectContext(ctx, &leagues, query, seasonID); err != nil {
		return nil, fmt.Errorf("list leagues by season: %w", err)
	}
	return leagues, nil
}

// CreateTeam adds a team to an OPEN league that still has room. The league row
// is locked for the insert, which serialises joins against each other and
// against the draft start. A league past OPEN yields ErrStaleState, a full one
// ErrCapacity, and a second team for the same owner ErrDuplicate.
func (r *LeagueRepository) CreateTeam(ctx context.Context, team *models.Team) (err error) {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin join transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var league struct {
		Status   models.LeagueStatus `db:"status"`
		MaxTeams int                 `db:"max_teams"`
	}
	if err = tx.GetContext(ctx, &league, `SELECT status, max_teams FROM leagues WHERE id = $1 FOR UPDATE`, team.LeagueID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock league: %w", err)
	}
	if league.Status != models.LeagueStatusOpen {
		err = ErrStaleState
		return err
	}
	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM teams WHERE league_id = $1`, team.LeagueID); err != nil {
		return fmt.Errorf("count teams: %w", err)
	}
	if count >= league.MaxTeams {
		err = ErrCapacity
		return err
	}

	const query = `INSERT INTO teams (id, league_id, owner_id, name, created_at) VALUES (:id, :league_id, :owner_id, :name, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, team); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicate
			return err
		}
		return fmt.Errorf("create team: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit join: %w", err)
	}
	return nil
}

// ListTeams returns the teams of a league in join order.
func (r *LeagueRepository) ListTeams(ctx context.Context, leagueID string) ([]models.Team, error) {
	const query = `SELECT id, league_id, owner_id, name, created_at FROM teams WHERE league_id = $1 ORDER BY created_at ASC, id ASC`
	var teams []models.Team
	if err := r.db.SelectContext(ctx, &teams, query, leagueID); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// Rosters returns every drafted (team, contestant) pair of a league.
func (r *LeagueRepository) Rosters(ctx context.Context, leagueID string) ([]models.RosterEntry, error) {
	const query = `SELECT p.team_id, p.contestant_id FROM draft_picks p JOIN drafts d ON d.id = p.draft_id WHERE d.league_id = $1 ORDER BY p.pick_number`
	var entries []models.RosterEntry
	if err := r.db.SelectContext(ctx, &entries, query, leagueID); err != nil {
		return nil, fmt.Errorf("list rosters: %w", err)
	}
	return entries, nil
}
