package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/castaway-league-api/internal/models"
)

const gameEventColumns = `id, season_id, type, week, payload, status, submitted_by, reviewed_by, reviewed_at, created_at, updated_at`

// GameEventRepository persists game events together with their derived
// scoring events. Every write that touches both runs in one transaction.
type GameEventRepository struct {
	db *sqlx.DB
}

// NewGameEventRepository constructs the repository.
func NewGameEventRepository(db *sqlx.DB) *GameEventRepository {
	return &GameEventRepository{db: db}
}

// CreateWithDerived inserts the game event and every derived scoring event.
func (r *GameEventRepository) CreateWithDerived(ctx context.Context, event *models.GameEvent, derived []models.ScoringEvent) (err error) {
	now := time.Now().UTC()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt, event.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin game event transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertGameEvent = `INSERT INTO game_events (` + gameEventColumns + `) VALUES (:id, :season_id, :type, :week, :payload, :status, :submitted_by, :reviewed_by, :reviewed_at, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertGameEvent, event); err != nil {
		return fmt.Errorf("insert game event: %w", err)
	}
	if err = insertDerived(ctx, tx, event.ID, derived, now); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit game event: %w", err)
	}
	return nil
}

func insertDerived(ctx context.Context, tx *sqlx.Tx, gameEventID string, derived []models.ScoringEvent, now time.Time) error {
	for i := range derived {
		derived[i].GameEventID = &gameEventID
		stampScoringEvent(&derived[i], now)
		if _, err := tx.NamedExecContext(ctx, insertScoringEvent, &derived[i]); err != nil {
			return fmt.Errorf("insert derived scoring event: %w", err)
		}
	}
	return nil
}

// FindByID returns a game event by id.
func (r *GameEventRepository) FindByID(ctx context.Context, id string) (*models.GameEvent, error) {
	query := `SELECT ` + gameEventColumns + ` FROM game_events WHERE id = $1`
	var event models.GameEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find game event: %w", err)
	}
	return &event, nil
}

// ListDerived returns the scoring events derived from a game event.
func (r *GameEventRepository) ListDerived(ctx context.Context, gameEventID string) ([]models.ScoringEvent, error) {
	query := `SELECT ` + scoringEventColumns + ` FROM scoring_events WHERE game_event_id = $1 ORDER BY contestant_id ASC, type ASC`
	var events []models.ScoringEvent
	if err := r.db.SelectContext(ctx, &events, query, gameEventID); err != nil {
		return nil, fmt.Errorf("list derived scoring events: %w", err)
	}
	return events, nil
}

// List returns game events matching filter with the total count.
func (r *GameEventRepository) List(ctx context.Context, filter models.GameEventFilter) ([]models.GameEvent, int, error) {
	baseQuery := `FROM game_events WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SeasonID != "" {
		conditions = append(conditions, fmt.Sprintf("season_id = $%d", len(args)+1))
		args = append(args, filter.SeasonID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, string(filter.Type))
	}
	if filter.Week > 0 {
		conditions = append(conditions, fmt.Sprintf("week = $%d", len(args)+1))
		args = append(args, filter.Week)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY week DESC, created_at DESC LIMIT %d OFFSET %d", gameEventColumns, baseQuery, pageSize, offset)
	var events []models.GameEvent
	if err := r.db.SelectContext(ctx, &events, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list game events: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count game events: %w", err)
	}
	return events, total, nil
}

func lockPending(ctx context.Context, tx *sqlx.Tx, id string) error {
	var status models.ApprovalStatus
	if err := tx.GetContext(ctx, &status, `SELECT status FROM game_events WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock game event: %w", err)
	}
	if status != models.ApprovalPending {
		return ErrStaleState
	}
	return nil
}

// ReplacePending rewrites a pending game event and swaps its derived events.
func (r *GameEventRepository) ReplacePending(ctx context.Context, event *models.GameEvent, derived []models.ScoringEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin game event update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockPending(ctx, tx, event.ID); err != nil {
		return err
	}
	now := time.Now().UTC()
	event.UpdatedAt = now
	const update = `UPDATE game_events SET week = $2, payload = $3, updated_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, event.ID, event.Week, event.Payload, now); err != nil {
		return fmt.Errorf("update game event: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM scoring_events WHERE game_event_id = $1`, event.ID); err != nil {
		return fmt.Errorf("delete stale derived events: %w", err)
	}
	if err = insertDerived(ctx, tx, event.ID, derived, now); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit game event update: %w", err)
	}
	return nil
}

// Elimination marks a contestant out of the game as of a week.
type Elimination struct {
	ContestantID string
	Week         int
}

// ReviewParams carries a moderator decision on a pending game event.
type ReviewParams struct {
	ID          string
	Status      models.ApprovalStatus
	ReviewerID  string
	ReviewedAt  time.Time
	Elimination *Elimination
}

// Review applies the decision to the game event and all derived events in one
// transaction, marking the eliminated contestant when approving. It returns
// the number of derived events updated.
func (r *GameEventRepository) Review(ctx context.Context, params ReviewParams) (updated int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin game event review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockPending(ctx, tx, params.ID); err != nil {
		return 0, err
	}
	status := string(params.Status)
	const updateEvent = `UPDATE game_events SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateEvent, params.ID, status, params.ReviewerID, params.ReviewedAt); err != nil {
		return 0, fmt.Errorf("review game event: %w", err)
	}
	const cascade = `UPDATE scoring_events SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4 WHERE game_event_id = $1`
	res, err := tx.ExecContext(ctx, cascade, params.ID, status, params.ReviewerID, params.ReviewedAt)
	if err != nil {
		return 0, fmt.Errorf("cascade review to derived events: %w", err)
	}
	if updated, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("cascade review rows: %w", err)
	}
	if params.Status == models.ApprovalApproved && params.Elimination != nil {
		const eliminate = `UPDATE contestants SET is_eliminated = TRUE, eliminated_week = $2, updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, eliminate, params.Elimination.ContestantID, params.Elimination.Week, params.ReviewedAt); err != nil {
			return 0, fmt.Errorf("mark contestant eliminated: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit game event review: %w", err)
	}
	return updated, nil
}

// Delete removes a game event and its derived events.
func (r *GameEventRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin game event delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM scoring_events WHERE game_event_id = $1`, id); err != nil {
		return fmt.Errorf("delete derived scoring events: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM game_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game event rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit game event delete: %w", err)
	}
	return nil
}
