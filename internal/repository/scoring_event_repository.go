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

const scoringEventColumns = `id, season_id, contestant_id, type, week, points, description, status, game_event_id, submitted_by, reviewed_by, reviewed_at, created_at, updated_at`

const insertScoringEvent = `INSERT INTO scoring_events (` + scoringEventColumns + `) VALUES (:id, :season_id, :contestant_id, :type, :week, :points, :description, :status, :game_event_id, :submitted_by, :reviewed_by, :reviewed_at, :created_at, :updated_at)`

// ScoringEventRepository persists atomic scoring events.
type ScoringEventRepository struct {
	db *sqlx.DB
}

// NewScoringEventRepository constructs the repository.
func NewScoringEventRepository(db *sqlx.DB) *ScoringEventRepository {
	return &ScoringEventRepository{db: db}
}

func stampScoringEvent(event *models.ScoringEvent, now time.Time) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
}

// Create inserts a standalone scoring event.
func (r *ScoringEventRepository) Create(ctx context.Context, event *models.ScoringEvent) error {
	stampScoringEvent(event, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertScoringEvent, event); err != nil {
		return fmt.Errorf("create scoring event: %w", err)
	}
	return nil
}

// FindByID returns a scoring event by id.
func (r *ScoringEventRepository) FindByID(ctx context.Context, id string) (*models.ScoringEvent, error) {
	query := `SELECT ` + scoringEventColumns + ` FROM scoring_events WHERE id = $1`
	var event models.ScoringEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find scoring event: %w", err)
	}
	return &event, nil
}

// List returns scoring events matching filter with the total count.
func (r *ScoringEventRepository) List(ctx context.Context, filter models.ScoringEventFilter) ([]models.ScoringEvent, int, error) {
	baseQuery := `FROM scoring_events WHERE 1=1`
	var conditions []string
	var args []interface{}

	add := func(column string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if filter.SeasonID != "" {
		add("season_id", filter.SeasonID)
	}
	if filter.ContestantID != "" {
		add("contestant_id", filter.ContestantID)
	}
	if filter.GameEventID != "" {
		add("game_event_id", filter.GameEventID)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if filter.Week > 0 {
		add("week", filter.Week)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY week DESC, created_at DESC LIMIT %d OFFSET %d", scoringEventColumns, baseQuery, pageSize, offset)
	var events []models.ScoringEvent
	if err := r.db.SelectContext(ctx, &events, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list scoring events: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count scoring events: %w", err)
	}
	return events, total, nil
}

// ListBySeason returns every scoring event of a season regardless of status.
func (r *ScoringEventRepository) ListBySeason(ctx context.Context, seasonID string) ([]models.ScoringEvent, error) {
	query := `SELECT ` + scoringEventColumns + ` FROM scoring_events WHERE season_id = $1 ORDER BY week ASC, contestant_id ASC`
	var events []models.ScoringEvent
	if err := r.db.SelectContext(ctx, &events, query, seasonID); err != nil {
		return nil, fmt.Errorf("list season scoring events: %w", err)
	}
	return events, nil
}

// Review decides a pending standalone event. Derived events and events
// already decided yield ErrStaleState.
func (r *ScoringEventRepository) Review(ctx context.Context, id string, status models.ApprovalStatus, reviewerID string, reviewedAt time.Time) error {
	const query = `UPDATE scoring_events SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4 WHERE id = $1 AND status = 'PENDING' AND game_event_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, string(status), reviewerID, reviewedAt)
	if err != nil {
		return fmt.Errorf("review scoring event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review scoring event rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleState
	}
	return nil
}

// Delete removes a standalone scoring event.
func (r *ScoringEventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scoring_events WHERE id = $1 AND game_event_id IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete scoring event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete scoring event rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
