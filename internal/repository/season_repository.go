package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/castaway-league-api/internal/models"
)

const contestantColumns = `id, season_id, tribe_id, name, age, hometown, occupation, image_url, is_eliminated, eliminated_week, created_at, updated_at`

// SeasonRepository reads seasons, tribes and contestants.
type SeasonRepository struct {
	db *sqlx.DB
}

// NewSeasonRepository constructs the repository.
func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// ListSeasons returns every season, newest first.
func (r *SeasonRepository) ListSeasons(ctx context.Context) ([]models.Season, error) {
	const query = `SELECT id, number, name, status, premiere_date, created_at, updated_at FROM seasons ORDER BY number DESC`
	var seasons []models.Season
	if err := r.db.SelectContext(ctx, &seasons, query); err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	return seasons, nil
}

// FindSeason returns a season by id.
func (r *SeasonRepository) FindSeason(ctx context.Context, id string) (*models.Season, error) {
	const query = `SELECT id, number, name, status, premiere_date, created_at, updated_at FROM seasons WHERE id = $1`
	var season models.Season
	if err := r.db.GetContext(ctx, &season, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find season: %w", err)
	}
	return &season, nil
}

// ListTribes returns the tribes of a season.
func (r *SeasonRepository) ListTribes(ctx context.Context, seasonID string) ([]models.Tribe, error) {
	const query = `SELECT id, season_id, name, color FROM tribes WHERE season_id = $1 ORDER BY name`
	var tribes []models.Tribe
	if err := r.db.SelectContext(ctx, &tribes, query, seasonID); err != nil {
		return nil, fmt.Errorf("list tribes: %w", err)
	}
	return tribes, nil
}

// ListContestants returns contestants matching filter with the total count.
func (r *SeasonRepository) ListContestants(ctx context.Context, filter models.ContestantFilter) ([]models.Contestant, int, error) {
	baseQuery := `FROM contestants WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SeasonID != "" {
		conditions = append(conditions, fmt.Sprintf("season_id = $%d", len(args)+1))
		args = append(args, filter.SeasonID)
	}
	if filter.TribeID != "" {
		conditions = append(conditions, fmt.Sprintf("tribe_id = $%d", len(args)+1))
		args = append(args, filter.TribeID)
	}
	if filter.Eliminated != nil {
		conditions = append(conditions, fmt.Sprintf("is_eliminated = $%d", len(args)+1))
		args = append(args, *filter.Eliminated)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", contestantColumns, baseQuery, pageSize, offset)
	var contestants []models.Contestant
	if err := r.db.SelectContext(ctx, &contestants, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list contestants: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contestants: %w", err)
	}
	return contestants, total, nil
}

// ContestantsBySeason returns the full cast of a season ordered by name.
func (r *SeasonRepository) ContestantsBySeason(ctx context.Context, seasonID string) ([]models.Contestant, error) {
	query := `SELECT ` + contestantColumns + ` FROM contestants WHERE season_id = $1 ORDER BY name ASC`
	var contestants []models.Contestant
	if err := r.db.SelectContext(ctx, &contestants, query, seasonID); err != nil {
		return nil, fmt.Errorf("list season contestants: %w", err)
	}
	return contestants, nil
}

// FindContestant returns a contestant by id.
func (r *SeasonRepository) FindContestant(ctx context.Context, id string) (*models.Contestant, error) {
	query := `SELECT ` + contestantColumns + ` FROM contestants WHERE id = $1`
	var contestant models.Contestant
	if err := r.db.GetContext(ctx, &contestant, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find contestant: %w", err)
	}
	return &contestant, nil
}
