package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/castaway-league-api/internal/simulation"
)

// HistoryRepository loads approved per-episode event logs for simulation.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// LoadSeason returns the cast and approved scoring events of a season.
// Scoring weeks are used as episode numbers.
func (r *HistoryRepository) LoadSeason(ctx context.Context, seasonID string) (*simulation.Season, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM seasons WHERE id = $1`, seasonID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load season: %w", err)
	}

	var contestants []string
	if err := r.db.SelectContext(ctx, &contestants, `SELECT id FROM contestants WHERE season_id = $1 ORDER BY id`, seasonID); err != nil {
		return nil, fmt.Errorf("load season cast: %w", err)
	}

	const eventsQuery = `SELECT week AS episode, contestant_id, type FROM scoring_events WHERE season_id = $1 AND status = 'APPROVED' ORDER BY week, contestant_id`
	var events []simulation.HistoricalEvent
	if err := r.db.SelectContext(ctx, &events, eventsQuery, seasonID); err != nil {
		return nil, fmt.Errorf("load season events: %w", err)
	}

	return &simulation.Season{ID: seasonID, Name: name, Contestants: contestants, Events: events}, nil
}
