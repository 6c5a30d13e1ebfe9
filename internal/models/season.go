package models

import "time"

// SeasonStatus tracks where a season is in its broadcast run.
type SeasonStatus string

const (
	SeasonStatusUpcoming  SeasonStatus = "UPCOMING"
	SeasonStatusActive    SeasonStatus = "ACTIVE"
	SeasonStatusCompleted SeasonStatus = "COMPLETED"
)

// Season is one broadcast season of the show.
type Season struct {
	ID           string       `db:"id" json:"id"`
	Number       int          `db:"number" json:"number"`
	Name         string       `db:"name" json:"name"`
	Status       SeasonStatus `db:"status" json:"status"`
	PremiereDate *time.Time   `db:"premiere_date" json:"premiereDate,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// Tribe groups contestants before the merge.
type Tribe struct {
	ID       string `db:"id" json:"id"`
	SeasonID string `db:"season_id" json:"seasonId"`
	Name     string `db:"name" json:"name"`
	Color    string `db:"color" json:"color"`
}
