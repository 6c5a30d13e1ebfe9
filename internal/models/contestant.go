package models

import "time"

// Contestant is a castaway competing in a season.
type Contestant struct {
	ID             string    `db:"id" json:"id"`
	SeasonID       string    `db:"season_id" json:"seasonId"`
	TribeID        *string   `db:"tribe_id" json:"tribeId,omitempty"`
	Name           string    `db:"name" json:"name"`
	Age            *int      `db:"age" json:"age,omitempty"`
	Hometown       string    `db:"hometown" json:"hometown"`
	Occupation     string    `db:"occupation" json:"occupation"`
	ImageURL       string    `db:"image_url" json:"imageUrl"`
	IsEliminated   bool      `db:"is_eliminated" json:"isEliminated"`
	EliminatedWeek *int      `db:"eliminated_week" json:"eliminatedWeek,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// ContestantFilter narrows contestant listings.
type ContestantFilter struct {
	SeasonID   string
	TribeID    string
	Eliminated *bool
	Search     string
	Page       int
	PageSize   int
}
