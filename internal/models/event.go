package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/castaway-league-api/internal/scoring"
)

// ApprovalStatus is the moderation state shared by game and scoring events.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// GameEvent is a compound occurrence awaiting or past moderation. Payload is
// stored as submitted and re-decoded on update.
type GameEvent struct {
	ID          string                `db:"id" json:"id"`
	SeasonID    string                `db:"season_id" json:"seasonId"`
	Type        scoring.GameEventType `db:"type" json:"type"`
	Week        int                   `db:"week" json:"week"`
	Payload     types.JSONText        `db:"payload" json:"payload"`
	Status      ApprovalStatus        `db:"status" json:"status"`
	SubmittedBy string                `db:"submitted_by" json:"submittedBy"`
	ReviewedBy  *string               `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time            `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt   time.Time             `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updatedAt"`
}

// GameEventDetail bundles a game event with its derived scoring events.
type GameEventDetail struct {
	GameEvent
	Derived []ScoringEvent `json:"derived"`
}

// GameEventFilter narrows game event listings.
type GameEventFilter struct {
	SeasonID string
	Status   ApprovalStatus
	Type     scoring.GameEventType
	Week     int
	Page     int
	PageSize int
}

// ScoringEvent is an atomic point-bearing occurrence. Points are copied from
// the catalog at creation and never recomputed.
type ScoringEvent struct {
	ID           string            `db:"id" json:"id"`
	SeasonID     string            `db:"season_id" json:"seasonId"`
	ContestantID string            `db:"contestant_id" json:"contestantId"`
	Type         scoring.EventType `db:"type" json:"type"`
	Week         int               `db:"week" json:"week"`
	Points       int               `db:"points" json:"points"`
	Description  string            `db:"description" json:"description"`
	Status       ApprovalStatus    `db:"status" json:"status"`
	GameEventID  *string           `db:"game_event_id" json:"gameEventId,omitempty"`
	SubmittedBy  string            `db:"submitted_by" json:"submittedBy"`
	ReviewedBy   *string           `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updatedAt"`
}

// Entry projects the event onto the aggregator's input.
func (e ScoringEvent) Entry() scoring.Entry {
	return scoring.Entry{
		ContestantID: e.ContestantID,
		Type:         e.Type,
		Week:         e.Week,
		Points:       e.Points,
		Approved:     e.Status == ApprovalApproved,
	}
}

// Entries converts a slice of scoring events.
func Entries(events []ScoringEvent) []scoring.Entry {
	entries := make([]scoring.Entry, len(events))
	for i, e := range events {
		entries[i] = e.Entry()
	}
	return entries
}

// ScoringEventFilter narrows scoring event listings.
type ScoringEventFilter struct {
	SeasonID     string
	ContestantID string
	GameEventID  string
	Status       ApprovalStatus
	Week         int
	Page         int
	PageSize     int
}
