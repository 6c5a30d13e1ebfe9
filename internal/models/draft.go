package models

import (
	"time"

	"github.com/lib/pq"
)

// DraftStatus captures the lifecycle of a league draft.
type DraftStatus string

const (
	DraftStatusPending    DraftStatus = "PENDING"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusComplete   DraftStatus = "COMPLETE"
)

// Draft is the snake draft of a league. PickOrder holds team ids in first
// round order; CurrentPick is the zero-based index of the next pick.
type Draft struct {
	ID          string         `db:"id" json:"id"`
	LeagueID    string         `db:"league_id" json:"leagueId"`
	Status      DraftStatus    `db:"status" json:"status"`
	PickOrder   pq.StringArray `db:"pick_order" json:"pickOrder"`
	CurrentPick int            `db:"current_pick" json:"currentPick"`
	StartedAt   *time.Time     `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time     `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// DraftPick is one selection made during a draft.
type DraftPick struct {
	ID           string    `db:"id" json:"id"`
	DraftID      string    `db:"draft_id" json:"draftId"`
	TeamID       string    `db:"team_id" json:"teamId"`
	ContestantID string    `db:"contestant_id" json:"contestantId"`
	PickNumber   int       `db:"pick_number" json:"pickNumber"`
	Round        int       `db:"round" json:"round"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// DraftState is the client view of a draft in progress.
type DraftState struct {
	Draft      Draft       `json:"draft"`
	Picks      []DraftPick `json:"picks"`
	OnTheClock string      `json:"onTheClock,omitempty"`
	Round      int         `json:"round"`
	TotalPicks int         `json:"totalPicks"`
	Complete   bool        `json:"complete"`
}
