package models

import "time"

// LeagueStatus follows a league from sign-up through the season.
type LeagueStatus string

const (
	LeagueStatusOpen     LeagueStatus = "OPEN"
	LeagueStatusDrafting LeagueStatus = "DRAFTING"
	LeagueStatusActive   LeagueStatus = "ACTIVE"
)

// League is a private competition among teams for one season.
type League struct {
	ID                     string       `db:"id" json:"id"`
	Name                   string       `db:"name" json:"name"`
	Slug                   string       `db:"slug" json:"slug"`
	SeasonID               string       `db:"season_id" json:"seasonId"`
	OwnerID                string       `db:"owner_id" json:"ownerId"`
	InviteCode             string       `db:"invite_code" json:"inviteCode"`
	Status                 LeagueStatus `db:"status" json:"status"`
	MaxTeams               int          `db:"max_teams" json:"maxTeams"`
	PicksPerTeam           int          `db:"picks_per_team" json:"picksPerTeam"`
	MaxOwnersPerContestant int          `db:"max_owners_per_contestant" json:"maxOwnersPerContestant"`
	CreatedAt              time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time    `db:"updated_at" json:"updatedAt"`
}

// Team is one user's entry in a league.
type Team struct {
	ID        string    `db:"id" json:"id"`
	LeagueID  string    `db:"league_id" json:"leagueId"`
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RosterEntry ties a drafted contestant to a team.
type RosterEntry struct {
	TeamID       string `db:"team_id" json:"teamId"`
	ContestantID string `db:"contestant_id" json:"contestantId"`
}
