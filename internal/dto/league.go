package dto

// CreateLeagueRequest opens a new league for a season.
type CreateLeagueRequest struct {
	Name                   string `json:"name" validate:"required,min=3,max=80"`
	SeasonID               string `json:"seasonId" validate:"required"`
	TeamName               string `json:"teamName" validate:"required,max=60"`
	MaxTeams               int    `json:"maxTeams" validate:"omitempty,min=2,max=20"`
	PicksPerTeam           int    `json:"picksPerTeam" validate:"omitempty,min=1,max=10"`
	MaxOwnersPerContestant int    `json:"maxOwnersPerContestant" validate:"omitempty,min=1"`
}

// JoinLeagueRequest enters a league by invite code.
type JoinLeagueRequest struct {
	InviteCode string `json:"inviteCode" validate:"required,alphanum"`
	TeamName   string `json:"teamName" validate:"required,max=60"`
}

// MakePickRequest selects a contestant for the team on the clock.
type MakePickRequest struct {
	ContestantID string `json:"contestantId" validate:"required"`
}
