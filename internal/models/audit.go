package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionRegister        = "REGISTER"
	AuditActionGameEventSubmit = "GAME_EVENT_SUBMIT"
	AuditActionGameEventUpdate = "GAME_EVENT_UPDATE"
	AuditActionGameEventReview = "GAME_EVENT_REVIEW"
	AuditActionGameEventDelete = "GAME_EVENT_DELETE"
	AuditActionScoringSubmit   = "SCORING_EVENT_SUBMIT"
	AuditActionScoringReview   = "SCORING_EVENT_REVIEW"
	AuditActionScoringDelete   = "SCORING_EVENT_DELETE"
	AuditActionLeagueCreate    = "LEAGUE_CREATE"
	AuditActionLeagueJoin      = "LEAGUE_JOIN"
	AuditActionDraftStart      = "DRAFT_START"
	AuditActionDraftPick       = "DRAFT_PICK"
	AuditActionSimulationRun   = "SIMULATION_RUN"
	AuditActionSeasonRescore   = "SEASON_RESCORE"
	AuditActionUserRoleChange  = "USER_ROLE_CHANGE"
	AuditActionUserActivate    = "USER_ACTIVATE"
	AuditActionUserDeactivate  = "USER_DEACTIVATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
