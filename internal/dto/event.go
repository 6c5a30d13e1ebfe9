package dto

import (
	"encoding/json"

	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
)

// SubmitGameEventRequest carries a compound occurrence for derivation.
type SubmitGameEventRequest struct {
	SeasonID string                `json:"seasonId" validate:"required"`
	Type     scoring.GameEventType `json:"type" validate:"required"`
	Week     int                   `json:"week" validate:"required,min=1"`
	Payload  json.RawMessage       `json:"payload" validate:"required"`
}

// UpdateGameEventRequest replaces the week and payload of a pending game event.
type UpdateGameEventRequest struct {
	Week    int             `json:"week" validate:"required,min=1"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// PreviewGameEventRequest derives without persisting.
type PreviewGameEventRequest struct {
	Type    scoring.GameEventType `json:"type" validate:"required"`
	Payload json.RawMessage       `json:"payload" validate:"required"`
}

// ReviewRequest is a moderator decision on a pending event.
type ReviewRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// SubmitScoringEventRequest records a single scoring event directly.
type SubmitScoringEventRequest struct {
	SeasonID     string            `json:"seasonId" validate:"required"`
	ContestantID string            `json:"contestantId" validate:"required"`
	Type         scoring.EventType `json:"type" validate:"required"`
	Week         int               `json:"week" validate:"required,min=1"`
	Description  string            `json:"description" validate:"max=280"`
}

// GameEventQuery mirrors supported listing filters.
type GameEventQuery struct {
	SeasonID string
	Status   models.ApprovalStatus
	Type     scoring.GameEventType
	Week     int
	Page     int
	PageSize int
}

// DerivationPreview is the response of a preview call.
type DerivationPreview struct {
	Type    scoring.GameEventType `json:"type"`
	Derived []scoring.Derived     `json:"derived"`
	Total   int                   `json:"total"`
}
