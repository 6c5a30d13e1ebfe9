package dto

import "github.com/noah-isme/castaway-league-api/internal/scoring"

// ScoreSeasonRequest rescores a historical season with a sparse point table.
type ScoreSeasonRequest struct {
	SeasonID  string                    `json:"seasonId" validate:"required"`
	Overrides map[scoring.EventType]int `json:"overrides"`
}

// RunSimulationRequest configures a Monte Carlo draft simulation.
type RunSimulationRequest struct {
	SeasonIDs              []string                  `json:"seasonIds" validate:"required,min=1,dive,required"`
	Players                int                       `json:"players" validate:"required,min=1,max=30"`
	PicksPerPlayer         int                       `json:"picksPerPlayer" validate:"required,min=1,max=20"`
	MaxOwnersPerContestant int                       `json:"maxOwnersPerContestant" validate:"required,min=1"`
	Runs                   int                       `json:"runs" validate:"omitempty,min=1"`
	Seed                   int64                     `json:"seed"`
	HistogramBins          int                       `json:"histogramBins" validate:"omitempty,min=1,max=200"`
	Overrides              map[scoring.EventType]int `json:"overrides"`
}
