package models

import "time"

// ContestantStanding is one row of the contestant leaderboard.
type ContestantStanding struct {
	Rank         int         `json:"rank"`
	ContestantID string      `json:"contestantId"`
	Name         string      `json:"name"`
	IsEliminated bool        `json:"isEliminated"`
	Total        int         `json:"total"`
	ByWeek       map[int]int `json:"byWeek"`
}

// TeamStanding is one row of a league leaderboard.
type TeamStanding struct {
	Rank          int      `json:"rank"`
	TeamID        string   `json:"teamId"`
	TeamName      string   `json:"teamName"`
	OwnerID       string   `json:"ownerId"`
	Total         int      `json:"total"`
	ContestantIDs []string `json:"contestantIds"`
}

// ContestantLeaderboard is the cached contestant board for a season.
type ContestantLeaderboard struct {
	SeasonID    string               `json:"seasonId"`
	Standings   []ContestantStanding `json:"standings"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// TeamLeaderboard is the cached team board for a league.
type TeamLeaderboard struct {
	LeagueID    string         `json:"leagueId"`
	SeasonID    string         `json:"seasonId"`
	Standings   []TeamStanding `json:"standings"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// SystemMetrics is a lightweight snapshot of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	SimulationsRun           uint64    `json:"simulationsRun"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
