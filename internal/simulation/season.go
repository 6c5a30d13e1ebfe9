// Package simulation scores historical seasons under alternative point
// tables and runs Monte Carlo snake drafts against them.
package simulation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

// HistoricalEvent is one approved scoring event from a finished season.
type HistoricalEvent struct {
	Episode      int               `json:"episode" db:"episode"`
	ContestantID string            `json:"contestantId" db:"contestant_id"`
	Type         scoring.EventType `json:"type" db:"type"`
}

// Season is the per-episode event log of one season.
type Season struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Contestants []string          `json:"contestants"`
	Events      []HistoricalEvent `json:"events"`
}

// Overrides is a sparse replacement of catalog point values.
type Overrides map[scoring.EventType]int

// PointTable resolves catalog points with overrides applied.
func (o Overrides) PointTable() (map[scoring.EventType]int, error) {
	table := make(map[scoring.EventType]int, len(scoring.EventTypes()))
	for _, item := range scoring.Catalog() {
		table[item.Type] = item.Points
	}
	for eventType, points := range o {
		if !scoring.Valid(eventType) {
			return nil, appErrors.Clone(appErrors.ErrUnknownEventType, fmt.Sprintf("unknown override event type: %q", string(eventType)))
		}
		table[eventType] = points
	}
	return table, nil
}

// ContestantScore is one contestant's total and per-type breakdown.
type ContestantScore struct {
	ContestantID string                    `json:"contestantId"`
	Rank         int                       `json:"rank"`
	Total        int                       `json:"total"`
	ByType       map[scoring.EventType]int `json:"byType"`
	ByEpisode    map[int]int               `json:"byEpisode"`
}

// SeasonScores ranks every contestant of a season.
type SeasonScores struct {
	SeasonID    string            `json:"seasonId"`
	Contestants []ContestantScore `json:"contestants"`
}

// ContestantIDs returns the sorted union of the roster and every contestant
// referenced by an event.
func (s Season) ContestantIDs() []string {
	set := make(map[string]struct{}, len(s.Contestants))
	for _, id := range s.Contestants {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	for _, e := range s.Events {
		if e.ContestantID != "" {
			set[e.ContestantID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ScoreSeason computes per-contestant totals for season under overrides.
func ScoreSeason(season Season, overrides Overrides) (SeasonScores, error) {
	table, err := overrides.PointTable()
	if err != nil {
		return SeasonScores{}, err
	}
	return scoreWithTable(season, table)
}

func scoreWithTable(season Season, table map[scoring.EventType]int) (SeasonScores, error) {
	byID := make(map[string]*ContestantScore)
	for _, id := range season.ContestantIDs() {
		byID[id] = &ContestantScore{
			ContestantID: id,
			ByType:       make(map[scoring.EventType]int),
			ByEpisode:    make(map[int]int),
		}
	}
	for _, e := range season.Events {
		points, ok := table[e.Type]
		if !ok {
			return SeasonScores{}, appErrors.Clone(appErrors.ErrUnknownEventType, fmt.Sprintf("season %s has unknown event type %q", season.ID, string(e.Type)))
		}
		score := byID[e.ContestantID]
		if score == nil {
			continue
		}
		score.Total += points
		score.ByType[e.Type] += points
		score.ByEpisode[e.Episode] += points
	}

	result := SeasonScores{SeasonID: season.ID, Contestants: make([]ContestantScore, 0, len(byID))}
	for _, score := range byID {
		result.Contestants = append(result.Contestants, *score)
	}
	sort.Slice(result.Contestants, func(i, j int) bool {
		a, b := result.Contestants[i], result.Contestants[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.ContestantID < b.ContestantID
	})
	for i := range result.Contestants {
		if i > 0 && result.Contestants[i].Total == result.Contestants[i-1].Total {
			result.Contestants[i].Rank = result.Contestants[i-1].Rank
			continue
		}
		result.Contestants[i].Rank = i + 1
	}
	return result, nil
}
