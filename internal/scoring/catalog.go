// Package scoring holds the point catalog, the game-event deriver and the
// score aggregator. Everything here is pure and safe for concurrent use.
package scoring

import (
	"fmt"

	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

// EventType tags an atomic, point-bearing occurrence attributed to one contestant.
type EventType string

const (
	EventIndividualImmunityWin EventType = "INDIVIDUAL_IMMUNITY_WIN"
	EventRewardChallengeWin    EventType = "REWARD_CHALLENGE_WIN"
	EventTeamChallengeWin      EventType = "TEAM_CHALLENGE_WIN"
	EventCorrectVote           EventType = "CORRECT_VOTE"
	EventZeroVotesReceived     EventType = "ZERO_VOTES_RECEIVED"
	EventSurvivedWithVotes     EventType = "SURVIVED_WITH_VOTES"
	EventIdolFind              EventType = "IDOL_FIND"
	EventIdolPlaySuccess       EventType = "IDOL_PLAY_SUCCESS"
	EventFireMakingWin         EventType = "FIRE_MAKING_WIN"
	EventMadeMerge             EventType = "MADE_MERGE"
	EventMadeJury              EventType = "MADE_JURY"
	EventFinalTribal           EventType = "FINAL_TRIBAL"
	EventWinner                EventType = "WINNER"
	EventVotedOutWithIdol      EventType = "VOTED_OUT_WITH_IDOL"
	EventQuit                  EventType = "QUIT"
)

type catalogEntry struct {
	Type   EventType
	Points int
	Label  string
}

// catalog is ordered for listing; lookups go through catalogIndex.
var catalog = [...]catalogEntry{
	{EventIndividualImmunityWin, 5, "Individual immunity win"},
	{EventRewardChallengeWin, 3, "Reward challenge win"},
	{EventTeamChallengeWin, 1, "Team challenge win"},
	{EventCorrectVote, 2, "Voted with the majority"},
	{EventZeroVotesReceived, 1, "Received zero votes"},
	{EventSurvivedWithVotes, 3, "Survived tribal with votes"},
	{EventIdolFind, 4, "Found a hidden immunity idol"},
	{EventIdolPlaySuccess, 5, "Played an idol successfully"},
	{EventFireMakingWin, 5, "Won fire making"},
	{EventMadeMerge, 5, "Made the merge"},
	{EventMadeJury, 3, "Made the jury"},
	{EventFinalTribal, 10, "Reached final tribal council"},
	{EventWinner, 20, "Sole survivor"},
	{EventVotedOutWithIdol, -3, "Voted out holding an idol"},
	{EventQuit, -10, "Quit or evacuated"},
}

var catalogIndex = func() map[EventType]catalogEntry {
	index := make(map[EventType]catalogEntry, len(catalog))
	for _, entry := range catalog {
		index[entry.Type] = entry
	}
	return index
}()

// CatalogItem is the public view of one catalog row.
type CatalogItem struct {
	Type   EventType `json:"type"`
	Points int       `json:"points"`
	Label  string    `json:"label"`
}

func unknownEventType(t EventType) error {
	return appErrors.Clone(appErrors.ErrUnknownEventType, fmt.Sprintf("unknown event type: %q", string(t)))
}

// Valid reports whether t is part of the catalog.
func Valid(t EventType) bool {
	_, ok := catalogIndex[t]
	return ok
}

// PointsFor returns the fixed point value bound to t.
func PointsFor(t EventType) (int, error) {
	entry, ok := catalogIndex[t]
	if !ok {
		return 0, unknownEventType(t)
	}
	return entry.Points, nil
}

// LabelFor returns the display label bound to t.
func LabelFor(t EventType) (string, error) {
	entry, ok := catalogIndex[t]
	if !ok {
		return "", unknownEventType(t)
	}
	return entry.Label, nil
}

// EventTypes lists every catalog tag in catalog order.
func EventTypes() []EventType {
	types := make([]EventType, len(catalog))
	for i, entry := range catalog {
		types[i] = entry.Type
	}
	return types
}

// Catalog returns a copy of the full catalog.
func Catalog() []CatalogItem {
	items := make([]CatalogItem, len(catalog))
	for i, entry := range catalog {
		items[i] = CatalogItem{Type: entry.Type, Points: entry.Points, Label: entry.Label}
	}
	return items
}

// mustPoints is used by the deriver, which only emits catalog types.
func mustPoints(t EventType) int {
	points, err := PointsFor(t)
	if err != nil {
		panic(err)
	}
	return points
}
