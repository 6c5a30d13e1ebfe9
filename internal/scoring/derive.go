package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// Derived is one scoring event implied by a game event. Points are copied
// from the catalog at derivation time.
type Derived struct {
	Type         EventType `json:"type"`
	ContestantID string    `json:"contestantId"`
	Points       int       `json:"points"`
	Description  string    `json:"description"`
}

func newDerived(t EventType, contestantID, description string) Derived {
	return Derived{Type: t, ContestantID: contestantID, Points: mustPoints(t), Description: description}
}

// Derive expands a game event into the scoring events it implies. An
// inconsistent payload yields an empty result rather than a guess; callers
// treat an empty result as a failed submission. A payload whose variant does
// not match t is a validation error.
func Derive(t GameEventType, payload Payload) ([]Derived, error) {
	var events []Derived
	switch t {
	case GameTribalCouncil:
		p, ok := payload.(TribalCouncil)
		if !ok {
			return nil, mismatch(t, payload)
		}
		events = deriveTribalCouncil(p)
	case GameQuit, GameMedevac:
		p, ok := payload.(Departure)
		if !ok {
			return nil, mismatch(t, payload)
		}
		events = single(EventQuit, p.ContestantID, departureDescription(t))
	case GameImmunityChallenge:
		p, ok := payload.(ImmunityChallenge)
		if !ok {
			return nil, mismatch(t, payload)
		}
		events = single(EventIndividualImmunityWin, p.WinnerID, "Won individual immunity")
	case GameRewardChallenge:
		p, ok := payload.(RewardChallenge)
		if !ok {
			return nil, mismatch(t, payload)
		}
		events = deriveRewardChallenge(p)
	case GameIdolFind:
		p, ok := payload.(Individual)
		if !ok {
			return nil, mismatch(t, payload)
		}
		events = single(EventIdolFind, p.ContestantID, "Found a hidden immunity idol")
	case GameIdolPlaySuccess:
		p, ok := payload.(Individual)
		if !ok {
			return nil, mismatch(t, payload)
		}
		events = single(EventIdolPlaySuccess, p.ContestantID, "Played an idol that negated votes")
	case GameFireMakingWin:
		p, ok := payload.(Individual)
		if !ok {
			return nil, mismatch(t, payload)
		}
		events = single(EventFireMakingWin, p.ContestantID, "Won the fire making challenge")
	default:
		return nil, validationError("unsupported game event type: %q", string(t))
	}

	sortDerived(events)
	return events, nil
}

// EliminatedContestant returns the contestant whose elimination becomes
// effective once the game event is approved, or "" when none.
func EliminatedContestant(t GameEventType, payload Payload) string {
	switch p := payload.(type) {
	case TribalCouncil:
		if t == GameTribalCouncil {
			return strings.TrimSpace(p.EliminatedID)
		}
	case Departure:
		if t == GameQuit || t == GameMedevac {
			return strings.TrimSpace(p.ContestantID)
		}
	}
	return ""
}

func mismatch(t GameEventType, payload Payload) error {
	return validationError("payload %T does not match game event type %q", payload, string(t))
}

func single(t EventType, contestantID, description string) []Derived {
	id := strings.TrimSpace(contestantID)
	if id == "" {
		return []Derived{}
	}
	return []Derived{newDerived(t, id, description)}
}

func departureDescription(t GameEventType) string {
	if t == GameMedevac {
		return "Medically evacuated"
	}
	return "Quit the game"
}

func deriveTribalCouncil(p TribalCouncil) []Derived {
	eliminated := strings.TrimSpace(p.EliminatedID)
	if eliminated == "" {
		return []Derived{}
	}
	votes, ok := normalizeVotes(p.Votes)
	if !ok {
		return []Derived{}
	}

	if len(votes) > 0 {
		if _, attended := votes[eliminated]; !attended {
			return []Derived{}
		}
	}

	seenVoters := make(map[string]struct{})
	for target, voters := range votes {
		for _, voter := range voters {
			if voter == "" || voter == target {
				return []Derived{}
			}
			if _, dup := seenVoters[voter]; dup {
				return []Derived{}
			}
			seenVoters[voter] = struct{}{}
		}
	}

	events := make([]Derived, 0, len(seenVoters)+len(votes))
	for _, voter := range votes[eliminated] {
		events = append(events, newDerived(EventCorrectVote, voter, "Voted for the eliminated contestant"))
	}
	for target, voters := range votes {
		if target == eliminated {
			continue
		}
		if len(voters) == 0 {
			events = append(events, newDerived(EventZeroVotesReceived, target, "Received no votes at tribal council"))
			continue
		}
		events = append(events, newDerived(EventSurvivedWithVotes, target, fmt.Sprintf("Survived tribal council with %d vote(s)", len(voters))))
	}
	if p.EliminatedHadIdol {
		events = append(events, newDerived(EventVotedOutWithIdol, eliminated, "Voted out holding an unplayed idol"))
	}
	return events
}

// normalizeVotes trims every contestant id in a vote map. A blank target or
// two targets that trim to the same id make the map unusable.
func normalizeVotes(raw map[string][]string) (map[string][]string, bool) {
	votes := make(map[string][]string, len(raw))
	for target, voters := range raw {
		target = strings.TrimSpace(target)
		if target == "" {
			return nil, false
		}
		if _, dup := votes[target]; dup {
			return nil, false
		}
		trimmed := make([]string, len(voters))
		for i, voter := range voters {
			trimmed[i] = strings.TrimSpace(voter)
		}
		votes[target] = trimmed
	}
	return votes, true
}

func deriveRewardChallenge(p RewardChallenge) []Derived {
	if len(p.WinnerIDs) == 0 {
		return []Derived{}
	}
	eventType := EventRewardChallengeWin
	description := "Won a reward challenge"
	if p.IsTeamChallenge {
		eventType = EventTeamChallengeWin
		description = "Won a team challenge"
	}

	seen := make(map[string]struct{}, len(p.WinnerIDs))
	events := make([]Derived, 0, len(p.WinnerIDs))
	for _, winner := range p.WinnerIDs {
		winner = strings.TrimSpace(winner)
		if winner == "" {
			return []Derived{}
		}
		if _, dup := seen[winner]; dup {
			return []Derived{}
		}
		seen[winner] = struct{}{}
		events = append(events, newDerived(eventType, winner, description))
	}
	return events
}

func sortDerived(events []Derived) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].ContestantID != events[j].ContestantID {
			return events[i].ContestantID < events[j].ContestantID
		}
		return events[i].Type < events[j].Type
	})
}
