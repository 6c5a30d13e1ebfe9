package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

// GameEventType tags a compound in-game occurrence.
type GameEventType string

const (
	GameTribalCouncil     GameEventType = "TRIBAL_COUNCIL"
	GameQuit              GameEventType = "QUIT"
	GameMedevac           GameEventType = "MEDEVAC"
	GameImmunityChallenge GameEventType = "IMMUNITY_CHALLENGE"
	GameRewardChallenge   GameEventType = "REWARD_CHALLENGE"
	GameIdolFind          GameEventType = "IDOL_FIND"
	GameIdolPlaySuccess   GameEventType = "IDOL_PLAY_SUCCESS"
	GameFireMakingWin     GameEventType = "FIRE_MAKING_WIN"
)

var gameEventTypes = []GameEventType{
	GameTribalCouncil,
	GameQuit,
	GameMedevac,
	GameImmunityChallenge,
	GameRewardChallenge,
	GameIdolFind,
	GameIdolPlaySuccess,
	GameFireMakingWin,
}

// GameEventTypes lists the supported compound occurrence tags.
func GameEventTypes() []GameEventType {
	return append([]GameEventType(nil), gameEventTypes...)
}

// ValidGameEventType reports whether t is supported.
func ValidGameEventType(t GameEventType) bool {
	for _, known := range gameEventTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Payload is the type-specific body of a game event. The set of
// implementations is closed to this package.
type Payload interface {
	isPayload()
}

// TribalCouncil records who went home and how the votes fell. Votes maps each
// contestant at tribal to the contestants who voted for them; an empty list
// means the contestant attended and received no votes.
type TribalCouncil struct {
	EliminatedID      string              `json:"eliminated"`
	Votes             map[string][]string `json:"votes,omitempty"`
	EliminatedHadIdol bool                `json:"eliminatedHadIdol,omitempty"`
}

// Departure covers a contestant leaving the game outside a vote.
type Departure struct {
	ContestantID string `json:"contestantId"`
}

// ImmunityChallenge names the individual immunity winner.
type ImmunityChallenge struct {
	WinnerID string `json:"winner"`
}

// RewardChallenge lists reward winners; team challenges score every member.
type RewardChallenge struct {
	WinnerIDs       []string `json:"winners"`
	IsTeamChallenge bool     `json:"isTeamChallenge"`
}

// Individual is a single-contestant occurrence such as an idol find.
type Individual struct {
	ContestantID string `json:"contestantId"`
}

func (TribalCouncil) isPayload()     {}
func (Departure) isPayload()         {}
func (ImmunityChallenge) isPayload() {}
func (RewardChallenge) isPayload()   {}
func (Individual) isPayload()        {}

func validationError(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(format, args...))
}

// DecodePayload parses raw JSON into the payload variant for t. Unknown
// fields and missing contestant ids are validation errors; consistency
// between fields is left to Derive.
func DecodePayload(t GameEventType, raw json.RawMessage) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, validationError("payload is required")
	}
	switch t {
	case GameTribalCouncil:
		var p TribalCouncil
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.EliminatedID) == "" {
			return nil, validationError("tribal council payload requires eliminated")
		}
		return p, nil
	case GameQuit, GameMedevac:
		var p Departure
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.ContestantID) == "" {
			return nil, validationError("%s payload requires contestantId", strings.ToLower(string(t)))
		}
		return p, nil
	case GameImmunityChallenge:
		var p ImmunityChallenge
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.WinnerID) == "" {
			return nil, validationError("immunity challenge payload requires winner")
		}
		return p, nil
	case GameRewardChallenge:
		var p RewardChallenge
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case GameIdolFind, GameIdolPlaySuccess, GameFireMakingWin:
		var p Individual
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.ContestantID) == "" {
			return nil, validationError("%s payload requires contestantId", strings.ToLower(string(t)))
		}
		return p, nil
	default:
		return nil, validationError("unsupported game event type: %q", string(t))
	}
}

func decodeStrict(raw json.RawMessage, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid game event payload")
	}
	return nil
}
