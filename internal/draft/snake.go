// Package draft implements snake-draft turn arithmetic. Picks are zero-based
// and rounds reverse direction: with teams A, B, C the order is A B C C B A A ...
package draft

import "math/rand"

// SlotForPick returns the index into the draft order that owns pick.
func SlotForPick(pick, teams int) int {
	if teams <= 0 || pick < 0 {
		return -1
	}
	round := pick / teams
	pos := pick % teams
	if round%2 == 1 {
		return teams - 1 - pos
	}
	return pos
}

// Round returns the 1-based round that pick belongs to.
func Round(pick, teams int) int {
	if teams <= 0 || pick < 0 {
		return 0
	}
	return pick/teams + 1
}

// TotalPicks is the number of picks in a full draft.
func TotalPicks(teams, picksPerTeam int) int {
	if teams <= 0 || picksPerTeam <= 0 {
		return 0
	}
	return teams * picksPerTeam
}

// IsComplete reports whether pick is past the final pick.
func IsComplete(pick, teams, picksPerTeam int) bool {
	return pick >= TotalPicks(teams, picksPerTeam)
}

// TeamForPick resolves the team on the clock for pick.
func TeamForPick(order []string, pick int) (string, bool) {
	slot := SlotForPick(pick, len(order))
	if slot < 0 {
		return "", false
	}
	return order[slot], true
}

// Shuffle returns a randomly permuted copy of order.
func Shuffle(order []string, rng *rand.Rand) []string {
	shuffled := append([]string(nil), order...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}
