package scoring

// Entry is the minimal view of a scoring event the aggregator needs.
// Only approved entries contribute to any total.
type Entry struct {
	ContestantID string    `json:"contestantId"`
	Type         EventType `json:"type"`
	Week         int       `json:"week"`
	Points       int       `json:"points"`
	Approved     bool      `json:"approved"`
}

// TotalPoints sums points over approved entries. Negative points count as-is.
func TotalPoints(entries []Entry) int {
	total := 0
	for _, e := range entries {
		if e.Approved {
			total += e.Points
		}
	}
	return total
}

// PointsByWeek groups approved points by week. Weeks without an approved
// entry are absent from the result.
func PointsByWeek(entries []Entry) map[int]int {
	byWeek := make(map[int]int)
	for _, e := range entries {
		if e.Approved {
			byWeek[e.Week] += e.Points
		}
	}
	return byWeek
}

// PointsByContestant groups approved points by contestant.
func PointsByContestant(entries []Entry) map[string]int {
	byContestant := make(map[string]int)
	for _, e := range entries {
		if e.Approved {
			byContestant[e.ContestantID] += e.Points
		}
	}
	return byContestant
}

// PointsByType groups approved points by event type.
func PointsByType(entries []Entry) map[EventType]int {
	byType := make(map[EventType]int)
	for _, e := range entries {
		if e.Approved {
			byType[e.Type] += e.Points
		}
	}
	return byType
}

// TeamScore sums TotalPoints across each rostered contestant's entries.
func TeamScore(perContestant [][]Entry) int {
	total := 0
	for _, entries := range perContestant {
		total += TotalPoints(entries)
	}
	return total
}
