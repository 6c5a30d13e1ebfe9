package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

func sampleSeason() Season {
	return Season{
		ID:          "s1",
		Name:        "Borneo",
		Contestants: []string{"c1", "c2", "c3", "c4"},
		Events: []HistoricalEvent{
			{Episode: 1, ContestantID: "c1", Type: scoring.EventCorrectVote},
			{Episode: 2, ContestantID: "c2", Type: scoring.EventQuit},
			{Episode: 3, ContestantID: "c4", Type: scoring.EventIdolFind},
			{Episode: 13, ContestantID: "c1", Type: scoring.EventWinner},
		},
	}
}

func TestScoreSeasonDefaultCatalog(t *testing.T) {
	scores, err := ScoreSeason(sampleSeason(), nil)
	require.NoError(t, err)
	require.Len(t, scores.Contestants, 4)

	first := scores.Contestants[0]
	assert.Equal(t, "c1", first.ContestantID)
	assert.Equal(t, 22, first.Total)
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 20, first.ByType[scoring.EventWinner])
	assert.Equal(t, map[int]int{1: 2, 13: 20}, first.ByEpisode)

	assert.Equal(t, "c4", scores.Contestants[1].ContestantID)
	assert.Equal(t, "c3", scores.Contestants[2].ContestantID)
	assert.Equal(t, 0, scores.Contestants[2].Total)
	assert.Equal(t, "c2", scores.Contestants[3].ContestantID)
	assert.Equal(t, -10, scores.Contestants[3].Total)
}

func TestScoreSeasonOverrides(t *testing.T) {
	scores, err := ScoreSeason(sampleSeason(), Overrides{scoring.EventWinner: 30, scoring.EventQuit: 0})
	require.NoError(t, err)
	assert.Equal(t, 32, scores.Contestants[0].Total)

	var c2 ContestantScore
	for _, c := range scores.Contestants {
		if c.ContestantID == "c2" {
			c2 = c
		}
	}
	assert.Equal(t, 0, c2.Total)
	assert.Equal(t, 3, c2.Rank)
}

func TestScoreSeasonTiesShareRank(t *testing.T) {
	season := Season{ID: "s", Contestants: []string{"a", "b", "c"}, Events: []HistoricalEvent{
		{Episode: 1, ContestantID: "a", Type: scoring.EventIdolFind},
		{Episode: 1, ContestantID: "b", Type: scoring.EventIdolFind},
	}}
	scores, err := ScoreSeason(season, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, scores.Contestants[0].Rank)
	assert.Equal(t, 1, scores.Contestants[1].Rank)
	assert.Equal(t, 3, scores.Contestants[2].Rank)
}

func TestScoreSeasonRejectsUnknownTypes(t *testing.T) {
	_, err := ScoreSeason(sampleSeason(), Overrides{"BOGUS": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnknownEventType))

	season := sampleSeason()
	season.Events = append(season.Events, HistoricalEvent{Episode: 4, ContestantID: "c3", Type: "BOGUS"})
	_, err = ScoreSeason(season, nil)
	assert.True(t, errors.Is(err, appErrors.ErrUnknownEventType))
}

func TestDraftConfigValidate(t *testing.T) {
	seasons := []Season{sampleSeason()}

	assert.NoError(t, DraftConfig{Players: 2, PicksPerPlayer: 2, MaxOwnersPerContestant: 1}.Validate(seasons))
	assert.NoError(t, DraftConfig{Players: 4, PicksPerPlayer: 2, MaxOwnersPerContestant: 2}.Validate(seasons))

	cases := []DraftConfig{
		{Players: 0, PicksPerPlayer: 1, MaxOwnersPerContestant: 1},
		{Players: 3, PicksPerPlayer: 2, MaxOwnersPerContestant: 1},
		{Players: 1, PicksPerPlayer: 5, MaxOwnersPerContestant: 5},
	}
	for _, cfg := range cases {
		err := cfg.Validate(seasons)
		require.Error(t, err, "%+v", cfg)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	}
	assert.Error(t, DraftConfig{Players: 1, PicksPerPlayer: 1, MaxOwnersPerContestant: 1}.Validate(nil))
}

func TestRunIsReproducibleForSeed(t *testing.T) {
	seasons := []Season{sampleSeason(), {ID: "s2", Contestants: []string{"x", "y", "z", "w"}, Events: []HistoricalEvent{
		{Episode: 1, ContestantID: "x", Type: scoring.EventIndividualImmunityWin},
		{Episode: 2, ContestantID: "y", Type: scoring.EventMadeMerge},
	}}}
	cfg := DraftConfig{Players: 2, PicksPerPlayer: 2, MaxOwnersPerContestant: 1}
	opts := Options{Runs: 200, Seed: 42, HistogramBins: 5}

	first, err := Run(seasons, cfg, opts)
	require.NoError(t, err)
	second, err := Run(seasons, cfg, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(42), first.Seed)
	assert.Equal(t, 400, first.Samples)
	assert.Equal(t, 200, first.SeasonCounts["s1"]+first.SeasonCounts["s2"])
	assert.Zero(t, first.SkippedPicks)

	histogramTotal := 0
	for _, b := range first.Histogram {
		histogramTotal += b.Count
	}
	assert.Equal(t, first.Samples, histogramTotal)
}

func TestRunFullDraftScoresWholeSeason(t *testing.T) {
	cfg := DraftConfig{Players: 1, PicksPerPlayer: 4, MaxOwnersPerContestant: 1}
	result, err := Run([]Season{sampleSeason()}, cfg, Options{Runs: 10, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, 16.0, result.Stats.Mean)
	assert.Equal(t, 16, result.Stats.Min)
	assert.Equal(t, 16, result.Stats.Max)
	assert.Equal(t, 0.0, result.Stats.StdDev)
	require.Len(t, result.Histogram, 1)
	assert.Equal(t, 10, result.Histogram[0].Count)

	require.NotEmpty(t, result.Contributions)
	assert.Equal(t, scoring.EventWinner, result.Contributions[0].Type)
	assert.Equal(t, 200, result.Contributions[0].Points)
}

func TestRunAppliesOverrides(t *testing.T) {
	cfg := DraftConfig{Players: 1, PicksPerPlayer: 4, MaxOwnersPerContestant: 1}
	result, err := Run([]Season{sampleSeason()}, cfg, Options{Runs: 3, Seed: 1, Overrides: Overrides{scoring.EventWinner: 0}})
	require.NoError(t, err)
	assert.Equal(t, -4.0, result.Stats.Mean)
}

func TestRunDrawsSeedWhenUnset(t *testing.T) {
	cfg := DraftConfig{Players: 2, PicksPerPlayer: 1, MaxOwnersPerContestant: 1}
	result, err := Run([]Season{sampleSeason()}, cfg, Options{Runs: 1})
	require.NoError(t, err)
	assert.NotZero(t, result.Seed)
}

func TestRunRejectsZeroRuns(t *testing.T) {
	cfg := DraftConfig{Players: 2, PicksPerPlayer: 1, MaxOwnersPerContestant: 1}
	_, err := Run([]Season{sampleSeason()}, cfg, Options{Runs: 0, Seed: 1})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSummarize(t *testing.T) {
	stats := Summarize([]int{4, 1, 3, 2})
	assert.Equal(t, 2.5, stats.Mean)
	assert.Equal(t, 2.5, stats.Median)
	assert.Equal(t, 1.75, stats.Q1)
	assert.Equal(t, 3.25, stats.Q3)
	assert.Equal(t, 1, stats.Min)
	assert.Equal(t, 4, stats.Max)
	assert.InDelta(t, math.Sqrt(1.25), stats.StdDev, 1e-9)

	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestHistogram(t *testing.T) {
	buckets := Histogram([]int{0, 10, 5, 5}, 2)
	require.Len(t, buckets, 2)
	assert.Equal(t, Bucket{Lower: 0, Upper: 5, Count: 1}, buckets[0])
	assert.Equal(t, Bucket{Lower: 5, Upper: 10, Count: 3}, buckets[1])

	assert.Empty(t, Histogram(nil, 5))
	assert.Equal(t, []Bucket{{Lower: 3, Upper: 3, Count: 2}}, Histogram([]int{3, 3}, 4))
}

func TestContributionsUseAbsoluteVolume(t *testing.T) {
	got := Contributions(map[scoring.EventType]int{
		scoring.EventWinner:      20,
		scoring.EventQuit:        -10,
		scoring.EventCorrectVote: 10,
		scoring.EventMadeJury:    0,
	})
	require.Len(t, got, 3)
	assert.Equal(t, Contribution{Type: scoring.EventWinner, Points: 20, Percent: 50}, got[0])
	assert.Equal(t, Contribution{Type: scoring.EventCorrectVote, Points: 10, Percent: 25}, got[1])
	assert.Equal(t, Contribution{Type: scoring.EventQuit, Points: -10, Percent: 25}, got[2])
}
