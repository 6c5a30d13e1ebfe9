package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/noah-isme/castaway-league-api/internal/draft"
	"github.com/noah-isme/castaway-league-api/internal/scoring"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
)

const defaultHistogramBins = 20

// DraftConfig shapes every simulated league.
type DraftConfig struct {
	Players                int `json:"players"`
	PicksPerPlayer         int `json:"picksPerPlayer"`
	MaxOwnersPerContestant int `json:"maxOwnersPerContestant"`
}

// Options controls a Monte Carlo run. Seed 0 draws a fresh seed.
type Options struct {
	Runs          int       `json:"runs"`
	Seed          int64     `json:"seed"`
	HistogramBins int       `json:"histogramBins"`
	Overrides     Overrides `json:"overrides,omitempty"`
}

// Stats summarises the team score sample.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	StdDev float64 `json:"stdDev"`
}

// Bucket is one histogram bin covering [Lower, Upper); the last bin is closed.
type Bucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Contribution is the share of drafted points earned by one event type.
// Percent is taken over the absolute point volume so deductions show up.
type Contribution struct {
	Type    scoring.EventType `json:"type"`
	Points  int               `json:"points"`
	Percent float64           `json:"percent"`
}

// Result is the aggregate of a Monte Carlo run.
type Result struct {
	Runs          int            `json:"runs"`
	Seed          int64          `json:"seed"`
	Samples       int            `json:"samples"`
	SkippedPicks  int            `json:"skippedPicks"`
	SeasonCounts  map[string]int `json:"seasonCounts"`
	Stats         Stats          `json:"stats"`
	Histogram     []Bucket       `json:"histogram"`
	Contributions []Contribution `json:"contributions"`
}

// Validate checks the draft shape against every season in the pool.
func (c DraftConfig) Validate(seasons []Season) error {
	if c.Players < 1 || c.PicksPerPlayer < 1 || c.MaxOwnersPerContestant < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "players, picksPerPlayer and maxOwnersPerContestant must be at least 1")
	}
	if len(seasons) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one season is required")
	}
	for _, season := range seasons {
		n := len(season.ContestantIDs())
		if n < c.PicksPerPlayer {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("season %s has %d contestants, fewer than %d picks per player", season.ID, n, c.PicksPerPlayer))
		}
		if n*c.MaxOwnersPerContestant < c.Players*c.PicksPerPlayer {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("season %s cannot fill %d rosters of %d with %d owners per contestant", season.ID, c.Players, c.PicksPerPlayer, c.MaxOwnersPerContestant))
		}
	}
	return nil
}

type scoredSeason struct {
	id     string
	totals []int
	byType []map[scoring.EventType]int
}

func prepare(seasons []Season, table map[scoring.EventType]int) ([]scoredSeason, error) {
	prepared := make([]scoredSeason, 0, len(seasons))
	for _, season := range seasons {
		scores, err := scoreWithTable(season, table)
		if err != nil {
			return nil, err
		}
		sort.Slice(scores.Contestants, func(i, j int) bool {
			return scores.Contestants[i].ContestantID < scores.Contestants[j].ContestantID
		})
		s := scoredSeason{id: season.ID}
		for _, c := range scores.Contestants {
			s.totals = append(s.totals, c.Total)
			s.byType = append(s.byType, c.ByType)
		}
		prepared = append(prepared, s)
	}
	return prepared, nil
}

// Run simulates opts.Runs randomized snake drafts. Each run draws one season
// uniformly, fills every roster by uniform choice among contestants still
// under the owner cap and not already on the picking team, and records one
// team score per player.
func Run(seasons []Season, cfg DraftConfig, opts Options) (Result, error) {
	if opts.Runs < 1 {
		return Result{}, appErrors.Clone(appErrors.ErrValidation, "runs must be at least 1")
	}
	if err := cfg.Validate(seasons); err != nil {
		return Result{}, err
	}
	table, err := opts.Overrides.PointTable()
	if err != nil {
		return Result{}, err
	}
	prepared, err := prepare(seasons, table)
	if err != nil {
		return Result{}, err
	}

	seed := opts.Seed
	if seed == 0 {
		if seed, err = NewSeed(); err != nil {
			return Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed simulation")
		}
	}
	rng := rand.New(rand.NewSource(seed))

	result := Result{Runs: opts.Runs, Seed: seed, SeasonCounts: make(map[string]int)}
	samples := make([]int, 0, opts.Runs*cfg.Players)
	byType := make(map[scoring.EventType]int)
	total := draft.TotalPicks(cfg.Players, cfg.PicksPerPlayer)

	for run := 0; run < opts.Runs; run++ {
		season := prepared[rng.Intn(len(prepared))]
		result.SeasonCounts[season.id]++

		owners := make([]int, len(season.totals))
		rosters := make([]map[int]struct{}, cfg.Players)
		for i := range rosters {
			rosters[i] = make(map[int]struct{}, cfg.PicksPerPlayer)
		}
		candidates := make([]int, 0, len(season.totals))
		for pick := 0; pick < total; pick++ {
			slot := draft.SlotForPick(pick, cfg.Players)
			candidates = candidates[:0]
			for idx := range season.totals {
				if owners[idx] >= cfg.MaxOwnersPerContestant {
					continue
				}
				if _, taken := rosters[slot][idx]; taken {
					continue
				}
				candidates = append(candidates, idx)
			}
			if len(candidates) == 0 {
				result.SkippedPicks++
				continue
			}
			chosen := candidates[rng.Intn(len(candidates))]
			owners[chosen]++
			rosters[slot][chosen] = struct{}{}
		}

		for _, roster := range rosters {
			score := 0
			members := make([]int, 0, len(roster))
			for idx := range roster {
				members = append(members, idx)
			}
			sort.Ints(members)
			for _, idx := range members {
				score += season.totals[idx]
				for t, pts := range season.byType[idx] {
					byType[t] += pts
				}
			}
			samples = append(samples, score)
		}
	}

	bins := opts.HistogramBins
	if bins <= 0 {
		bins = defaultHistogramBins
	}
	result.Samples = len(samples)
	result.Stats = Summarize(samples)
	result.Histogram = Histogram(samples, bins)
	result.Contributions = Contributions(byType)
	return result, nil
}

// Summarize computes summary statistics. Quartiles use linear interpolation
// between closest ranks.
func Summarize(samples []int) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	sorted := append([]int(nil), samples...)
	sort.Ints(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += float64(v)
	}
	mean := sum / float64(len(sorted))
	variance := 0.0
	for _, v := range sorted {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	return Stats{
		Mean:   mean,
		Median: quantile(sorted, 0.5),
		Q1:     quantile(sorted, 0.25),
		Q3:     quantile(sorted, 0.75),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(variance),
	}
}

func quantile(sorted []int, q float64) float64 {
	if len(sorted) == 1 {
		return float64(sorted[0])
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
}

// Histogram buckets samples into bins equal-width bins spanning [min, max].
// A constant sample yields a single bucket.
func Histogram(samples []int, bins int) []Bucket {
	if len(samples) == 0 || bins <= 0 {
		return []Bucket{}
	}
	lo, hi := samples[0], samples[0]
	for _, v := range samples {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []Bucket{{Lower: float64(lo), Upper: float64(hi), Count: len(samples)}}
	}

	width := float64(hi-lo) / float64(bins)
	buckets := make([]Bucket, bins)
	for i := range buckets {
		buckets[i].Lower = float64(lo) + float64(i)*width
		buckets[i].Upper = float64(lo) + float64(i+1)*width
	}
	buckets[bins-1].Upper = float64(hi)
	for _, v := range samples {
		idx := int(float64(v-lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

// Contributions orders event types by absolute points, largest first.
func Contributions(byType map[scoring.EventType]int) []Contribution {
	volume := 0
	for _, pts := range byType {
		volume += abs(pts)
	}
	out := make([]Contribution, 0, len(byType))
	for _, t := range scoring.EventTypes() {
		pts, ok := byType[t]
		if !ok || pts == 0 {
			continue
		}
		c := Contribution{Type: t, Points: pts}
		if volume > 0 {
			c.Percent = float64(abs(pts)) * 100 / float64(volume)
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].Points) > abs(out[j].Points)
	})
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
