package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/pkg/jobs"
)

// JobTypeLeaderboardRefresh identifies queued leaderboard rebuilds.
const JobTypeLeaderboardRefresh = "leaderboard_refresh"

type leaderboardRebuilder interface {
	RefreshSeason(ctx context.Context, seasonID string) error
	InvalidateSeason(ctx context.Context, seasonID string) error
	ActiveSeasonIDs(ctx context.Context) ([]string, error)
}

// RefresherConfig tunes the background leaderboard refresher.
type RefresherConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	// Interval between full warmups of every active season. Zero disables the schedule.
	Interval time.Duration
}

// LeaderboardRefresher rebuilds cached leaderboards off the request path.
// Score changes enqueue one job per season; pending jobs for the same season coalesce.
type LeaderboardRefresher struct {
	boards   leaderboardRebuilder
	metrics  *MetricsService
	logger   *zap.Logger
	queue    *jobs.Queue
	interval time.Duration

	mu    sync.Mutex
	sched gocron.Scheduler
}

// NewLeaderboardRefresher constructs a refresher. Call Start before use.
func NewLeaderboardRefresher(boards leaderboardRebuilder, metrics *MetricsService, cfg RefresherConfig, logger *zap.Logger) *LeaderboardRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &LeaderboardRefresher{
		boards:   boards,
		metrics:  metrics,
		logger:   logger,
		interval: cfg.Interval,
	}
	r.queue = jobs.NewQueue("leaderboards", r.Handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return r
}

// Start launches the worker pool and, when an interval is set, the warmup schedule.
func (r *LeaderboardRefresher) Start(ctx context.Context) error {
	r.queue.Start(ctx)
	if r.interval <= 0 {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create leaderboard scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			r.Warm(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule leaderboard warmup: %w", err)
	}
	sched.Start()

	r.mu.Lock()
	r.sched = sched
	r.mu.Unlock()
	return nil
}

// Stop halts the schedule and drains the worker pool.
func (r *LeaderboardRefresher) Stop() {
	r.mu.Lock()
	sched := r.sched
	r.sched = nil
	r.mu.Unlock()
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			r.logger.Warn("leaderboard scheduler shutdown", zap.Error(err))
		}
	}
	r.queue.Stop()
}

// SeasonScoresChanged drops cached boards for the season and queues a rebuild.
func (r *LeaderboardRefresher) SeasonScoresChanged(ctx context.Context, seasonID string) {
	if err := r.boards.InvalidateSeason(ctx, seasonID); err != nil {
		r.logger.Warn("invalidate leaderboards", zap.String("season_id", seasonID), zap.Error(err))
	}
	r.enqueue(seasonID)
}

// Warm queues a rebuild for every active season.
func (r *LeaderboardRefresher) Warm(ctx context.Context) {
	ids, err := r.boards.ActiveSeasonIDs(ctx)
	if err != nil {
		r.logger.Warn("list active seasons", zap.Error(err))
		return
	}
	for _, id := range ids {
		r.enqueue(id)
	}
}

func (r *LeaderboardRefresher) enqueue(seasonID string) {
	err := r.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeLeaderboardRefresh,
		Key:     seasonID,
		Payload: seasonID,
	})
	if err != nil && !errors.Is(err, jobs.ErrDuplicate) {
		r.logger.Warn("enqueue leaderboard refresh", zap.String("season_id", seasonID), zap.Error(err))
	}
}

// Handle processes a queued refresh job.
func (r *LeaderboardRefresher) Handle(ctx context.Context, job jobs.Job) error {
	seasonID, ok := job.Payload.(string)
	if !ok || seasonID == "" {
		seasonID = job.Key
	}
	if seasonID == "" {
		return fmt.Errorf("leaderboard job %s has no season", job.ID)
	}
	err := r.boards.RefreshSeason(ctx, seasonID)
	r.metrics.RecordLeaderboardRefresh(string(ScopeSeason), err)
	return err
}
