package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/castaway-league-api/api/swagger"
	"github.com/noah-isme/castaway-league-api/internal/dto"
	"github.com/noah-isme/castaway-league-api/internal/handler"
	"github.com/noah-isme/castaway-league-api/internal/repository"
	"github.com/noah-isme/castaway-league-api/internal/service"
	"github.com/noah-isme/castaway-league-api/pkg/cache"
	"github.com/noah-isme/castaway-league-api/pkg/config"
	"github.com/noah-isme/castaway-league-api/pkg/database"
	"github.com/noah-isme/castaway-league-api/pkg/export"
	"github.com/noah-isme/castaway-league-api/pkg/logger"
)

// @title Castaway League API
// @version 1.0.0
// @description Fantasy league backend for a reality survival competition
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Leaderboard.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, leaderboard cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	seasons := repository.NewSeasonRepository(db)
	leagues := repository.NewLeagueRepository(db)
	drafts := repository.NewDraftRepository(db)
	scoringEvents := repository.NewScoringEventRepository(db)
	gameEvents := repository.NewGameEventRepository(db)
	history := repository.NewHistoryRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Leaderboard.CacheTTL, logr, cacheRepo.Enabled())
	exporters := map[dto.ExportFormat]service.Exporter{
		dto.ExportFormatCSV: export.NewCSVExporter(),
		dto.ExportFormatPDF: export.NewPDFExporter(),
	}
	boards := service.NewLeaderboardService(scoringEvents, seasons, leagues, cacheSvc, exporters, cfg.Leaderboard.CacheTTL, logr)

	refresher := service.NewLeaderboardRefresher(boards, metrics, service.RefresherConfig{
		Workers:    cfg.Leaderboard.Workers,
		MaxRetries: cfg.Leaderboard.WorkerRetries,
		Interval:   cfg.Leaderboard.RefreshInterval,
	}, logr)
	if err := refresher.Start(ctx); err != nil {
		logr.Fatal("leaderboard refresher failed to start", zap.Error(err))
	}
	defer refresher.Stop()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "castaway-league-api",
	})
	seasonSvc := service.NewSeasonService(seasons, logr)
	gameEventSvc := service.NewGameEventService(gameEvents, seasons, users, refresher, metrics, validate, logr)
	scoringEventSvc := service.NewScoringEventService(scoringEvents, seasons, users, refresher, metrics, validate, logr)
	leagueSvc := service.NewLeagueService(leagues, drafts, seasons, users, validate, logr, service.LeagueConfig{
		InviteCodeLength: cfg.Leagues.InviteCodeLength,
		DefaultPicks:     cfg.Draft.DefaultPicks,
		DefaultMaxOwners: cfg.Draft.MaxOwners,
	})
	draftSvc := service.NewDraftService(drafts, leagues, seasons, users, refresher, metrics, validate, logr)
	simulationSvc := service.NewSimulationService(history, metrics, validate, logr, service.SimulationConfig{
		DefaultRuns:   cfg.Simulation.DefaultRuns,
		MaxRuns:       cfg.Simulation.MaxRuns,
		HistogramBins: cfg.Simulation.HistogramBins,
		Seed:          cfg.Simulation.Seed,
	})

	userSvc := service.NewUserService(users, validate, logr)

	r := newRouter(cfg, logr, routerDeps{
		auth:          authSvc,
		audit:         users,
		metrics:       metrics,
		authHandler:   handler.NewAuthHandler(authSvc),
		seasons:       handler.NewSeasonHandler(seasonSvc),
		gameEvents:    handler.NewGameEventHandler(gameEventSvc),
		scoringEvents: handler.NewScoringEventHandler(scoringEventSvc),
		leagues:       handler.NewLeagueHandler(leagueSvc, draftSvc),
		leaderboards:  handler.NewLeaderboardHandler(boards),
		simulations:   handler.NewSimulationHandler(simulationSvc),
		users:         handler.NewUserHandler(userSvc),
		metricsRoutes: handler.NewMetricsHandler(metrics),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
