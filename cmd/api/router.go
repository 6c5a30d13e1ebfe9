package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/handler"
	"github.com/noah-isme/castaway-league-api/internal/middleware"
	"github.com/noah-isme/castaway-league-api/internal/models"
	"github.com/noah-isme/castaway-league-api/internal/service"
	"github.com/noah-isme/castaway-league-api/pkg/config"
	"github.com/noah-isme/castaway-league-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/castaway-league-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/castaway-league-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth          middleware.TokenValidator
	audit         middleware.AuditStore
	metrics       *service.MetricsService
	authHandler   *handler.AuthHandler
	seasons       *handler.SeasonHandler
	gameEvents    *handler.GameEventHandler
	scoringEvents *handler.ScoringEventHandler
	leagues       *handler.LeagueHandler
	leaderboards  *handler.LeaderboardHandler
	simulations   *handler.SimulationHandler
	users         *handler.UserHandler
	metricsRoutes *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics", "/health"))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", deps.metricsRoutes.Health)
	r.GET("/metrics", deps.metricsRoutes.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.JWT(deps.auth)
	moderator := middleware.RequireModerator()

	auth := api.Group("/auth")
	auth.POST("/register", deps.authHandler.Register)
	auth.POST("/login", deps.authHandler.Login)
	auth.POST("/refresh", deps.authHandler.Refresh)
	auth.POST("/logout", authRequired, deps.authHandler.Logout)
	auth.GET("/me", authRequired, deps.authHandler.Me)

	catalog := api.Group("/catalog")
	catalog.GET("/events", handler.Catalog)
	catalog.GET("/game-events", handler.GameEventTypes)

	api.GET("/seasons", deps.seasons.List)
	api.GET("/seasons/:id", deps.seasons.Get)
	api.GET("/seasons/:id/tribes", deps.seasons.Tribes)
	api.GET("/seasons/:id/contestants", deps.seasons.Contestants)
	api.GET("/seasons/:id/leaderboard", deps.leaderboards.Season)
	api.GET("/seasons/:id/leaderboard/export", deps.leaderboards.ExportSeason)
	api.GET("/contestants/:id", deps.seasons.Contestant)

	gameEvents := api.Group("/game-events", authRequired)
	gameEvents.GET("", deps.gameEvents.List)
	gameEvents.POST("", deps.gameEvents.Submit)
	gameEvents.POST("/preview", deps.gameEvents.Preview)
	gameEvents.GET("/:id", deps.gameEvents.Get)
	gameEvents.PUT("/:id", deps.gameEvents.Update)
	gameEvents.POST("/:id/review", moderator, deps.gameEvents.Review)
	gameEvents.DELETE("/:id", moderator, deps.gameEvents.Delete)

	scoringEvents := api.Group("/scoring-events", authRequired)
	scoringEvents.GET("", deps.scoringEvents.List)
	scoringEvents.POST("", deps.scoringEvents.Submit)
	scoringEvents.GET("/:id", deps.scoringEvents.Get)
	scoringEvents.POST("/:id/review", moderator, deps.scoringEvents.Review)
	scoringEvents.DELETE("/:id", moderator, deps.scoringEvents.Delete)

	leagues := api.Group("/leagues", authRequired)
	leagues.GET("", deps.leagues.Mine)
	leagues.POST("", deps.leagues.Create)
	leagues.POST("/join", deps.leagues.Join)
	leagues.GET("/:id", deps.leagues.Get)
	leagues.GET("/:id/teams", deps.leagues.Teams)
	leagues.GET("/:id/draft", deps.leagues.DraftState)
	leagues.POST("/:id/draft", deps.leagues.StartDraft)
	leagues.POST("/:id/draft/picks", deps.leagues.Pick)
	leagues.GET("/:id/leaderboard", deps.leaderboards.League)
	leagues.GET("/:id/leaderboard/export", deps.leaderboards.ExportLeague)

	simulations := api.Group("/simulations", authRequired)
	simulations.POST("/season-scores", middleware.Audit(deps.audit, logr, models.AuditActionSeasonRescore, "simulation", ""), deps.simulations.ScoreSeason)
	simulations.POST("/drafts", middleware.Audit(deps.audit, logr, models.AuditActionSimulationRun, "simulation", ""), deps.simulations.Run)

	users := api.Group("/users", authRequired, middleware.RequireRoles(models.RoleAdmin))
	users.GET("", deps.users.List)
	users.GET("/:id", deps.users.Get)
	users.PATCH("/:id/role", deps.users.UpdateRole)
	users.PATCH("/:id/status", deps.users.UpdateStatus)

	admin := api.Group("/metrics", authRequired, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/system", deps.metricsRoutes.System)

	return r
}
