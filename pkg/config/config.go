package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Leaderboard LeaderboardConfig
	Simulation  SimulationConfig
	Draft       DraftConfig
	Leagues     LeagueConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LeaderboardConfig governs leaderboard caching and background refresh.
type LeaderboardConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	Workers         int
	WorkerRetries   int
}

// SimulationConfig bounds Monte Carlo runs accepted from the API.
type SimulationConfig struct {
	DefaultRuns   int
	MaxRuns       int
	HistogramBins int
	Seed          int64
}

// DraftConfig holds defaults applied when a league starts its draft.
type DraftConfig struct {
	DefaultPicks int
	MaxOwners    int
}

// LeagueConfig controls invite code generation.
type LeagueConfig struct {
	InviteCodeLength int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Leaderboard = LeaderboardConfig{
		CacheEnabled:    v.GetBool("LEADERBOARD_CACHE_ENABLED"),
		CacheTTL:        parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 5*time.Minute),
		RefreshInterval: parseDuration(v.GetString("LEADERBOARD_REFRESH_INTERVAL"), 15*time.Minute),
		Workers:         v.GetInt("LEADERBOARD_WORKERS"),
		WorkerRetries:   v.GetInt("LEADERBOARD_WORKER_RETRIES"),
	}

	cfg.Simulation = SimulationConfig{
		DefaultRuns:   v.GetInt("SIMULATION_DEFAULT_RUNS"),
		MaxRuns:       v.GetInt("SIMULATION_MAX_RUNS"),
		HistogramBins: v.GetInt("SIMULATION_HISTOGRAM_BINS"),
		Seed:          v.GetInt64("SIMULATION_SEED"),
	}

	cfg.Draft = DraftConfig{
		DefaultPicks: v.GetInt("DRAFT_DEFAULT_PICKS"),
		MaxOwners:    v.GetInt("DRAFT_MAX_OWNERS"),
	}

	cfg.Leagues = LeagueConfig{
		InviteCodeLength: v.GetInt("INVITE_CODE_LENGTH"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "castaway_league")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LEADERBOARD_CACHE_ENABLED", false)
	v.SetDefault("LEADERBOARD_CACHE_TTL", "5m")
	v.SetDefault("LEADERBOARD_REFRESH_INTERVAL", "15m")
	v.SetDefault("LEADERBOARD_WORKERS", 1)
	v.SetDefault("LEADERBOARD_WORKER_RETRIES", 3)

	v.SetDefault("SIMULATION_DEFAULT_RUNS", 1000)
	v.SetDefault("SIMULATION_MAX_RUNS", 20000)
	v.SetDefault("SIMULATION_HISTOGRAM_BINS", 20)
	v.SetDefault("SIMULATION_SEED", 0)

	v.SetDefault("DRAFT_DEFAULT_PICKS", 2)
	v.SetDefault("DRAFT_MAX_OWNERS", 1)

	v.SetDefault("INVITE_CODE_LENGTH", 8)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
