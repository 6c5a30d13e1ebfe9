package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "castaway_league", cfg.Database.Name)
	assert.Equal(t, 5*time.Minute, cfg.Leaderboard.CacheTTL)
	assert.Equal(t, 1000, cfg.Simulation.DefaultRuns)
	assert.Equal(t, 20000, cfg.Simulation.MaxRuns)
	assert.Equal(t, 1, cfg.Draft.MaxOwners)
	assert.Equal(t, 8, cfg.Leagues.InviteCodeLength)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	v.Set("LEADERBOARD_CACHE_TTL", "not-a-duration")
	v.Set("SIMULATION_SEED", 42)

	cfg := fromViper(v)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Leaderboard.CacheTTL)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
}

func TestLoadWithoutEnvFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}
