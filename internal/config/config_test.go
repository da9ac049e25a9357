package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JACKPOT_JWT_SECRET", "test-secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Game.MinBettors)
	assert.Equal(t, 60*time.Second, cfg.Game.CountdownWindow)
	assert.Equal(t, 3*time.Second, cfg.Game.SpinDuration)
	assert.Equal(t, 10*time.Second, cfg.Game.FinishGrace)
	assert.Equal(t, float64(1000), cfg.Game.StartingBalance)
	assert.Equal(t, int32(2), cfg.Game.AmountPrecision)
	assert.Equal(t, 5, cfg.Settlement.MaxAttempts)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JACKPOT_JWT_SECRET", "s")
	t.Setenv("JACKPOT_GAME_COUNTDOWN_WINDOW", "30s")
	t.Setenv("JACKPOT_GAME_MIN_BETTORS", "3")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Game.CountdownWindow)
	assert.Equal(t, 3, cfg.Game.MinBettors)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("JACKPOT_JWT_SECRET", "")

	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestValidateThreshold(t *testing.T) {
	t.Setenv("JACKPOT_JWT_SECRET", "s")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	cfg.Game.MinBettors = 1
	assert.Error(t, cfg.Validate())
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("JACKPOT_TEST_FLAG", "true")
	assert.True(t, GetEnvAsBool("JACKPOT_TEST_FLAG", false))

	t.Setenv("JACKPOT_TEST_FLAG", "nope")
	assert.False(t, GetEnvAsBool("JACKPOT_TEST_FLAG", false))
	assert.Equal(t, "fallback", GetEnv("JACKPOT_UNSET_KEY", "fallback"))

	t.Setenv("JACKPOT_TEST_WAIT", "45s")
	assert.Equal(t, 45*time.Second, GetEnvAsDuration("JACKPOT_TEST_WAIT", time.Second))
	t.Setenv("JACKPOT_TEST_WAIT", "soon")
	assert.Equal(t, time.Second, GetEnvAsDuration("JACKPOT_TEST_WAIT", time.Second))
}
