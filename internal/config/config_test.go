package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "whot-stats", cfg.StatsServiceName)
	assert.Equal(t, 2*time.Second, cfg.TeardownGrace)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 10*time.Minute, cfg.TournamentRetention)
	assert.Equal(t, time.Duration(0), cfg.MatchClock, "match clock ships disabled")
	assert.Empty(t, cfg.ConsulAddr)
	assert.Empty(t, cfg.NATSURL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("CONSUL_ADDR", "consul:8500")
	t.Setenv("SESSION_IDLE_TTL", "45m")
	t.Setenv("MATCH_CLOCK", "10m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "consul:8500", cfg.ConsulAddr)
	assert.Equal(t, 45*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 10*time.Minute, cfg.MatchClock)
}

func TestLoadRejectsMalformedDurations(t *testing.T) {
	t.Setenv("SESSION_TEARDOWN_GRACE", "soon")
	_, err := Load()
	assert.Error(t, err)
}
