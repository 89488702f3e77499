package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the whole process configuration, read from the environment.
// A .env file in the working directory is loaded first when present.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Collaborators. Empty values disable the integration; the realtime
	// core runs fine without any of them.
	ConsulAddr        string `env:"CONSUL_ADDR"`
	NATSURL           string `env:"NATS_URL"`
	StatsServiceName  string `env:"STATS_SERVICE_NAME" envDefault:"whot-stats"`
	StatsFallbackAddr string `env:"STATS_FALLBACK_ADDR"`
	PaymentVerifyURL  string `env:"PAYMENT_VERIFY_URL"`

	// Lifecycle tuning.
	TeardownGrace       time.Duration `env:"SESSION_TEARDOWN_GRACE" envDefault:"2s"`
	SessionIdleTTL      time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	TournamentRetention time.Duration `env:"TOURNAMENT_RETENTION" envDefault:"10m"`
	MatchClock          time.Duration `env:"MATCH_CLOCK" envDefault:"0"`

	DiscoveryTTL time.Duration `env:"DISCOVERY_TTL" envDefault:"30s"`
}

// Load reads .env (optional) and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] no .env file found, reading environment directly")
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
