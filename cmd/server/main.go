package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	consul "github.com/hashicorp/consul/api"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/config"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/coordinator"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/network"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/services/payment"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/services/stats"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/session"
	"github.com/vortex-hue/dex-naija-whot-backend/internal/tournament"
)

// xpChampion is the bonus awarded on top of per-match XP when a bracket
// closes.
const xpChampion = 250

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] config: %v", err)
	}

	var consulClient *consul.Client
	if cfg.ConsulAddr != "" {
		cc := consul.DefaultConfig()
		cc.Address = cfg.ConsulAddr
		consulClient, err = consul.NewClient(cc)
		if err != nil {
			log.Printf("[Server] consul unavailable, running with static addresses: %v", err)
			consulClient = nil
		}
	}

	publisher, err := stats.Connect(cfg.NATSURL)
	if err != nil {
		log.Printf("[Server] NATS unavailable, outcome feed disabled: %v", err)
		publisher = stats.NewPublisher(nil)
	}
	defer publisher.Close()

	cache := stats.NewDiscoveryCache(consulClient, cfg.DiscoveryTTL)
	statsClient := stats.NewClient(cache, cfg.StatsServiceName, cfg.StatsFallbackAddr)

	// The hub does not exist yet when the engines are built; schedule
	// closes over the variable so timers armed later land on it.
	var hub *network.Hub
	schedule := func(d time.Duration, fn func()) {
		time.AfterFunc(d, func() { hub.Do(fn) })
	}

	registry := session.NewRegistry(schedule,
		session.WithTeardownGrace(cfg.TeardownGrace),
		session.WithMatchClock(cfg.MatchClock),
	)

	engine := tournament.NewEngine(schedule,
		tournament.WithRetention(cfg.TournamentRetention),
		tournament.WithCodeGuard(func(code string) bool {
			return registry.Get(code) != nil
		}),
		tournament.WithCompletionHook(func(t *tournament.Tournament) {
			// Bonus award only; the final match XP was already credited
			// by arbitration.
			publisher.Publish(stats.SubjectXPAward, stats.XPAward{
				StoredID: t.Winner.StoredID,
				Delta:    xpChampion,
				IsWin:    false,
			})
		}),
	)

	coord := coordinator.New(registry, engine, statsClient, publisher)
	server := network.NewServer(coord)
	hub = server.Hub()

	startSweeper(hub, registry, engine, cfg)
	mountHTTP(server, statsClient, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Println("[Server] shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Server] shutdown: %v", err)
		}
	}()

	if err := server.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("[Server] listen: %v", err)
	}
	log.Println("[Server] stopped")
}

// startSweeper runs the minute sweep that expires idle sessions and acts
// as the safety net behind per-tournament destruction timers. The sweep
// body executes on the hub goroutine.
func startSweeper(hub *network.Hub, registry *session.Registry, engine *tournament.Engine, cfg config.Config) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Server] scheduler unavailable, idle sweep disabled: %v", err)
		return
	}
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			hub.Do(func() {
				registry.SweepIdle(cfg.SessionIdleTTL)
				engine.SweepCompleted(cfg.TournamentRetention)
			})
		}),
	)
	if err != nil {
		log.Printf("[Server] sweep job: %v", err)
		return
	}
	sched.Start()
}

func mountHTTP(server *network.Server, statsClient *stats.Client, cfg config.Config) {
	server.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	server.Handle("/leaderboard", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		entries, err := statsClient.GetLeaderboard(ctx, limit)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "leaderboard unavailable"})
			return
		}
		json.NewEncoder(w).Encode(entries)
	}))

	server.Handle("/verify-payment", payment.Handler(payment.NewVerifier(cfg.PaymentVerifyURL), statsClient))
}
