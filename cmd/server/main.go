// cmd/server/main.go
package main

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/skirmish-io/skirmish-server/internal/balance"
	"github.com/skirmish-io/skirmish-server/internal/channel"
	"github.com/skirmish-io/skirmish-server/internal/clan"
	"github.com/skirmish-io/skirmish-server/internal/config"
	"github.com/skirmish-io/skirmish-server/internal/gamedata"
	"github.com/skirmish-io/skirmish-server/internal/handlers"
	"github.com/skirmish-io/skirmish-server/internal/lobby"
	"github.com/skirmish-io/skirmish-server/internal/matchmaking"
	"github.com/skirmish-io/skirmish-server/internal/middleware"
	"github.com/skirmish-io/skirmish-server/internal/models"
	"github.com/skirmish-io/skirmish-server/internal/party"
	"github.com/skirmish-io/skirmish-server/internal/stats"
)

func main() {
	cfg := config.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var clans clan.Directory = clan.Disabled{}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("database connect failed")
		}
		defer pool.Close()
		clans = clan.NewPostgresDirectory(pool)
		log.Info("clan directory backed by postgres")
	} else {
		log.Info("no DATABASE_URL set, clan features disabled")
	}

	// With no REDIS_ADDR the reporter still credits clan scores; only the
	// telemetry queue is off.
	reporter, err := stats.NewReporter(cfg.RedisAddr, cfg.StatsQueue, clans)
	if err != nil {
		log.WithError(err).Warn("stats reporter disabled")
	} else if reporter.Enabled() {
		log.WithField("queue", cfg.StatsQueue).Info("match telemetry enabled")
	}

	hub := channel.NewHub()
	parties := party.NewManager()
	reg := lobby.NewRegistry(lobby.Options{
		AllowJoinInProgress: cfg.AllowJoinInProgress,
		AllowVotekick:       cfg.AllowVotekick,
		MaxPublicLobbies:    cfg.MaxPublicLobbies,
		MaxCustomLobbies:    cfg.MaxCustomLobbies,
	}, lobby.Deps{
		Notify:  hub,
		Stats:   reporter,
		Parties: parties,
	})
	reg.Seed()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sched := matchmaking.NewScheduler(reg, rng)
	srv := handlers.NewServer(cfg, hub, reg, sched, parties, clans, reporter)

	if cfg.NumDummies > 0 {
		seedDummies(cfg.NumDummies, sched, rng)
	}

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("skirmish server listening")
	if err := http.ListenAndServe(addr, middleware.RequestLogger(srv.Routes())); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// seedDummies spreads simulated players across the public pools so an
// empty shard still shows matchmaking activity. Battlezone and combat
// training are skipped; both gate on traits dummies do not carry.
func seedDummies(n int, sched *matchmaking.Scheduler, rng *rand.Rand) {
	pools := append(gamedata.RotationPools(), gamedata.PublicModes()...)
	seeded := 0
	for i := 0; i < n; i++ {
		poolID := pools[i%len(pools)]
		if poolID == gamedata.ModeBattlezone || poolID == gamedata.ModeCombatTraining {
			continue
		}
		d := balance.NewDummy(gamedata.BotSkillEasy+rng.Intn(3), "", rng)
		if _, res := sched.QuickJoin(poolID, []*models.PlayerSession{d}); res == lobby.JoinSuccess {
			seeded++
		}
	}
	log.WithField("dummies", seeded).Info("dummy population seeded")
}
