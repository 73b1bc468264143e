package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playmatatu/pong/internal/api"
	"github.com/playmatatu/pong/internal/api/handlers"
	"github.com/playmatatu/pong/internal/auth"
	"github.com/playmatatu/pong/internal/config"
	"github.com/playmatatu/pong/internal/database"
	"github.com/playmatatu/pong/internal/migrations"
	"github.com/playmatatu/pong/internal/records"
	"github.com/playmatatu/pong/internal/redis"
	"github.com/playmatatu/pong/internal/session"
	"github.com/playmatatu/pong/internal/tournament"
	"github.com/playmatatu/pong/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameCfg, err := cfg.LoadGameConfig()
	if err != nil {
		log.Fatalf("Invalid game configuration: %v", err)
	}

	// Postgres is optional: without it finished matches are not stored
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			log.Println("[DB] running migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		db, err = database.Connect(ctx, cfg.DatabaseURL, 10*time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
	} else {
		log.Println("[DB] DATABASE_URL not set; match history disabled")
	}

	// Redis is optional: result cache, events and the tournament retry list
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(ctx, cfg.RedisURL, 5*time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	} else {
		log.Println("[REDIS] REDIS_URL not set; result cache and events disabled")
	}

	deps := session.Deps{Verifier: auth.NewJWTVerifier(cfg.JWTSecret)}

	var store *records.Store
	if db != nil || rdb != nil {
		store = records.NewStore(db, rdb)
		deps.Recorder = store
	}

	if tc := tournament.NewClient(cfg.TournamentServiceURL, cfg.TournamentServiceToken, rdb); tc != nil {
		deps.Tournaments = tc
		tournament.StartRetryWorker(ctx, tc, time.Duration(cfg.TournamentRetrySeconds)*time.Second)
		log.Printf("[TOURNAMENT] service client initialized (base=%s)", cfg.TournamentServiceURL)
	} else {
		log.Println("[TOURNAMENT] TOURNAMENT_SERVICE_URL not set; tournament mode will reject connections")
	}

	gm := session.NewGameManager(session.Options{
		GameConfig:              gameCfg,
		TickInterval:            cfg.TickInterval(),
		AIPredictInterval:       cfg.AIPredictInterval(),
		MultiplayerRequiresAuth: cfg.MultiplayerRequiresAuth,
		IdleTimeout:             cfg.IdleTimeout(),
	}, deps)

	gm.StartIdleWorker(ctx, rdb, cfg.IdleSweepInterval())
	ws.StartEventSubscriber(ctx, rdb, records.EventsChannel, session.IdleEventsChannel)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	routeDeps := api.Deps{Manager: gm, Checks: map[string]handlers.Pinger{"postgres": nil, "redis": nil}}
	if store != nil {
		routeDeps.History = store
	}
	if db != nil {
		routeDeps.Checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		routeDeps.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	api.SetupRoutes(router, cfg, routeDeps)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("Starting pong server on port %s (tick %s, first to %d)", cfg.Port, cfg.TickInterval(), gameCfg.MaxScore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	gm.Shutdown()
}
