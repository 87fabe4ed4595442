package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"healthdaily/internal/database"
	"healthdaily/internal/geminiservice"
	"healthdaily/internal/notify"
	"healthdaily/internal/profile"
	"healthdaily/internal/record"
	"healthdaily/internal/server"
	"healthdaily/internal/tracker"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	done <- true
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal().Msg("SESSION_SECRET is required")
	}

	ctx := context.Background()

	// Storage backend: Postgres when HEALTH_DB_HOST is set, a local file
	// store otherwise.
	var (
		store    record.Store
		profiles profile.Repository
		health   server.HealthReporter
	)
	cfg := database.FromEnv()
	if cfg.Configured() {
		db, err := database.NewService(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to database")
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("running migrations")
		}
		recordStore, err := database.NewRecordStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("building record store")
		}
		store = recordStore
		profiles = database.NewProfileRepository(db)
		health = db
		log.Info().Str("host", cfg.Host).Msg("using postgres storage")
	} else {
		dir := os.Getenv("RECORD_DIR")
		if dir == "" {
			dir = "daily_records"
		}
		fileStore, err := record.NewFileStore(dir)
		if err != nil {
			log.Fatal().Err(err).Msg("building file store")
		}
		store = fileStore
		profiles = profile.NewMemoryRepository()
		log.Info().Str("dir", dir).Msg("using file storage")
	}

	gemini := geminiservice.NewClient(os.Getenv("GEMINI_API_KEY"), log.Logger)
	hub := notify.NewHub()
	svc := tracker.New(store, gemini, gemini, hub)

	apiServer := server.NewServer(server.Deps{
		DB:       health,
		Tracker:  tracker.NewHandler(svc),
		Profiles: profiles,
		Hub:      hub,
		Secret:   secret,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, done)

	log.Info().Str("addr", apiServer.Addr).Msg("starting server")
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}

	<-done
	log.Info().Msg("graceful shutdown complete")
}
