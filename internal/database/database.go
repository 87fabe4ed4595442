/*
Package database provides the Postgres-backed persistence layer: the
connection pool service, the daily-record store and the profile repository.
File-backed deployments skip this package entirely.
*/
package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

// Config carries the connection parameters. FromEnv reads the HEALTH_DB_*
// variables; an empty Host means no database is configured.
type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
}

// FromEnv builds a Config from the environment.
func FromEnv() Config {
	cfg := Config{
		Host:     os.Getenv("HEALTH_DB_HOST"),
		Port:     os.Getenv("HEALTH_DB_PORT"),
		Database: os.Getenv("HEALTH_DB_DATABASE"),
		Username: os.Getenv("HEALTH_DB_USERNAME"),
		Password: os.Getenv("HEALTH_DB_PASSWORD"),
		Schema:   os.Getenv("HEALTH_DB_SCHEMA"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	return cfg
}

// Configured reports whether a database host is set.
func (c Config) Configured() bool {
	return c.Host != ""
}

// Service wraps the connection pool. It is constructed once in main and
// injected into the stores; there is no package-level instance.
type Service struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewService opens the pool and verifies connectivity.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Schema)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Service{pool: pool, cfg: cfg}, nil
}

// Pool exposes the underlying pool to the stores.
func (s *Service) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate creates the schema if it does not exist.
func (s *Service) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    nickname TEXT NOT NULL DEFAULT '',
    height_cm DOUBLE PRECISION NOT NULL DEFAULT 0,
    weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
    age INT NOT NULL DEFAULT 0,
    gender TEXT NOT NULL DEFAULT '',
    goal TEXT NOT NULL DEFAULT '',
    preferences TEXT[] NOT NULL DEFAULT '{}',
    allergens TEXT[] NOT NULL DEFAULT '{}',
    hydration_target INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS daily_records (
    user_id TEXT NOT NULL,
    record_date DATE NOT NULL,
    doc JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, record_date)
);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Health reports pool status for the health endpoint.
func (s *Service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("database health check failed")
		return stats
	}

	poolStats := s.pool.Stat()
	stats["status"] = "up"
	stats["total_conns"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_conns"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_conns"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["max_conns"] = strconv.Itoa(int(poolStats.MaxConns()))
	stats["acquire_count"] = strconv.FormatInt(poolStats.AcquireCount(), 10)

	if poolStats.AcquiredConns() > (poolStats.MaxConns() * 8 / 10) {
		stats["message"] = "The database connection pool is experiencing heavy load."
	}
	return stats
}

// Close releases the pool.
func (s *Service) Close() {
	log.Info().Str("database", s.cfg.Database).Msg("disconnected from database")
	s.pool.Close()
}
