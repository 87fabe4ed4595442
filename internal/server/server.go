/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the tracker
operations, profile management and the websocket hub onto routes.
*/
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"healthdaily/internal/notify"
	"healthdaily/internal/profile"
	"healthdaily/internal/tracker"
)

// HealthReporter exposes backend connection stats for the health endpoint.
// Nil when the file-backed store is in use.
type HealthReporter interface {
	Health() map[string]string
}

// Server holds the transport-level dependencies.
type Server struct {
	port int

	db        HealthReporter
	tracker   *tracker.Handler
	profiles  profile.Repository
	hub       *notify.Hub
	secret    string
	startTime time.Time
}

// Deps are the collaborators the HTTP layer needs; everything is injected.
type Deps struct {
	DB       HealthReporter
	Tracker  *tracker.Handler
	Profiles profile.Repository
	Hub      *notify.Hub
	Secret   string
}

// NewServer builds a configured *http.Server. The port comes from the PORT
// environment variable, falling back to 8080.
func NewServer(deps Deps) *http.Server {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	app := &Server{
		port:      port,
		db:        deps.DB,
		tracker:   deps.Tracker,
		profiles:  deps.Profiles,
		hub:       deps.Hub,
		secret:    deps.Secret,
		startTime: time.Now(),
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
