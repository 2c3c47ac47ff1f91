package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/holmosapien/slattice/internal/config"
	"github.com/holmosapien/slattice/internal/core"
)

// NewServer builds the status HTTP server: team snapshots over JSON and a
// websocket feed of team updates.
func NewServer(registry *core.Registry, hub *UpdateHub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewAPIHandlers(registry, logger)

	router.GET("/health", handlers.Health)
	router.GET("/api/teams", handlers.ListTeams)
	router.GET("/api/teams/:id", handlers.GetTeam)
	router.GET("/ws/updates", hub.HandleUpdates)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
