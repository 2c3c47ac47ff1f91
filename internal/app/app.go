package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/holmosapien/slattice/internal/cache/sqlite"
	"github.com/holmosapien/slattice/internal/config"
	"github.com/holmosapien/slattice/internal/core"
	"github.com/holmosapien/slattice/internal/directory/webapi"
	"github.com/holmosapien/slattice/internal/gateway"
	transporthttp "github.com/holmosapien/slattice/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	cfg             *config.Config
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	registry        *core.Registry
	hub             *transporthttp.UpdateHub
	cache           *sqlite.Store
	log             *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*core.Session
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	cache, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("freshness cache initialized")

	registry := core.NewRegistry()
	hub := transporthttp.NewUpdateHub(logger)
	server := transporthttp.NewServer(registry, hub, cfg, logger)

	return &App{
		cfg:             cfg,
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        registry,
		hub:             hub,
		cache:           cache,
		log:             logger,
		sessions:        make(map[string]*core.Session),
	}, nil
}

// Run starts the HTTP server and one gateway connection per configured
// workspace token, blocking until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	for _, token := range a.cfg.Tokens {
		go a.connectWorkspace(ctx, token)
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// connectWorkspace opens a gateway connection for one workspace token.
// A token that is already connected gets its current views re-announced
// instead of a second connection.
func (a *App) connectWorkspace(ctx context.Context, token string) {
	client := webapi.New(a.cfg.APIBaseURL, token)

	info, err := client.ConnectGateway(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("gateway connect failed")
		return
	}

	if teamID, ok := a.registry.TeamByToken(token); ok {
		a.log.Info().Str("team_id", teamID).Msg("workspace already connected, re-announcing")
		a.mu.Lock()
		session := a.sessions[teamID]
		a.mu.Unlock()
		if session != nil {
			session.Enqueue(ctx, &core.Event{Kind: core.EventRefresh})
		}
		return
	}

	a.registry.Connect(info.TeamID, info.TeamName, token)

	session := core.NewSession(info.TeamID, a.registry, client, a.cache, a.hub, *a.log)
	a.mu.Lock()
	a.sessions[info.TeamID] = session
	a.mu.Unlock()
	go session.Run(ctx)

	gw := gateway.New(info.URL, info.TeamName, session, *a.log)
	if err := gw.Run(ctx); err != nil {
		a.log.Error().Err(err).Str("team_id", info.TeamID).Msg("gateway connection closed")
	}

	a.registry.Disconnect(info.TeamID)
	a.mu.Lock()
	delete(a.sessions, info.TeamID)
	a.mu.Unlock()
}

// cleanup closes the freshness cache and other resources.
func (a *App) cleanup() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close cache")
		} else {
			a.log.Info().Msg("cache closed")
		}
	}
}
