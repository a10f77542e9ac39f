package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/auth"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/broker"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/config"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/store"
	"github.com/PolycarpusTack/Alexandria-sub001/internal/store/sqlite"
	transporthttp "github.com/PolycarpusTack/Alexandria-sub001/internal/transport/http"
)

// App wires together the broker, auth service and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	broker          *broker.Broker
	store           store.UserStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	b := broker.New(authService, authService, broker.Options{
		RequireAuth: cfg.RequireAuth,
		MaxMessages: cfg.RateLimitMessages,
		Window:      cfg.RateLimitWindow,
		SendBuffer:  cfg.SendBuffer,
		EventBuffer: cfg.EventBuffer,
	}, logger)

	server := transporthttp.NewServer(b, authService, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		broker:          b,
		store:           st,
		log:             logger,
	}, nil
}

// Broker exposes the broker for handler registration and event sinks.
func (a *App) Broker() *broker.Broker {
	return a.broker
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.broker.Run(ctx)

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

// cleanup closes live connections and the database.
func (a *App) cleanup() {
	a.broker.Shutdown()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
