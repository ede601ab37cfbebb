package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nkiryanov/petauth/internal/db"
	"github.com/nkiryanov/petauth/internal/handlers"
	"github.com/nkiryanov/petauth/internal/logger"
	"github.com/nkiryanov/petauth/internal/metrics"
	"github.com/nkiryanov/petauth/internal/repository"
	"github.com/nkiryanov/petauth/internal/repository/postgres"
	"github.com/nkiryanov/petauth/internal/repository/sqlite"
	"github.com/nkiryanov/petauth/internal/service/auth"
	"github.com/nkiryanov/petauth/internal/service/auth/tokenmanager"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Release storage connections
	closeStorage func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	storage, closeStorage, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{RevokeOnRefresh: c.RevokeOnRefresh}, tokenManager, storage)
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Metrics are served from own registry with runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics, err := metrics.New(registry)
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while registering metrics. Err: %w", err)
	}

	mux := handlers.NewRouter(
		authService,
		authMetrics,
		metrics.Handler(registry),
		logger,
	)

	return &ServerApp{
		ListenAddr:   c.ListenAddr,
		Handler:      mux,
		logger:       logger,
		closeStorage: closeStorage,
	}, nil
}

// Open storage by dsn scheme: sqlite://... for embedded sqlite, postgres otherwise
func openStorage(ctx context.Context, dsn string) (repository.Storage, func(), error) {
	if db.IsSQLite(dsn) {
		conn, err := db.OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("error while opening sqlite db. Err: %w", err)
		}
		return sqlite.NewStorage(conn), func() { _ = conn.Close() }, nil
	}

	pool, err := db.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	return postgres.NewStorage(pool), pool.Close, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.closeStorage()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
