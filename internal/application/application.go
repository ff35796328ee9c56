package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/hungry-puppies/internal/api"
	"github.com/eugenenazirov/hungry-puppies/internal/config"
	"github.com/eugenenazirov/hungry-puppies/internal/solver"
	"github.com/eugenenazirov/hungry-puppies/internal/storage"
)

const redisConnectTimeout = 5 * time.Second

// App encapsulates the application dependencies and HTTP server.
type App struct {
	cache   storage.Storage
	solver  solver.Solver
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	cache, err := NewStorage(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize solution cache: %w", err)
	}

	s := solver.New(solver.WithMaxTreats(cfg.MaxTreats))
	handler := api.NewHandler(s, cache,
		api.WithLogger(logger),
		api.WithSolveTimeout(cfg.SolveTimeout),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	logger.Info("application configured",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Int("max_treats", cfg.MaxTreats),
		zap.Duration("solve_timeout", cfg.SolveTimeout),
	)

	return &App{
		cache:   cache,
		solver:  s,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// NewStorage creates the solution cache selected by the configuration.
func NewStorage(ctx context.Context, cfg config.CacheConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case storage.BackendMemory, "":
		return storage.NewMemoryStorage(cfg.TTL, cfg.MaxEntries), nil
	case storage.BackendNone:
		return storage.NewNullStorage(), nil
	case storage.BackendRedis:
		ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		redisStorage, err := storage.NewRedisStorage(ctx, storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, err
		}
		return redisStorage, nil
	default:
		return nil, fmt.Errorf("%w, got %q", storage.ErrInvalidBackend, cfg.Backend)
	}
}

// BuildRootHandler mounts the API under /api/ and answers everything else with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close releases the solution cache.
func (a *App) Close() error {
	if err := a.cache.Close(); err != nil {
		return fmt.Errorf("close solution cache: %w", err)
	}
	return nil
}
