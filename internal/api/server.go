package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/jengzang/records-hexbin/internal/config"
	"github.com/jengzang/records-hexbin/internal/database"
	"github.com/jengzang/records-hexbin/internal/middleware"
	"github.com/jengzang/records-hexbin/internal/repository"
	"github.com/jengzang/records-hexbin/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Run serves the API until ctx is cancelled. The track database is optional:
// without server.db_path track imports answer 503.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Server.MaxMemory > 0 {
		debug.SetMemoryLimit(cfg.Server.MaxMemory)
	}

	var tracks *service.TrackService
	if cfg.Server.DBPath != "" {
		db, err := database.Open(database.Config{Path: cfg.Server.DBPath})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		tracks = service.NewTrackService(repository.NewTrackRepository(db))
	}

	sessions := service.NewSessionService(cfg)
	stop := make(chan struct{})
	defer close(stop)
	go sessions.RunJanitor(time.Minute, stop)

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateLimitWindow)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           SetupRouter(sessions, tracks, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
