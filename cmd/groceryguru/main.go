package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/groceryguru/internal/auth"
	"github.com/dukerupert/groceryguru/internal/config"
	"github.com/dukerupert/groceryguru/internal/database"
	"github.com/dukerupert/groceryguru/internal/logging"
	"github.com/dukerupert/groceryguru/internal/media"
	"github.com/dukerupert/groceryguru/internal/server"
)

const cleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	storage, err := openStorage(cfg)
	if err != nil {
		return err
	}

	var tokens *auth.Tokens
	if cfg.JWTSecret != "" {
		if tokens, err = auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL); err != nil {
			return err
		}
	} else {
		logger.Warn("jwt_secret not set, bearer tokens disabled")
	}

	srv := server.New(db, storage, tokens, server.Options{
		SessionTTL:     cfg.SessionTTL,
		MaxUpload:      cfg.Media.MaxUploadBytes,
		ImportTimeout:  cfg.Import.Timeout,
		OriginPatterns: cfg.AllowedOrigins,
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runCleanup(ctx, srv, logger.With("component", "cleanup"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("GroceryGuru running", "addr", httpServer.Addr, "base_url", cfg.BaseURL, "media", cfg.Media.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStorage(cfg *config.Config) (media.Storage, error) {
	if cfg.Media.Backend == "s3" {
		s3, err := media.NewS3(media.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	disk, err := media.NewDisk(cfg.Media.Dir)
	if err != nil {
		return nil, err
	}
	return disk, nil
}

// runCleanup drops expired sessions and stale rate limit windows until ctx ends.
func runCleanup(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := srv.Auth().CleanupSessions(ctx)
			if err != nil {
				logger.Error("clean up sessions", "error", err)
			} else if n > 0 {
				logger.Info("removed expired sessions", "count", n)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}
