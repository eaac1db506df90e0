package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kozaktomas/face-recall/internal/blob"
	"github.com/kozaktomas/face-recall/internal/config"
	"github.com/kozaktomas/face-recall/internal/database/postgres"
	"github.com/kozaktomas/face-recall/internal/logging"
	"github.com/kozaktomas/face-recall/internal/people"
	"go.uber.org/zap"
)

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	pool    *postgres.Pool
	images  blob.Store
	handler http.Handler // serves local images, nil for S3
	service *people.Service
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "face-recall")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// openPool connects to PostgreSQL and applies pending migrations.
func openPool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, nil
}

// newImageStore builds the configured blob backend. The returned handler is
// non-nil only for the local backend, which the web server then serves.
func newImageStore(cfg *config.Config) (blob.Store, http.Handler, error) {
	switch cfg.Storage.Backend {
	case config.StorageS3:
		if cfg.Storage.PublicURL == "" {
			return nil, nil, errors.New("STORAGE_PUBLIC_URL is required for the s3 backend")
		}
		client := blob.NewS3Client(blob.S3Options{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.GetSecretAccessKey(),
		})
		return blob.NewS3(client, cfg.Storage.Bucket, cfg.Storage.Prefix, cfg.Storage.PublicURL), nil, nil
	default:
		local, err := blob.NewLocal(cfg.Storage.Dir, cfg.LocalPublicURL())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to prepare image directory: %w", err)
		}
		return local, local.Handler(), nil
	}
}

// newApp loads the configuration and wires logger, database, image storage
// and the people service. Close releases them.
func newApp(ctx context.Context) (*app, error) {
	return newAppWithConfig(ctx, config.Load())
}

// newAppWithConfig is newApp for a configuration the caller already adjusted,
// e.g. with command-line overrides that affect image URLs.
func newAppWithConfig(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}

	images, handler, err := newImageStore(cfg)
	if err != nil {
		pool.Close()
		logger.Sync()
		return nil, err
	}

	service := people.NewService(
		postgres.NewPeopleRepository(pool),
		images,
		people.Options{Threshold: cfg.Matching.Threshold, EmbeddingDim: cfg.Matching.EmbeddingDim},
		logger,
	)

	logger.Info("application ready",
		zap.String("storage_backend", string(cfg.Storage.Backend)),
		zap.Float64("match_threshold", cfg.Matching.Threshold),
		zap.Int("embedding_dim", cfg.Matching.EmbeddingDim),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		images:  images,
		handler: handler,
		service: service,
	}, nil
}

func (a *app) Close() {
	if err := a.pool.Close(); err != nil {
		a.logger.Warn("failed to close database pool", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
