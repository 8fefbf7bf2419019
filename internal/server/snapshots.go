package server

import (
	"context"
	"fmt"

	"github.com/soitgoes511/graph-network-visualizer/internal/config"
	"github.com/soitgoes511/graph-network-visualizer/internal/storage"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"
	badgerstore "github.com/soitgoes511/graph-network-visualizer/pkg/store/badger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store/memory"
	pgxstore "github.com/soitgoes511/graph-network-visualizer/pkg/store/pgx"
	s3store "github.com/soitgoes511/graph-network-visualizer/pkg/store/s3"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenSnapshotStore builds the configured backend. The returned close func
// releases its resources and is never nil.
func OpenSnapshotStore(ctx context.Context, cfg config.SnapshotsConfig) (store.SnapshotStore, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendMemory, "":
		return memory.NewMemoryStore(), noop, nil

	case config.BackendBadger:
		s, err := badgerstore.NewBadgerStore(badgerstore.BadgerStoreOptions{DataDir: cfg.BadgerDir})
		if err != nil {
			return nil, noop, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("[Store] Failed to close badger", "err", err)
			}
		}, nil

	case config.BackendS3:
		client, err := storage.NewS3Client(ctx, storage.S3Params{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, noop, err
		}
		s, err := s3store.NewS3Store(s3store.NewS3StoreParams{
			Client:     client,
			Bucket:     cfg.S3.Bucket,
			Prefix:     cfg.S3.Prefix,
			MaxRetries: cfg.S3.MaxRetries,
			Backoff:    cfg.S3.Backoff,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case config.BackendPostgres:
		if cfg.Migrate {
			if err := pgxstore.Migrate(cfg.DatabaseURL); err != nil {
				return nil, noop, err
			}
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		return pgxstore.NewPostgresStoreWithConnection(pool), pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
