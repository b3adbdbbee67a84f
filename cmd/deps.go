package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	clocksystem "shopmigrate/internal/clock/system"
	"shopmigrate/internal/config"
	collyfetcher "shopmigrate/internal/fetcher/colly"
	"shopmigrate/internal/hash/sha256"
	uuidgen "shopmigrate/internal/id/uuid"
	"shopmigrate/internal/migrate"
	pubsubpub "shopmigrate/internal/publisher/pubsub"
	"shopmigrate/internal/runner"
	gcsblob "shopmigrate/internal/storage/gcs"
	localblob "shopmigrate/internal/storage/local"
	memoryblob "shopmigrate/internal/storage/memory"
	memorystore "shopmigrate/internal/store/memory"
	postgresstore "shopmigrate/internal/store/postgres"
)

// services holds the wired application dependencies shared by the commands.
type services struct {
	runner   *runner.Runner
	runStore migrate.RunStore
	cleanup  []func()
}

func (s *services) Close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

// buildServices wires fetcher, stores, publisher, and runner from config.
func buildServices(ctx context.Context, cfg config.Config, logger *zap.Logger) (*services, error) {
	svc := &services{}

	blobStore, err := buildBlobStore(ctx, cfg, svc)
	if err != nil {
		return nil, err
	}

	runStore, err := buildRunStore(ctx, cfg, svc)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.runStore = runStore

	var publisher migrate.Publisher
	if cfg.PubSub.ProjectID != "" {
		p, err := pubsubpub.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("build publisher: %w", err)
		}
		svc.cleanup = append(svc.cleanup, func() { _ = p.Close() })
		publisher = p
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		MaxRetries:  cfg.Crawler.MaxRetries,
		BackoffBase: cfg.FetchBackoff(),
	}, logger)

	svc.runner = runner.New(runner.Deps{
		Fetcher:   fetcher,
		RunStore:  runStore,
		BlobStore: blobStore,
		Publisher: publisher,
		Hasher:    sha256.New(),
		Clock:     clocksystem.New(),
		IDs:       uuidgen.New(),
		Logger:    logger,
	}, runner.Config{
		DefaultMaxPages: cfg.Crawler.MaxPages,
		DestinationBase: cfg.Destination.BaseURL,
		ExportPath:      cfg.Destination.ExportPath,
		VerifyTimeout:   cfg.FetchTimeout(),
		Topic:           cfg.PubSub.TopicName,
		BlobPrefix:      cfg.Storage.Prefix,
	})
	return svc, nil
}

func buildBlobStore(ctx context.Context, cfg config.Config, svc *services) (migrate.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memoryblob.New(), nil
	case "gcs":
		// The runner already prefixes object paths; no bucket-level prefix.
		store, err := gcsblob.New(ctx, gcsblob.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("build gcs blob store: %w", err)
		}
		svc.cleanup = append(svc.cleanup, func() { _ = store.Close() })
		return store, nil
	default:
		store, err := localblob.New(localblob.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("build local blob store: %w", err)
		}
		return store, nil
	}
}

func buildRunStore(ctx context.Context, cfg config.Config, svc *services) (migrate.RunStore, error) {
	if cfg.DB.DSN == "" {
		return memorystore.New(), nil
	}
	store, err := postgresstore.New(ctx, postgresstore.Config{DSN: cfg.DB.DSN})
	if err != nil {
		return nil, fmt.Errorf("build postgres run store: %w", err)
	}
	svc.cleanup = append(svc.cleanup, store.Close)
	return store, nil
}
