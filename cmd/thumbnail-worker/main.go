package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sparkquest/arcade-api/internal/config"
	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/pkg/database"
	"github.com/sparkquest/arcade-api/internal/pkg/logger"
	"github.com/sparkquest/arcade-api/internal/pkg/storage"
)

const (
	pollInterval = 5 * time.Second
	idleLogEvery = time.Minute
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		Service:     "thumbnail-worker",
	})

	log.Info().Msg("Starting thumbnail-worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	store, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
		LocalPath: cfg.LocalStoragePath,
		LocalURL:  cfg.LocalStorageURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create artwork storage")
	}

	thumbnailer := catalog.NewThumbnailer(
		catalog.NewArtworkQueue(db),
		catalog.NewRepository(db),
		store,
		catalog.NewChangePublisher(rdb, nil),
		catalog.DefaultArtworkAttempts,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis wake-ups shorten the wait; polling still runs without them.
	wake := make(chan struct{}, 1)
	if rdb != nil {
		go subscribeWakeups(ctx, rdb, wake)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	var lastIdleLog time.Time

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("thumbnail-worker stopped")
			return
		case <-wake:
		case <-ticker.C:
		}

		// Drain the queue before going back to sleep.
		for ctx.Err() == nil {
			worked, err := thumbnailer.ProcessNext(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Artwork queue error")
				break
			}
			if !worked {
				if now := time.Now(); now.Sub(lastIdleLog) >= idleLogEvery {
					log.Info().Msg("Idle: no queued artwork")
					lastIdleLog = now
				}
				break
			}
		}
	}
}

func subscribeWakeups(ctx context.Context, rdb *redis.Client, wake chan<- struct{}) {
	sub := rdb.Subscribe(ctx, catalog.ArtworkChannel)
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Channel():
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
