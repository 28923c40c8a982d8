package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/narravid/narravid-go/internal/backend"
	"github.com/narravid/narravid-go/internal/cache"
	"github.com/narravid/narravid-go/internal/config"
	workerHandler "github.com/narravid/narravid-go/internal/handler/worker"
	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/session"
	"github.com/narravid/narravid-go/internal/storage"
	"github.com/narravid/narravid-go/internal/store"
	"github.com/narravid/narravid-go/internal/task"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	// The worker never holds a user session; backend reads run with the anon
	// key, which is enough for the rows it refreshes URLs for.
	sig := session.NewSignal()

	client, err := backend.New(cfg.BackendURL, cfg.BackendAnonKey, cfg.StorageBucket, func() string {
		return sig.Current().AccessToken
	}, 15*time.Second)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialise backend client: %v", err)
		os.Exit(1)
	}

	resolver := initResolver(cfg, client)
	urls := cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
	dispatcher := task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)

	videos := store.NewVideoList(client, resolver, urls, dispatcher, sig, cfg.SignedURLTTL, cfg.RefreshLead)

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeRefreshSignedURL, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseRefreshSignedURLPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.RefreshSignedURLHandler(ctx, p, videos)
	})

	runWorker(ctx, mux, cfg)
}

func initResolver(cfg *config.Settings, client *backend.Client) port.URLResolver {
	if cfg.MinioEndpoint == "" {
		return client
	}

	resolver, err := storage.NewMinioResolver(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioUseSSL,
		cfg.StorageBucket,
	)
	if err != nil {
		logger.Errorf(context.Background(), "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}
	return resolver
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{Concurrency: 10})

	// Run server in background
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// Give Asynq up to 30 sec to finish tasks
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown()       // stop accepting new tasks, finish in-flight
	<-shutdownCtx.Done() // either timeout or done

	logger.Info(ctx, "✅  Worker gracefully stopped")
}
