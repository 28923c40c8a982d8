package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/narravid/narravid-go/internal/backend"
	"github.com/narravid/narravid-go/internal/cache"
	"github.com/narravid/narravid-go/internal/config"
	"github.com/narravid/narravid-go/internal/handler/api"
	"github.com/narravid/narravid-go/internal/logger"
	cMiddleware "github.com/narravid/narravid-go/internal/middleware"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/realtime"
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

	sig := session.NewSignal()

	client := initBackend(ctx, cfg, sig)
	resolver := initResolver(ctx, cfg, client)

	urls := cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
	dispatcher := task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)
	rt := realtime.NewRedisRealtime(cfg.RedisAddr, cfg.RedisPassword)

	videos := store.NewVideoList(client, resolver, urls, dispatcher, sig, cfg.SignedURLTTL, cfg.RefreshLead)
	balance := store.NewBalance(client, sig)

	mgr := realtime.NewManager(rt, videos, balance)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go mgr.Run(runCtx, sig)

	r := initRouter(ctx)

	r.Post("/session", api.SetSessionHandler(sig, cfg.JWTSecret))
	r.Delete("/session", api.ClearSessionHandler(sig))

	createLimiter := cMiddleware.NewKeyRateLimiter(5, time.Minute, 2, 5*time.Minute)

	r.Group(func(r chi.Router) {
		r.Use(cMiddleware.WithAuth(cfg.JWTSecret))

		r.Get("/videos", api.ListVideosHandler(videos))
		r.Post("/videos/refresh", api.RefreshVideosHandler(videos))
		r.Post("/videos/load_more", api.LoadMoreHandler(videos))
		r.Post("/videos/delete_batch", api.DeleteVideosHandler(videos))

		r.With(cMiddleware.WithVideoID()).
			Get("/videos/{id}", api.GetVideoHandler(videos))
		r.With(cMiddleware.WithVideoID()).
			Delete("/videos/{id}", api.DeleteVideoHandler(videos))
		r.With(cMiddleware.WithVideoID()).
			Post("/videos/{id}/refresh_url", api.RefreshSignedURLHandler(videos))

		r.With(cMiddleware.WithRateLimit(createLimiter)).
			Post("/generations", api.CreateGenerationHandler(client, videos, sig, cfg.CreationTimeout))

		r.Get("/balance", api.GetBalanceHandler(balance))
		r.Post("/balance/top_up", api.TopUpHandler(balance))
	})

	listenRouter(ctx, r, cfg, cancel)
}

func initBackend(ctx context.Context, cfg *config.Settings, sig *session.Signal) *backend.Client {
	client, err := backend.New(cfg.BackendURL, cfg.BackendAnonKey, cfg.StorageBucket, func() string {
		return sig.Current().AccessToken
	}, 15*time.Second)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialise backend client: %v", err)
		os.Exit(1)
	}
	return client
}

// initResolver prefers direct MinIO presigning when configured, otherwise
// signed URLs go through the backend's sign-download-url function.
func initResolver(ctx context.Context, cfg *config.Settings, client *backend.Client) port.URLResolver {
	if cfg.MinioEndpoint == "" {
		logger.Info(ctx, "MinIO not configured, resolving signed URLs through the backend")
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
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}
	return resolver
}

func initRouter(ctx context.Context) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, cancel context.CancelFunc) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 Sync daemon listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// stop the realtime manager before closing the listener
	cancel()

	// graceful shutdown with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")
}
