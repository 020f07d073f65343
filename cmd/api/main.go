package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"doorman/internal/audit"
	"doorman/internal/auth"
	"doorman/internal/config"
	transporthttp "doorman/internal/http"
	"doorman/internal/platform/cache"
	"doorman/internal/platform/database"
	"doorman/internal/platform/logging"
	"doorman/internal/platform/migrate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	store, closeStore, err := buildStateStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize state store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	auditRepo, closeAudit, err := buildAuditRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize audit repository", "error", err)
		os.Exit(1)
	}
	defer closeAudit()

	discord := auth.NewDiscordClient(auth.DiscordOptions{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
		RedirectURL:  cfg.DiscordRedirectURL,
		Scopes:       cfg.DiscordScopes,
		AuthorizeURL: cfg.DiscordAuthorizeURL,
		APIURL:       cfg.DiscordAPIURL,
		Timeout:      cfg.ProviderTimeout,
	})
	states := auth.NewStateBroker(store, cfg.StateTTL, logger)
	codec := auth.NewSessionCodec(cfg.JWTKey, cfg.JWTExpiration)
	svc := auth.NewService(discord, states, codec)
	recorder := audit.NewRecorder(auditRepo, logger)
	router := transporthttp.NewRouter(cfg, svc, recorder, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("doorman listening", "addr", srv.Addr, "environment", cfg.Environment, "audit_store", cfg.AuditStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildStateStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.Store, func(), error) {
	if cfg.UseMemoryStateStore() {
		if !cfg.IsDevelopment() {
			return nil, nil, errors.New("REDIS_URL is required outside development")
		}
		logger.Warn("REDIS_URL not set; CSRF state kept in process memory (single instance only)")
		store := cache.NewMemoryStore()
		go sweepPeriodically(ctx, store, time.Minute, logger)
		return store, func() {}, nil
	}

	store, err := cache.NewRedisStore(ctx, cfg.RedisURL, cfg.StoreTimeout)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to redis")
	return store, func() { _ = store.Close() }, nil
}

func sweepPeriodically(ctx context.Context, store *cache.MemoryStore, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug("swept expired csrf states", "count", n)
			}
		}
	}
}

func buildAuditRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (audit.Repository, func(), error) {
	if cfg.UseInMemoryAudit() {
		logger.Info("using in-memory audit repository")
		return audit.NewInMemoryRepository(), func() {}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, err
	}

	logger.Info("connected to postgres")
	return audit.NewPostgresRepository(db), cleanup, nil
}
