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

	"golang.org/x/sync/errgroup"

	"github.com/overwatch-ops/tacgate/internal/app"
	"github.com/overwatch-ops/tacgate/internal/audit"
	"github.com/overwatch-ops/tacgate/internal/directory"
	"github.com/overwatch-ops/tacgate/internal/guard"
	"github.com/overwatch-ops/tacgate/internal/ops"
	"github.com/overwatch-ops/tacgate/internal/platform/cache"
	"github.com/overwatch-ops/tacgate/internal/platform/db"
	"github.com/overwatch-ops/tacgate/internal/ratelimit"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	dirRepo := directory.NewRepository(pool)
	recorder := audit.NewPGRecorder(pool, cfg.AuthTimeout)

	pipeline := guard.New(guard.Config{
		Logger:        logger,
		TokenSecret:   cfg.TokenSecret,
		CookieName:    cfg.TokenCookieName,
		Directory:     dirRepo,
		Recorder:      recorder,
		IdleCeiling:   cfg.SessionIdleMax,
		LookupTimeout: cfg.AuthTimeout,
	})

	limiter := ratelimit.New(redisClient, cfg.SensitiveRateCeiling, cfg.SensitiveRateWindow, cfg.AuthTimeout)
	sensitiveLimiter := ratelimit.Middleware{Limiter: limiter, Recorder: recorder, Logger: logger}

	opsHandler := ops.NewHandler(logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Pipeline:         pipeline,
		SensitiveLimiter: sensitiveLimiter,
		OpsHandler:       opsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
