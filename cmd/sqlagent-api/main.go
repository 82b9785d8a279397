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

	"github.com/sqlagent/sqlagent/internal/agent"
	"github.com/sqlagent/sqlagent/internal/api"
	"github.com/sqlagent/sqlagent/internal/archive"
	"github.com/sqlagent/sqlagent/internal/auth"
	"github.com/sqlagent/sqlagent/internal/config"
	"github.com/sqlagent/sqlagent/internal/database"
	"github.com/sqlagent/sqlagent/internal/gateway"
	"github.com/sqlagent/sqlagent/internal/llm"
	"github.com/sqlagent/sqlagent/internal/observability"
	s3store "github.com/sqlagent/sqlagent/internal/storage/s3"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromEnv("sqlagent-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return 1
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	provider := database.NewProvider(database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		SampleRows:      cfg.Database.SampleRows,
		MaxRows:         cfg.Database.MaxRows,
	}, logger)
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Error("close database", slog.Any("error", err))
		}
	}()

	initializer := agent.NewInitializer(agent.NewBuilder(agent.BuilderConfig{
		MaxIterations: cfg.Agent.MaxIterations,
		TopK:          cfg.Agent.TopK,
		Verbose:       cfg.Agent.Verbose,
		Logger:        logger,
	}, provider, agent.OpenAIModelFactory(llm.OpenAIConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})), logger)

	logger.Info("application startup: initializing sql agent")
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	_, err = initializer.Get(startupCtx)
	cancelStartup()
	if err != nil {
		logger.Error("failed to initialize sql agent on startup", slog.Any("error", err))
		return 1
	}
	logger.Info("sql agent initialized successfully on startup")

	readiness := []api.ReadinessCheck{
		api.CheckAgentReady(initializer),
		func(ctx context.Context) error {
			handle, err := provider.Handle(ctx)
			if err != nil {
				return err
			}
			return handle.Ping(ctx)
		},
	}

	gatewayOpts := gateway.Options{Logger: logger, RecordTimeout: cfg.Archive.WriteTimeout}
	if cfg.Archive.Enabled {
		store, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize exchange archive", slog.Any("error", err))
			return 1
		}
		archiver, err := archive.New(store)
		if err != nil {
			logger.Error("failed to initialize exchange archive", slog.Any("error", err))
			return 1
		}
		gatewayOpts.Recorder = archiver
		readiness = append(readiness, store.Check)
		logger.Info("exchange archive enabled", slog.String("bucket", cfg.Archive.Bucket))
	}

	sqlGateway := gateway.New(func(ctx context.Context) (gateway.Agent, error) {
		executor, err := initializer.Get(ctx)
		if err != nil {
			return nil, err
		}
		return executor, nil
	}, gatewayOpts)

	deps := api.Dependencies{
		Logger:            logger,
		Gateway:           sqlGateway,
		Readiness:         api.CombineReadinessChecks(readiness...),
		DependencyTimeout: 2 * time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			return 1
		}
		if validator.Len() == 0 {
			logger.Warn("auth required but no static keys configured; every ask request will be rejected")
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewHandler(cfg, deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	select {
	case err := <-serveErr:
		logger.Error("api server failed", slog.Any("error", err))
		return 1
	default:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		return 1
	}
	return 0
}
