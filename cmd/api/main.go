package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cvforge/cvforge-api/internal/blob"
	"github.com/cvforge/cvforge-api/internal/config"
	"github.com/cvforge/cvforge-api/internal/crypto"
	"github.com/cvforge/cvforge-api/internal/handler"
	"github.com/cvforge/cvforge-api/internal/metrics"
	"github.com/cvforge/cvforge-api/internal/repository"
	"github.com/cvforge/cvforge-api/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, resumes, db, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("storage unavailable", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		slog.Error("blob store unavailable", "store", cfg.BlobStore, "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if db != nil {
		reg.MustRegister(collectors.NewDBStatsCollector(db, "cvforge"))
	}

	hasher := crypto.NewHasher(cfg.Hash)
	tokens := crypto.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)

	router := handler.NewRouter(ctx, handler.RouterConfig{
		Auth:               service.NewAuthService(users, hasher, tokens),
		Resumes:            service.NewResumeService(resumes, blobs),
		Logger:             logger,
		Collector:          metrics.NewCollector(reg),
		Gatherer:           reg,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "blob_store", cfg.BlobStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func openStores(ctx context.Context, cfg config.Config) (service.UserStore, service.ResumeStore, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		slog.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryUserRepository(), repository.NewMemoryResumeRepository(), nil, nil
	}

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.MigrateOnStart {
		if err := repository.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
	}

	return repository.NewUserRepository(db), repository.NewResumeRepository(db), db, nil
}

func openBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.BlobStore == config.BlobS3 {
		return blob.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	}
	return blob.NewLocalStore(cfg.UploadDir)
}
