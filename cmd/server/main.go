// Command server runs the TuneConnect backend: the HTTP API for creating
// song request forms, accepting submissions, resolving short codes, and
// storing payment proof uploads.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tuneconnect/tuneconnect-backend/internal/config"
	httpapi "github.com/tuneconnect/tuneconnect-backend/internal/http"
	"github.com/tuneconnect/tuneconnect-backend/internal/observability"
	"github.com/tuneconnect/tuneconnect-backend/internal/repo"
	"github.com/tuneconnect/tuneconnect-backend/internal/storage"
	"github.com/tuneconnect/tuneconnect-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=…".
var version = "dev"

// shutdownTimeout bounds graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

func main() {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing.
	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Upload metadata database.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	// Record storage: durable KV when configured, always backed by the
	// in-process fallback. A misconfigured or unreachable KV degrades to
	// memory-only with a loud log line rather than refusing to start.
	var durable storage.Backend
	if cfg.KV.Enabled() {
		kv, err := storage.NewRedis(cfg.KV.URL, cfg.KV.Token)
		if err != nil {
			log.Error().Err(err).Msg("kv backend unavailable, serving from process memory")
		} else {
			durable = kv
			defer func() { _ = kv.Close() }()
		}
	} else {
		log.Warn().Msg("no KV_URL configured, forms will not survive restarts")
	}
	store := storage.NewFallback(durable, storage.NewMemory(),
		log.With().Str("component", "storage").Logger())

	// Local blob directory must exist before the static route serves it.
	if !cfg.Blob.Remote() {
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("create upload dir failed")
		}
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, store, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}
