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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/fundraiser/backend/internal/account"
	"github.com/ayush/fundraiser/backend/internal/auth"
	"github.com/ayush/fundraiser/backend/internal/config"
	"github.com/ayush/fundraiser/backend/internal/items"
	"github.com/ayush/fundraiser/backend/internal/server"
	"github.com/ayush/fundraiser/backend/internal/store"
	"github.com/ayush/fundraiser/backend/pkg/logging"
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	logging.Setup()
	cfg := config.Load()
	ctx := context.Background()

	// ── Accounts (MongoDB) ───────────────────────────────────
	var backend account.Backend
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			fatal("mongo connect", err)
		}
		defer mongoClient.Disconnect(ctx)
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			fatal("mongo indexes", err)
		}
		backend = mongoStore
		slog.Info("account store ready", "backend", "mongo", "database", cfg.MongoDB)
	} else {
		backend = store.NewMemoryStore()
		slog.Warn("MONGO_URI not set, accounts are kept in memory")
	}
	accounts := account.NewRepository(backend)

	// ── Sales ledger (PostgreSQL) ────────────────────────────
	var ledger items.Ledger
	if cfg.PostgresDSN != "" {
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal("postgres connect", err)
		}
		defer pgPool.Close()
		pgLedger := store.NewPostgresLedger(pgPool)
		if err := pgLedger.Migrate(ctx); err != nil {
			fatal("postgres migrate", err)
		}
		ledger = pgLedger
	} else {
		slog.Warn("POSTGRES_DSN not set, sales are not recorded")
	}

	// ── Sessions (Redis) ─────────────────────────────────────
	var sessions auth.Sessions
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fatal("redis connect", err)
		}
		defer rdb.Close()
		sessions = auth.NewSessionStore(rdb)
	} else {
		sessions = auth.NewMemorySessions()
		slog.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}

	// ── Item images (MinIO) ──────────────────────────────────
	var files items.FileStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			fatal("minio connect", err)
		}
		files = minioStore
	} else {
		slog.Warn("MINIO_ENDPOINT not set, image uploads are disabled")
	}

	// ── Metrics ──────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := server.NewRouter(server.Deps{
		Auth:           auth.NewHandler(accounts, sessions),
		Items:          items.NewHandler(items.NewService(accounts, files, ledger)),
		Sessions:       sessions,
		Registry:       reg,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	// Errors are logged and main returns normally so the deferred closers run.
	if err := run(srv, quit); err != nil {
		slog.Error("server error", "error", err)
	}
}

// run serves until a signal arrives on quit or the listener fails, then
// shuts the server down gracefully.
func run(srv *http.Server, quit <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("backend listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
	case err := <-serveErr:
		return err
	}

	slog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
