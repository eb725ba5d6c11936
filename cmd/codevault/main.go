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

	goredis "github.com/redis/go-redis/v9"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	amqpadapter "github.com/ericfisherdev/codevault/internal/adapter/driven/amqp"
	githubadapter "github.com/ericfisherdev/codevault/internal/adapter/driven/github"
	redisadapter "github.com/ericfisherdev/codevault/internal/adapter/driven/redis"
	sqliteadapter "github.com/ericfisherdev/codevault/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/codevault/internal/adapter/driving/http"
	"github.com/ericfisherdev/codevault/internal/application"
	"github.com/ericfisherdev/codevault/internal/config"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"log_level", cfg.LogLevel,
		"default_expiry_days", cfg.DefaultExpiryDays,
		"rate_limit", cfg.HasRedis(),
		"events", cfg.HasAMQP(),
		"github_auth", cfg.GitHubToken != "",
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "version", version)

	// 5. Wire stores.
	accountStore := sqliteadapter.NewAccountRepo(db)
	codeStore := sqliteadapter.NewAccessCodeRepo(db)

	// 6. Event publisher (no-op unless a broker is configured).
	var publisher driven.EventPublisher = application.NopPublisher{}
	if cfg.HasAMQP() {
		amqpPub, err := amqpadapter.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("amqp unavailable, events disabled", "error", err)
		} else {
			publisher = amqpPub
			defer func() {
				if closeErr := amqpPub.Close(); closeErr != nil {
					slog.Error("error closing amqp publisher", "error", closeErr)
				}
			}()
			slog.Info("amqp publisher connected", "exchange", cfg.AMQPExchange)
		}
	}

	// 7. Redemption rate limiter (disabled unless Redis is configured).
	var limiter driven.RateLimiter
	if cfg.HasRedis() {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() {
			if closeErr := rdb.Close(); closeErr != nil {
				slog.Error("error closing redis client", "error", closeErr)
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so a Redis outage only loses throttling.
			slog.Warn("redis ping failed", "addr", cfg.RedisAddr, "error", err)
		}
		limiter = redisadapter.NewLimiter(rdb, "codevault:verify", cfg.RedeemRateLimit, cfg.RedeemRateInterval)
		slog.Info("redemption rate limit enabled",
			"limit", cfg.RedeemRateLimit,
			"interval", cfg.RedeemRateInterval,
		)
	}

	// 8. Services and HTTP handler.
	accountSvc := application.NewAccountService(accountStore, publisher, slog.Default()).
		WithGitHubProfiles(githubadapter.NewClient(cfg.GitHubToken))
	ledgerSvc := application.NewLedgerService(accountStore, codeStore, publisher, slog.Default(), cfg.DefaultExpiryDays)

	apiHandler := httphandler.NewHandler(accountSvc, ledgerSvc, limiter, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("codevault started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
