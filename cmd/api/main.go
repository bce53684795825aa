package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-credential-api/internal/application/credential"
	"github.com/go-credential-api/internal/config"
	"github.com/go-credential-api/internal/infrastructure/awscfg"
	"github.com/go-credential-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-credential-api/internal/infrastructure/jwt"
	"github.com/go-credential-api/internal/infrastructure/logmail"
	"github.com/go-credential-api/internal/infrastructure/mailgun"
	"github.com/go-credential-api/internal/infrastructure/memory"
	"github.com/go-credential-api/internal/infrastructure/metrics"
	"github.com/go-credential-api/internal/infrastructure/smtp"
	"github.com/go-credential-api/internal/infrastructure/sns"
	"github.com/go-credential-api/internal/pkg/password"
	"github.com/go-credential-api/internal/pkg/token"
	transporthttp "github.com/go-credential-api/internal/transport/http"
	appmiddleware "github.com/go-credential-api/internal/transport/http/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(ctx, cfg)
	if err != nil {
		return err
	}
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}
	recorder := metrics.NewRecorder()

	svc := credential.NewService(credential.ServiceDeps{
		Store:         store,
		Hasher:        password.NewHasher(cfg.BcryptCost),
		Tokens:        token.Random{},
		Signer:        jwtProvider,
		Notifier:      notifier,
		Metrics:       recorder,
		PublicBaseURL: cfg.PublicBaseURL,
		StoreTimeout:  cfg.StoreTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
	})

	limiter, closeLimiter := newLimiter(ctx, cfg, recorder)
	defer closeLimiter()

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Credentials: svc,
		Verifier:    jwtProvider,
		Limiter:     limiter,
		Metrics:     recorder.Handler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreDriver, "notifier", cfg.Notifier, "session_expiry", jwtProvider.Expiry(), "trust_proxy", cfg.TrustProxy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func newStore(ctx context.Context, cfg *config.Config) (credential.Store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "memory":
		slog.Warn("using in-memory credential store, data is lost on restart")
		return memory.NewCredentialStore(), nil
	case "dynamo", "":
		awsCfg, err := awscfg.Load(ctx, cfg, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		client := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
		// Creates the tables if they don't exist.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return dynamo.NewCredentialRepo(client, cfg.DynamoTables.Credentials, cfg.DynamoTables.CredentialEmails), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func newNotifier(ctx context.Context, cfg *config.Config) (credential.Notifier, error) {
	switch strings.ToLower(cfg.Notifier) {
	case "smtp", "":
		return smtp.NewMailer(cfg), nil
	case "mailgun":
		return mailgun.NewMailer(cfg)
	case "sns":
		awsCfg, err := awscfg.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			return nil, err
		}
		return sns.NewPublisher(awsCfg, cfg.SNSTopicARN)
	case "log":
		if !cfg.IsDevelopment() {
			slog.Warn("log notifier enabled outside development, verification links go to the log")
		}
		return logmail.NewNotifier(slog.Default()), nil
	default:
		return nil, fmt.Errorf("unknown NOTIFIER %q", cfg.Notifier)
	}
}

// newLimiter prefers the shared Redis window when REDIS_ADDR is set and falls
// back to the per-process token bucket otherwise.
func newLimiter(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) (func(http.Handler) http.Handler, func()) {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, limiter fails open until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
		wl := appmiddleware.NewWindowLimiter(appmiddleware.NewRedisCounter(rdb), cfg.RateLimitMax, cfg.RateLimitWindow, rec.ObserveThrottled)
		return wl.Limit, func() { _ = rdb.Close() }
	}
	rl := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, rec.ObserveThrottled)
	return rl.Limit, rl.Stop
}
