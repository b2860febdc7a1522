// Command citation-worker is the long-running async worker pool process
// (spec §4.1/§5): it dequeues jobs from the job queue, runs the full
// pipeline for each in isolation, and serves the internal admin surface
// (/healthz, /readyz, /metrics).
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/citationengine/engine/internal/config"
	"github.com/citationengine/engine/internal/logging"
	"github.com/citationengine/engine/pkg/cache"
	"github.com/citationengine/engine/pkg/engine"
	"github.com/citationengine/engine/pkg/httpadmin"
	"github.com/citationengine/engine/pkg/store"
	"github.com/citationengine/engine/pkg/verify"
)

func main() {
	configPath := flag.String("config", os.Getenv("ALTERNATE_SOURCES_CONFIG"), "path to the alternate-sources YAML config")
	adminAddr := flag.String("admin-addr", ":8080", "address for the internal admin server")
	redisAddr := flag.String("redis-addr", "localhost:6379", "progress store / job queue Redis address")
	cacheDSN := flag.String("cache-dsn", os.Getenv("CACHE_DATABASE_URL"), "Postgres DSN for the verification cache; empty disables caching")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logging.NewLogger(logging.Options{Level: 0})
	log.Info("starting citation-worker", "worker_concurrency", cfg.Worker.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := store.NewClient(&redis.Options{Addr: *redisAddr}, log)
	progress := store.NewProgressStore(redisClient)
	queue := store.NewJobQueue(redisClient, "citations")

	verifier := buildVerifier(cfg, *cacheDSN, log)

	pipeline := &engine.Pipeline{
		Progress: progress,
		Queue:    queue,
		Verifier: verifier,
		Log:      log,
	}

	pool := &engine.WorkerPool{
		Queue:       queue,
		Progress:    progress,
		Pipeline:    pipeline,
		Concurrency: cfg.Worker.Concurrency,
		Log:         log,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Run(gctx)
	})
	g.Go(func() error {
		return runAdminServer(gctx, *adminAddr, progress, redisClient, log)
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Error(err, "citation-worker exited with error")
		os.Exit(1)
	}
	log.Info("citation-worker shut down cleanly")
}

func buildVerifier(cfg *config.Config, cacheDSN string, log logr.Logger) *verify.Verifier {
	client := verify.NewClient(cfg.Authority.BaseURL, cfg.Authority.APIKey)
	limiter := verify.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	breaker := verify.NewCircuitBreaker("authority")

	v := &verify.Verifier{
		Client:      client,
		RateLimiter: verify.NewRateLimiterFacade(func(ctx context.Context) error { return verify.WaitForToken(ctx, limiter) }),
		Breaker:     breaker,
		Log:         log,
	}

	if cacheDSN != "" {
		db, err := sql.Open("postgres", cacheDSN)
		if err != nil {
			log.Error(err, "failed to open verification cache database; continuing without caching")
			return v
		}
		if err := cache.Migrate(db); err != nil {
			log.Error(err, "failed to migrate verification cache schema; continuing without caching")
			return v
		}
		cacheLog, err := zap.NewProduction()
		if err != nil {
			cacheLog = zap.NewNop()
		}
		v.Cache = cache.NewVerificationCache(db, cacheLog)
	}

	for _, alt := range cfg.AlternateSources {
		v.Alternates = append(v.Alternates, verify.NewHTTPAlternateSource(alt.Name, alt.BaseURL))
	}
	return v
}

func runAdminServer(ctx context.Context, addr string, progress *store.ProgressStore, client *store.Client, log logr.Logger) error {
	handler := httpadmin.NewServer(httpadmin.Dependencies{Progress: progress, ProgressClient: client}, log)
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
