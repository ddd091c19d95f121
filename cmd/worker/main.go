// Package main runs the PDF export worker: it drains the shared export
// queue, converts SVG documents to PDF, and reports job status through
// TTL-bounded status slots.
//
// Configuration is taken from the environment (a .env file is loaded
// if present):
//
//	REDIS_URL           redis connection URL (default redis://localhost:6379)
//	MONGO_URL           if set, use the MongoDB store instead of Redis
//	MONGO_DATABASE      mongo database name (default wiretuner)
//	WORKER_CONCURRENCY  concurrent conversions (default 4)
//	WORKER_DEQUEUE_RATE max dequeues per second across all loops
//	                    (default unlimited)
//	LOG_LEVEL           debug | info | warn | error (default info)
//	EXPORT_CODEC        json | msgpack (default json)
//	CONVERT_CMD         external SVG-to-PDF command (default rsvg-convert)
//	CONVERT_TIMEOUT     per-conversion bound, e.g. 2m (default unbounded)
//	SHUTDOWN_TIMEOUT    graceful drain bound, e.g. 30s (default unbounded)
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	goredis "github.com/redis/go-redis/v9"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/time/rate"

	export "github.com/teacurran/WireTuner/worker-export"
	"github.com/teacurran/WireTuner/worker-export/ext"
	"github.com/teacurran/WireTuner/worker-export/middleware"
	"github.com/teacurran/WireTuner/worker-export/observability"
	"github.com/teacurran/WireTuner/worker-export/queue"
	"github.com/teacurran/WireTuner/worker-export/store"
	mongostore "github.com/teacurran/WireTuner/worker-export/store/mongo"
	redisstore "github.com/teacurran/WireTuner/worker-export/store/redis"
	"github.com/teacurran/WireTuner/worker-export/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	cfg := export.DefaultConfig()
	cfg.Concurrency = envInt("WORKER_CONCURRENCY", cfg.Concurrency)
	cfg.ConvertTimeout = envDuration("CONVERT_TIMEOUT", cfg.ConvertTimeout)
	cfg.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	ctx := context.Background()

	s, cleanup, err := buildStore(ctx, logger)
	if err != nil {
		logger.Error("failed to build store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	if err := s.Ping(ctx); err != nil {
		logger.Error("store unreachable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client := queue.New(s,
		queue.WithCodec(queue.GetCodec(os.Getenv("EXPORT_CODEC"))),
		queue.WithDequeueTimeout(cfg.DequeueTimeout),
		queue.WithStatusTTL(cfg.StatusTTL),
		queue.WithLogger(logger),
	)

	extensions := ext.NewRegistry(logger)
	extensions.Register(observability.NewTelemetry(logger))

	processor := worker.NewProcessor(
		client,
		newExecConverter(os.Getenv("CONVERT_CMD")),
		extensions,
		logger,
		middleware.Logging(logger),
		middleware.Recover(logger),
		middleware.Timeout(cfg.ConvertTimeout),
		middleware.Tracing(),
	)

	poolOpts := []worker.PoolOption{
		worker.WithConcurrency(cfg.Concurrency),
		worker.WithHeartbeatEvery(cfg.HeartbeatEvery),
	}
	if rps := envFloat("WORKER_DEQUEUE_RATE", 0); rps > 0 {
		poolOpts = append(poolOpts,
			worker.WithRateLimit(rate.NewLimiter(rate.Limit(rps), cfg.Concurrency)),
		)
	}
	pool := worker.NewPool(client, processor, extensions, logger, poolOpts...)

	if err := pool.Start(ctx); err != nil {
		logger.Error("failed to start worker pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("export worker running",
		slog.Int("concurrency", cfg.Concurrency),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopCtx := ctx
	if cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := pool.Stop(stopCtx); err != nil {
		logger.Error("worker pool shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("goodbye")
}

// buildStore selects the backend: MongoDB when MONGO_URL is set,
// otherwise Redis.
func buildStore(ctx context.Context, logger *slog.Logger) (store.Store, func(), error) {
	if mongoURL := os.Getenv("MONGO_URL"); mongoURL != "" {
		mc, err := mongod.Connect(mongoopts.Client().ApplyURI(mongoURL))
		if err != nil {
			return nil, nil, err
		}
		dbName := os.Getenv("MONGO_DATABASE")
		if dbName == "" {
			dbName = "wiretuner"
		}
		s := mongostore.New(mc.Database(dbName), mongostore.WithLogger(logger))
		if err := s.Migrate(ctx); err != nil {
			_ = mc.Disconnect(ctx)
			return nil, nil, err
		}
		cleanup := func() { _ = mc.Disconnect(context.Background()) }
		return s, cleanup, nil
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, err
	}
	rc := goredis.NewClient(opt)
	cleanup := func() { _ = rc.Close() }
	return redisstore.New(rc, redisstore.WithLogger(logger)), cleanup, nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}
