package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	documenthandler "signet/internal/document/handler"
	documentservice "signet/internal/document/service"
	documentstore "signet/internal/document/store"
	"signet/internal/envelope/access"
	"signet/internal/envelope/expiry"
	envelopehandler "signet/internal/envelope/handler"
	envelopemetrics "signet/internal/envelope/metrics"
	"signet/internal/envelope/models"
	envelopeservice "signet/internal/envelope/service"
	envelopestore "signet/internal/envelope/store"
	"signet/internal/identity"
	"signet/internal/notify"
	"signet/internal/platform/config"
	"signet/internal/platform/httpserver"
	"signet/internal/platform/logger"
	"signet/internal/platform/metrics"
	platformredis "signet/internal/platform/redis"
	httptransport "signet/internal/transport/http"
)

// main wires dependencies and keeps the process lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := models.DefaultPolicy()
	httpMetrics := metrics.New()
	workflowMetrics := envelopemetrics.New()

	var (
		envStore envelopeservice.Store
		docStore documentservice.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("database ping failed", "error", err.Error())
			os.Exit(1)
		}
		envStore = envelopestore.NewPostgres(db)
		docStore = documentstore.NewPostgres(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		envStore = envelopestore.NewInMemory()
		docStore = documentstore.NewInMemory()
	}

	var limiter envelopeservice.AttemptLimiter
	redisClient, err := platformredis.Dial(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiter = access.NewRedisLimiter(redisClient, policy.MaxVerifyAttempts, cfg.VerifyAttemptWindow)
	} else {
		log.Warn("no redis configured, using in-memory attempt limiter")
		limiter = access.NewMemoryLimiter(policy.MaxVerifyAttempts, cfg.VerifyAttemptWindow)
	}

	directory := identity.NewDirectory()
	blobs := documentstore.NewMemoryBlobStore()

	documents := documentservice.New(docStore, blobs, envStore,
		documentservice.WithLogger(log),
	)
	workflow := envelopeservice.New(envStore, documents, directory, policy,
		envelopeservice.WithLogger(log),
		envelopeservice.WithNotifier(notify.NewLogNotifier(log)),
		envelopeservice.WithMetrics(workflowMetrics),
		envelopeservice.WithAttemptLimiter(limiter),
	)

	validator := identity.NewTokenValidator(cfg.JWTSigningKey)
	router := httptransport.NewRouter(log, httpMetrics,
		envelopehandler.New(workflow, validator, log),
		documenthandler.New(documents, validator, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	expiry.NewSweeper(workflow, cfg.ExpirySweepInterval, log).Start(ctx, g)
	g.Go(func() error {
		log.Info("starting signet", "addr", srv.Addr())
		return srv.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
