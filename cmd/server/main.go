package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"identia/internal/agent"
	"identia/internal/anonymizer"
	"identia/internal/audit"
	"identia/internal/calendar"
	"identia/internal/directory"
	"identia/internal/intent"
	"identia/internal/platform/config"
	"identia/internal/platform/httpserver"
	"identia/internal/platform/logger"
	"identia/internal/platform/metrics"
	"identia/internal/platform/ratelimit"
	platformredis "identia/internal/platform/redis"
	"identia/internal/regulations"
	"identia/internal/session"
	"identia/internal/tracking"
	trackingmetrics "identia/internal/tracking/metrics"
	httptransport "identia/internal/transport/http"
	"identia/internal/workflow"
	workflowmetrics "identia/internal/workflow/metrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Redis keeps anonymization mappings across instances; without
	// it the mappings live in process memory.
	anonymizerOpts := []anonymizer.Option{}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		anonymizerOpts = append(anonymizerOpts, anonymizer.WithSessionStore(
			anonymizer.NewRedisSessionStore(redisClient.Client, config.SessionMappingTTL)))
		log.Info("anonymizer session mappings backed by redis")
	} else {
		anonymizerOpts = append(anonymizerOpts, anonymizer.WithSessionStore(
			anonymizer.NewInMemorySessionStore()))
	}

	// Optional Postgres makes trámites and the audit trail durable.
	var trackingStore tracking.Store = tracking.NewInMemoryStore()
	var auditStore audit.Store = audit.NewInMemoryStore()
	if cfg.PostgresURL != "" {
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Error("open postgres failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		trackingStore = tracking.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		log.Info("tracking and audit stores backed by postgres")
	}

	auditor := audit.NewRecorder(auditStore, 256, log)

	trackingService := tracking.NewService(trackingStore,
		tracking.WithLogger(log),
		tracking.WithMetrics(trackingmetrics.New()),
		tracking.WithAuditSink(auditor),
	)

	cal := calendar.New(cfg.CalendarURL, cfg.CalendarTimeout, calendar.WithLogger(log))

	wf := workflow.New(
		agent.NewValidator(),
		agent.NewLegal(regulations.Default()),
		agent.NewGestor(directory.Default()),
		workflow.WithLogger(log),
		workflow.WithBooker(cal),
		workflow.WithAuditSink(auditor),
		workflow.WithMetrics(workflowmetrics.New()),
	)

	tokens := session.NewJWTService(cfg.JWTSigningKey, "identia")
	sessions := session.NewService(session.NewInMemoryStore(), tokens, config.SessionMappingTTL,
		session.WithLogger(log))

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	handler := httptransport.New(httptransport.Config{
		Logger:     log,
		Metrics:    metrics.New(),
		Sessions:   sessions,
		Validator:  tokens,
		Workflow:   wf,
		Procedures: workflow.NewInMemoryStore(),
		Tracking:   trackingService,
		Anonymizer: anonymizer.New(cfg.AnonymizerSalt, anonymizerOpts...),
		Responder:  intent.NewResponder(intent.WithLogger(log)),
		Calendar:   cal,
		Audit:      auditor,
		Limiter:    limiter,
	})

	srv := httpserver.New(cfg.Addr, handler.Router())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditor.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting identia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("identia stopped")
}
