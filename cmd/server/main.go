package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"hirefunnel/internal/collaborators/dev"
	"hirefunnel/internal/dispatch"
	"hirefunnel/internal/dispatch/dedup"
	dispatchmetrics "hirefunnel/internal/dispatch/metrics"
	funnelhandler "hirefunnel/internal/funnel/handler"
	funnelmetrics "hirefunnel/internal/funnel/metrics"
	"hirefunnel/internal/funnel/publish"
	"hirefunnel/internal/funnel/service"
	funnelstore "hirefunnel/internal/funnel/store"
	"hirefunnel/internal/intake"
	jobhandler "hirefunnel/internal/job/handler"
	jobservice "hirefunnel/internal/job/service"
	jobstore "hirefunnel/internal/job/store"
	jwttoken "hirefunnel/internal/jwt_token"
	"hirefunnel/internal/outbox"
	"hirefunnel/internal/platform/config"
	"hirefunnel/internal/platform/httpserver"
	"hirefunnel/internal/platform/kafka/admin"
	"hirefunnel/internal/platform/kafka/consumer"
	"hirefunnel/internal/platform/kafka/producer"
	"hirefunnel/internal/platform/logger"
	"hirefunnel/internal/platform/metrics"
	"hirefunnel/internal/platform/middleware"
	"hirefunnel/internal/platform/postgres"
	platformredis "hirefunnel/internal/platform/redis"
)

// main wires stores, collaborators, the dispatcher, and the HTTP surface.
// Business logic lives in the internal services; everything here is
// composition and lifecycle.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores default to memory; a Postgres URL switches everything durable.
	var (
		candidateStore funnelstore.CandidateStore = funnelstore.NewMemory()
		criteriaStore  jobstore.CriteriaStore     = jobstore.NewMemory()
		outboxStore    outbox.Store               = outbox.NewMemory()
		svcOpts        []service.Option
	)
	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		candidateStore = funnelstore.NewPostgres(db)
		criteriaStore = jobstore.NewPostgres(db)
		outboxStore = outbox.NewPostgres(db)
		svcOpts = append(svcOpts, service.WithTxRunner(service.NewSQLTxRunner(db)))
	}

	// Dispatch claims share Redis across replicas; without it claims are
	// process-local, which is only safe for a single instance.
	var claims dedup.Store = dedup.NewMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		claims = dedup.NewRedis(redisClient.Client)
	}

	httpMetrics := metrics.New()
	fMetrics := funnelmetrics.New()
	dMetrics := dispatchmetrics.New()

	svcOpts = append(svcOpts,
		service.WithLogger(log),
		service.WithMetrics(fMetrics),
		service.WithExtraction(dev.NewExtraction()),
	)

	var kafkaProducer *producer.Producer
	if cfg.Kafka.Enabled() {
		if err := admin.EnsureTopics(ctx, cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, cfg.Kafka.TransitionsTopic); err != nil {
			log.Error("kafka topic bootstrap failed", "error", err)
			os.Exit(1)
		}
		kafkaProducer, err = producer.New(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()
		svcOpts = append(svcOpts,
			service.WithTransitionPublisher(publish.New(kafkaProducer, cfg.Kafka.TransitionsTopic)))
	}

	svc := service.New(candidateStore, criteriaStore, outboxStore, svcOpts...)
	jobSvc := jobservice.New(criteriaStore, log)

	dispatcher := dispatch.New(claims,
		dev.NewGeneration(),
		dev.NewNotification(log),
		dev.NewCalendar("dev-interviewer"),
		log,
		dispatch.WithMetrics(dMetrics),
		dispatch.WithEventSink(svc),
	)

	relay := outbox.NewRelay(outboxStore, dispatcher, log,
		outbox.WithInterval(cfg.Outbox.Interval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
		outbox.WithBackoff(cfg.Outbox.BackoffBase, cfg.Outbox.BackoffCap),
		outbox.WithEscalator(svc),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.LatencyMiddleware(httpMetrics))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, log))
		funnelhandler.New(svc, log).Register(r)
		jobhandler.New(jobSvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return relay.Run(gctx)
	})

	if cfg.Kafka.Enabled() {
		eventConsumer, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.GroupID,
			[]string{cfg.Kafka.EventsTopic}, intake.NewEventHandler(svc, log), log)
		if err != nil {
			log.Error("kafka consumer setup failed", "error", err)
			os.Exit(1)
		}
		defer eventConsumer.Close()
		g.Go(func() error {
			return eventConsumer.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Info("starting hirefunnel server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
