// Command server runs the identity verification backend. main wires
// configuration, stores, collaborators, and workers; business logic
// lives in the internal service packages.
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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"veris/internal/application"
	applicationhandler "veris/internal/application/handler"
	applicationmetrics "veris/internal/application/metrics"
	"veris/internal/audit"
	audithandler "veris/internal/audit/handler"
	"veris/internal/consent"
	consentadapters "veris/internal/consent/adapters"
	consenthandler "veris/internal/consent/handler"
	"veris/internal/document"
	documentadapters "veris/internal/document/adapters"
	documenthandler "veris/internal/document/handler"
	documentmetrics "veris/internal/document/metrics"
	"veris/internal/extraction"
	extractionclient "veris/internal/extraction/client"
	"veris/internal/facematch"
	"veris/internal/liveness"
	"veris/internal/notification"
	"veris/internal/platform/config"
	"veris/internal/platform/httpserver"
	"veris/internal/platform/kafka/producer"
	"veris/internal/platform/logger"
	"veris/internal/platform/objectstore"
	"veris/internal/platform/postgres"
	platformredis "veris/internal/platform/redis"
	"veris/internal/platform/secrets"
	"veris/internal/risk"
	httptransport "veris/internal/transport/http"
	httpmetrics "veris/internal/transport/http/metrics"
	"veris/internal/verification"
	verificationhandler "veris/internal/verification/handler"
	verificationmetrics "veris/internal/verification/metrics"
	verificationservice "veris/internal/verification/service"
	"veris/pkg/platform/token"
)

const (
	auditBuffer        = 256
	notificationBuffer = 256
	shutdownGrace      = 10 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(context.Background(), cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scoring, err := config.LoadScoring(cfg.ScoringPath)
	if err != nil {
		return err
	}

	verifier, err := token.NewVerifier(cfg.TokenSigningKey, cfg.TokenIssuer)
	if err != nil {
		return err
	}

	// Stores. Without a DSN everything runs in memory, which is enough
	// for local development against the dev token endpoint.
	var (
		appStore     application.Store         = application.NewMemoryStore()
		docStore     document.Store            = document.NewMemoryStore()
		captureStore verification.CaptureStore = verification.NewMemoryCaptureStore()
		resultStore  verification.ResultStore  = verification.NewMemoryResultStore()
		consentStore consent.Store             = consent.NewMemoryStore()
		auditBacking audit.Store               = audit.NewMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		pool, err := postgres.OpenPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		appStore = application.NewPostgresStore(db)
		docStore = document.NewPostgresStore(pool)
		captureStore = verification.NewPostgresCaptureStore(db)
		resultStore = verification.NewPostgresResultStore(db)
		consentStore = consent.NewPostgresStore(db)
		auditBacking = audit.NewPostgresStore(db)
	}

	// Per-application write lock: Redis when configured, in-process
	// mutex otherwise.
	var locker application.Locker = application.NewMutexLocker()
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = application.NewRedisLocker(redisClient)
	}

	// Document image storage.
	var objects objectstore.Store = objectstore.NewMemoryStore()
	if cfg.Minio.Endpoint != "" {
		objects, err = objectstore.NewMinio(cfg.Minio)
		if err != nil {
			return err
		}
	}

	// Audit trail: emits queue to a channel, the worker persists.
	auditChannel := audit.NewChannelStore(auditBacking, auditBuffer, log)
	auditor := audit.NewPublisher(auditChannel)
	auditWorker := audit.NewWorker(auditBacking, auditChannel.Inbox(), log)

	// Notifications: Kafka when brokers are configured, log otherwise.
	var publisher notification.Publisher = notification.NewLogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := producer.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer kafkaProducer.Close()
		publisher = notification.NewKafkaPublisher(kafkaProducer)
	}
	dispatcher := notification.NewDispatcher(notificationBuffer, log)
	notifyWorker := notification.NewWorker(dispatcher, publisher, log)

	// Collaborators and scorers.
	extractor := extractionclient.New(cfg.ExtractorURL, 0)
	faceExtractor := extraction.WithTimeout(extractor, 0)
	ocr := extraction.WithTextTimeout(extractor, 0)

	documentService := document.NewService(
		docStore,
		objects,
		ocr,
		extractor,
		documentadapters.NewFormatValidator(),
		document.NewScorer(scoring.Document),
		auditor,
		documentmetrics.New(),
		log,
	)

	verificationService := verificationservice.NewService(
		captureStore,
		resultStore,
		objects,
		faceExtractor,
		liveness.NewScorer(scoring.Liveness),
		facematch.NewScorer(scoring.FaceMatch),
		verification.DefaultRetryPolicy(),
		auditor,
		verificationmetrics.New(),
		log,
	)

	consentService := consent.NewService(
		consentStore,
		consentadapters.NewRegistryExchanger(cfg.ConsentRegistryURL, cfg.ConsentProvider, cfg.ConsentAPIKey),
		log,
	)

	applicationService := application.NewService(
		appStore,
		locker,
		documentService,
		resultStore,
		consentService,
		risk.NewEngine(scoring.Risk),
		dispatcher,
		auditor,
		applicationmetrics.New(),
		log,
		scoring.Application,
	)

	sweeper := application.NewSweeper(applicationService, scoring.Application.SweepInterval, log)

	routerOpts := httptransport.Options{
		Logger:  log,
		Metrics: httpmetrics.New(),
		Handlers: []httptransport.Registrar{
			applicationhandler.New(applicationService, verifier, log),
			documenthandler.New(documentService, applicationService, verifier, log),
			verificationhandler.New(verificationService, applicationService, verifier, log),
			consenthandler.New(consentService, applicationService, verifier, log),
			audithandler.New(auditChannel, verifier, log),
		},
	}
	if cfg.DevTokens {
		issuer, err := token.NewIssuer(cfg.TokenSigningKey, cfg.TokenIssuer)
		if err != nil {
			return err
		}
		secretHash := cfg.DevTokenSecretHash
		if secretHash == "" {
			secret, err := secrets.Generate()
			if err != nil {
				return err
			}
			if secretHash, err = secrets.Hash(secret); err != nil {
				return err
			}
			// Logged once so a developer can copy it; never persisted.
			log.Warn("dev token secret generated", "secret", secret)
		}
		routerOpts.DevTokens = httptransport.NewTokenHandler(issuer, secretHash, log)
		log.Warn("dev token endpoint enabled")
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(routerOpts))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(auditWorker.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(notifyWorker.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(sweeper.Run(gctx)) })
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
