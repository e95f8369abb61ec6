package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"carematch/internal/accounts"
	accountshandler "carematch/internal/accounts/handler"
	"carematch/internal/gazetteer"
	jwttoken "carematch/internal/jwt_token"
	"carematch/internal/notify"
	"carematch/internal/objectstore"
	"carematch/internal/platform/config"
	"carematch/internal/platform/httpserver"
	"carematch/internal/platform/kafka"
	"carematch/internal/platform/kafka/consumer"
	"carematch/internal/platform/logger"
	platformmetrics "carematch/internal/platform/metrics"
	"carematch/internal/platform/postgres"
	"carematch/internal/platform/redis"
	httptransport "carematch/internal/transport/http"
	"carematch/internal/verification/dispatch"
	"carematch/internal/verification/extraction"
	verificationhandler "carematch/internal/verification/handler"
	verificationmetrics "carematch/internal/verification/metrics"
	"carematch/internal/verification/models"
	"carematch/internal/verification/ports"
	"carematch/internal/verification/service"
	"carematch/internal/verification/store"
	"carematch/pkg/platform/audit"
	"carematch/pkg/platform/audit/publishers/compliance"
	"carematch/pkg/platform/audit/publishers/ops"
	auditmemory "carematch/pkg/platform/audit/store/memory"
	auditpostgres "carematch/pkg/platform/audit/store/postgres"
	"carematch/pkg/platform/circuit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("carematch exited with error", "error", err)
		os.Exit(1)
	}
}

// recordStore is the verification store as both the service and account
// deletion use it.
type recordStore interface {
	service.Store
	accounts.RecordPurger
}

// stores groups the persistence choices made at startup.
type stores struct {
	records   recordStore
	users     accounts.Store
	audit     audit.Store
	gazetteer ports.Gazetteer
	checks    map[string]httptransport.HealthCheck
	closers   []func() error
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(st.closers) - 1; i >= 0; i-- {
			if err := st.closers[i](); err != nil {
				log.Warn("failed to close dependency", "error", err)
			}
		}
	}()

	verificationMetrics := verificationmetrics.New()
	auditor := compliance.New(st.audit, compliance.WithLogger(log), compliance.WithMetrics(compliance.NewMetrics(nil)))
	// Contact details are re-saved freely; everything else is kept in full.
	sampler := ops.NewSampler(1, map[audit.AuditEvent]float64{audit.EventContactSaved: 0.25})
	tracker := ops.New(st.audit,
		ops.WithLogger(log),
		ops.WithMetrics(ops.NewMetrics(nil)),
		ops.WithSampler(sampler),
		ops.WithBreaker(circuit.New("ops-audit")),
	)

	inspector, err := buildInspector(ctx, cfg)
	if err != nil {
		return err
	}

	extractor, err := extraction.NewHTTPClient(cfg.Extraction.BaseURL, cfg.Extraction.APIKey,
		extraction.WithClientLogger(log),
		extraction.WithBreaker(circuit.New("extraction",
			circuit.WithFailureThreshold(cfg.Extraction.FailureThreshold),
			circuit.WithCooldown(cfg.Extraction.Cooldown),
		)),
	)
	if err != nil {
		return fmt.Errorf("extraction client: %w", err)
	}

	var (
		dispatcher ports.Dispatcher
		notifier   ports.Notifier
		jobs       <-chan models.ExtractionJob
		producer   *kafka.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopics(ctx, cfg.Kafka, cfg.Kafka.JobsTopic, cfg.Kafka.TransitionsTopic); err != nil {
			return fmt.Errorf("kafka topics: %w", err)
		}
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		if dispatcher, err = dispatch.NewKafkaDispatcher(producer, cfg.Kafka.JobsTopic); err != nil {
			return err
		}
		if notifier, err = notify.NewKafkaNotifier(producer, cfg.Kafka.TransitionsTopic); err != nil {
			return err
		}
		st.checks["kafka"] = producer.Ping
	} else {
		channel := dispatch.NewChannelDispatcher(cfg.Extraction.QueueSize)
		dispatcher, jobs = channel, channel.Jobs()
		notifier = notify.NewLogNotifier(log)
	}

	verification, err := service.New(st.records, dispatcher,
		service.WithLogger(log),
		service.WithMetrics(verificationMetrics),
		service.WithInspector(inspector),
		service.WithGazetteer(st.gazetteer),
		service.WithNotifier(notifier),
		service.WithAuditPublisher(auditor),
		service.WithOpsTracker(tracker),
		service.WithInspectionTimeout(cfg.Verification.InspectionTimeout),
	)
	if err != nil {
		return err
	}

	worker, err := dispatch.NewWorker(extractor, verification,
		dispatch.WithLogger(log),
		dispatch.WithMetrics(verificationMetrics),
		dispatch.WithConcurrency(cfg.Extraction.Workers),
		dispatch.WithRetry(cfg.Extraction.MaxAttempts, cfg.Extraction.BaseBackoff),
		dispatch.WithAttemptTimeout(cfg.Extraction.Timeout),
	)
	if err != nil {
		return err
	}

	users, err := accounts.New(st.users, st.records, auditor, accounts.WithLogger(log), accounts.WithAuditTrail(st.audit))
	if err != nil {
		return err
	}

	tokens := jwttoken.New(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, jwttoken.WithLeeway(cfg.Server.JWTLeeway))
	router := httptransport.NewRouter(httptransport.Deps{
		Verification:   verificationhandler.New(verification, log),
		Accounts:       accountshandler.New(users, log),
		Authenticator:  tokens,
		Metrics:        platformmetrics.New(),
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HealthChecks:   st.checks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	var jobConsumer *consumer.Consumer
	if producer != nil {
		if jobConsumer, err = consumer.New(cfg.Kafka, dispatch.NewJobHandler(worker, log), log, cfg.Kafka.JobsTopic); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if jobConsumer != nil {
		g.Go(func() error { return jobConsumer.Run(ctx) })
	} else {
		g.Go(func() error { return worker.Run(ctx, jobs) })
	}
	g.Go(func() error { return verification.RunExpirySweep(ctx, cfg.Verification.ExpirySweep) })
	g.Go(func() error { return httpserver.Run(ctx, srv, log) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

var errNoGazetteer = errors.New("no gazetteer loaded; set GAZETTEER_FILE or DATABASE_URL")

// buildStores picks Postgres when a DSN is configured and in-memory stores otherwise.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{checks: make(map[string]httptransport.HealthCheck)}

	var origin ports.Gazetteer
	localities, err := loadGazetteerFile(cfg.Verification.GazetteerFile)
	if err != nil {
		return nil, err
	}

	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres, true)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)

		gz := gazetteer.NewPostgres(db)
		if len(localities) > 0 {
			n, err := gz.Import(ctx, localities)
			if err != nil {
				return nil, fmt.Errorf("import gazetteer: %w", err)
			}
			log.Info("gazetteer imported", "rows", n)
		}
		st.records = store.NewPostgres(db)
		st.users = accounts.NewPostgresStore(db)
		st.audit = auditpostgres.New(db)
		st.checks["postgres"] = db.PingContext
		origin = gz
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		st.records = store.NewInMemory()
		st.users = accounts.NewInMemoryStore()
		st.audit = auditmemory.NewInMemoryStore()
		if len(localities) > 0 {
			origin = gazetteer.NewInMemory(localities...)
		}
	}

	if origin == nil {
		log.Warn("no gazetteer loaded, contact submissions will be refused")
		st.checks["gazetteer"] = func(context.Context) error { return errNoGazetteer }
		return st, nil
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if client == nil {
		st.gazetteer = origin
		return st, nil
	}
	st.closers = append(st.closers, client.Close)
	st.checks["redis"] = client.Health
	st.gazetteer = gazetteer.NewRedisCache(client.Client, origin, cfg.Redis.GazetteerTTL, log)
	return st, nil
}

func loadGazetteerFile(path string) ([]ports.Locality, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer file: %w", err)
	}
	defer f.Close()
	return gazetteer.ReadCSV(f)
}

// buildInspector reads uploaded PDFs from S3 when a bucket is configured.
func buildInspector(ctx context.Context, cfg config.Config) (ports.DocumentInspector, error) {
	var objects objectstore.Reader
	if cfg.Storage.Bucket != "" {
		reader, err := objectstore.NewS3Reader(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("object storage: %w", err)
		}
		objects = reader
	} else {
		objects = objectstore.NewInMemory()
	}
	return extraction.NewPDFInspector(objects)
}
