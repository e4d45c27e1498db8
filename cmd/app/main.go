package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"restaurant-service/configs"
	"restaurant-service/internal/events"
	"restaurant-service/internal/media"
	"restaurant-service/internal/migrate"
	"restaurant-service/internal/ranking"
	"restaurant-service/internal/ratelimit"
	"restaurant-service/internal/relation"
	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/shared/db"
	"restaurant-service/internal/shared/httpx"
	"restaurant-service/internal/shared/jwt"
	"restaurant-service/internal/shared/logging"
	"restaurant-service/internal/shared/redisx"
	"restaurant-service/internal/user"
)

func initOTEL(ctx context.Context, cfg configs.OTELConfig, env string) func(context.Context) error {
	if cfg.Disabled {
		return func(context.Context) error { return nil }
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.ExporterOTLPEndpoint), otlptracehttp.WithInsecure())
	if err != nil {
		logging.Fatal().Err(err).Msg("otel exporter")
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		attribute.String("deployment.environment", env),
	))
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.TracesSamplerArg))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown
}

func openStore(cfg *configs.Config) *db.Store {
	dsn := cfg.DSN()
	if cfg.DB.Driver == "sqlite" {
		dsn = cfg.DB.Path
	}
	store, err := db.Open(db.Config{
		Driver:       cfg.DB.Driver,
		DSN:          dsn,
		Replicas:     cfg.ReplicaDSNs(),
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		ConnLifetime: cfg.DB.ConnLifetime,
		Tracing:      !cfg.OTEL.Disabled,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("db open")
	}
	return store
}

func newPublisher(cfg configs.KafkaConfig) events.Publisher {
	if cfg.BootstrapServers == "" {
		logging.Info().Msg("kafka not configured, relation events disabled")
		return events.Noop()
	}
	return events.WithBreaker(
		events.NewKafkaPublisher(cfg.BootstrapServers, cfg.RelationsTopic, cfg.RequiredAcks),
		events.BreakerConfig{Name: "kafka-" + cfg.RelationsTopic},
	)
}

func newResolver(cfg configs.S3Config) media.Resolver {
	if cfg.Endpoint == "" {
		return media.Passthrough("")
	}
	r, err := media.NewS3Resolver(media.S3Config{
		Endpoint:   cfg.Endpoint,
		AccessKey:  cfg.AccessKey,
		SecretKey:  cfg.SecretKey,
		UseSSL:     cfg.UseSSL,
		Bucket:     cfg.Bucket,
		PresignTTL: cfg.PresignTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("s3 resolver")
	}
	return r
}

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := initOTEL(ctx, cfg.OTEL, cfg.App.Env)
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(c)
	}()

	store := openStore(cfg)
	defer store.Close()
	if cfg.App.AutoMigrate {
		if err := migrate.AutoMigrateAll(store); err != nil {
			logging.Fatal().Err(err).Msg("migrate")
		}
	}

	rdb := redisx.New(cfg.RedisAddr(), cfg.Redis.DB)
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("redis unreachable, rate limiting fails open")
	}

	pub := newPublisher(cfg.Kafka)
	defer pub.Close()

	userRepo := user.NewRepository(store)
	restRepo := restaurant.NewRepository(store)
	relStore := relation.NewStore(store)
	relSvc := relation.NewService(relStore, userRepo, restRepo, pub)
	asm := ranking.NewAssembler(restRepo, userRepo, relStore, newResolver(cfg.S3))

	tm := jwt.NewManager(cfg.JWT.Secret, 0)
	required := httpx.AuthMiddleware(tm)
	optional := httpx.OptionalAuth(tm)
	limiter := ratelimit.New(rdb).PerUser("toggle", cfg.RateLimit.Toggles, cfg.RateLimit.Window)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	relation.NewHandler(relSvc).Register(mux, func(h http.Handler) http.Handler {
		if cfg.RateLimit.Toggles > 0 {
			h = limiter(h)
		}
		return required(h)
	})
	ranking.NewHandler(asm).Register(mux, required, optional)

	var handler http.Handler = mux
	handler = chimw.Recoverer(handler)
	handler = httpx.Observe(mux)(handler)
	handler = chimw.RealIP(handler)
	handler = chimw.RequestID(handler)

	srv := &http.Server{
		Addr:              cfg.App.Port,
		Handler:           otelhttp.NewHandler(handler, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(c)
	}()

	logging.Info().Str("addr", cfg.App.Port).Msg("restaurant-service listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error().Err(err).Msg("server stopped")
	}
}
