package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/directory"
	"github.com/namespaced/namespaced/x/grant"
	"github.com/namespaced/namespaced/x/namespace"
	"github.com/namespaced/namespaced/x/object"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/namespaced/namespaced/x/auth"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/plugin/opentelemetry/tracing"
)

type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {

	r.AddAttrs(slog.String("type", "app"))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("traceID", span.SpanContext().TraceID().String()))
		r.AddAttrs(slog.String("spanID", span.SpanContext().SpanID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

var (
	version      = "unknown"
	buildMachine = "unknown"
	buildTime    = "unknown"
	goVersion    = "unknown"
)

func main() {

	handler := &CustomHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)

	slog.Info(fmt.Sprintf("Namespaced %s starting...", version))

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	config := Config{}
	configPath := os.Getenv("NAMESPACED_CONFIG")
	if configPath == "" {
		configPath = "/etc/namespaced/config.yaml"
	}

	err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config: ", err)
	}

	slog.Info(fmt.Sprintf("Config loaded! I am: %s", config.Namespaced.FQDN))

	if config.Server.EnableTrace {
		cleanup, err := setupTraceProvider(config.Server.TraceEndpoint, config.Namespaced.FQDN+"/nsapi", version)
		if err != nil {
			panic(err)
		}
		defer cleanup()

		skipper := otelecho.WithSkipper(
			func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health"
			},
		)
		e.Use(otelecho.Middleware("api", skipper))
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "nsapi",
		LabelFuncs: map[string]echoprometheus.LabelValueFunc{
			"url": func(c echo.Context, err error) string {
				return "REDACTED"
			},
		},
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	e.Use(middleware.Recover())

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             300 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(config.Server.Dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, err := db.DB() // for pinging
	if err != nil {
		panic("failed to connect database")
	}
	defer sqlDB.Close()

	err = db.Use(tracing.NewPlugin(
		tracing.WithDBName("postgres"),
	))
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	// Migrate the schema
	slog.Info("start migrate")
	db.AutoMigrate(
		&core.Namespace{},
		&core.Grant{},
		&core.NamespacedObject{},
		&core.GroupRecord{},
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Server.RedisAddr,
		Password: "",
		DB:       config.Server.RedisDB,
	})
	err = redisotel.InstrumentTracing(
		rdb,
		redisotel.WithAttributes(
			attribute.KeyValue{
				Key:   "db.name",
				Value: attribute.StringValue("redis"),
			},
		),
	)
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	mc := memcache.New(config.Server.MemcachedAddr)
	defer mc.Close()

	authService := SetupAuthService(config.Namespaced)

	directoryService := SetupDirectoryService(db, rdb)
	directoryHandler := directory.NewHandler(directoryService)

	namespaceService := SetupNamespaceService(db, rdb, mc, config.Namespaced)
	namespaceHandler := namespace.NewHandler(namespaceService)

	grantService := SetupGrantService(db, rdb, mc, config.Namespaced)
	grantHandler := grant.NewHandler(grantService)

	objectService := SetupObjectService(db, rdb, mc, config.Namespaced)
	objectHandler := object.NewHandler(objectService)

	socketHandler := SetupSocketHandler(rdb)

	apiV1 := e.Group("", authService.ReceiveGatewayAuthPropagation)

	// namespace
	apiV1.GET("/namespaces", namespaceHandler.List)
	apiV1.POST("/namespaces", namespaceHandler.Create, authService.Restrict(auth.ISKNOWN))
	apiV1.GET("/namespaces/:id", namespaceHandler.Get)
	apiV1.PATCH("/namespaces/:id", namespaceHandler.Update, authService.Restrict(auth.ISKNOWN))
	apiV1.DELETE("/namespaces/:id", namespaceHandler.Delete, authService.Restrict(auth.ISKNOWN))

	// grant
	apiV1.POST("/namespaces/:id/:scope/:entity/:subject", grantHandler.Put, authService.Restrict(auth.ISKNOWN))
	apiV1.PATCH("/namespaces/:id/:scope/:entity/:subject", grantHandler.Put, authService.Restrict(auth.ISKNOWN))
	apiV1.DELETE("/namespaces/:id/:scope/:entity/:subject", grantHandler.Revoke, authService.Restrict(auth.ISKNOWN))
	apiV1.GET("/namespaces/:id/:scope/:entity/:subject", grantHandler.GetEffective)

	// object
	apiV1.POST("/namespaces/:id/objects", objectHandler.Create, authService.Restrict(auth.ISKNOWN))
	apiV1.GET("/namespaces/:id/objects", objectHandler.List)
	apiV1.GET("/namespaces/:id/objects/:object", objectHandler.Get)
	apiV1.PUT("/namespaces/:id/objects/:object", objectHandler.Update, authService.Restrict(auth.ISKNOWN))
	apiV1.DELETE("/namespaces/:id/objects/:object", objectHandler.Delete, authService.Restrict(auth.ISKNOWN))

	// directory
	apiV1.PUT("/group/:id", directoryHandler.Upsert, authService.Restrict(auth.ISADMIN))
	apiV1.GET("/group/:id", directoryHandler.Get, authService.Restrict(auth.ISADMIN))
	apiV1.DELETE("/group/:id", directoryHandler.Delete, authService.Restrict(auth.ISADMIN))

	// socket
	apiV1.GET("/socket", socketHandler.Connect)

	// misc
	apiV1.GET("/profile", func(c echo.Context) error {
		profile := config.Profile
		profile.Version = version
		profile.BuildInfo = BuildInfo{
			BuildTime:    buildTime,
			BuildMachine: buildMachine,
			GoVersion:    goVersion,
		}
		return c.JSON(http.StatusOK, profile)
	})
	e.GET("/health", func(c echo.Context) (err error) {
		ctx := c.Request().Context()

		err = sqlDB.Ping()
		if err != nil {
			return c.String(http.StatusInternalServerError, "db error")
		}

		err = rdb.Ping(ctx).Err()
		if err != nil {
			return c.String(http.StatusInternalServerError, "redis error")
		}

		return c.String(http.StatusOK, "ok")
	})

	var resourceCountMetrics = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ns_resources_count",
			Help: "resources count",
		},
		[]string{"type"},
	)
	prometheus.MustRegister(resourceCountMetrics)

	var socketConnectionMetrics = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ns_socket_connections",
			Help: "socket connections",
		},
	)
	prometheus.MustRegister(socketConnectionMetrics)

	go func() {
		for {
			time.Sleep(15 * time.Second)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

			count, err := namespaceService.Count(ctx)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to count namespaces: %v", err))
				cancel()
				continue
			}
			resourceCountMetrics.WithLabelValues("namespace").Set(float64(count))

			count, err = grantService.Count(ctx)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to count grants: %v", err))
				cancel()
				continue
			}
			resourceCountMetrics.WithLabelValues("grant").Set(float64(count))

			count, err = objectService.Count(ctx)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to count objects: %v", err))
				cancel()
				continue
			}
			resourceCountMetrics.WithLabelValues("object").Set(float64(count))

			socketConnectionMetrics.Set(float64(socketHandler.CurrentConnectionCount()))

			cancel()
		}
	}()

	e.GET("/metrics", echoprometheus.NewHandler())

	e.Logger.Fatal(e.Start(":8000"))
}

func setupTraceProvider(endpoint string, serviceName string, serviceVersion string) (func(), error) {

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)

	if err != nil {
		return nil, err
	}

	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(tracerProvider)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	cleanup := func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error(fmt.Sprintf("Failed to shutdown tracer provider: %v", err))
		}
	}
	return cleanup, nil
}
