package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/herdline/herdline/client"
	"github.com/herdline/herdline/internal/config"
	"github.com/herdline/herdline/internal/infra/database"
	"github.com/herdline/herdline/internal/infra/gateway"
	"github.com/herdline/herdline/internal/infra/repository"
	"github.com/herdline/herdline/internal/present/rest"
	restmiddleware "github.com/herdline/herdline/internal/present/rest/middleware"
	"github.com/herdline/herdline/internal/service"
	"github.com/herdline/herdline/internal/usecase"
)

func main() {
	configPath := flag.String("config", "/etc/herdline/config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	signal := service.NewSignalService(rdb)
	store := repository.NewReportRepository(db, rdb, mc, signal)

	geocoder := gateway.NewGeocoderGateway(client.New(conf.Server.GeocoderEndpoint))

	feed := usecase.NewFeedUsecase(store)
	if err := feed.Initialize(ctx); err != nil {
		// The server still comes up; /api/v1/feed answers 503 until a
		// restart or until subscriptions repopulate the kinds.
		slog.Error("initial feed fetch failed", slog.String("error", err.Error()))
	}
	feed.Subscribe(ctx)
	defer feed.Teardown()

	projector := usecase.NewProjector()
	acceptance := usecase.NewAcceptanceUsecase(store, feed)

	handler := rest.NewHandler(conf, feed, projector, acceptance, store, geocoder, signal)

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(restmiddleware.IdentifyRequester)
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("herdline"))
	}

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("herdline"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to shutdown tracer provider", slog.String("error", err.Error()))
		}
	}, nil
}
