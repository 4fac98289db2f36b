package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/meetgrid/presence/internal/infrastructure/configs"
	"github.com/meetgrid/presence/internal/infrastructure/metrics"
	"github.com/meetgrid/presence/internal/infrastructure/ratelimiter"
	"github.com/meetgrid/presence/internal/infrastructure/tracing"
	"github.com/meetgrid/presence/internal/infrastructure/ws"
	"github.com/meetgrid/presence/internal/presentation/api"
	healthHandler "github.com/meetgrid/presence/internal/presentation/handler/health"
	presenceHandler "github.com/meetgrid/presence/internal/presentation/handler/presence"
	socketHandler "github.com/meetgrid/presence/internal/presentation/handler/socket"
	"go.uber.org/zap"
)

const serviceName = "meetgrid-presence"

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	shutdownTracer, err := tracing.InitTracer(serviceName, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	m := metrics.New()

	registry := ws.NewRegistry(logger, m)
	broadcaster := ws.NewBroadcaster(registry, logger, m)
	dispatcher := ws.NewDispatcher(registry, broadcaster, logger, m)

	core := ws.NewCore(registry, dispatcher, broadcaster, logger)
	go core.Run()
	defer core.Stop()

	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(
		*cfg,
		socketHandler.NewHandler(core, *cfg, logger),
		presenceHandler.NewHandler(registry),
		healthHandler.NewHandler(),
		m,
		logger,
		rateLimiter,
	)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
