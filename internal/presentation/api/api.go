package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/meetgrid/presence/internal/infrastructure/configs"
	"github.com/meetgrid/presence/internal/infrastructure/metrics"
	"github.com/meetgrid/presence/internal/infrastructure/ratelimiter"
	healthHandler "github.com/meetgrid/presence/internal/presentation/handler/health"
	presenceHandler "github.com/meetgrid/presence/internal/presentation/handler/presence"
	socketHandler "github.com/meetgrid/presence/internal/presentation/handler/socket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Application struct {
	config          configs.Config
	socketHandler   *socketHandler.Handler
	presenceHandler *presenceHandler.Handler
	healthHandler   *healthHandler.Handler
	metrics         *metrics.Metrics
	logger          *zap.SugaredLogger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	socketHandler *socketHandler.Handler,
	presenceHandler *presenceHandler.Handler,
	healthHandler *healthHandler.Handler,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		socketHandler:   socketHandler,
		presenceHandler: presenceHandler,
		healthHandler:   healthHandler,
		metrics:         m,
		logger:          logger,
		ratelimiter:     ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	// No chi timeout middleware on /ws: the upgrade outlives any deadline.
	r.Get("/ws", app.socketHandler.ServeSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/presence", app.presenceHandler.GetOnlineUsers)

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", app.metrics.Handler())

	return otelhttp.NewHandler(r, "presence-api")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)

	return nil
}
