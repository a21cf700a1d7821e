package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/recallhq/recalld/ai"
	"github.com/recallhq/recalld/internal/profile"
	"github.com/recallhq/recalld/server/metrics"
	apiv1 "github.com/recallhq/recalld/server/router/api/v1"
	"github.com/recallhq/recalld/store"
)

// requestsPerSecond caps request throughput per client IP.
const requestsPerSecond = 30

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(requestsPerSecond),
			Burst: requestsPerSecond * 2,
		}),
	}))

	exporter := metrics.NewExporter(metrics.DefaultConfig())
	e.Use(exporter.Middleware())

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		if err := store.Ping(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	// The embedder is optional: without an API key the server only accepts
	// caller-supplied vectors.
	var embedder ai.EmbeddingService
	if cfg := ai.NewConfigFromProfile(profile); cfg.Enabled {
		var err error
		if embedder, err = ai.NewEmbeddingService(&cfg.Embedding); err != nil {
			return nil, errors.Wrap(err, "failed to create embedding service")
		}
	}

	apiV1Service := apiv1.NewAPIV1Service(profile, store, embedder, exporter)
	apiV1Service.RegisterRoutes(e)

	return s, nil
}

// Start begins serving in the background. Listen errors other than a normal
// close are logged, not returned.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to serve", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}

	slog.Info("recalld stopped properly")
}
