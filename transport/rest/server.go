package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

// New - builds the HTTP API. metrics is served on /metrics.
func New(logger *slog.Logger, health HealthHandler, stats StatsHandler, gatherer prometheus.Gatherer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/", health.Health)
	e.GET("/ping", health.Ping)
	e.GET("/api/leaderboard", stats.Leaderboard)
	e.GET("/api/games/:id", stats.Game)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &Server{
		logger: logger.With("component", "rest"),
		echo:   e,
	}
}

func (that *Server) Handler() http.Handler {
	return that.echo
}

// Start - serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	that.echo.Server.ReadTimeout = 10 * time.Second
	that.echo.Server.WriteTimeout = 10 * time.Second
	that.echo.Server.IdleTimeout = 30 * time.Second

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := that.echo.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
