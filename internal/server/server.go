// Package server exposes scrape and check over HTTP together with health
// and metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

const (
	readinessTimeout = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// Bridge runs work on the platform session.
type Bridge interface {
	Scrape(ctx context.Context, key domain.ChannelKey) (domain.ScrapeResult, error)
	Check(ctx context.Context, key domain.ChannelKey) (bool, error)
}

// Check is a named readiness check.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type channelRequest struct {
	Channel string `json:"channel"`
}

type checkResponse struct {
	Channel    string `json:"channel"`
	Suspicious bool   `json:"suspicious"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	echo   *echo.Echo
	addr   string
	bridge Bridge
	checks []Check
	logger *zerolog.Logger
}

func New(addr string, bridge Bridge, checks []Check, logger *zerolog.Logger) *Server {
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, addr: addr, bridge: bridge, checks: checks, logger: logger}

	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1/channels")
	api.POST("/scrape", s.handleScrape)
	api.POST("/check", s.handleCheck)

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening")

		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) handleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	failed := make(map[string]string)

	for _, check := range s.checks {
		if err := check.Fn(ctx); err != nil {
			failed[check.Name] = err.Error()
		}
	}

	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, failed)
	}

	return c.String(http.StatusOK, "ready")
}

func (s *Server) bindKey(c echo.Context) (domain.ChannelKey, error) {
	var req channelRequest
	if err := c.Bind(&req); err != nil {
		return domain.ChannelKey{}, fmt.Errorf("%w: %v", coreerrors.ErrInvalidInput, err)
	}

	return domain.ParseChannelKey(req.Channel)
}

func (s *Server) handleScrape(c echo.Context) error {
	key, err := s.bindKey(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res, err := s.bridge.Scrape(c.Request().Context(), key)
	if err != nil {
		return s.bridgeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleCheck(c echo.Context) error {
	key, err := s.bindKey(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ok, err := s.bridge.Check(c.Request().Context(), key)
	if err != nil {
		return s.bridgeError(c, err)
	}

	return c.JSON(http.StatusOK, checkResponse{Channel: key.String(), Suspicious: ok})
}

func (s *Server) bridgeError(c echo.Context, err error) error {
	s.logger.Warn().Err(err).Str("path", c.Path()).Msg("Session bridge rejected request")

	status := http.StatusInternalServerError
	if errors.Is(err, coreerrors.ErrManagerClosed) || errors.Is(err, coreerrors.ErrManagerNotStarted) {
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, errorResponse{Error: err.Error()})
}
