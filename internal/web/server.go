// Package web exposes the search service over HTTP with fiber
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	cache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/renderinc/tweet-explorer/internal/app"
	"github.com/renderinc/tweet-explorer/internal/search"
)

// StatsFunc reports the loaded artifact sizes for /health
type StatsFunc func(ctx context.Context) (*app.Stats, error)

// Config tunes the HTTP layer
type Config struct {
	FiltersCacheTTL time.Duration
	RequestTimeout  time.Duration
}

type Server struct {
	app     *fiber.App
	svc     *search.Service
	stats   StatsFunc
	filters *cache.Cache
	cfg     Config
	logger  zerolog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the fiber app and its routes. reg backs /metrics.
func NewServer(svc *search.Service, stats StatsFunc, reg *prometheus.Registry, cfg Config, logger zerolog.Logger) *Server {
	s := &Server{
		svc:    svc,
		stats:  stats,
		cfg:    cfg,
		logger: logger.With().Str("component", "web").Logger(),
	}
	if cfg.FiltersCacheTTL > 0 {
		s.filters = cache.New(cfg.FiltersCacheTTL, 2*cfg.FiltersCacheTTL)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "tweet-explorer",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          cfg.RequestTimeout + 30*time.Second, // LLM answers can take the whole request budget
	})

	prom := fiberprometheus.NewWithRegistry(reg, "tweet-explorer", "tweet_explorer", "http", nil)

	// Middleware
	s.app.Use(cors.New())
	s.app.Use(prom.Middleware)
	s.app.Use(s.requestLogger)
	s.app.Use(recover.New())

	// Routes
	s.app.Get("/filters", s.handleFilters)
	s.app.Get("/search", s.handleSearch)
	s.app.Get("/query", s.handleQuery)
	s.app.Get("/posts/:id", s.handleGetPost)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// internalErrorMessage replaces the message of failures that are neither
// client errors nor upstream provider errors (panics, unexpected bugs)
const internalErrorMessage = "internal error"

// handleError maps validation failures to 400 and keeps the code of fiber
// errors; the rest are 500. Upstream failures keep their message, other
// 500s only log it.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	message := err.Error()

	var fe *fiber.Error
	switch {
	case search.IsValidation(err):
		code = http.StatusBadRequest
	case errors.As(err, &fe):
		code = fe.Code
		if code >= http.StatusInternalServerError {
			message = internalErrorMessage
		}
	case !search.IsUpstream(err):
		message = internalErrorMessage
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("Request failed")
	}

	return c.Status(code).JSON(errorResponse{Error: message})
}

// requestLogger logs every request once its final status is known
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(http.StatusInternalServerError)
		}
	}

	s.logger.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("Request")
	return nil
}

func (s *Server) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout)
}
