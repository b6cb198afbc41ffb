// Package api serves the journal over HTTP.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/errs"
	"github.com/sadopc/inkwell/internal/logging"
	"github.com/sadopc/inkwell/internal/pipeline"
	"github.com/sadopc/inkwell/internal/store"
)

// Store is the persistence the handlers need.
type Store interface {
	CreateEntry(ctx context.Context, in store.NewEntry) (*store.Entry, error)
	GetEntry(ctx context.Context, id string) (*store.Entry, error)
	UpdateEntry(ctx context.Context, id string, upd store.EntryUpdate) (*store.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, f store.EntryFilter) ([]store.Entry, error)
	CreateCategory(ctx context.Context, userID, name, color string) (*store.Category, error)
	GetCategory(ctx context.Context, id string) (*store.Category, error)
	ListCategories(ctx context.Context, userID string) ([]store.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type Analyzer interface {
	Analyze(ctx context.Context, entryID string) (pipeline.Result, error)
	Preview(text string) pipeline.Result
	Insights(ctx context.Context, entryID string) (pipeline.Insights, error)
}

type Summarizer interface {
	Summary(ctx context.Context, q analytics.Query) (*analytics.Summary, error)
}

// Enqueuer schedules background analysis after writes.
type Enqueuer interface {
	Enqueue(entryID string) bool
}

type Config struct {
	Addr          string
	UserID        string
	DefaultWindow analytics.Window
}

type Deps struct {
	Store     Store
	Analyzer  Analyzer
	Analytics Summarizer
	Queue     Enqueuer // nil disables auto-analysis
	Log       logrus.FieldLogger
}

type Server struct {
	app  *fiber.App
	cfg  Config
	deps Deps
	log  logrus.FieldLogger
}

// NewServer wires handlers and middleware.
func NewServer(cfg Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	if cfg.DefaultWindow == "" {
		cfg.DefaultWindow = analytics.Week
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		ErrorHandler:          errorHandler(deps.Log),
	})
	app.Use(recover.New())
	app.Use(requestLogger(deps.Log))
	app.Use(cors.New())

	srv := &Server{app: app, cfg: cfg, deps: deps, log: deps.Log}
	srv.registerRoutes()
	return srv
}

// Run starts listening for HTTP traffic until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.app.Shutdown()
	}()

	s.log.WithField("addr", s.cfg.Addr).Info("http server listening")
	return s.app.Listen(s.cfg.Addr)
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api/v1")
	api.Get("/entries", s.handleListEntries)
	api.Post("/entries", s.handleCreateEntry)
	api.Get("/entries/:id", s.handleGetEntry)
	api.Put("/entries/:id", s.handleUpdateEntry)
	api.Delete("/entries/:id", s.handleDeleteEntry)
	api.Post("/entries/:id/analyze", s.handleAnalyzeEntry)
	api.Get("/entries/:id/insights", s.handleInsights)
	api.Post("/analyze", s.handlePreview)
	api.Get("/analytics", s.handleAnalytics)
	api.Get("/categories", s.handleListCategories)
	api.Post("/categories", s.handleCreateCategory)
	api.Delete("/categories/:id", s.handleDeleteCategory)
}

func requestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
		return err
	}
}

// errorHandler maps error kinds to status codes and writes the error
// envelope.
func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal error"

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code, msg = fe.Code, fe.Message
		case errors.Is(err, errs.ErrNotFound):
			code, msg = fiber.StatusNotFound, err.Error()
		case errors.Is(err, errs.ErrValidation):
			code, msg = fiber.StatusBadRequest, err.Error()
		case errors.Is(err, errs.ErrServiceUnavailable):
			code, msg = fiber.StatusServiceUnavailable, err.Error()
		}
		if code >= 500 {
			log.WithError(err).WithField("path", c.Path()).Error("request failed")
		}
		return c.Status(code).JSON(fiber.Map{"error": fiber.Map{"code": code, "message": msg}})
	}
}
