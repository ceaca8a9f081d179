// Package httpapi serves the chat, report wizard and report administration
// over HTTP.
package httpapi

import (
	"errors"
	"time"

	"github.com/alexanderramin/jess/internal/composer"
	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/llm"
	"github.com/alexanderramin/jess/internal/repository"
	"github.com/alexanderramin/jess/internal/service"
	"github.com/alexanderramin/jess/internal/session"
	"github.com/alexanderramin/jess/internal/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	Sessions *session.Manager
	Composer *composer.Composer
	Reports  service.ReportService
	Logger   *zap.Logger
}

// Server wraps the fiber app.
type Server struct {
	app      *fiber.App
	sessions *session.Manager
	composer *composer.Composer
	reports  service.ReportService
	log      *zap.Logger
	validate *validator.Validate
}

// New builds the app and registers all routes.
func New(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		sessions: d.Sessions,
		composer: d.Composer,
		reports:  d.Reports,
		log:      log.Named("http"),
		validate: validator.New(),
	}
	s.app = fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.requestLogger)
	s.registerRoutes()
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) registerRoutes() {
	api := s.app.Group("/api/v1")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	sessions := api.Group("/sessions")
	sessions.Post("", s.createSession)
	sessions.Delete("/:id", s.deleteSession)
	sessions.Post("/:id/reset", s.resetSession)
	sessions.Post("/:id/chat", s.chat)

	wiz := sessions.Group("/:id/wizard")
	wiz.Get("", s.wizardState)
	wiz.Post("/advance", s.wizardAdvance)
	wiz.Post("/retreat", s.wizardRetreat)
	wiz.Post("/save", s.wizardSave)
	wiz.Post("/resume", s.wizardResume)
	wiz.Post("/finalize", s.wizardFinalize)
	wiz.Post("/regenerate", s.wizardRegenerate)
	wiz.Get("/document", s.wizardDocument)

	reports := api.Group("/reports")
	reports.Get("", s.listReports)
	reports.Post("/delete", s.deleteReports)
	reports.Get("/:id", s.getReport)
	reports.Delete("/:id", s.deleteReport)
	reports.Get("/:id/export", s.exportReport)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = statusFor(err)
		}
	}
	s.log.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()))
	return err
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Step  string `json:"step,omitempty"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	body := errorBody{Error: err.Error()}
	var se *domain.StepError
	if errors.As(err, &se) {
		body.Step = string(se.Step)
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error("request_failed", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
	}
	return c.Status(code).JSON(body)
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, workflow.ErrAtFirstStage),
		errors.Is(err, composer.ErrEmptyUtterance),
		errors.Is(err, errBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, workflow.ErrCompleted), errors.Is(err, service.ErrNotCompleted):
		return fiber.StatusConflict
	case errors.Is(err, llm.ErrTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, llm.ErrCanceled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, llm.ErrGeneration):
		return fiber.StatusBadGateway
	}
	var se *domain.StepError
	if errors.As(err, &se) && se.Step == domain.StepValidation {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
