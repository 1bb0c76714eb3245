// Package server exposes a Session over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"

	"vitalia/codec"
	"vitalia/coordinator"
)

type Server struct {
	app      *fiber.App
	addr     string
	session  *coordinator.Session
	registry codec.Registry
	validate *validator.Validate
}

func New(session *coordinator.Session, registry codec.Registry, addr string) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "vitalia",
		BodyLimit:    1024 * 1024,
		ErrorHandler: errorHandler,
	})

	// traces all HTTP requests
	app.Use(otelfiber.Middleware())

	s := &Server{
		app:      app,
		addr:     addr,
		session:  session,
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.registerRoutes(app.Group("/api"))
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	slog.Info("SERVER: Listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes(r fiber.Router) {
	r.Get("/state", s.getState)
	r.Post("/profile", s.updateProfile)
	r.Post("/ingredients", s.addIngredient)
	r.Delete("/ingredients/:index", s.removeIngredient)
	r.Post("/plan", s.generatePlan)
	r.Post("/shopping-list", s.generateShoppingList)
	r.Post("/pantry-analysis", s.analyzePantry)
	r.Post("/chat", s.sendTurn)
	r.Put("/chat/open", s.setChatOpen)
	r.Get("/operations", s.listOperations)
}

type errorResponse struct {
	Message string `json:"message"`
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("SERVER: Request failed", "path", ctx.Path(), "error", err)
	}
	return ctx.Status(code).JSON(errorResponse{Message: err.Error()})
}
