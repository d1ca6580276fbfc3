package httpserver

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/cdexmarket/cdex/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Server struct {
	app *fiber.App
}

var log = logger.GetLogger()

func NewServer() *Server {
	app := fiber.New()

	// Request logging middleware
	app.Use(func(c *fiber.Ctx) error {
		log.Info("HTTP request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("remote_addr", c.IP()),
		)
		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	return &Server{app: app}
}

// App exposes the underlying fiber app so modules can register their routes.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start(addr string) error {
	// Clean shutdown on interrupt
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		<-quit

		logger.GetLogger().Info("Shutting down HTTP server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.app.ShutdownWithContext(ctx)
	}()

	logger.GetLogger().Info("HTTP server started", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// UserID extracts the authenticated user identity from the X-User-ID header.
// Authentication itself is handled upstream (session/JWT layer out of scope);
// the core only needs the identity for owner/bidder comparisons.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Get("X-User-ID"))
}
