package gateway

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/jobboard-realtime/modules/auth"
	"github.com/example/jobboard-realtime/modules/chat"
	"github.com/example/jobboard-realtime/modules/notification"
	"github.com/example/jobboard-realtime/modules/registry"
	"github.com/example/jobboard-realtime/modules/store"
)

// Module runs the fiber server carrying the websocket endpoints and the
// REST ingress.
type Module struct {
	app            *fiber.App
	handlers       *Handlers
	addr           string
	verifier       *auth.Verifier
	storeModule    *store.Module
	registryModule *registry.Module
}

// Compile-time interface check.
var _ mono.Module = (*Module)(nil)

// NewModule creates the gateway module. Services are constructed in Start,
// after the store and registry modules have started.
func NewModule(verifier *auth.Verifier, storeModule *store.Module, registryModule *registry.Module) *Module {
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		addr = ":" + port
	}
	return &Module{
		addr:           addr,
		verifier:       verifier,
		storeModule:    storeModule,
		registryModule: registryModule,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Start builds the services, wires the routes and starts listening.
func (m *Module) Start(_ context.Context) error {
	reg := m.registryModule.Registry()
	chatService := chat.NewService(m.storeModule.Users(), m.storeModule.Messages(), reg)
	notifier := notification.NewService(m.storeModule.Notifications(), reg, notification.DefaultConfig())

	m.handlers = NewHandlers(chatService, notifier, reg, m.storeModule.Messages(), m.storeModule.Notifications())

	m.app = fiber.New(fiber.Config{
		AppName:               "Jobboard Realtime",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	return nil
}

// Stop gracefully shuts the server down.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	return nil
}

// Notifier exposes the fan-out trigger for other write paths in the
// application.
func (m *Module) Notifier() *notification.Service {
	if m.handlers == nil {
		return nil
	}
	return m.handlers.notifier
}

func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handlers.HealthCheck)

	// The gate accepts every upgrade and attaches the identity when the
	// token verifies; the sessions decide whether to close.
	m.app.Use("/ws", auth.ConnectionGate(m.verifier, m.storeModule))
	m.app.Get("/ws/chat/:id", websocket.New(m.handlers.HandleChat))
	m.app.Get("/ws/notification/:id", websocket.New(m.handlers.HandleNotification))

	api := m.app.Group("/api/v1", auth.RequireBearer(m.verifier))
	api.Post("/notifications", m.handlers.CreateNotification)
	api.Get("/notifications", m.handlers.ListNotifications)
	api.Get("/conversations/:id", m.handlers.GetConversation)
}

func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
