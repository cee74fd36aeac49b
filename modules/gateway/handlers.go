package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/jobboard-realtime/domain/identity"
	"github.com/example/jobboard-realtime/modules/auth"
	"github.com/example/jobboard-realtime/modules/chat"
	"github.com/example/jobboard-realtime/modules/notification"
	"github.com/example/jobboard-realtime/modules/registry"
	"github.com/example/jobboard-realtime/modules/store"
)

// Handlers carries the websocket and REST handlers for the realtime gateway.
type Handlers struct {
	chatService   *chat.Service
	notifier      *notification.Service
	registry      *registry.Registry
	messages      *store.MessageRepository
	notifications *store.NotificationRepository
	logger        *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	chatService *chat.Service,
	notifier *notification.Service,
	reg *registry.Registry,
	messages *store.MessageRepository,
	notifications *store.NotificationRepository,
) *Handlers {
	return &Handlers{
		chatService:   chatService,
		notifier:      notifier,
		registry:      reg,
		messages:      messages,
		notifications: notifications,
		logger:        slog.Default().With("component", "gateway"),
	}
}

// connIdentity reads the identity the gate attached, if any.
func connIdentity(c *websocket.Conn) *identity.Identity {
	id, _ := c.Locals(auth.IdentityKey).(*identity.Identity)
	return id
}

// HandleChat runs a chat session on an upgraded connection to
// /ws/chat/:id.
func (h *Handlers) HandleChat(c *websocket.Conn) {
	defer c.Close()

	t := newTransport(c)
	sess := chat.NewSession(t, h.registry, h.chatService, connIdentity(c), c.Params("id"))
	if err := sess.Run(context.Background()); err != nil {
		h.logger.Info("chat session terminated", "connID", t.ID(), "reason", err)
	}
}

// HandleNotification runs a feed session on an upgraded connection to
// /ws/notification/:id.
func (h *Handlers) HandleNotification(c *websocket.Conn) {
	defer c.Close()

	t := newTransport(c)
	sess := notification.NewSession(t, h.registry, connIdentity(c), c.Params("id"))
	if err := sess.Run(context.Background()); err != nil {
		h.logger.Info("notification session terminated", "connID", t.ID(), "reason", err)
	}
}

// REST handlers

// createNotificationRequest is the body for POST /api/v1/notifications.
type createNotificationRequest struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CreateNotification is the write-path ingress for the fan-out trigger
// (POST /api/v1/notifications). The service persists first and publishes
// second.
func (h *Handlers) CreateNotification(c *fiber.Ctx) error {
	var req createNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	n, err := h.notifier.Notify(c.UserContext(), req.UserID, store.NotificationType(req.Type), req.Message)
	if err != nil {
		if errors.Is(err, notification.ErrEmptyUser) || errors.Is(err, notification.ErrEmptyMessage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to create notification", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create notification",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// ListNotifications returns the authenticated user's notifications
// (GET /api/v1/notifications).
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	id, _ := c.Locals(auth.IdentityKey).(*identity.Identity)
	if identity.Anonymous(id) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit > 100 {
		limit = 100
	}

	notifications, err := h.notifications.ListForUser(id.UserID, limit)
	if err != nil {
		h.logger.Error("failed to list notifications", "userID", id.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list notifications",
		})
	}
	return c.JSON(fiber.Map{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// GetConversation returns the authenticated user's message history with the
// counterparty (GET /api/v1/conversations/:id).
func (h *Handlers) GetConversation(c *fiber.Ctx) error {
	id, _ := c.Locals(auth.IdentityKey).(*identity.Identity)
	if identity.Anonymous(id) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	otherID := c.Params("id")
	limit := c.QueryInt("limit", 50)
	if limit > 100 {
		limit = 100
	}

	messages, err := h.messages.Conversation(id.UserID, otherID, limit)
	if err != nil {
		h.logger.Error("failed to load conversation", "userID", id.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load conversation",
		})
	}
	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "jobboard-realtime",
		"node":    h.registry.NodeID(),
		"rooms":   len(h.registry.Rooms()),
	})
}
