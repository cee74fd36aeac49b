package notification

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/example/jobboard-realtime/modules/registry"
	"github.com/example/jobboard-realtime/modules/store"
)

// Store is the persistence surface the notification core depends on.
type Store interface {
	Create(n *store.Notification) error
	Update(n *store.Notification) error
}

// Config holds notification behavior configuration.
type Config struct {
	// RebroadcastOnUpdate re-publishes a notification to its owner's feed
	// when an already-persisted row is updated. Off by default: an update
	// to an unrelated field should not ping live clients again.
	RebroadcastOnUpdate bool
}

// DefaultConfig reads configuration from the environment.
func DefaultConfig() Config {
	return Config{
		RebroadcastOnUpdate: os.Getenv("NOTIFY_REBROADCAST_ON_UPDATE") == "true",
	}
}

// Service is the fan-out trigger: every write path that persists a
// notification goes through it, and the publish is an explicit step after a
// successful persist rather than an implicit save hook.
type Service struct {
	notifications Store
	publisher     registry.Publisher
	config        Config
	logger        *slog.Logger
}

// NewService creates a notification service.
func NewService(notifications Store, publisher registry.Publisher, config Config) *Service {
	return &Service{
		notifications: notifications,
		publisher:     publisher,
		config:        config,
		logger:        slog.Default().With("component", "notification"),
	}
}

// Notify persists a notification and then publishes it to the owner's feed
// room. The store write happens-before the publish: no notification reaches
// a live client without first being durably stored. Publish failures do not
// roll back the persist; delivery is at-least-once from the client's
// perspective, backed by the stored row.
func (s *Service) Notify(ctx context.Context, userID string, typ store.NotificationType, message string) (*store.Notification, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}

	n := &store.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.notifications.Create(n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	s.publish(ctx, n)
	return n, nil
}

// Update persists changes to an existing notification and, only when
// configured, re-publishes it to the owner's feed.
func (s *Service) Update(ctx context.Context, n *store.Notification) error {
	if err := s.notifications.Update(n); err != nil {
		return err
	}
	if s.config.RebroadcastOnUpdate {
		s.publish(ctx, n)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, n *store.Notification) {
	room := RoomName(n.UserID)
	if err := s.publisher.Publish(ctx, room, EventNotification, Frame{Message: n.Message}); err != nil {
		// The row is stored; a lost broadcast is recovered on next fetch.
		s.logger.Warn("failed to publish notification", "notificationID", n.ID, "room", room, "error", err)
		return
	}
	s.logger.Debug("notification published", "notificationID", n.ID, "room", room)
}
