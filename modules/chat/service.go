package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/jobboard-realtime/modules/registry"
	"github.com/example/jobboard-realtime/modules/store"
)

// UserFinder resolves user identities. Backed by the account subsystem's
// storage; this core only reads.
type UserFinder interface {
	FindByID(id string) (*store.User, error)
}

// MessageStore is the persistence surface the chat core depends on.
type MessageStore interface {
	Create(msg *store.Message) error
	CountUnread(receiverID, senderID string) (int, error)
	MarkRead(receiverID, senderID string) error
}

// Service implements the chat write path: validate, persist, then publish to
// the conversation room.
type Service struct {
	users     UserFinder
	messages  MessageStore
	publisher registry.Publisher
	logger    *slog.Logger
}

// NewService creates a chat service.
func NewService(users UserFinder, messages MessageStore, publisher registry.Publisher) *Service {
	return &Service{
		users:     users,
		messages:  messages,
		publisher: publisher,
		logger:    slog.Default().With("component", "chat"),
	}
}

// OpenConversation verifies the counterparty exists and marks every unread
// message from them to the opener as read. Called once when a session joins
// its room.
func (s *Service) OpenConversation(_ context.Context, selfID, otherID string) error {
	if _, err := s.users.FindByID(otherID); err != nil {
		return err
	}
	if err := s.messages.MarkRead(selfID, otherID); err != nil {
		return err
	}
	return nil
}

// Send validates and persists a message, then publishes the broadcast
// payload to the conversation room. The store write happens before the
// publish; a publish failure leaves the message persisted and is returned to
// the caller for in-band reporting.
func (s *Service) Send(ctx context.Context, senderID, receiverID, text string) (*MessagePayload, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	sender, err := s.users.FindByID(senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.users.FindByID(receiverID)
	if err != nil {
		return nil, err
	}

	msg := &store.Message{
		ID:         uuid.New().String(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Text:       text,
		Read:       false,
		CreatedAt:  time.Now(),
	}
	if err := s.messages.Create(msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	unread, err := s.messages.CountUnread(receiver.ID, sender.ID)
	if err != nil {
		// The message is stored; report the count as best-effort.
		s.logger.Warn("failed to count unread messages", "receiverID", receiver.ID, "error", err)
	}

	payload := NewMessagePayload(msg, sender, receiver, unread)
	room := RoomName(sender.ID, receiver.ID)
	if err := s.publisher.Publish(ctx, room, EventChatMessage, payload); err != nil {
		return payload, fmt.Errorf("failed to publish message: %w", err)
	}

	s.logger.Debug("message sent", "messageID", msg.ID, "room", room)
	return payload, nil
}

// SendErrorText maps a Send failure to the client-visible error string.
// Validation errors surface verbatim; everything else is generic so storage
// internals never leak over the socket.
func SendErrorText(err error) string {
	switch {
	case errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrTextTooLong),
		errors.Is(err, ErrTextInvalid),
		errors.Is(err, ErrSelfMessage):
		return err.Error()
	case errors.Is(err, store.ErrUserNotFound):
		return "recipient not found"
	default:
		return "failed to send message"
	}
}
