package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/example/jobboard-realtime/domain/identity"
	"github.com/example/jobboard-realtime/modules/registry"
	"github.com/example/jobboard-realtime/modules/store"
)

// Transport is the bidirectional socket a session runs over.
type Transport interface {
	ID() string
	Write(data []byte) error
	Read() ([]byte, error)
	Close(code int, reason string) error
}

// Rooms is the registry surface sessions use.
type Rooms interface {
	Register(c registry.Conn)
	Unregister(ctx context.Context, connID string)
	Join(ctx context.Context, connID, room string) error
	Leave(ctx context.Context, connID, room string) error
}

// Session is the per-connection state machine for the 1:1 chat protocol:
// connect, authenticate, join room, receive/send loop, leave.
type Session struct {
	transport Transport
	rooms     Rooms
	service   *Service
	self      *identity.Identity
	otherID   string
	logger    *slog.Logger
}

// NewSession creates a chat session for an accepted connection.
func NewSession(t Transport, rooms Rooms, service *Service, self *identity.Identity, otherID string) *Session {
	return &Session{
		transport: t,
		rooms:     rooms,
		service:   service,
		self:      self,
		otherID:   otherID,
		logger:    slog.Default().With("component", "chat-session", "connID", t.ID()),
	}
}

// Run drives the session to completion. It returns when the transport
// closes or the session is terminated, and always leaves the room registry
// clean before returning.
func (s *Session) Run(ctx context.Context) error {
	// The gate accepted the transport unconditionally; unauthenticated
	// connections are closed here with a protocol-level code instead of a
	// bare handshake rejection.
	if identity.Anonymous(s.self) {
		_ = s.transport.Close(CloseForbidden, "authentication required")
		return ErrUnauthenticated
	}

	if err := s.service.OpenConversation(ctx, s.self.UserID, s.otherID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = s.transport.Close(CloseNotFound, "unknown counterparty")
			return err
		}
		_ = s.transport.Close(CloseInternalError, "failed to open conversation")
		return err
	}

	room := RoomName(s.self.UserID, s.otherID)
	s.rooms.Register(s.transport)
	defer s.rooms.Unregister(ctx, s.transport.ID())

	if err := s.rooms.Join(ctx, s.transport.ID(), room); err != nil {
		_ = s.transport.Close(CloseInternalError, "failed to join room")
		return err
	}

	s.logger.Info("chat session active", "userID", s.self.UserID, "room", room)

	for {
		data, err := s.transport.Read()
		if err != nil {
			// Transport gone (client close, server close or error); the
			// deferred unregister removes us from the room before the
			// close completes.
			s.logger.Info("chat session closed", "userID", s.self.UserID, "room", room)
			return nil
		}
		s.handleFrame(ctx, data)
	}
}

// handleFrame processes one inbound text frame. Validation and persistence
// failures are recoverable: they are reported in-band and the session stays
// in its receive loop.
func (s *Session) handleFrame(ctx context.Context, data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.sendError("invalid message format")
		return
	}

	if _, err := s.service.Send(ctx, s.self.UserID, s.otherID, frame.Text); err != nil {
		s.logger.Warn("send failed", "userID", s.self.UserID, "error", err)
		s.sendError(SendErrorText(err))
	}
}

func (s *Session) sendError(text string) {
	data, err := json.Marshal(ErrorFrame{Error: text})
	if err != nil {
		return
	}
	if err := s.transport.Write(data); err != nil {
		s.logger.Warn("failed to write error frame", "error", err)
	}
}
