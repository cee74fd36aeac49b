package notification

import (
	"context"
	"log/slog"

	"github.com/example/jobboard-realtime/domain/identity"
	"github.com/example/jobboard-realtime/modules/registry"
)

// Transport is the socket a feed session runs over.
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

// Session is the per-connection state machine for the notification feed:
// connect, authorize, join the user's room, listen-only loop, leave.
type Session struct {
	transport Transport
	rooms     Rooms
	self      *identity.Identity
	userID    string
	logger    *slog.Logger
}

// NewSession creates a feed session for an accepted connection requesting
// the feed of userID.
func NewSession(t Transport, rooms Rooms, self *identity.Identity, userID string) *Session {
	return &Session{
		transport: t,
		rooms:     rooms,
		self:      self,
		userID:    userID,
		logger:    slog.Default().With("component", "notification-session", "connID", t.ID()),
	}
}

// Run drives the session to completion. Authorization is strict and happens
// before any room join: the token identity must equal the requested user id,
// otherwise the connection is closed without ever appearing in a subscriber
// set.
func (s *Session) Run(ctx context.Context) error {
	if identity.Anonymous(s.self) || s.self.UserID != s.userID {
		_ = s.transport.Close(CloseNormal, "forbidden")
		return ErrForbidden
	}

	room := RoomName(s.userID)
	s.rooms.Register(s.transport)
	defer s.rooms.Unregister(ctx, s.transport.ID())

	if err := s.rooms.Join(ctx, s.transport.ID(), room); err != nil {
		_ = s.transport.Close(CloseNormal, "failed to join feed")
		return err
	}

	s.logger.Info("notification session active", "userID", s.userID)

	// Receive-only: the read loop exists to detect the close. Inbound
	// frames on a feed are ignored.
	for {
		if _, err := s.transport.Read(); err != nil {
			s.logger.Info("notification session closed", "userID", s.userID)
			return nil
		}
	}
}
