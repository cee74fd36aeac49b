package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"

	"github.com/example/jobboard-realtime/events"
)

// Publisher is the narrow fan-out interface the write paths depend on.
type Publisher interface {
	Publish(ctx context.Context, room, eventType string, payload any) error
}

// Registry maps room names to live subscriber sets and fans published events
// out to every subscriber on every node. Always injected, never a package
// singleton.
type Registry struct {
	hub      *Hub
	bus      mono.EventBus
	presence Presence
	nodeID   string
	logger   *slog.Logger
}

// Compile-time interface check.
var _ Publisher = (*Registry)(nil)

// NewRegistry creates a registry. presence may be nil, in which case
// membership is tracked locally only (single-node deployments and tests).
func NewRegistry(presence Presence) *Registry {
	return &Registry{
		hub:      NewHub(),
		presence: presence,
		nodeID:   uuid.New().String()[:8],
		logger:   slog.Default().With("component", "registry"),
	}
}

// SetEventBus attaches the cross-process broadcast medium. Without a bus the
// registry degrades to loopback delivery inside this process.
func (r *Registry) SetEventBus(bus mono.EventBus) {
	r.bus = bus
}

// NodeID returns this process's registry identifier.
func (r *Registry) NodeID() string {
	return r.nodeID
}

// Register tracks a connection so it can join rooms.
func (r *Registry) Register(c Conn) {
	r.hub.Register(c)
}

// Unregister removes a connection from every room it joined and from the
// shared presence index. Must run on every disconnect path before the close
// completes; a connection left behind in a room leaks registry memory.
func (r *Registry) Unregister(ctx context.Context, connID string) {
	left := r.hub.Unregister(connID)
	for _, room := range left {
		r.presenceLeave(ctx, room, connID)
	}
}

// Join idempotently adds the connection to the room's subscriber set.
func (r *Registry) Join(ctx context.Context, connID, room string) error {
	if !r.hub.Join(connID, room) {
		return fmt.Errorf("connection %s is not registered", connID)
	}
	if r.presence != nil {
		if err := r.presence.Join(ctx, room, r.member(connID)); err != nil {
			// Local membership is authoritative for delivery; the shared
			// index degrades to stale rather than failing the join.
			r.logger.Warn("presence join failed", "room", room, "error", err)
		}
	}
	return nil
}

// Leave idempotently removes the connection from the room's subscriber set.
func (r *Registry) Leave(ctx context.Context, connID, room string) error {
	r.hub.Leave(connID, room)
	r.presenceLeave(ctx, room, connID)
	return nil
}

// Publish fans the payload out to every subscriber of the room on every
// node. Fire-and-forget: it returns once the event is handed to the
// broadcast medium and never blocks on any individual subscriber's write.
// Publishing to a room with no subscribers is a silent no-op.
func (r *Registry) Publish(_ context.Context, room, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	ev := events.RoomEvent{
		Room:    room,
		Type:    eventType,
		Payload: data,
		Origin:  r.nodeID,
	}

	if r.bus != nil {
		if err := events.RoomEventV1.Publish(r.bus, ev, nil); err != nil {
			return fmt.Errorf("failed to publish room event: %w", err)
		}
		return nil
	}

	// No broadcast medium attached: loopback to local subscribers.
	r.Deliver(ev)
	return nil
}

// Deliver writes the event to the local members of its room. Called by the
// bus consumer on every node (including the publishing one) and by Publish
// in loopback mode.
func (r *Registry) Deliver(ev events.RoomEvent) {
	n := r.hub.Deliver(ev.Room, ev.Payload)
	r.logger.Debug("delivered room event",
		"room", ev.Room, "type", ev.Type, "origin", ev.Origin, "delivered", n)
}

// Members returns the local connection IDs subscribed to the room.
func (r *Registry) Members(room string) []string {
	return r.hub.Members(room)
}

// Rooms returns all rooms with at least one local subscriber.
func (r *Registry) Rooms() []string {
	return r.hub.Rooms()
}

// InRoom reports whether the connection is subscribed to the room.
func (r *Registry) InRoom(connID, room string) bool {
	return r.hub.InRoom(connID, room)
}

// ConnCount returns the number of registered local connections.
func (r *Registry) ConnCount() int {
	return r.hub.ConnCount()
}

func (r *Registry) presenceLeave(ctx context.Context, room, connID string) {
	if r.presence == nil {
		return
	}
	if err := r.presence.Leave(ctx, room, r.member(connID)); err != nil {
		r.logger.Warn("presence leave failed", "room", room, "error", err)
	}
}

// member qualifies a connection ID with the owning node so the shared index
// distinguishes connections across processes.
func (r *Registry) member(connID string) string {
	return r.nodeID + "/" + connID
}
