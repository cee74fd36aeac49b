package registry

import (
	"log/slog"
	"sync"
)

// Conn is a live connection the hub can deliver frames to. Sessions
// implement it via the gateway's transport wrapper.
type Conn interface {
	ID() string
	Write(data []byte) error
}

// Hub is the in-process half of the room registry: room name -> set of local
// connection IDs. Cross-process membership lives in the Presence index and
// cross-process delivery rides on the event bus; the hub only ever fans out
// to sockets owned by this node.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]Conn                // connID -> connection
	rooms     map[string]map[string]struct{} // room -> set of connIDs
	connRooms map[string]map[string]struct{} // connID -> set of rooms
	logger    *slog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns:     make(map[string]Conn),
		rooms:     make(map[string]map[string]struct{}),
		connRooms: make(map[string]map[string]struct{}),
		logger:    slog.Default().With("component", "hub"),
	}
}

// Register tracks a connection. A connection must be registered before it
// can join rooms.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

// Unregister removes a connection and pulls it out of every room it joined.
// It returns the rooms the connection was in so the caller can clean up the
// shared presence index. Safe to call for an unknown connection.
func (h *Hub) Unregister(connID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var left []string
	for room := range h.connRooms[connID] {
		left = append(left, room)
		h.removeFromRoom(connID, room)
	}
	delete(h.connRooms, connID)
	delete(h.conns, connID)
	return left
}

// Join adds the connection to the room's subscriber set. Idempotent: joining
// a room twice is a no-op and never duplicates delivery. Returns false if
// the connection is not registered.
func (h *Hub) Join(connID, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return false
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][connID] = struct{}{}
	if h.connRooms[connID] == nil {
		h.connRooms[connID] = make(map[string]struct{})
	}
	h.connRooms[connID][room] = struct{}{}
	return true
}

// Leave removes the connection from the room's subscriber set. Idempotent.
// Rooms have no existence beyond their subscriber set: the last leave
// removes the room entry entirely.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(connID, room)
	if set := h.connRooms[connID]; set != nil {
		delete(set, room)
		if len(set) == 0 {
			delete(h.connRooms, connID)
		}
	}
}

// removeFromRoom must be called with the lock held.
func (h *Hub) removeFromRoom(connID, room string) {
	if set := h.rooms[room]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Deliver writes data to every local member of the room and returns the
// number of successful writes. A failed or slow socket only affects itself:
// the write error is logged and delivery continues. Delivering to a room
// with no members is a silent no-op.
func (h *Hub) Deliver(room string, data []byte) int {
	h.mu.RLock()
	members := make([]Conn, 0, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		if c, ok := h.conns[connID]; ok {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if err := c.Write(data); err != nil {
			h.logger.Warn("failed to deliver to connection", "connID", c.ID(), "room", room, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Members returns the local connection IDs subscribed to a room.
func (h *Hub) Members(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]string, 0, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		members = append(members, connID)
	}
	return members
}

// Rooms returns the names of all rooms with at least one local subscriber.
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// InRoom reports whether the connection is currently subscribed to the room.
func (h *Hub) InRoom(connID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][connID]
	return ok
}

// ConnCount returns the number of registered connections.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
