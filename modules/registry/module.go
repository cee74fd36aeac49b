package registry

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"

	"github.com/example/jobboard-realtime/events"
)

// Module wires the Registry into the application lifecycle: it publishes
// RoomEvents over the event bus and consumes them on every node, delivering
// to the local hub.
type Module struct {
	registry *Registry
	rdb      *redis.Client
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the registry module. When REDIS_ADDR is set the shared
// presence index is enabled; otherwise membership is local to this process.
func NewModule() *Module {
	var presence Presence
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		presence = NewRedisPresence(rdb, "presence:")
	}
	return &Module{
		registry: NewRegistry(presence),
		rdb:      rdb,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "registry"
}

// Start verifies the presence backend when one is configured.
func (m *Module) Start(ctx context.Context) error {
	if m.rdb != nil {
		if err := m.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		log.Printf("[registry] Presence index enabled (node %s)", m.registry.nodeID)
	}
	log.Println("[registry] Module started")
	return nil
}

// Stop closes the presence backend.
func (m *Module) Stop(_ context.Context) error {
	if m.rdb != nil {
		if err := m.rdb.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	log.Printf("[registry] Module stopped - %d connections were registered", m.registry.ConnCount())
	return nil
}

// SetEventBus attaches the broadcast medium to the registry.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.registry.SetEventBus(bus)
}

// EmitEvents declares the events this module emits.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomEventV1.ToBase(),
	}
}

// RegisterEventConsumers subscribes this node to room events. The queue
// group must be unique per node: the default group (the module name) is
// shared by every process, and NATS hands each message to only one member
// of a group. Fan-out requires every node to consume every event, so each
// subscribes under its own group.
func (m *Module) RegisterEventConsumers(reg mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		reg, events.RoomEventV1, m.handleRoomEvent, m, m.QueueGroup(),
	); err != nil {
		return fmt.Errorf("failed to register RoomEvent consumer: %w", err)
	}
	log.Printf("[registry] Registered event consumers: RoomEvent (queue group %s)", m.QueueGroup())
	return nil
}

// QueueGroup returns this node's consumer queue group for room events.
func (m *Module) QueueGroup() string {
	return "registry-" + m.registry.NodeID()
}

func (m *Module) handleRoomEvent(_ context.Context, ev events.RoomEvent, _ *mono.Msg) error {
	m.registry.Deliver(ev)
	return nil
}

// Health reports hub and presence status.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	details := map[string]any{
		"node":        m.registry.nodeID,
		"connections": m.registry.ConnCount(),
		"rooms":       len(m.registry.Rooms()),
	}
	if m.rdb != nil {
		if err := m.rdb.Ping(ctx).Err(); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("presence backend unreachable: %v", err),
				Details: details,
			}
		}
		details["presence"] = "redis"
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

// Registry returns the registry instance for the gateway and services.
func (m *Module) Registry() *Registry {
	return m.registry
}
