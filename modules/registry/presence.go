package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Presence mirrors room membership into a process-external index so every
// node in the deployment shares one view of who is subscribed where. It is
// an observability mirror: delivery correctness rests on the event bus
// fan-out, not on this index.
type Presence interface {
	Join(ctx context.Context, room, member string) error
	Leave(ctx context.Context, room, member string) error
	Members(ctx context.Context, room string) ([]string, error)
}

// RedisPresence keeps one Redis set per room.
type RedisPresence struct {
	client *redis.Client
	prefix string
}

// NewRedisPresence creates a Redis-backed presence index.
func NewRedisPresence(client *redis.Client, prefix string) *RedisPresence {
	if prefix == "" {
		prefix = "presence:"
	}
	return &RedisPresence{client: client, prefix: prefix}
}

// Join adds a member to the room's set.
func (p *RedisPresence) Join(ctx context.Context, room, member string) error {
	if err := p.client.SAdd(ctx, p.prefix+room, member).Err(); err != nil {
		return fmt.Errorf("presence join error: %w", err)
	}
	return nil
}

// Leave removes a member from the room's set.
func (p *RedisPresence) Leave(ctx context.Context, room, member string) error {
	if err := p.client.SRem(ctx, p.prefix+room, member).Err(); err != nil {
		return fmt.Errorf("presence leave error: %w", err)
	}
	return nil
}

// Members returns all members of the room's set across the deployment.
func (p *RedisPresence) Members(ctx context.Context, room string) ([]string, error) {
	members, err := p.client.SMembers(ctx, p.prefix+room).Result()
	if err != nil {
		return nil, fmt.Errorf("presence members error: %w", err)
	}
	return members, nil
}

// Ping checks the Redis connection.
func (p *RedisPresence) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
