package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const eventQueueKey = "dashboard_events"

// Event is a broadcast payload describing a dashboard state change:
// a feed refresh or an emergency escalation outcome.
type Event struct {
	Type        string    `json:"type"` // "feed.refresh" or "escalation"
	Timestamp   time.Time `json:"timestamp"`
	Incidents   int       `json:"incidents,omitempty"`
	Assets      int       `json:"assets,omitempty"`
	ActiveAlert int       `json:"active_alerts,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Operator    string    `json:"operator,omitempty"`
	IncidentID  string    `json:"incident_id,omitempty"`
}

// Publisher pushes events onto the broadcast queue.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher is a Publisher backed by a redis list.
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redisClient: client}
}

// Publish enqueues the event. LPUSH pairs with the worker's BRPop so
// delivery order follows publish order.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, eventQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish dashboard event to Redis: %w", err)
	}
	return nil
}
