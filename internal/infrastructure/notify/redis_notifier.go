// Package notify bridges domain events onto the realtime feed. The
// dashboard subscribes to a per-owner Redis channel and renders import
// progress as it happens.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/shared"
	"github.com/frontdesk/backend/internal/infrastructure/config"
)

// channelPrefix namespaces the per-owner pub/sub channels
const channelPrefix = "imports:"

// RedisNotifier republishes task status events to Redis pub/sub. It is an
// event bus handler: the orchestrator never talks to it directly, and a
// Redis outage degrades the feed without touching import outcomes.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier creates a notifier with its own Redis connection
func NewRedisNotifier(cfg *config.RedisConfig, logger *zap.Logger) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisNotifierWithClient(client, logger), nil
}

// NewRedisNotifierWithClient creates a notifier around an existing client.
// The caller retains ownership of the client.
func NewRedisNotifierWithClient(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		logger: logger.Named("notify"),
	}
}

// Handle publishes the event to the owner's channel
func (n *RedisNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	statusEvent, ok := event.(*importer.TaskStatusChangedEvent)
	if !ok {
		// Not ours; the bus should only route task status events here
		return nil
	}

	payload, err := json.Marshal(statusEvent)
	if err != nil {
		return fmt.Errorf("notify: marshal status event: %w", err)
	}

	channel := ChannelForOwner(statusEvent.OwnerID().String())
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", channel, err)
	}

	n.logger.Debug("Published task status",
		zap.String("channel", channel),
		zap.String("task_type", statusEvent.TaskType.String()),
		zap.String("status", statusEvent.Status.String()),
	)
	return nil
}

// EventTypes subscribes the notifier to task status changes only
func (n *RedisNotifier) EventTypes() []string {
	return []string{importer.EventTypeTaskStatusChanged}
}

// Ping checks the Redis connection
func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// ChannelForOwner returns the pub/sub channel carrying an owner's import
// progress
func ChannelForOwner(ownerID string) string {
	return channelPrefix + ownerID
}

// Ensure RedisNotifier implements shared.EventHandler
var _ shared.EventHandler = (*RedisNotifier)(nil)
