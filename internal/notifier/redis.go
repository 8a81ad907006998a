package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gradewatch/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher pushes events onto a Redis list consumed by workers.
type RedisPublisher struct {
	client *redis.Client
	queue  string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(addr, password string, db int, queue string) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisPublisher{client: rdb, queue: queue}, nil
}

func (p *RedisPublisher) Name() string { return "redis" }

// Publish implements Sink.
func (p *RedisPublisher) Publish(ctx context.Context, evt *model.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
