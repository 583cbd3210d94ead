package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"patientapi/internal/config"
)

const eventTypePatientCreated = "patient.created"

// RedisPublisher appends patient lifecycle events to a Redis stream. Stream
// entries are retained until trimmed, so consumer groups can replay and get
// at-least-once delivery across restarts.
type RedisPublisher struct {
	rdb    *goredis.Client
	stream string
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher connects to Redis and verifies the connection with a ping
// before returning.
func NewRedisPublisher(c config.EventsConfig) (*RedisPublisher, error) {
	if c.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	stream := c.Stream
	if stream == "" {
		stream = "patient.events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        c.RedisAddr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPublisher{rdb: rdb, stream: stream}, nil
}

// PublishPatientCreated XADDs the JSON-encoded event to the patient lifecycle
// stream.
func (p *RedisPublisher) PublishPatientCreated(ctx context.Context, ev PatientCreatedEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":    eventTypePatientCreated,
			"payload": raw,
		},
	}).Err()
}

// Close releases the underlying Redis client.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
