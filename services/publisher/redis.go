package publisher

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// streamMaxLength bounds the stream so slow consumers never grow it unbounded
const streamMaxLength = 1000

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client *redis.Client
	ctx    context.Context
	stream string
}

// NewRedisPublisher creates a new Redis publisher appending to stream
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client: client,
		ctx:    ctx,
		stream: stream,
	}
}

// Publish appends a record payload to the stream under the source's key
func (p *RedisPublisher) Publish(source string, message []byte) error {
	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLength,
		Approx: true,
		Values: map[string]interface{}{
			source: message,
		},
	}).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
