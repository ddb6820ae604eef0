package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	readCount = 100
	readBlock = 5 * time.Second
	// retryWait is the pause after a failed read.
	retryWait = time.Second
)

// StreamConsumer tails a game-loaded stream. Every consumer sees every
// entry; there is no consumer group, since each API process keeps its own
// response cache.
type StreamConsumer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

// NewStreamConsumer creates a consumer reading stream.
func NewStreamConsumer(client *redis.Client, stream string, logger *slog.Logger) *StreamConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamConsumer{client: client, stream: stream, logger: logger}
}

// ConnectConsumer parses redisURL, pings the server and returns a consumer.
func ConnectConsumer(ctx context.Context, redisURL, stream string, logger *slog.Logger) (*StreamConsumer, error) {
	client, err := dial(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return NewStreamConsumer(client, stream, logger), nil
}

// Close releases the Redis connection.
func (c *StreamConsumer) Close() error {
	return c.client.Close()
}

// Run calls handle for every entry added after Run starts, until ctx is
// cancelled. Entries that cannot be decoded are logged and skipped.
func (c *StreamConsumer) Run(ctx context.Context, handle func(GameLoadedEvent)) error {
	c.logger.Info("Stream consumer started", "stream", c.stream)
	lastID := "$"
	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := c.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.stream, lastID},
			Count:   readCount,
			Block:   readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("Stream read failed", "stream", c.stream, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryWait):
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				lastID = msg.ID
				ev, err := ParseEntry(msg)
				if err != nil {
					c.logger.Warn("Skipping stream entry", "stream", c.stream, "entry", msg.ID, "error", err)
					continue
				}
				handle(ev)
			}
		}
	}
}

// ParseEntry decodes the data field of a stream entry written by
// StreamPublisher.
func ParseEntry(msg redis.XMessage) (GameLoadedEvent, error) {
	var ev GameLoadedEvent
	data, ok := msg.Values["data"].(string)
	if !ok {
		return ev, fmt.Errorf("entry %s has no data field", msg.ID)
	}
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return ev, fmt.Errorf("entry %s: %w", msg.ID, err)
	}
	if ev.ExtGameID == "" {
		return ev, fmt.Errorf("entry %s has no ext_game_id", msg.ID)
	}
	return ev, nil
}
