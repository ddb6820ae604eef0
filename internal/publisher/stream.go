// Package publisher announces loaded games on a Redis stream so downstream
// consumers can pick up new reconstructions without polling Postgres. The
// read API tails the same stream to drop stale cached responses.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/albapepper/audl-stats/internal/provider"
	"github.com/albapepper/audl-stats/internal/seed"
)

// maxStreamLen caps the stream; older entries are trimmed approximately.
const maxStreamLen = 10000

// StreamPublisher publishes game-loaded notifications to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

// NewStreamPublisher creates a publisher writing to stream.
func NewStreamPublisher(client *redis.Client, stream string, logger *slog.Logger) *StreamPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamPublisher{client: client, stream: stream, logger: logger}
}

// Connect parses redisURL, pings the server and returns a publisher.
func Connect(ctx context.Context, redisURL, stream string, logger *slog.Logger) (*StreamPublisher, error) {
	client, err := dial(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return NewStreamPublisher(client, stream, logger), nil
}

func dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Close releases the Redis connection.
func (p *StreamPublisher) Close() error {
	return p.client.Close()
}

// GameLoaded publishes one stored game.
func (p *StreamPublisher) GameLoaded(ctx context.Context, game *provider.Game, res seed.Result) error {
	values, err := Message(game, res)
	if err != nil {
		return err
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	p.logger.Debug("Game published", "stream", p.stream, "entry", id, "ext_game_id", game.ExtGameID)
	return nil
}

// GameLoadedEvent is the data field of a stream entry.
type GameLoadedEvent struct {
	ExtGameID string `json:"ext_game_id"`
	GameID    string `json:"game_id"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Points    int    `json:"points"`
	Events    int    `json:"events"`
}

// Message builds the stream entry fields for a loaded game.
func Message(game *provider.Game, res seed.Result) (map[string]interface{}, error) {
	data, err := json.Marshal(GameLoadedEvent{
		ExtGameID: game.ExtGameID,
		GameID:    res.GameID,
		Home:      game.Home.Team.Abbreviation,
		Away:      game.Away.Team.Abbreviation,
		HomeScore: game.HomeScore,
		AwayScore: game.AwayScore,
		Points:    res.PointsInserted,
		Events:    res.EventsInserted,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling game loaded: %w", err)
	}

	return map[string]interface{}{
		"data":        string(data),
		"ext_game_id": game.ExtGameID,
		"game_id":     res.GameID,
		"points":      res.PointsInserted,
		"home_score":  game.HomeScore,
		"away_score":  game.AwayScore,
	}, nil
}
