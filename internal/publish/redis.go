package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultStreamMaxLen caps the momentum stream.
const DefaultStreamMaxLen = 10000

// RedisConfig configures RedisPublisher.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	Stream       string // XADD target; empty disables the stream
	Channel      string // PUBLISH notification target; empty disables it
	StreamMaxLen int64  // 0 = unlimited
}

// RedisPublisher appends each batch to a stream and announces it on a channel.
type RedisPublisher struct {
	client *redis.Client
	cfg    RedisConfig
	logger *zap.Logger
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to redis",
		zap.String("addr", cfg.Addr),
		zap.String("stream", cfg.Stream),
		zap.Int64("stream_max_len", cfg.StreamMaxLen))

	return NewRedisPublisherFromClient(rdb, cfg, logger), nil
}

// NewRedisPublisherFromClient wraps an existing client.
func NewRedisPublisherFromClient(client *redis.Client, cfg RedisConfig, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, cfg: cfg, logger: logger}
}

// Name returns "redis".
func (p *RedisPublisher) Name() string { return "redis" }

// Publish appends the batch to the stream, then publishes a notification
// carrying the stream entry id.
func (p *RedisPublisher) Publish(ctx context.Context, b *Batch) error {
	body, err := Encode(b)
	if err != nil {
		return err
	}

	var entryID string
	if p.cfg.Stream != "" {
		args := &redis.XAddArgs{
			Stream: p.cfg.Stream,
			Values: map[string]interface{}{
				"run_id":     b.RunID,
				"as_of_date": b.AsOfDate,
				"window":     b.Window.String(),
				"count":      len(b.Records),
				"payload":    string(body),
			},
		}
		if p.cfg.StreamMaxLen > 0 {
			args.MaxLen = p.cfg.StreamMaxLen
			args.Approx = true
		}
		entryID, err = p.client.XAdd(ctx, args).Result()
		if err != nil {
			return fmt.Errorf("xadd %s: %w", p.cfg.Stream, err)
		}
	}

	if p.cfg.Channel != "" {
		msg := fmt.Sprintf(`{"as_of_date":%q,"window":%q,"count":%d,"entry_id":%q}`,
			b.AsOfDate, b.Window.String(), len(b.Records), entryID)
		if err := p.client.Publish(ctx, p.cfg.Channel, msg).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", p.cfg.Channel, err)
		}
	}

	p.logger.Debug("momentum published to redis",
		zap.String("window", b.Window.String()),
		zap.String("entry_id", entryID),
		zap.Int("records", len(b.Records)))
	return nil
}

// Close closes the client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
