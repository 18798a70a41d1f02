package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Resham8/token-swap/internal/models"
)

const (
	redisKeyRecent = "swapdesk:recent"
	redisChannel   = "swapdesk:live"
	maxRecent      = 100
)

// RedisRecorder keeps a capped list of recent swaps and publishes each
// confirmed swap on a pub/sub channel for live consumers.
type RedisRecorder struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisRecorder(client *redis.Client, logger *logrus.Logger) *RedisRecorder {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisRecorder{client: client, logger: logger}
}

func (r *RedisRecorder) Record(ctx context.Context, rec *models.SwapRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal swap record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, redisKeyRecent, data)
	pipe.LTrim(ctx, redisKeyRecent, 0, maxRecent-1)
	pipe.Publish(ctx, redisChannel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record swap: %w", err)
	}
	return nil
}

func (r *RedisRecorder) Recent(ctx context.Context, limit int64) ([]*models.SwapRecord, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	vals, err := r.client.LRange(ctx, redisKeyRecent, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent swaps: %w", err)
	}

	out := make([]*models.SwapRecord, 0, len(vals))
	for _, v := range vals {
		var rec models.SwapRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			r.logger.WithError(err).Warn("skipping undecodable swap record")
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

// Subscribe streams live swap records until ctx is cancelled.
func (r *RedisRecorder) Subscribe(ctx context.Context) (<-chan *models.SwapRecord, error) {
	sub := r.client.Subscribe(ctx, redisChannel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe to swaps: %w", err)
	}

	out := make(chan *models.SwapRecord)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var rec models.SwapRecord
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					r.logger.WithError(err).Warn("skipping undecodable swap message")
					continue
				}
				select {
				case out <- &rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisRecorder) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
