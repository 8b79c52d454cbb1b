package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisTallyKey  = "tictactoe:tally"
	redisRecentKey = "tictactoe:recent"
)

// RedisStore keeps the tally in a hash and the newest results in a capped
// list of JSON documents.
type RedisStore struct {
	client *redis.Client
	log    *zap.SugaredLogger
	limit  int64
}

func NewRedisStore(client *redis.Client, log *zap.SugaredLogger, limit int64) *RedisStore {
	if limit <= 0 {
		limit = 100
	}
	return &RedisStore{client: client, log: log, limit: limit}
}

func (r *RedisStore) Record(ctx context.Context, res Result) error {
	if !validOutcome(res.Outcome) {
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, res.Outcome)
	}
	doc, err := json.Marshal(res)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, redisTallyKey, res.Outcome, 1)
	pipe.LPush(ctx, redisRecentKey, doc)
	pipe.LTrim(ctx, redisRecentKey, 0, r.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record: %w", err)
	}
	return nil
}

func (r *RedisStore) Tally(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	raw, err := r.client.HGetAll(ctx, redisTallyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis tally: %w", err)
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.log.Warnf("skipping malformed tally entry %s=%q", k, v)
			continue
		}
		out[k] = n
	}
	return out, nil
}

func (r *RedisStore) Recent(ctx context.Context, limit int) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	docs, err := r.client.LRange(ctx, redisRecentKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis recent: %w", err)
	}
	out := make([]Result, 0, len(docs))
	for _, d := range docs {
		var res Result
		if err := json.Unmarshal([]byte(d), &res); err != nil {
			r.log.Warnf("skipping malformed result: %v", err)
			continue
		}
		out = append(out, res)
	}
	return out, nil
}
