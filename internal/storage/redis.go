package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	logx "chartjobs/pkg/logx"
)

const (
	redisKey     = "chartjobs:completions"
	redisMaxKeep = 10000
	redisDialTTL = 3 * time.Second
)

// redisStore keeps records as JSON in a capped list, newest at the head.
type redisStore struct {
	rdb *redis.Client
	key string
	log logx.Logger
}

// openRedis takes a redis:// URL in cfg.Path.
func openRedis(cfg Config, log logx.Logger) (Store, error) {
	url := strings.TrimSpace(cfg.Path)
	if url == "" {
		return nil, errors.New("storage.path must be a redis:// URL for redis driver")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if cfg.BusyTimeout > 0 {
		opt.ReadTimeout = cfg.BusyTimeout
		opt.WriteTimeout = cfg.BusyTimeout
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTTL)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opt.Addr, err)
	}
	log.Debug("redis store opened", logx.String("addr", opt.Addr), logx.Int("db", opt.DB))
	return &redisStore{rdb: rdb, key: redisKey, log: log}, nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }

func (s *redisStore) AppendCompletion(ctx context.Context, r CompletionRecord) error {
	if r.At.IsZero() {
		r.At = time.Now()
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, s.key, b)
		p.LTrim(ctx, s.key, 0, redisMaxKeep-1)
		return nil
	})
	return err
}

func (s *redisStore) Recent(ctx context.Context, limit int) ([]CompletionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := s.rdb.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]CompletionRecord, 0, len(raw))
	for _, line := range raw {
		var r CompletionRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			s.log.Debug("skipping bad completion entry", logx.Err(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
