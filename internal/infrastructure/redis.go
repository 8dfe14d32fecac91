package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultRedisPingTimeout = 3 * time.Second

var defaultRedisRetry = retryPolicy{
	maxRetry:  3,
	factor:    2.0,
	minJitter: 100 * time.Millisecond,
	maxJitter: 1 * time.Second,
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.CacheDSN) == "" {
		return nil, errors.New("redis cache_dsn is required")
	}

	options, err := redis.ParseURL(cfg.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("parse redis cache_dsn: %w", err)
	}

	client := redis.NewClient(options)

	policy := newRetryPolicy(defaultRedisRetry.maxRetry, 0, 0, 0, defaultRedisRetry)
	err = policy.retry(ctx, "redis", logrus.Fields{"redis_dsn": maskDSN(cfg.CacheDSN)}, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, defaultRedisPingTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	logrus.WithField("addr", options.Addr).Info("redis connection established")

	return client, nil
}
