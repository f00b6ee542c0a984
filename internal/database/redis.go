package database

import (
	"context"
	"fmt"

	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func redisOptions(cfg *config.Config) (*redis.Options, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opt.ClientName == "" {
		opt.ClientName = applicationName
	}
	return opt, nil
}

// NewRedisClient connects the Redis instance shared by the number fact cache
// and the enrollment event queue.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Str("events_queue", config.WorkerKey.EnrollmentEventsQueue).
		Bool("fact_cache", cfg.NumberFactTTL > 0).
		Dur("fact_ttl", cfg.NumberFactTTL).
		Msg("Redis connected")

	return rdb, nil
}
