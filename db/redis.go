// file: db/redis.go

package db

import (
	"context"
	"fmt"
	"go-bank-ledger/config"
	"go-bank-ledger/logger"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis initializes and returns a new Redis client.
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	r := cfg.Redis
	redisAddr := fmt.Sprintf("%s:%s", r.Host, r.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: r.Password,
		DB:       r.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping Redis")
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Log.WithField("address", redisAddr).Info("Redis connection established successfully")
	return rdb, nil
}
