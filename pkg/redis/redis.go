package redis

import (
	"GoodGamingApi/pkg/logger"
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisService represents the Redis service
type RedisService struct {
	client *redis.Client // Keep the field unexported
}

// NewRedisService creates a new instance of the Redis service
func NewRedisService(redisAddr string, redisPassword string) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       0,
	})

	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		logger.Fatal("%v", err)
	}

	logger.Info("Connected to Redis")

	return &RedisService{
		client: client,
	}
}

// SetKey sets a key-value pair in Redis
func (r *RedisService) SetKey(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	err := r.client.Set(ctx, key, value, expiration).Err()
	if err != nil {
		return logger.WrapError(err, "")
	}
	return nil
}

// GetKey retrieves the value of a key from Redis
func (r *RedisService) GetKey(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", logger.WrapError(err, "")
	}
	return val, nil
}

// PushRecent prepends a value to a capped list, keeping at most max entries
func (r *RedisService) PushRecent(ctx context.Context, key string, value interface{}, max int64) error {
	if err := r.client.LPush(ctx, key, value).Err(); err != nil {
		return logger.WrapError(err, "")
	}
	if err := r.client.LTrim(ctx, key, 0, max-1).Err(); err != nil {
		return logger.WrapError(err, "")
	}
	return nil
}

// GetRecent returns the newest entries of a capped list
func (r *RedisService) GetRecent(ctx context.Context, key string, count int64) ([]string, error) {
	values, err := r.client.LRange(ctx, key, 0, count-1).Result()
	if err != nil {
		return nil, logger.WrapError(err, "")
	}
	return values, nil
}
