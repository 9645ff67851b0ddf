package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"taskora/config"
)

// LockClient is the dedicated Redis client for distributed job locks.
var LockClient *redis.Client

// InitRedis initializes the Redis clients from AppConfig.
func InitRedis() {
	LockClient = newRedisClient(config.AppConfig.RedisLockDB)
}

func newRedisClient(db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (db %d): %v", db, err)
	}
	return client
}

// GetLockClient returns the Redis client used for job locks.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		LockClient = newRedisClient(config.AppConfig.RedisLockDB)
	}
	return LockClient
}

// AcquireDailyLock takes a day-scoped lock under the given name, returning
// false when another instance already ran the job that day. The lock expires
// on its own after ttl.
func AcquireDailyLock(ctx context.Context, name, day string, ttl time.Duration) (bool, error) {
	key := "lock:" + name + ":" + day
	return GetLockClient().SetNX(ctx, key, "1", ttl).Result()
}
