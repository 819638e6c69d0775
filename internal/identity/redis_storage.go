package identity

import (
	"context"
	"errors"
	"net"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "hxnotes::"

type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a traced redis client.
func NewRedisClient(host, port, password string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: password,
		DB:       0, // use default DB
	})
	rdb.AddHook(redisotel.NewTracingHook())
	return rdb
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: redisKeyPrefix,
	}
}

func (rs *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := rs.client.Get(ctx, rs.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (rs *RedisStorage) Set(ctx context.Context, key, value string) error {
	// identity never expires
	return rs.client.Set(ctx, rs.prefix+key, value, 0).Err()
}
