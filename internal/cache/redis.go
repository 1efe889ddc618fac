// Package cache содержит обёртку над Redis для хранения строковых значений с TTL.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis хранит строковые значения в Redis.
type Redis struct {
	C *redis.Client
}

// New создаёт клиент Redis по адресу host:port.
func New(addr string) *Redis {
	return &Redis{
		C: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Ping проверяет доступность Redis.
func (r *Redis) Ping(ctx context.Context) error {
	return r.C.Ping(ctx).Err()
}

// Close закрывает соединения с Redis.
func (r *Redis) Close() error {
	return r.C.Close()
}

// GetString возвращает значение по ключу. Для отсутствующего ключа возвращается redis.Nil.
func (r *Redis) GetString(ctx context.Context, key string) (string, error) {
	return r.C.Get(ctx, key).Result()
}

// SetString сохраняет значение на время ttl.
func (r *Redis) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.C.Set(ctx, key, value, ttl).Err()
}
