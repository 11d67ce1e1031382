// Package redis implementa el contador de cuota diaria sobre Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Biblioteca-api/internal/application/ratelimit"
)

var _ ratelimit.Counter = (*Counter)(nil)

// NewClient crea el cliente desde una URL redis:// y verifica la conexión.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a redis: %w", err)
	}
	return client, nil
}

// Counter INCR + EXPIREAT en una transacción MULTI/EXEC: todas las réplicas del servicio
// comparten el mismo contador por clave.
type Counter struct {
	client goredis.Cmdable
}

// NewCounter construye el contador sobre un cliente (o cluster) de Redis.
func NewCounter(client goredis.Cmdable) *Counter {
	return &Counter{client: client}
}

// Incr incrementa key y fija su expiración absoluta en expireAt.
func (c *Counter) Incr(ctx context.Context, key string, expireAt time.Time) (int64, error) {
	var incr *goredis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireAt(ctx, key, expireAt)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}
