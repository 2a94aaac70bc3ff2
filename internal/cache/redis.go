// Package cache provides Redis caching utilities for the application.
// Every helper is fail-open: with no Redis client configured the callers
// fall through to the database.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the shared Redis client. Nil when Redis is unavailable.
var Client *redis.Client

// InitRedis initializes the Redis client with the given address. Accepts
// either a host:port pair or a redis:// URL.
func InitRedis(addr string, log *slog.Logger) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Warn("invalid REDIS_URL, continuing without cache", "addr", addr, "error", err)
			Client = nil
			return
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	Client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, continuing without cache", "error", err)
		Client = nil
		return
	}
	log.Info("redis connected")
}

// Close releases the Redis connection if one was established.
func Close() {
	if Client != nil {
		_ = Client.Close()
		Client = nil
	}
}
