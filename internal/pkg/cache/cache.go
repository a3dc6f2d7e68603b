package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/Chirper/internal/pkg/env"
)

// Redis databases used by the application.
const (
	DBCache   = 0
	DBSession = 1
	DBOAuth   = 2
	DBLimiter = 3
	DBCSRF    = 4
)

// New connects to the redis server configured by CACHE_HOST and CACHE_PORT.
// A failed ping is logged and the client is still returned.
func New(ctx context.Context) *goredis.Client {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       DBCache,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnw("could not connect to redis", "addr", client.Options().Addr, "error", err)
	} else {
		log.Infow("connected to redis", "addr", client.Options().Addr)
	}
	return client
}

// NewStorage returns a fiber storage on a separate database of the same server.
func NewStorage(client *goredis.Client, db int) *redis.Storage {
	opts := client.Options()
	host, port := opts.Addr, 6379
	if h, p, ok := splitHostPort(opts.Addr); ok {
		host, port = h, p
	}
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: db,
		Reset:    false,
	})
}

func splitHostPort(addr string) (string, int, bool) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, false
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, false
	}
	return h, port, true
}
