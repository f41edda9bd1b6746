// Package shared provides small helpers used across the service.
package shared

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPingTimeout bounds the connection check in ConnectRedis.
const redisPingTimeout = 5 * time.Second

// EnvOr returns the value of the environment variable, or fallback when the
// variable is unset or empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MaskDSN redacts the password in a URL-style DSN so it can be logged. A DSN
// that does not parse as a URL is masked entirely.
func MaskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// MaskSecret hides all but a short prefix of a credential for logging.
func MaskSecret(secret string) string {
	if len(secret) > 4 {
		return secret[:2] + "***"
	}
	return "***"
}

// ConnectRedis creates a Redis client and verifies connectivity with a
// bounded ping before handing it back.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return client, nil
}
