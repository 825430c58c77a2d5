package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// SetSession stores token -> userID under session:{token} with the given TTL.
func (c *Client) SetSession(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.cli.Set(ctx, "session:"+token, userID, ttl).Err()
}

// GetSession resolves a token to a user id; an unknown or expired token
// returns an empty id and no error.
func (c *Client) GetSession(ctx context.Context, token string) (string, error) {
	val, err := c.cli.Get(ctx, "session:"+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// DeleteSession revokes a token (logout).
func (c *Client) DeleteSession(ctx context.Context, token string) error {
	return c.cli.Del(ctx, "session:"+token).Err()
}
