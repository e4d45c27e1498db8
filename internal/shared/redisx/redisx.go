package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct{ R *redis.Client }

func New(addr string, db int) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &Client{R: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.R.Ping(ctx).Err()
}

func (c *Client) Close() error { return c.R.Close() }
