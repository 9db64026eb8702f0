// Package cache provides an optional Redis-backed cache for tool
// discovery results, layered on top of the gateway by the CLI.
//
// Graceful fallback: if Redis is not configured or unreachable, reads
// miss and writes are dropped instead of blocking the business logic.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oalmeida/mcpgate/internal/gateway"
)

// Key prefix for cached discovery results.
const keyTools = "mcpgate:tools:"

// Config holds Redis connection settings.
type Config struct {
	URL      string // redis://host:port
	Password string
	DB       int
	TTL      time.Duration
}

// Cache is a discovery-result cache. The zero value and a nil *Cache
// are both safe no-ops.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis. Returns an unavailable (no-op) cache when the
// URL is empty or the connection cannot be established.
func New(cfg Config) *Cache {
	c := &Cache{ttl: cfg.TTL}
	if c.ttl <= 0 {
		c.ttl = 5 * time.Minute
	}
	if cfg.URL == "" {
		return c
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Printf("[Cache] invalid Redis URL: %v", err)
		return c
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[Cache] Redis unreachable, caching disabled: %v", err)
		client.Close()
		return c
	}

	c.client = client
	log.Println("[Cache] Redis connected")
	return c
}

// Available reports whether a Redis connection is active.
func (c *Cache) Available() bool {
	return c != nil && c.client != nil
}

// Close releases the Redis connection.
func (c *Cache) Close() {
	if c.Available() {
		c.client.Close()
		c.client = nil
	}
}

// GetTools reads a cached descriptor list. Returns false on miss,
// decode failure, or when the cache is unavailable.
func (c *Cache) GetTools(ctx context.Context, key string) ([]gateway.ToolDescriptor, bool) {
	if !c.Available() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, keyTools+key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] get failed (%s): %v", key, err)
		}
		return nil, false
	}

	var tools []gateway.ToolDescriptor
	if err := json.Unmarshal([]byte(raw), &tools); err != nil {
		log.Printf("[Cache] decode failed (%s): %v", key, err)
		return nil, false
	}
	return tools, true
}

// PutTools stores a descriptor list with the configured TTL.
// Failures are logged and dropped.
func (c *Cache) PutTools(ctx context.Context, key string, tools []gateway.ToolDescriptor) {
	if !c.Available() {
		return
	}
	data, err := json.Marshal(tools)
	if err != nil {
		log.Printf("[Cache] encode failed (%s): %v", key, err)
		return
	}
	if err := c.client.Set(ctx, keyTools+key, data, c.ttl).Err(); err != nil {
		log.Printf("[Cache] put failed (%s): %v", key, err)
	}
}

// Invalidate drops a cached descriptor list.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if !c.Available() {
		return
	}
	if err := c.client.Del(ctx, keyTools+key).Err(); err != nil {
		log.Printf("[Cache] del failed (%s): %v", key, err)
	}
}
