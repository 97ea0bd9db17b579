package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// UsersKey caches the serialized user list; every user mutation
// invalidates it.
const UsersKey = "users"

const defaultSize = 128

// Cache is a small expiring response cache shared across request
// handlers. It is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, any]
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, any](defaultSize, nil, ttl)}
}

func (c *Cache) Get(key string) (any, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Set(key string, value any) {
	c.lru.Add(key, value)
}

func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

func (c *Cache) Flush() {
	c.lru.Purge()
}
