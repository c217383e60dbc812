package cache

import (
	"context"
	"encoding/json"
	"time"

	"furnibles/internal/domain"

	"github.com/redis/go-redis/v9"
)

const productTTL = 10 * time.Minute

// Catalog is a small read-through cache for plan detail lookups. It is
// strictly best-effort: any Redis error is treated as a miss.
type Catalog struct {
	rdb *redis.Client
}

// New dials Redis and returns nil when addr is empty or the server is
// unreachable, so callers can treat the cache as optional.
func New(addr string) *Catalog {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil
	}
	return &Catalog{rdb: rdb}
}

func key(id string) string { return "plan:" + id }

func (c *Catalog) GetProduct(id string) (domain.Product, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	raw, err := c.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		return domain.Product{}, false
	}
	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Product{}, false
	}
	return p, true
}

func (c *Catalog) SetProduct(p domain.Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.rdb.Set(ctx, key(p.ID), raw, productTTL).Err()
}

func (c *Catalog) DelProduct(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.rdb.Del(ctx, key(id)).Err()
}
