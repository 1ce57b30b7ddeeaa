// Package redis provides a read-through Redis cache in front of the catalog
// repository.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/repository"
)

const keyPrefix = "product:"

// ProductCache decorates a repository.ProductRepository. GetByID is served
// from Redis when possible; writes go to the backing store first and then
// evict the cached entry. Cache failures are logged and never fail a call.
type ProductCache struct {
	next   repository.ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProductCache wraps next with a Redis cache keyed by product ID.
func NewProductCache(next repository.ProductRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProductCache {
	return &ProductCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ProductCache) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	key := keyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p domain.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cached product", slog.String("product_id", id))
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "product cache read failed", slog.String("product_id", id), slog.String("error", err.Error()))
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, p)
	return p, nil
}

func (c *ProductCache) Create(ctx context.Context, p *domain.Product) error {
	return c.next.Create(ctx, p)
}

func (c *ProductCache) Update(ctx context.Context, p *domain.Product) error {
	if err := c.next.Update(ctx, p); err != nil {
		return err
	}
	c.evict(ctx, p.ID)
	return nil
}

func (c *ProductCache) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

// List is not cached; page contents change on every catalog write.
func (c *ProductCache) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, int, error) {
	return c.next.List(ctx, f)
}

func (c *ProductCache) store(ctx context.Context, p *domain.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+p.ID, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "product cache write failed", slog.String("product_id", p.ID), slog.String("error", err.Error()))
	}
}

func (c *ProductCache) evict(ctx context.Context, id string) {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		c.logger.WarnContext(ctx, "product cache evict failed", slog.String("product_id", id), slog.String("error", err.Error()))
	}
}
