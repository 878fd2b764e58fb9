package redis_adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"property-browser-service/internal/constants"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"time"

	"github.com/redis/go-redis/v9"
)

// PageCache - кэш страниц списка, общий для всех сессий
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.PropertyPageCachePort = (*PageCache)(nil)

func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{client: client, ttl: ttl}
}

// cachedPage - формат значения в Redis
type cachedPage struct {
	Properties []domain.Property `json:"properties"`
	Pagination domain.Pagination `json:"pagination"`
}

func (c *PageCache) key(query domain.PropertyQuery) string {
	sum := sha256.Sum256([]byte(query.CacheKey()))
	return constants.PageCacheKeyPrefix + hex.EncodeToString(sum[:16])
}

func (c *PageCache) Get(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, bool, error) {
	data, err := c.client.Get(ctx, c.key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read page cache: %w", err)
	}

	var page cachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		// битая запись равносильна промаху
		_ = c.client.Del(ctx, c.key(query)).Err()
		return nil, false, nil
	}
	return &domain.PropertyPage{Properties: page.Properties, Pagination: page.Pagination}, true, nil
}

func (c *PageCache) Set(ctx context.Context, query domain.PropertyQuery, page *domain.PropertyPage) error {
	if page == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedPage{Properties: page.Properties, Pagination: page.Pagination})
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	if err := c.client.Set(ctx, c.key(query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write page cache: %w", err)
	}
	return nil
}
