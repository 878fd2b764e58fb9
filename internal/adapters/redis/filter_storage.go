package redis_adapter

import (
	"context"
	"errors"
	"fmt"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"time"

	"github.com/redis/go-redis/v9"
)

// FilterStorage - слот сохраненных фильтров в Redis.
// TTL ключа дублирует проверку метки времени в записи.
type FilterStorage struct {
	client *redis.Client
}

var _ port.FilterStoragePort = (*FilterStorage)(nil)

func NewFilterStorage(client *redis.Client) *FilterStorage {
	return &FilterStorage{client: client}
}

func (s *FilterStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoSavedFilters
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load filter record %s: %w", key, err)
	}
	return data, nil
}

func (s *FilterStorage) Save(ctx context.Context, key string, record []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, record, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save filter record %s: %w", key, err)
	}
	contextkeys.LoggerFromContext(ctx).Debug("Filter record saved", port.Fields{"key": key, "ttl": ttl.String()})
	return nil
}

func (s *FilterStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete filter record %s: %w", key, err)
	}
	return nil
}
