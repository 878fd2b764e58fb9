package port

import (
	"context"
	"time"
)

// FilterStoragePort - ключевой слот для сохраненных фильтров (аналог localStorage).
// Load возвращает domain.ErrNoSavedFilters, если записи нет.
type FilterStoragePort interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, record []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RecordValidatorPort проверяет сырую запись по JSON-схеме
type RecordValidatorPort interface {
	ValidateFilterRecord(body []byte) error
}
