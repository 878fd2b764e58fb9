package port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

// PropertyPageCachePort - кэш страниц списка. Промах возвращает (nil, false, nil).
type PropertyPageCachePort interface {
	Get(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, bool, error)
	Set(ctx context.Context, query domain.PropertyQuery, page *domain.PropertyPage) error
}
