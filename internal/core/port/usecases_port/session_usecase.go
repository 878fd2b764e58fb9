package usecases_port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

// BrowseSessionPort - состояние одной вкладки браузера
type BrowseSessionPort interface {
	ID() string
	Filters() FilterStoreUseCasePort
	Dialog() FilterDialogUseCasePort
	Listing() ListingUseCasePort
	Map() MapLoaderUseCasePort
	Viewport() MapViewportUseCasePort
	FindProperty(id string) (domain.Property, bool)
}

type SessionRegistryUseCasePort interface {
	// GetOrCreate возвращает существующую сессию или поднимает новую; created=true для новой
	GetOrCreate(ctx context.Context, sessionID string) (session BrowseSessionPort, created bool, err error)
	Create(ctx context.Context) (BrowseSessionPort, error)
}
