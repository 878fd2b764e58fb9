package usecases_port

import (
	"context"
	"property-browser-service/internal/core/domain"
)

// MapLoaderUseCasePort - пакетная загрузка объектов для карты
type MapLoaderUseCasePort interface {
	Load(ctx context.Context, filters domain.FilterSet) domain.MapLoadState
	Reset()
	State() domain.MapLoadState
}

// MapViewportUseCasePort - маркеры и фокус карты
type MapViewportUseCasePort interface {
	Markers(zoom float64, hoveredID string, mode domain.PriceDisplayMode) []domain.Marker
	Focus(propertyID string, zoom float64, hover bool) (domain.MapFocus, error)
}
