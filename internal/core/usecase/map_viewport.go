package usecase

import (
	"property-browser-service/internal/core/domain"

	"github.com/mmcloughlin/geohash"
)

// DefaultFocusZoom - зум при фокусе на объекте, если клиент его не передал
const DefaultFocusZoom = 15

// PropertyFinder ищет объект по id в одной из коллекций сессии
type PropertyFinder interface {
	FindProperty(id string) (domain.Property, bool)
}

// MapViewport строит маркеры и фокус карты по коллекции карты
type MapViewport struct {
	cache   *MapPropertyCache
	finders []PropertyFinder
}

// NewMapViewport; finders просматриваются после кэша карты по порядку
func NewMapViewport(cache *MapPropertyCache, finders ...PropertyFinder) *MapViewport {
	return &MapViewport{cache: cache, finders: finders}
}

// Markers - маркеры всех загруженных объектов для текущего зума
func (v *MapViewport) Markers(zoom float64, hoveredID string, mode domain.PriceDisplayMode) []domain.Marker {
	props := v.cache.Properties()
	precision := domain.GeohashPrecision(zoom)

	markers := make([]domain.Marker, 0, len(props))
	for _, p := range props {
		pos, approximate := domain.ResolveCoordinates(p.Coordinates)
		hovered := hoveredID != "" && p.ID == hoveredID
		markers = append(markers, domain.Marker{
			PropertyID:   p.ID,
			Name:         p.Name,
			Position:     pos,
			Approximate:  approximate,
			Size:         domain.MarkerSize(zoom, hovered),
			ZIndex:       domain.MarkerZ(hovered),
			Hovered:      hovered,
			Cell:         geohash.EncodeWithPrecision(pos.Lat, pos.Lng, precision),
			DisplayPrice: p.DisplayPrice(mode),
		})
	}
	return markers
}

// Focus - куда сдвинуть карту для объекта. Наведение и клик оба открывают попап.
func (v *MapViewport) Focus(propertyID string, zoom float64, hover bool) (domain.MapFocus, error) {
	p, ok := v.FindProperty(propertyID)
	if !ok {
		return domain.MapFocus{}, domain.ErrPropertyNotFound
	}
	if zoom <= 0 {
		zoom = DefaultFocusZoom
	}
	center, approximate := domain.ResolveCoordinates(p.Coordinates)
	return domain.MapFocus{
		PropertyID:  p.ID,
		Center:      center,
		Zoom:        zoom,
		OpenPopup:   true,
		Hover:       hover,
		Approximate: approximate,
	}, nil
}

func (v *MapViewport) FindProperty(id string) (domain.Property, bool) {
	if p, ok := v.cache.FindProperty(id); ok {
		return p, true
	}
	for _, f := range v.finders {
		if p, ok := f.FindProperty(id); ok {
			return p, true
		}
	}
	return domain.Property{}, false
}
