package domain

import "math"

// Размеры маркера на карте в пикселях
const (
	MinMarkerSize    = 24
	MaxMarkerSize    = 56
	markerBaseSize   = 32
	markerBaseZoom   = 12
	markerPxPerZoom  = 4
	markerHoverScale = 1.3

	MarkerZIndex        = 1
	HoveredMarkerZIndex = 1000
)

// MarkerSize плавно растет с зумом в пределах [MinMarkerSize, MaxMarkerSize],
// наведенный маркер дополнительно увеличивается.
func MarkerSize(zoom float64, hovered bool) int {
	size := markerBaseSize + (zoom-markerBaseZoom)*markerPxPerZoom
	size = math.Max(MinMarkerSize, math.Min(MaxMarkerSize, size))
	if hovered {
		size *= markerHoverScale
	}
	return int(math.Round(size))
}

// MarkerZ - наведенный маркер рисуется поверх соседей
func MarkerZ(hovered bool) int {
	if hovered {
		return HoveredMarkerZIndex
	}
	return MarkerZIndex
}

// GeohashPrecision - точность ячейки кластеризации для уровня зума
func GeohashPrecision(zoom float64) uint {
	switch {
	case zoom < 8:
		return 3
	case zoom < 11:
		return 4
	case zoom < 13:
		return 5
	case zoom < 15:
		return 6
	default:
		return 7
	}
}

// Marker - данные для отрисовки одного объекта на карте
type Marker struct {
	PropertyID   string      `json:"propertyId"`
	Name         string      `json:"name"`
	Position     Coordinates `json:"position"`
	Approximate  bool        `json:"approximate"`
	Size         int         `json:"size"`
	ZIndex       int         `json:"zIndex"`
	Hovered      bool        `json:"hovered"`
	Cell         string      `json:"cell"`
	DisplayPrice float64     `json:"displayPrice"`
}

// MapFocus - куда сдвинуть карту при наведении/клике на объект
type MapFocus struct {
	PropertyID  string      `json:"propertyId"`
	Center      Coordinates `json:"center"`
	Zoom        float64     `json:"zoom"`
	OpenPopup   bool        `json:"openPopup"`
	Hover       bool        `json:"hover"`
	Approximate bool        `json:"approximate"`
}
