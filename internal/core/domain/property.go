package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Property - объект из бэкенда. Для этого слоя только для чтения.
type Property struct {
	ID                string
	Name              string
	Area              string
	MinPrice          float64
	MaxPrice          float64
	Currency          string
	Developer         string
	DevelopmentStatus string
	SaleStatus        string
	UnitTypes         []string
	MinSize           float64 // sqft
	ImageURL          string
	Coordinates       string // "lat,lng"
	Featured          bool
	CompletionDate    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PricePerSqFt - цена за квадратный фут от минимальной цены, 0 если площадь неизвестна
func (p Property) PricePerSqFt() float64 {
	if p.MinSize <= 0 {
		return 0
	}
	return math.Round(p.MinPrice / p.MinSize)
}

// DisplayPrice - цена для карточки в выбранном режиме
func (p Property) DisplayPrice(mode PriceDisplayMode) float64 {
	if mode == PriceDisplayPerSqFt {
		return p.PricePerSqFt()
	}
	return p.MinPrice
}

// PropertyPage - одна страница ответа бэкенда
type PropertyPage struct {
	Properties []Property
	Pagination Pagination
}

// PropertyQuery - уже собранный запрос к бэкенду
type PropertyQuery struct {
	Page   int
	Limit  int
	Params map[string]string // все параметры, кроме page/limit
}

// Coordinates - точка на карте
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DubaiCenter - запасная точка для объектов без корректных координат
var DubaiCenter = Coordinates{Lat: 25.2048, Lng: 55.2708}

// ParseCoordinates разбирает строку "lat,lng"
func ParseCoordinates(raw string) (Coordinates, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, false
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinates{}, false
	}
	return Coordinates{Lat: lat, Lng: lng}, true
}

// ResolveCoordinates никогда не падает: некорректные данные дают центр Дубая
func ResolveCoordinates(raw string) (Coordinates, bool) {
	if c, ok := ParseCoordinates(raw); ok {
		return c, false
	}
	return DubaiCenter, true
}
