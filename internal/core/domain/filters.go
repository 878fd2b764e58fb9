package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PriceDisplayMode - как показывать цену на карточке объекта
type PriceDisplayMode string

const (
	PriceDisplayTotal   PriceDisplayMode = "total"
	PriceDisplayPerSqFt PriceDisplayMode = "perSqFt"
)

func (m PriceDisplayMode) Valid() bool {
	return m == PriceDisplayTotal || m == PriceDisplayPerSqFt
}

// CompletionTimeframe - срок сдачи объекта
type CompletionTimeframe string

const (
	CompletionAll       CompletionTimeframe = "all"
	CompletionWithin6M  CompletionTimeframe = "within_6m"
	CompletionWithin12M CompletionTimeframe = "within_12m"
	CompletionWithin24M CompletionTimeframe = "within_24m"
	CompletionBeyond24M CompletionTimeframe = "beyond_24m"
)

var completionTimeframes = map[CompletionTimeframe]struct{}{
	CompletionAll:       {},
	CompletionWithin6M:  {},
	CompletionWithin12M: {},
	CompletionWithin24M: {},
	CompletionBeyond24M: {},
}

func (c CompletionTimeframe) Valid() bool {
	_, ok := completionTimeframes[c]
	return ok
}

// Range - включительный диапазон [Min, Max]. В JSON это кортеж из двух чисел.
type Range struct {
	Min float64
	Max float64
}

// Значения по умолчанию для диапазонов (AED и sqft)
var (
	DefaultPriceRange = Range{Min: 0, Max: 20_000_000}
	DefaultAreaRange  = Range{Min: 0, Max: 10_000}
)

// WithMin меняет нижнюю границу. Если она обгоняет верхнюю, верхняя подтягивается к ней.
func (r Range) WithMin(v float64) Range {
	r.Min = v
	if r.Min > r.Max {
		r.Max = r.Min
	}
	return r
}

// WithMax меняет верхнюю границу. Если она ниже нижней, нижняя опускается к ней.
func (r Range) WithMax(v float64) Range {
	r.Max = v
	if r.Max < r.Min {
		r.Min = r.Max
	}
	return r
}

// Normalize приводит диапазон к инварианту Min <= Max без отрицательных значений
func (r Range) Normalize() Range {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max < 0 {
		r.Max = 0
	}
	if r.Min > r.Max {
		r.Max = r.Min
	}
	return r
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var tuple []float64
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("range must be a [min, max] tuple: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("range must contain exactly 2 numbers, got %d", len(tuple))
	}
	r.Min, r.Max = tuple[0], tuple[1]
	return nil
}

// FilterSet - критерии поиска пользователя
type FilterSet struct {
	SearchTerm          string              `json:"searchTerm"`
	PriceRange          Range               `json:"priceRange"`
	PriceDisplayMode    PriceDisplayMode    `json:"priceDisplayMode"`
	AreaRange           Range               `json:"areaRange"`
	CompletionTimeframe CompletionTimeframe `json:"completionTimeframe"`
	DevelopmentStatus   []string            `json:"developmentStatus"`
	SalesStatus         []string            `json:"salesStatus"`
	UnitType            []string            `json:"unitType"`
	Bedrooms            []string            `json:"bedrooms"`
	Featured            *bool               `json:"featured"`
}

// DefaultFilters возвращает набор фильтров "без ограничений"
func DefaultFilters() FilterSet {
	return FilterSet{
		SearchTerm:          "",
		PriceRange:          DefaultPriceRange,
		PriceDisplayMode:    PriceDisplayTotal,
		AreaRange:           DefaultAreaRange,
		CompletionTimeframe: CompletionAll,
		DevelopmentStatus:   []string{},
		SalesStatus:         []string{},
		UnitType:            []string{},
		Bedrooms:            []string{},
		Featured:            nil,
	}
}

// Clone делает глубокую копию (срезы и указатель featured не разделяются)
func (f FilterSet) Clone() FilterSet {
	out := f
	out.DevelopmentStatus = cloneSet(f.DevelopmentStatus)
	out.SalesStatus = cloneSet(f.SalesStatus)
	out.UnitType = cloneSet(f.UnitType)
	out.Bedrooms = cloneSet(f.Bedrooms)
	if f.Featured != nil {
		v := *f.Featured
		out.Featured = &v
	}
	return out
}

// Normalize возвращает копию, удовлетворяющую всем инвариантам набора фильтров
func (f FilterSet) Normalize() FilterSet {
	out := f.Clone()
	out.PriceRange = out.PriceRange.Normalize()
	out.AreaRange = out.AreaRange.Normalize()
	if !out.PriceDisplayMode.Valid() {
		out.PriceDisplayMode = PriceDisplayTotal
	}
	if !out.CompletionTimeframe.Valid() {
		out.CompletionTimeframe = CompletionAll
	}
	out.DevelopmentStatus = normalizeSet(out.DevelopmentStatus)
	out.SalesStatus = normalizeSet(out.SalesStatus)
	out.UnitType = normalizeSet(out.UnitType)
	out.Bedrooms = normalizeSet(out.Bedrooms)
	return out
}

// ActiveFilterCount считает группы фильтров, отличные от значений по умолчанию.
// Поисковая строка и режим отображения цены не считаются.
func ActiveFilterCount(f FilterSet) int {
	count := 0
	if f.PriceRange != DefaultPriceRange {
		count++
	}
	if f.AreaRange != DefaultAreaRange {
		count++
	}
	if f.CompletionTimeframe != "" && f.CompletionTimeframe != CompletionAll {
		count++
	}
	for _, set := range [][]string{f.DevelopmentStatus, f.SalesStatus, f.UnitType, f.Bedrooms} {
		if len(set) > 0 {
			count++
		}
	}
	if f.Featured != nil {
		count++
	}
	return count
}

// ToggleOption добавляет значение в множество или убирает его оттуда
func ToggleOption(set []string, value string) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, v := range set {
		if v == value {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, value)
	}
	return normalizeSet(out)
}

// ParseNumericInput разбирает ввод числового поля.
// Знаки '-', '+' и экспонента запрещены, пустой ввод означает 0.
func ParseNumericInput(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, nil
	}
	if strings.ContainsAny(s, "-+eE") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumericInput, input)
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumericInput, input)
		}
	}
	if dots > 1 || s == "." {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumericInput, input)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumericInput, input)
	}
	return v, nil
}

func cloneSet(set []string) []string {
	if set == nil {
		return []string{}
	}
	out := make([]string, len(set))
	copy(out, set)
	return out
}

func normalizeSet(set []string) []string {
	seen := make(map[string]struct{}, len(set))
	out := make([]string, 0, len(set))
	for _, v := range set {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
