package usecase

import (
	"property-browser-service/internal/constants"
	"property-browser-service/internal/core/domain"
	"strconv"
	"strings"
)

// BuildPropertyQuery собирает запрос к бэкенду из примененных фильтров.
// Параметры по умолчанию не отправляются.
func BuildPropertyQuery(filters domain.FilterSet, sort string, page, limit int) domain.PropertyQuery {
	params := make(map[string]string)

	if token, ok := constants.SortTokens[sort]; ok {
		params[constants.ParamSort] = token
	}
	if name := strings.TrimSpace(filters.SearchTerm); name != "" {
		params[constants.ParamName] = name
	}

	// каждая граница уходит, только если отличается от своей границы по умолчанию
	addBound(params, constants.ParamMinPrice, filters.PriceRange.Min, domain.DefaultPriceRange.Min)
	addBound(params, constants.ParamMaxPrice, filters.PriceRange.Max, domain.DefaultPriceRange.Max)
	addBound(params, constants.ParamMinArea, filters.AreaRange.Min, domain.DefaultAreaRange.Min)
	addBound(params, constants.ParamMaxArea, filters.AreaRange.Max, domain.DefaultAreaRange.Max)

	sets := []struct {
		param  string
		values []string
	}{
		{constants.ParamDevelopmentStatus, filters.DevelopmentStatus},
		{constants.ParamSaleStatus, filters.SalesStatus},
		{constants.ParamUnitType, filters.UnitType},
		{constants.ParamBedrooms, filters.Bedrooms},
	}
	for _, s := range sets {
		if len(s.values) > 0 {
			params[s.param] = strings.Join(s.values, ",")
		}
	}

	if filters.Featured != nil {
		params[constants.ParamFeatured] = strconv.FormatBool(*filters.Featured)
	}
	if filters.CompletionTimeframe != "" && filters.CompletionTimeframe != domain.CompletionAll {
		params[constants.ParamCompletionPeriod] = string(filters.CompletionTimeframe)
	}

	if page < 1 {
		page = 1
	}
	return domain.PropertyQuery{Page: page, Limit: limit, Params: params}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func addBound(params map[string]string, name string, value, def float64) {
	if value != def {
		params[name] = formatNumber(value)
	}
}
