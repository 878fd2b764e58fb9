package constants

// SortTokens - UI-метка сортировки -> токен сервера.
// Метки, которых тут нет (в т.ч. "featured"), запрос без sort.
var SortTokens = map[string]string{
	"price-low":  "price_min_to_max",
	"price-high": "price_max_to_min",
	"newest":     "newest_first",
	"oldest":     "oldest_first",
	"name-asc":   "name_a_z",
	"name-desc":  "name_z_a",
}

// Параметры запроса к бэкенду
const (
	ParamPage              = "page"
	ParamLimit             = "limit"
	ParamSort              = "sort"
	ParamName              = "name"
	ParamMinPrice          = "min_price"
	ParamMaxPrice          = "max_price"
	ParamMinArea           = "min_area"
	ParamMaxArea           = "max_area"
	ParamDevelopmentStatus = "development_status"
	ParamSaleStatus        = "sale_status"
	ParamUnitType          = "unit_type"
	ParamBedrooms          = "bedrooms"
	ParamFeatured          = "featured"
	ParamCompletionPeriod  = "completion_period"
)
