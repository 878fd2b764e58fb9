package domain

// FilterState - снимок хранилища фильтров сессии
type FilterState struct {
	Applied       FilterSet `json:"applied"`
	TypedSearch   string    `json:"typedSearch"`
	SearchPending bool      `json:"searchPending"`
	Initialized   bool      `json:"initialized"`
	ActiveCount   int       `json:"activeCount"`
}

// ListingState - снимок постраничного списка объектов
type ListingState struct {
	Properties       []Property
	Pagination       Pagination
	PageItems        []PageItem
	HasPrevious      bool
	HasNext          bool
	Loading          bool
	Error            string
	Sort             string
	PriceDisplayMode PriceDisplayMode
	ScrollToTop      bool
	Dropped          bool
	Initialized      bool
}

// MapLoadState - прогресс пакетной загрузки объектов для карты
type MapLoadState struct {
	Loaded   int    `json:"loaded"`
	Total    int    `json:"total"`
	Batches  int    `json:"batches"`
	Loading  bool   `json:"loading"`
	Complete bool   `json:"complete"`
	Error    string `json:"error,omitempty"`
}

// DraftEdit - одно изменение черновика в диалоге фильтров
type DraftEdit struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Поля черновика, которые можно менять через DraftEdit
const (
	FieldSearchTerm          = "searchTerm"
	FieldPriceMin            = "priceMin"
	FieldPriceMax            = "priceMax"
	FieldAreaMin             = "areaMin"
	FieldAreaMax             = "areaMax"
	FieldPriceDisplayMode    = "priceDisplayMode"
	FieldCompletionTimeframe = "completionTimeframe"
	FieldDevelopmentStatus   = "developmentStatus"
	FieldSalesStatus         = "salesStatus"
	FieldUnitType            = "unitType"
	FieldBedrooms            = "bedrooms"
	FieldFeatured            = "featured"
)

// InquiryInput - данные формы заявки
type InquiryInput struct {
	SessionID   string
	PropertyID  string
	ClientName  string
	ClientPhone string
	Note        string
	Channel     InquiryChannel
}
