package constants

// Фиксированные словари диалога фильтров
var (
	UnitTypes = []string{
		"Apartment", "Villa", "Townhouse", "Penthouse",
		"Duplex", "Studio", "Office", "Plot",
	}

	Bedrooms = []string{"Studio", "1", "2", "3", "4", "5+"}
)

// Запасные словари, если бэкенд статусов недоступен
var (
	FallbackDevelopmentStatuses = []string{"Presale", "Under Construction", "Completed"}
	FallbackSalesStatuses       = []string{"Announced", "Presale (EOI)", "On Sale", "Out of Stock"}
)
