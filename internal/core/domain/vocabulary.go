package domain

// VocabularySource - откуда взяты варианты статусов
type VocabularySource string

const (
	VocabularyFromServer   VocabularySource = "server"
	VocabularyFromFallback VocabularySource = "fallback"
)

// FilterVocabulary - варианты для чекбоксов диалога фильтров
type FilterVocabulary struct {
	DevelopmentStatuses []string         `json:"developmentStatuses"`
	SalesStatuses       []string         `json:"salesStatuses"`
	UnitTypes           []string         `json:"unitTypes"`
	Bedrooms            []string         `json:"bedrooms"`
	DevelopmentSource   VocabularySource `json:"developmentSource"`
	SalesSource         VocabularySource `json:"salesSource"`
}

// Degraded - хотя бы одна группа взята из встроенного запасного списка
func (v FilterVocabulary) Degraded() bool {
	return v.DevelopmentSource == VocabularyFromFallback || v.SalesSource == VocabularyFromFallback
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

func (v FilterVocabulary) HasDevelopmentStatus(s string) bool { return contains(v.DevelopmentStatuses, s) }
func (v FilterVocabulary) HasSalesStatus(s string) bool       { return contains(v.SalesStatuses, s) }
func (v FilterVocabulary) HasUnitType(s string) bool          { return contains(v.UnitTypes, s) }
func (v FilterVocabulary) HasBedrooms(s string) bool          { return contains(v.Bedrooms, s) }

// StatusItem - запись справочника статусов с бэкенда
type StatusItem struct {
	Name string
}
