package constants

// Ключи Redis
const (
	FilterRecordKeyPrefix = "property_filters:"
	PageCacheKeyPrefix    = "property_pages:"
)

// FilterRecordKey - слот сохраненных фильтров конкретной сессии
func FilterRecordKey(sessionID string) string {
	return FilterRecordKeyPrefix + sessionID
}
