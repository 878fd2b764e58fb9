package domain

import "time"

// FilterRecordTTL - сколько живет сохраненный набор фильтров
const FilterRecordTTL = 24 * time.Hour

// PersistedFilters - запись в хранилище: FilterSet плюс метка времени в миллисекундах
type PersistedFilters struct {
	FilterSet
	Timestamp int64 `json:"timestamp"`
}

func NewPersistedFilters(f FilterSet, now time.Time) PersistedFilters {
	return PersistedFilters{FilterSet: f.Clone(), Timestamp: now.UnixMilli()}
}

// SavedAt возвращает момент сохранения
func (p PersistedFilters) SavedAt() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// Expired - запись старше TTL считается отсутствующей
func (p PersistedFilters) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = FilterRecordTTL
	}
	return now.Sub(p.SavedAt()) > ttl
}
