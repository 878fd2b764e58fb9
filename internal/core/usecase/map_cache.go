package usecase

import (
	"property-browser-service/internal/core/domain"
	"sync"
)

// MapPropertyCache - коллекция объектов для карты, отдельная от списка.
// Создается на сессию и очищается только явным Reset.
type MapPropertyCache struct {
	mu         sync.RWMutex
	key        string
	properties []domain.Property
	total      int
	batches    int
	complete   bool
}

func NewMapPropertyCache() *MapPropertyCache {
	return &MapPropertyCache{}
}

// Key - ключ фильтров, для которых собрана коллекция
func (c *MapPropertyCache) Key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

// Begin начинает новую коллекцию для ключа
func (c *MapPropertyCache) Begin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.properties = nil
	c.total = 0
	c.batches = 0
	c.complete = false
}

// Append добавляет пакет, не превышая limit. Пакет для чужого ключа игнорируется.
func (c *MapPropertyCache) Append(key string, batch []domain.Property, total, limit int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key != c.key {
		return len(c.properties)
	}
	room := limit - len(c.properties)
	if room < len(batch) {
		if room < 0 {
			room = 0
		}
		batch = batch[:room]
	}
	c.properties = append(c.properties, batch...)
	c.total = total
	c.batches++
	return len(c.properties)
}

func (c *MapPropertyCache) MarkComplete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == c.key {
		c.complete = true
	}
}

func (c *MapPropertyCache) Reset() {
	c.Begin("")
}

func (c *MapPropertyCache) Properties() []domain.Property {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Property, len(c.properties))
	copy(out, c.properties)
	return out
}

func (c *MapPropertyCache) FindProperty(id string) (domain.Property, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.properties {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Property{}, false
}

// Stats - загружено, всего на сервере, пакетов, завершено
func (c *MapPropertyCache) Stats() (loaded, total, batches int, complete bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.properties), c.total, c.batches, c.complete
}
