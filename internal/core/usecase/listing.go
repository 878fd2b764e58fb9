package usecase

import (
	"context"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"sync"
	"time"
)

// ListingLoadError - текст для пользователя при сбое загрузки
const ListingLoadError = "Failed to load properties. Please try again."

const DefaultPageLimit = 12

// ListingPager - постраничный список объектов по примененным фильтрам.
// Одновременно выполняется не больше одного запроса, лишние триггеры отбрасываются.
type ListingPager struct {
	mu      sync.Mutex
	api     port.PropertyAPIPort
	cache   port.PropertyPageCachePort
	metrics port.MetricsPort
	limit   int

	filters     domain.FilterSet
	sort        string
	initialized bool
	loading     bool
	properties  []domain.Property
	pagination  domain.Pagination
	errMsg      string
	lastPage    int
}

// NewListingPager; cache может быть nil
func NewListingPager(api port.PropertyAPIPort, cache port.PropertyPageCachePort, metrics port.MetricsPort, limit int) *ListingPager {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if metrics == nil {
		metrics = port.NoopMetrics{}
	}
	return &ListingPager{
		api:        api,
		cache:      cache,
		metrics:    metrics,
		limit:      limit,
		filters:    domain.DefaultFilters(),
		properties: []domain.Property{},
		pagination: domain.EmptyPagination(limit),
		lastPage:   1,
	}
}

// OnFiltersChanged - подписчик FilterStore: новые фильтры всегда начинают с первой страницы
func (p *ListingPager) OnFiltersChanged(ctx context.Context, filters domain.FilterSet) {
	p.mu.Lock()
	p.filters = filters.Clone()
	p.initialized = true
	p.mu.Unlock()

	p.fetch(ctx, 1, false)
}

// SetSort меняет сортировку и перезапрашивает текущую страницу
func (p *ListingPager) SetSort(ctx context.Context, sort string) domain.ListingState {
	p.mu.Lock()
	p.sort = sort
	page := p.pagination.Page
	p.mu.Unlock()

	return p.fetch(ctx, page, false)
}

// GoToPage переходит на страницу из допустимого диапазона
func (p *ListingPager) GoToPage(ctx context.Context, page int) (domain.ListingState, error) {
	p.mu.Lock()
	pagination := p.pagination
	p.mu.Unlock()

	if !pagination.Contains(page) {
		contextkeys.LoggerFromContext(ctx).Warn("Requested page is out of range", port.Fields{
			"page":        page,
			"total_pages": pagination.TotalPages,
		})
		return p.State(), domain.ErrPageOutOfRange
	}
	return p.fetch(ctx, page, true), nil
}

// Retry повторяет последний запрошенный запрос
func (p *ListingPager) Retry(ctx context.Context) domain.ListingState {
	p.mu.Lock()
	page := p.lastPage
	p.mu.Unlock()

	return p.fetch(ctx, page, false)
}

func (p *ListingPager) State() domain.ListingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// FindProperty ищет объект на текущей странице
func (p *ListingPager) FindProperty(id string) (domain.Property, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, prop := range p.properties {
		if prop.ID == id {
			return prop, true
		}
	}
	return domain.Property{}, false
}

func (p *ListingPager) fetch(ctx context.Context, page int, scrollToTop bool) domain.ListingState {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "ListingFetch", "page": page})

	p.mu.Lock()
	if !p.initialized {
		st := p.stateLocked()
		p.mu.Unlock()
		logger.Debug("Filters are not initialized yet, fetch skipped", nil)
		return st
	}
	if p.loading {
		st := p.stateLocked()
		st.Dropped = true
		p.mu.Unlock()
		p.metrics.IncDroppedFetch("listing")
		logger.Info("Fetch already in flight, trigger dropped", nil)
		return st
	}
	p.loading = true
	p.lastPage = page
	query := BuildPropertyQuery(p.filters, p.sort, page, p.limit)
	p.mu.Unlock()

	result, err := p.load(ctx, logger, query)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		logger.Error("Failed to fetch properties", err, nil)
		p.properties = []domain.Property{}
		p.pagination = domain.EmptyPagination(p.limit)
		p.errMsg = ListingLoadError
		return p.stateLocked()
	}

	p.properties = result.Properties
	if p.properties == nil {
		p.properties = []domain.Property{}
	}
	p.pagination = result.Pagination
	p.errMsg = ""
	logger.Info("Properties fetched", port.Fields{"count": len(p.properties), "total": p.pagination.Total})

	st := p.stateLocked()
	st.ScrollToTop = scrollToTop
	return st
}

func (p *ListingPager) load(ctx context.Context, logger port.LoggerPort, query domain.PropertyQuery) (*domain.PropertyPage, error) {
	if p.cache != nil {
		cached, hit, err := p.cache.Get(ctx, query)
		if err != nil {
			logger.Warn("Page cache read failed", port.Fields{"error": err.Error()})
		} else if hit {
			logger.Debug("Page served from cache", nil)
			return cached, nil
		}
	}

	start := time.Now()
	result, err := p.api.FindProperties(ctx, query)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.ObserveBackendRequest("properties", outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	// totalPages может отсутствовать в ответе
	page := result.Pagination.Page
	if page < 1 {
		page = query.Page
	}
	result.Pagination = domain.NewPagination(page, query.Limit, result.Pagination.Total, result.Pagination.TotalPages)

	if p.cache != nil {
		if err := p.cache.Set(ctx, query, result); err != nil {
			logger.Warn("Page cache write failed", port.Fields{"error": err.Error()})
		}
	}
	return result, nil
}

func (p *ListingPager) stateLocked() domain.ListingState {
	props := make([]domain.Property, len(p.properties))
	copy(props, p.properties)
	return domain.ListingState{
		Properties:       props,
		Pagination:       p.pagination,
		PageItems:        domain.PageItems(p.pagination.Page, p.pagination.TotalPages),
		HasPrevious:      p.pagination.HasPrevious(),
		HasNext:          p.pagination.HasNext(),
		Loading:          p.loading,
		Error:            p.errMsg,
		Sort:             p.sort,
		PriceDisplayMode: p.filters.PriceDisplayMode,
		Initialized:      p.initialized,
	}
}
