package usecase

import (
	"context"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"sync"
	"time"
)

type MapLoaderConfig struct {
	BatchSize     int
	BatchDelay    time.Duration
	MaxProperties int
}

// Значения по умолчанию для загрузки карты
const (
	DefaultMapBatchSize     = 50
	DefaultMapBatchDelay    = 3 * time.Second
	DefaultMapMaxProperties = 500
)

// MapPropertyLoader подгружает объекты для карты пакетами, строго последовательно.
// Запуск для новых фильтров отменяет предыдущий.
type MapPropertyLoader struct {
	api     port.PropertyAPIPort
	cache   *MapPropertyCache
	clock   port.ClockPort
	metrics port.MetricsPort
	logger  port.LoggerPort
	cfg     MapLoaderConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	loading bool
	lastErr string
}

func NewMapPropertyLoader(
	cfg MapLoaderConfig,
	api port.PropertyAPIPort,
	cache *MapPropertyCache,
	clock port.ClockPort,
	metrics port.MetricsPort,
	logger port.LoggerPort,
) *MapPropertyLoader {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultMapBatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = DefaultMapBatchDelay
	}
	if cfg.MaxProperties < 1 {
		cfg.MaxProperties = DefaultMapMaxProperties
	}
	if metrics == nil {
		metrics = port.NoopMetrics{}
	}
	return &MapPropertyLoader{
		api:     api,
		cache:   cache,
		clock:   clock,
		metrics: metrics,
		logger:  logger.WithFields(port.Fields{"component": "MapPropertyLoader"}),
		cfg:     cfg,
	}
}

// Load запускает загрузку для фильтров. Повторный вызов с теми же фильтрами ничего не делает.
func (l *MapPropertyLoader) Load(ctx context.Context, filters domain.FilterSet) domain.MapLoadState {
	key := BuildPropertyQuery(filters, "", 1, l.cfg.BatchSize).FilterKey()

	_, _, _, complete := l.cache.Stats()

	l.mu.Lock()
	if l.started && l.cache.Key() == key && (l.loading || complete) {
		l.mu.Unlock()
		return l.State()
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.cache.Begin(key)

	runCtx, cancel := context.WithCancel(context.Background())
	runCtx = contextkeys.ContextWithLogger(runCtx, l.logger)
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		runCtx = contextkeys.ContextWithTraceID(runCtx, traceID)
	}
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.started = true
	l.loading = true
	l.lastErr = ""
	l.mu.Unlock()

	contextkeys.LoggerFromContext(ctx).Info("Map loading started", port.Fields{"filter_key": key})
	go l.run(runCtx, key, filters.Clone(), done)
	return l.State()
}

// OnFiltersChanged - подписчик FilterStore: перезапуск, только если карта уже загружалась
func (l *MapPropertyLoader) OnFiltersChanged(ctx context.Context, filters domain.FilterSet) {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if started {
		l.Load(ctx, filters)
	}
}

// Reset останавливает загрузку и очищает кэш карты
func (l *MapPropertyLoader) Reset() {
	l.Stop()
	l.mu.Lock()
	l.started = false
	l.lastErr = ""
	l.mu.Unlock()
	l.cache.Reset()
}

// Stop отменяет текущий запуск
func (l *MapPropertyLoader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.loading = false
}

// Done закрывается, когда текущий запуск завершился
func (l *MapPropertyLoader) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return l.done
}

func (l *MapPropertyLoader) State() domain.MapLoadState {
	loaded, total, batches, complete := l.cache.Stats()
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.MapLoadState{
		Loaded:   loaded,
		Total:    total,
		Batches:  batches,
		Loading:  l.loading,
		Complete: complete,
		Error:    l.lastErr,
	}
}

func (l *MapPropertyLoader) run(ctx context.Context, key string, filters domain.FilterSet, done chan struct{}) {
	defer close(done)
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"filter_key": key})

	for page := 1; ; page++ {
		query := BuildPropertyQuery(filters, "", page, l.cfg.BatchSize)

		start := time.Now()
		result, err := l.api.FindProperties(ctx, query)
		if ctx.Err() != nil {
			l.metrics.IncMapBatch("cancelled")
			logger.Debug("Map loading cancelled", port.Fields{"page": page})
			return
		}
		if err != nil {
			l.metrics.ObserveBackendRequest("properties_map", "error", time.Since(start))
			l.metrics.IncMapBatch("error")
			logger.Error("Map batch failed", err, port.Fields{"page": page})
			l.finish(ctx, err.Error())
			return
		}
		l.metrics.ObserveBackendRequest("properties_map", "ok", time.Since(start))
		l.metrics.IncMapBatch("ok")

		loaded := l.cache.Append(key, result.Properties, result.Pagination.Total, l.cfg.MaxProperties)
		logger.Debug("Map batch loaded", port.Fields{"page": page, "batch": len(result.Properties), "loaded": loaded})

		totalPages := result.Pagination.TotalPages
		if totalPages < 1 {
			totalPages = domain.NewPagination(page, l.cfg.BatchSize, result.Pagination.Total, 0).TotalPages
		}
		if loaded >= l.cfg.MaxProperties || page >= totalPages || len(result.Properties) == 0 {
			l.cache.MarkComplete(key)
			logger.Info("Map loading finished", port.Fields{"loaded": loaded, "batches": page})
			l.finish(ctx, "")
			return
		}

		select {
		case <-l.clock.After(l.cfg.BatchDelay):
		case <-ctx.Done():
			l.metrics.IncMapBatch("cancelled")
			return
		}
	}
}

// finish снимает флаг загрузки, если запуск не был заменен новым
func (l *MapPropertyLoader) finish(ctx context.Context, errMsg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	l.loading = false
	l.lastErr = errMsg
}
