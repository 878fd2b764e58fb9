package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"sync"
	"time"
)

// FilterChangeListener получает каждый новый набор примененных фильтров
type FilterChangeListener func(ctx context.Context, filters domain.FilterSet)

type FilterStoreConfig struct {
	Key            string        // слот хранилища, обычно property_filters:<session>
	DebounceDelay  time.Duration // пауза перед применением поисковой строки
	RecordTTL      time.Duration
	PersistTimeout time.Duration // для сохранения из таймера дебаунса
}

// FilterStore владеет примененными фильтрами одной сессии.
// Сохраняет их в слот хранилища и оповещает подписчиков.
type FilterStore struct {
	mu sync.Mutex

	// упорядочивает сохранение и оповещение между изменениями
	commitMu sync.Mutex

	cfg       FilterStoreConfig
	storage   port.FilterStoragePort
	validator port.RecordValidatorPort
	clock     port.ClockPort
	debouncer *Debouncer
	logger    port.LoggerPort

	applied     domain.FilterSet
	typedSearch string
	initialized bool
	listeners   []FilterChangeListener

	// растет при каждом изменении applied
	version uint64
}

func NewFilterStore(
	cfg FilterStoreConfig,
	storage port.FilterStoragePort,
	validator port.RecordValidatorPort,
	clock port.ClockPort,
	logger port.LoggerPort,
) *FilterStore {
	if cfg.RecordTTL <= 0 {
		cfg.RecordTTL = domain.FilterRecordTTL
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	return &FilterStore{
		cfg:       cfg,
		storage:   storage,
		validator: validator,
		clock:     clock,
		debouncer: NewDebouncer(clock, cfg.DebounceDelay),
		logger:    logger.WithFields(port.Fields{"component": "FilterStore", "key": cfg.Key}),
		applied:   domain.DefaultFilters(),
	}
}

// OnChange регистрирует подписчика. Подписчики вызываются вне мьютекса хранилища.
func (s *FilterStore) OnChange(listener FilterChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// InitializeFiltersState читает сохраненную запись один раз за жизнь хранилища
func (s *FilterStore) InitializeFiltersState(ctx context.Context) domain.FilterState {
	s.mu.Lock()
	if s.initialized {
		st := s.stateLocked()
		s.mu.Unlock()
		return st
	}
	s.mu.Unlock()

	loaded, restored := s.loadPersisted(ctx)

	s.mu.Lock()
	// пользовательское изменение могло успеть раньше
	if s.initialized {
		st := s.stateLocked()
		s.mu.Unlock()
		return st
	}
	s.applied = loaded
	s.typedSearch = loaded.SearchTerm
	s.initialized = true
	version := s.bumpLocked()
	st := s.stateLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	contextkeys.LoggerFromContext(ctx).Info("Filters initialized", port.Fields{
		"key":          s.cfg.Key,
		"restored":     restored,
		"active_count": st.ActiveCount,
	})
	s.publish(ctx, version, listeners, loaded, nil)
	return st
}

// HandleSearchChange обновляет набранный текст сразу, а примененные фильтры после паузы
func (s *FilterStore) HandleSearchChange(text string) domain.FilterState {
	s.mu.Lock()
	s.typedSearch = text
	st := s.stateLocked()
	s.mu.Unlock()

	s.debouncer.Schedule(s.commitSearch)
	st.SearchPending = true
	return st
}

// commitSearch выполняется таймером дебаунса
func (s *FilterStore) commitSearch() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PersistTimeout)
	defer cancel()
	ctx = contextkeys.ContextWithLogger(ctx, s.logger)

	s.mu.Lock()
	if s.typedSearch == s.applied.SearchTerm {
		s.mu.Unlock()
		return
	}
	next := s.applied.Clone()
	next.SearchTerm = s.typedSearch
	s.applied = next
	s.initialized = true
	version := s.bumpLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.Debug("Search term committed", port.Fields{"search_term": next.SearchTerm})
	s.publish(ctx, version, listeners, next, func(ctx context.Context) { s.persist(ctx, next) })
}

// HandleFiltersChange заменяет примененные фильтры целиком и сохраняет их сразу
func (s *FilterStore) HandleFiltersChange(ctx context.Context, filters domain.FilterSet) domain.FilterState {
	next := Commit(filters)
	s.debouncer.Cancel()

	s.mu.Lock()
	s.applied = next
	s.typedSearch = next.SearchTerm
	s.initialized = true
	version := s.bumpLocked()
	st := s.stateLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.publish(ctx, version, listeners, next, func(ctx context.Context) { s.persist(ctx, next) })
	return st
}

// ResetFilters возвращает значения по умолчанию и удаляет сохраненную запись
func (s *FilterStore) ResetFilters(ctx context.Context) domain.FilterState {
	s.debouncer.Cancel()
	next := domain.DefaultFilters()

	s.mu.Lock()
	s.applied = next
	s.typedSearch = ""
	s.initialized = true
	version := s.bumpLocked()
	st := s.stateLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.publish(ctx, version, listeners, next, s.discard)
	return st
}

func (s *FilterStore) ActiveFilterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ActiveFilterCount(s.applied)
}

// Applied - копия примененных фильтров
func (s *FilterStore) Applied() domain.FilterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied.Clone()
}

func (s *FilterStore) State() domain.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Close отменяет ожидающее применение поиска
func (s *FilterStore) Close() {
	s.debouncer.Cancel()
}

func (s *FilterStore) stateLocked() domain.FilterState {
	return domain.FilterState{
		Applied:       s.applied.Clone(),
		TypedSearch:   s.typedSearch,
		SearchPending: s.debouncer.Pending(),
		Initialized:   s.initialized,
		ActiveCount:   domain.ActiveFilterCount(s.applied),
	}
}

func (s *FilterStore) listenersLocked() []FilterChangeListener {
	out := make([]FilterChangeListener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

func (s *FilterStore) bumpLocked() uint64 {
	s.version++
	return s.version
}

func (s *FilterStore) isCurrent(version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version == version
}

// publish сохраняет и рассылает набор версии version.
// Если за это время появилось более новое изменение, устаревший набор не пишется и не рассылается.
func (s *FilterStore) publish(
	ctx context.Context,
	version uint64,
	listeners []FilterChangeListener,
	filters domain.FilterSet,
	save func(ctx context.Context),
) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if !s.isCurrent(version) {
		contextkeys.LoggerFromContext(ctx).Debug("Superseded filter change skipped", port.Fields{"key": s.cfg.Key})
		return
	}
	if save != nil {
		save(ctx)
	}
	// новое изменение могло прийти, пока шло сохранение; оно само сохранит и разошлет свой набор
	if !s.isCurrent(version) {
		contextkeys.LoggerFromContext(ctx).Debug("Superseded filter change not published", port.Fields{"key": s.cfg.Key})
		return
	}
	s.notify(ctx, listeners, filters)
}

func (s *FilterStore) notify(ctx context.Context, listeners []FilterChangeListener, filters domain.FilterSet) {
	for _, l := range listeners {
		l(ctx, filters.Clone())
	}
}

func (s *FilterStore) persist(ctx context.Context, filters domain.FilterSet) {
	logger := contextkeys.LoggerFromContext(ctx)

	record, err := json.Marshal(domain.NewPersistedFilters(filters, s.clock.Now()))
	if err != nil {
		logger.Error("Failed to marshal filter record", err, port.Fields{"key": s.cfg.Key})
		return
	}
	if err := s.storage.Save(ctx, s.cfg.Key, record, s.cfg.RecordTTL); err != nil {
		// сессия продолжает работать без сохранения
		logger.Warn("Failed to persist filters", port.Fields{"key": s.cfg.Key, "error": err.Error()})
	}
}

// loadPersisted возвращает сохраненные фильтры или значения по умолчанию.
// Просроченная или поврежденная запись удаляется.
func (s *FilterStore) loadPersisted(ctx context.Context) (domain.FilterSet, bool) {
	logger := contextkeys.LoggerFromContext(ctx)

	raw, err := s.storage.Load(ctx, s.cfg.Key)
	if errors.Is(err, domain.ErrNoSavedFilters) {
		return domain.DefaultFilters(), false
	}
	if err != nil {
		logger.Warn("Failed to load saved filters, using defaults", port.Fields{"key": s.cfg.Key, "error": err.Error()})
		return domain.DefaultFilters(), false
	}

	if s.validator != nil {
		if err := s.validator.ValidateFilterRecord(raw); err != nil {
			logger.Warn("Saved filter record is invalid, discarding", port.Fields{"key": s.cfg.Key, "error": err.Error()})
			s.discard(ctx)
			return domain.DefaultFilters(), false
		}
	}

	record := domain.PersistedFilters{FilterSet: domain.DefaultFilters()}
	if err := json.Unmarshal(raw, &record); err != nil {
		logger.Warn("Saved filter record is malformed, discarding", port.Fields{"key": s.cfg.Key, "error": err.Error()})
		s.discard(ctx)
		return domain.DefaultFilters(), false
	}

	if record.Expired(s.clock.Now(), s.cfg.RecordTTL) {
		logger.Info("Saved filter record expired, discarding", port.Fields{
			"key":      s.cfg.Key,
			"saved_at": record.SavedAt().UTC().Format(time.RFC3339),
		})
		s.discard(ctx)
		return domain.DefaultFilters(), false
	}

	return record.FilterSet.Normalize(), true
}

func (s *FilterStore) discard(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.cfg.Key); err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Failed to delete saved filters", port.Fields{"key": s.cfg.Key, "error": err.Error()})
	}
}
