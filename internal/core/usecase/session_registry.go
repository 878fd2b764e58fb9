package usecase

import (
	"context"
	"property-browser-service/internal/constants"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/port/usecases_port"
	"sync"
	"time"

	"github.com/google/uuid"
)

type BrowseConfig struct {
	DebounceDelay    time.Duration
	RecordTTL        time.Duration
	PageLimit        int
	MapBatchSize     int
	MapBatchDelay    time.Duration
	MapMaxProperties int
	SessionIdleTTL   time.Duration
}

// SessionDeps - общие зависимости всех сессий
type SessionDeps struct {
	Storage    port.FilterStoragePort
	Validator  port.RecordValidatorPort
	API        port.PropertyAPIPort
	PageCache  port.PropertyPageCachePort
	Vocabulary usecases_port.VocabularyUseCasePort
	Clock      port.ClockPort
	Metrics    port.MetricsPort
	Logger     port.LoggerPort
}

// BrowseSession - состояние одной вкладки: фильтры, диалог, список и карта
type BrowseSession struct {
	id       string
	filters  *FilterStore
	dialog   *FilterDialog
	listing  *ListingPager
	mapCache *MapPropertyCache
	loader   *MapPropertyLoader
	viewport *MapViewport

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *BrowseSession) ID() string                                     { return s.id }
func (s *BrowseSession) Filters() usecases_port.FilterStoreUseCasePort  { return s.filters }
func (s *BrowseSession) Dialog() usecases_port.FilterDialogUseCasePort  { return s.dialog }
func (s *BrowseSession) Listing() usecases_port.ListingUseCasePort      { return s.listing }
func (s *BrowseSession) Map() usecases_port.MapLoaderUseCasePort        { return s.loader }
func (s *BrowseSession) Viewport() usecases_port.MapViewportUseCasePort { return s.viewport }
func (s *BrowseSession) FindProperty(id string) (domain.Property, bool) { return s.viewport.FindProperty(id) }

func (s *BrowseSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *BrowseSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *BrowseSession) close() {
	s.filters.Close()
	s.loader.Stop()
}

// SessionRegistry хранит сессии просмотра в памяти процесса.
// Фильтры переживают вытеснение сессии: они лежат в хранилище по id сессии.
type SessionRegistry struct {
	cfg  BrowseConfig
	deps SessionDeps

	mu       sync.Mutex
	sessions map[string]*BrowseSession
}

func NewSessionRegistry(cfg BrowseConfig, deps SessionDeps) *SessionRegistry {
	if deps.Metrics == nil {
		deps.Metrics = port.NoopMetrics{}
	}
	return &SessionRegistry{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[string]*BrowseSession),
	}
}

// Create поднимает новую сессию со свежим id
func (r *SessionRegistry) Create(ctx context.Context) (usecases_port.BrowseSessionPort, error) {
	s, _, err := r.getOrCreate(ctx, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetOrCreate возвращает сессию по id. Неизвестный корректный id поднимается заново
// и восстанавливает сохраненные фильтры, некорректный заменяется новым.
func (r *SessionRegistry) GetOrCreate(ctx context.Context, sessionID string) (usecases_port.BrowseSessionPort, bool, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		sessionID = uuid.NewString()
	}
	s, created, err := r.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return s, created, nil
}

// Get возвращает только существующую сессию
func (r *SessionRegistry) Get(sessionID string) (*BrowseSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.touch(r.deps.Clock.Now())
	return s, nil
}

func (r *SessionRegistry) getOrCreate(ctx context.Context, sessionID string) (*BrowseSession, bool, error) {
	now := r.deps.Clock.Now()

	r.mu.Lock()
	if s, ok := r.sessions[sessionID]; ok {
		r.mu.Unlock()
		s.touch(now)
		return s, false, nil
	}
	s := r.newSession(sessionID)
	s.touch(now)
	r.sessions[sessionID] = s
	count := len(r.sessions)
	r.mu.Unlock()

	r.deps.Metrics.SetActiveSessions(count)

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"session_id": sessionID})
	logger.Info("Browse session created", port.Fields{"active_sessions": count})

	// первичная загрузка фильтров запускает и первую выборку списка
	s.filters.InitializeFiltersState(contextkeys.ContextWithSessionID(ctx, sessionID))
	return s, true, nil
}

func (r *SessionRegistry) newSession(id string) *BrowseSession {
	logger := r.deps.Logger.WithFields(port.Fields{"session_id": id})

	filters := NewFilterStore(FilterStoreConfig{
		Key:           constants.FilterRecordKey(id),
		DebounceDelay: r.cfg.DebounceDelay,
		RecordTTL:     r.cfg.RecordTTL,
	}, r.deps.Storage, r.deps.Validator, r.deps.Clock, logger)

	listing := NewListingPager(r.deps.API, r.deps.PageCache, r.deps.Metrics, r.cfg.PageLimit)
	mapCache := NewMapPropertyCache()
	loader := NewMapPropertyLoader(MapLoaderConfig{
		BatchSize:     r.cfg.MapBatchSize,
		BatchDelay:    r.cfg.MapBatchDelay,
		MaxProperties: r.cfg.MapMaxProperties,
	}, r.deps.API, mapCache, r.deps.Clock, r.deps.Metrics, logger)

	filters.OnChange(listing.OnFiltersChanged)
	filters.OnChange(loader.OnFiltersChanged)

	return &BrowseSession{
		id:       id,
		filters:  filters,
		dialog:   NewFilterDialog(filters, r.deps.Vocabulary),
		listing:  listing,
		mapCache: mapCache,
		loader:   loader,
		viewport: NewMapViewport(mapCache, listing),
	}
}

// EvictIdle закрывает сессии, к которым не обращались дольше SessionIdleTTL
func (r *SessionRegistry) EvictIdle(ctx context.Context) int {
	if r.cfg.SessionIdleTTL <= 0 {
		return 0
	}
	cutoff := r.deps.Clock.Now().Add(-r.cfg.SessionIdleTTL)

	r.mu.Lock()
	var evicted []*BrowseSession
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	for _, s := range evicted {
		s.close()
	}
	r.deps.Metrics.SetActiveSessions(count)

	if len(evicted) > 0 {
		contextkeys.LoggerFromContext(ctx).Info("Idle browse sessions evicted", port.Fields{
			"evicted":         len(evicted),
			"active_sessions": count,
		})
	}
	return len(evicted)
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close останавливает все сессии при остановке сервиса
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.close()
		delete(r.sessions, id)
	}
}
