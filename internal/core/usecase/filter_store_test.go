package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-browser-service/internal/core/domain"
)

const testKey = "property_filters:test"

func newTestStore(storage *memStorage, clock *fakeClock) *FilterStore {
	return NewFilterStore(FilterStoreConfig{
		Key:           testKey,
		DebounceDelay: 500 * time.Millisecond,
	}, storage, nil, clock, nopLogger{})
}

func TestFilterStore_DebouncedSearchCommitsLastValue(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()
	store := newTestStore(storage, clock)
	store.InitializeFiltersState(context.Background())

	var published []string
	store.OnChange(func(_ context.Context, f domain.FilterSet) {
		published = append(published, f.SearchTerm)
	})

	for _, text := range []string{"m", "ma", "mar", "mari", "marin", "marina"} {
		st := store.HandleSearchChange(text)
		assert.Equal(t, text, st.TypedSearch)
		assert.Equal(t, "", st.Applied.SearchTerm)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, published)

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"marina"}, published)
	assert.Equal(t, "marina", store.State().Applied.SearchTerm)

	raw, ok := storage.get(testKey)
	require.True(t, ok)
	var rec domain.PersistedFilters
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "marina", rec.SearchTerm)
	assert.Equal(t, clock.Now().UnixMilli(), rec.Timestamp)
}

func TestFilterStore_UnchangedSearchIsNotCommitted(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()
	store := newTestStore(storage, clock)
	store.InitializeFiltersState(context.Background())

	notified := 0
	store.OnChange(func(context.Context, domain.FilterSet) { notified++ })

	store.HandleSearchChange("x")
	clock.Advance(100 * time.Millisecond)
	store.HandleSearchChange("")
	clock.Advance(time.Second)

	assert.Equal(t, 0, notified)
	assert.Equal(t, 0, storage.saves)
}

func TestFilterStore_HandleFiltersChangeCancelsPendingSearch(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()
	store := newTestStore(storage, clock)
	store.InitializeFiltersState(context.Background())

	store.HandleSearchChange("palm")
	next := domain.DefaultFilters()
	next.SearchTerm = "creek"
	next.PriceRange = domain.Range{Min: 5_000_000, Max: 1_000_000}
	st := store.HandleFiltersChange(context.Background(), next)

	assert.Equal(t, "creek", st.TypedSearch)
	assert.Equal(t, domain.Range{Min: 5_000_000, Max: 5_000_000}, st.Applied.PriceRange)
	assert.False(t, st.SearchPending)

	clock.Advance(time.Second)
	assert.Equal(t, "creek", store.State().Applied.SearchTerm)
	assert.Equal(t, 1, storage.saves)
}

func TestFilterStore_RestoresFreshRecord(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()

	saved := domain.DefaultFilters()
	saved.UnitType = []string{"Villa"}
	featured := true
	saved.Featured = &featured
	raw, err := json.Marshal(domain.NewPersistedFilters(saved, clock.Now().Add(-23*time.Hour)))
	require.NoError(t, err)
	storage.records[testKey] = raw

	store := newTestStore(storage, clock)
	var initial []domain.FilterSet
	store.OnChange(func(_ context.Context, f domain.FilterSet) { initial = append(initial, f) })

	st := store.InitializeFiltersState(context.Background())
	assert.True(t, st.Initialized)
	assert.Equal(t, []string{"Villa"}, st.Applied.UnitType)
	require.NotNil(t, st.Applied.Featured)
	assert.True(t, *st.Applied.Featured)
	assert.Equal(t, 2, st.ActiveCount)
	require.Len(t, initial, 1)

	// второй вызов ничего не перечитывает и не оповещает
	store.InitializeFiltersState(context.Background())
	assert.Len(t, initial, 1)
}

func TestFilterStore_ExpiredRecordIsDiscarded(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()

	saved := domain.DefaultFilters()
	saved.Bedrooms = []string{"2"}
	raw, err := json.Marshal(domain.NewPersistedFilters(saved, clock.Now().Add(-25*time.Hour)))
	require.NoError(t, err)
	storage.records[testKey] = raw

	store := newTestStore(storage, clock)
	st := store.InitializeFiltersState(context.Background())

	assert.Equal(t, domain.DefaultFilters(), st.Applied)
	_, ok := storage.get(testKey)
	assert.False(t, ok)
}

func TestFilterStore_InvalidRecordIsDiscarded(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()
	storage.records[testKey] = []byte(`{"priceRange": "cheap"`)

	store := newTestStore(storage, clock)
	st := store.InitializeFiltersState(context.Background())
	assert.Equal(t, domain.DefaultFilters(), st.Applied)
	_, ok := storage.get(testKey)
	assert.False(t, ok)

	raw, err := json.Marshal(domain.NewPersistedFilters(domain.DefaultFilters(), clock.Now()))
	require.NoError(t, err)
	storage.records[testKey] = raw
	strict := NewFilterStore(FilterStoreConfig{Key: testKey}, storage, rejectingValidator{}, clock, nopLogger{})
	strict.InitializeFiltersState(context.Background())
	_, ok = storage.get(testKey)
	assert.False(t, ok)
}

func TestFilterStore_ResetFilters(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()
	store := newTestStore(storage, clock)
	store.InitializeFiltersState(context.Background())

	next := domain.DefaultFilters()
	next.SalesStatus = []string{"On Sale"}
	next.SearchTerm = "jvc"
	store.HandleFiltersChange(context.Background(), next)
	assert.Equal(t, 1, store.ActiveFilterCount())
	store.HandleSearchChange("jvc 2")

	st := store.ResetFilters(context.Background())
	assert.Equal(t, domain.DefaultFilters(), st.Applied)
	assert.Equal(t, "", st.TypedSearch)
	assert.Equal(t, 0, st.ActiveCount)
	_, ok := storage.get(testKey)
	assert.False(t, ok)

	clock.Advance(time.Second)
	assert.Equal(t, "", store.State().Applied.SearchTerm)
}

// slowSaveStorage задерживает первое сохранение до закрытия release
type slowSaveStorage struct {
	*memStorage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *slowSaveStorage) Save(ctx context.Context, key string, record []byte, ttl time.Duration) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.memStorage.Save(ctx, key, record, ttl)
}

func TestFilterStore_FiltersChangeWinsOverSearchBeingSaved(t *testing.T) {
	clock := newFakeClock()
	storage := &slowSaveStorage{
		memStorage: newMemStorage(),
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	store := NewFilterStore(FilterStoreConfig{
		Key:           testKey,
		DebounceDelay: 500 * time.Millisecond,
	}, storage, nil, clock, nopLogger{})
	store.InitializeFiltersState(context.Background())

	var mu sync.Mutex
	var published []domain.FilterSet
	store.OnChange(func(_ context.Context, f domain.FilterSet) {
		mu.Lock()
		published = append(published, f)
		mu.Unlock()
	})

	store.HandleSearchChange("marina")
	debounced := make(chan struct{})
	go func() {
		defer close(debounced)
		clock.Advance(time.Second)
	}()
	<-storage.entered

	dialog := domain.DefaultFilters()
	dialog.SearchTerm = "dialog"
	dialog.UnitType = []string{"Villa"}
	applied := make(chan domain.FilterState, 1)
	go func() { applied <- store.HandleFiltersChange(context.Background(), dialog) }()

	require.Eventually(t, func() bool {
		return store.Applied().SearchTerm == "dialog"
	}, time.Second, 5*time.Millisecond)
	close(storage.release)
	<-debounced
	st := <-applied

	assert.Equal(t, "dialog", st.Applied.SearchTerm)
	assert.Equal(t, "dialog", store.Applied().SearchTerm)

	mu.Lock()
	require.NotEmpty(t, published)
	last := published[len(published)-1]
	for _, f := range published {
		assert.NotEqual(t, "marina", f.SearchTerm)
	}
	mu.Unlock()
	assert.Equal(t, "dialog", last.SearchTerm)
	assert.Equal(t, []string{"Villa"}, last.UnitType)

	raw, ok := storage.get(testKey)
	require.True(t, ok)
	var rec domain.PersistedFilters
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "dialog", rec.SearchTerm)
	assert.Equal(t, []string{"Villa"}, rec.UnitType)
}

func TestFilterStore_ResetSupersedesSearchBeingSaved(t *testing.T) {
	clock := newFakeClock()
	storage := &slowSaveStorage{
		memStorage: newMemStorage(),
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	store := NewFilterStore(FilterStoreConfig{
		Key:           testKey,
		DebounceDelay: 500 * time.Millisecond,
	}, storage, nil, clock, nopLogger{})
	store.InitializeFiltersState(context.Background())

	store.HandleSearchChange("marina")
	debounced := make(chan struct{})
	go func() {
		defer close(debounced)
		clock.Advance(time.Second)
	}()
	<-storage.entered

	reset := make(chan struct{})
	go func() {
		defer close(reset)
		store.ResetFilters(context.Background())
	}()
	require.Eventually(t, func() bool {
		return store.State().TypedSearch == ""
	}, time.Second, 5*time.Millisecond)
	close(storage.release)
	<-debounced
	<-reset

	_, ok := storage.get(testKey)
	assert.False(t, ok)
	assert.Equal(t, "", store.Applied().SearchTerm)
}
