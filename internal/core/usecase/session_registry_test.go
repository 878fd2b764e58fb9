package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-browser-service/internal/constants"
	"property-browser-service/internal/core/domain"
)

type sessionMetrics struct {
	countingMetrics
	active int
}

func (m *sessionMetrics) SetActiveSessions(n int) { m.active = n }

func newTestRegistry(storage *memStorage, clock *fakeClock, metrics *sessionMetrics) (*SessionRegistry, *fakePropertyAPI) {
	api := newFakePropertyAPI(30)
	return NewSessionRegistry(BrowseConfig{
		DebounceDelay:  500 * time.Millisecond,
		PageLimit:      12,
		MapBatchSize:   50,
		SessionIdleTTL: 30 * time.Minute,
	}, SessionDeps{
		Storage:    storage,
		API:        api,
		Vocabulary: NewVocabularyService(&fakeStatusAPI{}),
		Clock:      clock,
		Metrics:    metrics,
		Logger:     nopLogger{},
	}), api
}

func TestSessionRegistry_CreateInitializesAndFetches(t *testing.T) {
	metrics := &sessionMetrics{}
	registry, api := newTestRegistry(newMemStorage(), newFakeClock(), metrics)

	s, err := registry.Create(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID())
	require.NoError(t, err)

	assert.True(t, s.Filters().State().Initialized)
	st := s.Listing().State()
	assert.Len(t, st.Properties, 12)
	assert.Equal(t, 3, st.Pagination.TotalPages)
	assert.Len(t, api.Queries(), 1)
	assert.Equal(t, 1, metrics.active)

	again, created, err := registry.GetOrCreate(context.Background(), s.ID())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)
}

func TestSessionRegistry_RestoresFiltersForKnownID(t *testing.T) {
	clock := newFakeClock()
	storage := newMemStorage()
	registry, api := newTestRegistry(storage, clock, &sessionMetrics{})
	id := uuid.NewString()

	saved := domain.DefaultFilters()
	saved.UnitType = []string{"Townhouse"}
	raw, err := json.Marshal(domain.NewPersistedFilters(saved, clock.Now()))
	require.NoError(t, err)
	storage.records[constants.FilterRecordKey(id)] = raw

	s, created, err := registry.GetOrCreate(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, id, s.ID())
	assert.Equal(t, []string{"Townhouse"}, s.Filters().State().Applied.UnitType)
	assert.Equal(t, "Townhouse", api.Queries()[0].Params["unit_type"])
}

func TestSessionRegistry_InvalidIDGetsFreshSession(t *testing.T) {
	registry, _ := newTestRegistry(newMemStorage(), newFakeClock(), &sessionMetrics{})

	s, created, err := registry.GetOrCreate(context.Background(), "../../etc")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "../../etc", s.ID())
}

func TestSessionRegistry_FilterChangeRefetchesListing(t *testing.T) {
	registry, api := newTestRegistry(newMemStorage(), newFakeClock(), &sessionMetrics{})
	ctx := context.Background()
	s, err := registry.Create(ctx)
	require.NoError(t, err)

	_, err = s.Listing().GoToPage(ctx, 2)
	require.NoError(t, err)

	s.Dialog().Open(ctx)
	_, err = s.Dialog().Edit(ctx, []domain.DraftEdit{{Field: domain.FieldBedrooms, Value: "2"}})
	require.NoError(t, err)
	_, err = s.Dialog().Apply(ctx)
	require.NoError(t, err)

	queries := api.Queries()
	last := queries[len(queries)-1]
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "2", last.Params["bedrooms"])
	assert.Equal(t, 1, s.Listing().State().Pagination.Page)
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	clock := newFakeClock()
	metrics := &sessionMetrics{}
	registry, _ := newTestRegistry(newMemStorage(), clock, metrics)
	ctx := context.Background()

	stale, err := registry.Create(ctx)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)
	fresh, err := registry.Create(ctx)
	require.NoError(t, err)
	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, registry.EvictIdle(ctx))
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, 1, metrics.active)

	_, err = registry.Get(stale.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = registry.Get(fresh.ID())
	assert.NoError(t, err)
}
