package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-browser-service/internal/core/domain"
)

func TestListingPager_NoFetchBeforeFiltersInitialized(t *testing.T) {
	api := newFakePropertyAPI(48)
	pager := NewListingPager(api, nil, nil, 12)

	st := pager.SetSort(context.Background(), "newest")
	assert.False(t, st.Initialized)
	assert.Empty(t, api.Queries())
}

func TestListingPager_PageTwoOfFour(t *testing.T) {
	api := newFakePropertyAPI(48)
	pager := NewListingPager(api, nil, nil, 12)
	ctx := context.Background()

	pager.OnFiltersChanged(ctx, domain.DefaultFilters())
	st, err := pager.GoToPage(ctx, 2)
	require.NoError(t, err)

	assert.Len(t, st.Properties, 12)
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 12, Total: 48, TotalPages: 4}, st.Pagination)
	assert.True(t, st.HasPrevious)
	assert.True(t, st.HasNext)
	assert.True(t, st.ScrollToTop)
	assert.Equal(t, "p13", st.Properties[0].ID)
}

func TestListingPager_OutOfRangePagesAreNoOps(t *testing.T) {
	api := newFakePropertyAPI(48)
	pager := NewListingPager(api, nil, nil, 12)
	ctx := context.Background()
	pager.OnFiltersChanged(ctx, domain.DefaultFilters())
	before := len(api.Queries())

	for _, page := range []int{0, 5} {
		st, err := pager.GoToPage(ctx, page)
		assert.ErrorIs(t, err, domain.ErrPageOutOfRange)
		assert.Equal(t, 1, st.Pagination.Page)
	}
	assert.Len(t, api.Queries(), before)
}

func TestListingPager_FilterChangeResetsToFirstPage(t *testing.T) {
	api := newFakePropertyAPI(48)
	pager := NewListingPager(api, nil, nil, 12)
	ctx := context.Background()

	pager.OnFiltersChanged(ctx, domain.DefaultFilters())
	_, err := pager.GoToPage(ctx, 3)
	require.NoError(t, err)

	f := domain.DefaultFilters()
	f.UnitType = []string{"Villa"}
	pager.OnFiltersChanged(ctx, f)

	queries := api.Queries()
	last := queries[len(queries)-1]
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "Villa", last.Params["unit_type"])
	assert.Equal(t, 1, pager.State().Pagination.Page)
}

func TestListingPager_SortKeepsCurrentPage(t *testing.T) {
	api := newFakePropertyAPI(48)
	pager := NewListingPager(api, nil, nil, 12)
	ctx := context.Background()

	pager.OnFiltersChanged(ctx, domain.DefaultFilters())
	_, err := pager.GoToPage(ctx, 2)
	require.NoError(t, err)

	st := pager.SetSort(ctx, "price-low")
	assert.Equal(t, "price-low", st.Sort)
	queries := api.Queries()
	last := queries[len(queries)-1]
	assert.Equal(t, 2, last.Page)
	assert.Equal(t, "price_min_to_max", last.Params["sort"])
}

func TestListingPager_FailureThenRetry(t *testing.T) {
	api := newFakePropertyAPI(30)
	pager := NewListingPager(api, nil, nil, 12)
	ctx := context.Background()

	pager.OnFiltersChanged(ctx, domain.DefaultFilters())
	_, err := pager.GoToPage(ctx, 2)
	require.NoError(t, err)

	api.setErr(errors.New("502 bad gateway"))
	st := pager.SetSort(ctx, "oldest")
	assert.Empty(t, st.Properties)
	assert.Equal(t, domain.EmptyPagination(12), st.Pagination)
	assert.Equal(t, ListingLoadError, st.Error)

	api.setErr(nil)
	st = pager.Retry(ctx)
	assert.Empty(t, st.Error)
	assert.Equal(t, 2, st.Pagination.Page)
	assert.Len(t, st.Properties, 12)
}

func TestListingPager_ComputesMissingTotalPages(t *testing.T) {
	api := newFakePropertyAPI(25)
	api.noTotals = true
	pager := NewListingPager(api, nil, nil, 12)

	pager.OnFiltersChanged(context.Background(), domain.DefaultFilters())
	st := pager.State()
	assert.Equal(t, 3, st.Pagination.TotalPages)
	assert.Len(t, st.PageItems, 3)
}

func TestListingPager_DropsTriggerWhileInFlight(t *testing.T) {
	api := newFakePropertyAPI(48)
	metrics := &countingMetrics{}
	pager := NewListingPager(api, nil, metrics, 12)
	ctx := context.Background()
	pager.OnFiltersChanged(ctx, domain.DefaultFilters())

	api.mu.Lock()
	api.block = make(chan struct{})
	api.started = make(chan struct{}, 1)
	api.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = pager.GoToPage(ctx, 2)
	}()
	<-api.started

	st := pager.SetSort(ctx, "newest")
	assert.True(t, st.Dropped)
	assert.True(t, st.Loading)

	close(api.block)
	wg.Wait()

	assert.Equal(t, 1, metrics.dropped)
	assert.Len(t, api.Queries(), 2)
	assert.Equal(t, 2, pager.State().Pagination.Page)
}

type mapPageCache struct {
	pages map[string]*domain.PropertyPage
}

func (c *mapPageCache) Get(_ context.Context, q domain.PropertyQuery) (*domain.PropertyPage, bool, error) {
	p, ok := c.pages[q.CacheKey()]
	return p, ok, nil
}

func (c *mapPageCache) Set(_ context.Context, q domain.PropertyQuery, page *domain.PropertyPage) error {
	c.pages[q.CacheKey()] = page
	return nil
}

func TestListingPager_UsesPageCache(t *testing.T) {
	api := newFakePropertyAPI(48)
	cache := &mapPageCache{pages: map[string]*domain.PropertyPage{}}
	pager := NewListingPager(api, cache, nil, 12)
	ctx := context.Background()

	pager.OnFiltersChanged(ctx, domain.DefaultFilters())
	_, err := pager.GoToPage(ctx, 2)
	require.NoError(t, err)
	_, err = pager.GoToPage(ctx, 1)
	require.NoError(t, err)

	assert.Len(t, api.Queries(), 2)
	assert.Len(t, cache.pages, 2)
}
