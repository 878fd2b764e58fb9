package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-browser-service/internal/adapters/backend_api_client"
	"property-browser-service/internal/adapters/clock"
	"property-browser-service/internal/adapters/metrics"
	redis_adapter "property-browser-service/internal/adapters/redis"
	"property-browser-service/internal/constants"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/contracts"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"property-browser-service/internal/core/usecase"
)

// fakeBackend отдает totalProperties объектов постранично
type fakeBackend struct {
	mu              sync.Mutex
	totalProperties int
	queries         []string
}

func (b *fakeBackend) lastQuery() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queries) == 0 {
		return ""
	}
	return b.queries[len(b.queries)-1]
}

func (b *fakeBackend) allQueries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/development-status":
		_, _ = w.Write([]byte(`[{"name":"Presale"},{"name":"Completed"}]`))
	case "/api/sale-status":
		_, _ = w.Write([]byte(`{"success":true,"data":[{"name":"On Sale"}]}`))
	case "/api/properties":
		b.mu.Lock()
		b.queries = append(b.queries, r.URL.RawQuery)
		total := b.totalProperties
		b.mu.Unlock()

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var items []string
		for i := (page-1)*limit + 1; i <= page*limit && i <= total; i++ {
			coords := "25.1,55.2"
			if i == 1 {
				coords = "not-a-point"
			}
			items = append(items, fmt.Sprintf(
				`{"id":%d,"name":"Tower %d","area":"Dubai Marina","min_price":1250000,"price_currency":"AED","min_size":1000,"coordinates":%q}`,
				i, i, coords))
		}
		_, _ = fmt.Fprintf(w, `{"success":true,"data":[%s],"pagination":{"page":%d,"limit":%d,"total":%d}}`,
			strings.Join(items, ","), page, limit, total)
	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	server   *httptest.Server
	backend  *fakeBackend
	redis    *miniredis.Miniredis
	registry *usecase.SessionRegistry
}

func newTestEnv(t *testing.T, limiter *RateLimiter) *testEnv {
	t.Helper()

	backend := &fakeBackend{totalProperties: 26}
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := contextkeys.LoggerFromContext(context.Background())
	api := backend_api_client.NewClient(backendSrv.URL, 5*time.Second, nil)
	vocabulary := usecase.NewVocabularyService(api)
	promMetrics := metrics.NewPrometheusMetrics(false)

	registry := usecase.NewSessionRegistry(usecase.BrowseConfig{
		DebounceDelay:    200 * time.Millisecond,
		RecordTTL:        24 * time.Hour,
		PageLimit:        12,
		MapBatchSize:     10,
		MapBatchDelay:    time.Millisecond,
		MapMaxProperties: 500,
		SessionIdleTTL:   time.Hour,
	}, usecase.SessionDeps{
		Storage:    redis_adapter.NewFilterStorage(rdb),
		Validator:  contracts.RecordValidator{},
		API:        api,
		Vocabulary: vocabulary,
		Clock:      clock.New(),
		Metrics:    port.NoopMetrics{},
		Logger:     logger,
	})
	t.Cleanup(registry.Close)

	inquiryUC := usecase.NewCreateInquiryUseCase(usecase.InquiryConfig{AgentPhone: "+971 50 000 0000"}, nil, nil, clock.New())

	router := NewRouter(RouterDeps{
		Sessions:       registry,
		Browse:         NewBrowseHandler(registry, vocabulary),
		Inquiries:      NewInquiryHandler(inquiryUC),
		InquiryLimiter: limiter,
		Metrics:        promMetrics,
		MetricsHandler: promMetrics.Handler(),
		Logger:         logger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, backend: backend, redis: mr, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestRouter_SessionAndListing(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created SessionResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, created.SessionID, resp.Header.Get(SessionHeader))
	assert.True(t, created.Filters.Initialized)

	resp, body = env.do(t, http.MethodGet, "/api/v1/listing", created.SessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing ListingResponse
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.True(t, listing.Initialized)
	assert.Len(t, listing.Properties, 12)
	assert.Equal(t, 3, listing.Pagination.TotalPages)
	assert.False(t, listing.HasPrevious)
	assert.True(t, listing.HasNext)

	// объект с битыми координатами ставится в центр Дубая
	first := listing.Properties[0]
	assert.True(t, first.ApproximateLocation)
	assert.Equal(t, 25.2048, first.Coordinates.Lat)
	assert.Equal(t, 1250.0, first.PricePerSqFt)

	resp, body = env.do(t, http.MethodPut, "/api/v1/listing/page", created.SessionID, PageRequest{Page: 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 2, listing.Pagination.Page)
	assert.True(t, listing.ScrollToTop)
	assert.True(t, listing.HasPrevious)
	assert.True(t, listing.HasNext)

	for _, page := range []int{0, 4} {
		resp, _ = env.do(t, http.MethodPut, "/api/v1/listing/page", created.SessionID, PageRequest{Page: page})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "page %d", page)
	}

	resp, body = env.do(t, http.MethodPut, "/api/v1/listing/sort", created.SessionID, SortRequest{Sort: "price-low"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 2, listing.Pagination.Page)
	assert.Contains(t, env.backend.lastQuery(), "sort=price_min_to_max")
}

func TestRouter_CreatesSessionWhenHeaderMissing(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/api/v1/sessions/current/filters", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(SessionHeader))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	assert.Contains(t, string(body), `"initialized":true`)
	assert.Equal(t, 1, env.registry.Len())
}

func TestRouter_DialogFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	sessionID := "5f0c4ad1-3a57-4c43-9d0e-2b1f7b0c9e11"

	resp, _ := env.do(t, http.MethodPost, "/api/v1/filters/dialog/apply", sessionID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/filters/dialog", sessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodPatch, "/api/v1/filters/dialog", sessionID, DraftEditRequest{Edits: []domain.DraftEdit{
		{Field: "unitType", Value: "Villa"},
		{Field: "priceMin", Value: "1000000"},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var draft DraftResponse
	require.NoError(t, json.Unmarshal(body, &draft))
	assert.Equal(t, []string{"Villa"}, draft.Draft.UnitType)
	assert.Equal(t, 2, draft.ActiveCount)

	// невалидная пачка не меняет черновик
	resp, _ = env.do(t, http.MethodPatch, "/api/v1/filters/dialog", sessionID, DraftEditRequest{Edits: []domain.DraftEdit{
		{Field: "bedrooms", Value: "2"},
		{Field: "priceMax", Value: "lots"},
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/filters/dialog/apply", sessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"activeCount":2`)
	assert.Contains(t, env.backend.lastQuery(), "unit_type=Villa")
	assert.Contains(t, env.backend.lastQuery(), "min_price=1000000")
	assert.NotContains(t, env.backend.lastQuery(), "bedrooms")
	assert.NotContains(t, env.backend.lastQuery(), "max_price")

	assert.True(t, env.redis.Exists(constants.FilterRecordKey(sessionID)))

	resp, body = env.do(t, http.MethodGet, "/api/v1/filters/active-count", sessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"activeCount":2}`, string(body))

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/filters", sessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, env.redis.Exists(constants.FilterRecordKey(sessionID)))
}

func TestRouter_ReplaceFiltersValidatesPayload(t *testing.T) {
	env := newTestEnv(t, nil)
	sessionID := "0b9c7a3e-8d25-4f7e-a5a4-8a3c2f1e6d70"

	resp, _ := env.do(t, http.MethodPut, "/api/v1/filters", sessionID, `{"priceRange":[0],"colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, http.MethodPut, "/api/v1/filters", sessionID, `{"bedrooms":["3"],"featured":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"activeCount":2`)
	assert.Contains(t, env.backend.lastQuery(), "featured=true")
}

func TestRouter_SearchIsDebounced(t *testing.T) {
	env := newTestEnv(t, nil)
	sessionID := "7d7c8a61-61b4-45f2-92f3-02f0c1d1a0b5"

	resp, body := env.do(t, http.MethodPost, "/api/v1/filters/search", sessionID, SearchRequest{Text: "mar"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Contains(t, string(body), `"searchPending":true`)
	env.do(t, http.MethodPost, "/api/v1/filters/search", sessionID, SearchRequest{Text: "marina"})

	assert.Eventually(t, func() bool {
		return strings.Contains(env.backend.lastQuery(), "name=marina")
	}, 2*time.Second, 10*time.Millisecond)
	for _, q := range env.backend.allQueries() {
		assert.NotContains(t, q, "name=mar&")
	}
}

func TestRouter_MapLoadAndFocus(t *testing.T) {
	env := newTestEnv(t, nil)
	sessionID := "c5a1e3a2-0f44-4a55-b0f1-6b7f5b0a9e33"

	resp, _ := env.do(t, http.MethodPost, "/api/v1/map/load", sessionID, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var mapResp MapResponse
	assert.Eventually(t, func() bool {
		_, body := env.do(t, http.MethodGet, "/api/v1/map?zoom=14&hovered=3", sessionID, nil)
		if err := json.Unmarshal(body, &mapResp); err != nil {
			return false
		}
		return mapResp.State.Complete
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 26, mapResp.State.Loaded)
	assert.Equal(t, 3, mapResp.State.Batches)
	require.Len(t, mapResp.Markers, 26)
	for _, m := range mapResp.Markers {
		if m.PropertyID == "3" {
			assert.True(t, m.Hovered)
			assert.Equal(t, 1000, m.ZIndex)
		}
	}

	resp, body := env.do(t, http.MethodPost, "/api/v1/map/focus", sessionID, FocusRequest{PropertyID: "20", Zoom: 11})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"openPopup":true`)

	resp, body = env.do(t, http.MethodPost, "/api/v1/map/focus", sessionID, FocusRequest{PropertyID: "20", Zoom: 11, Hover: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"openPopup":true`)
	assert.Contains(t, string(body), `"hover":true`)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/map/focus", sessionID, FocusRequest{PropertyID: "999"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/v1/map/reset", sessionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"loaded":0`)
}

func TestRouter_InquiryAndRateLimit(t *testing.T) {
	env := newTestEnv(t, NewRateLimiter(1, 1))
	sessionID := "2a4f1c0e-9b7d-4e6a-8c3b-5d1e0f2a7b94"

	// первый запрос поднимает сессию и загружает первую страницу
	env.do(t, http.MethodGet, "/api/v1/listing", sessionID, nil)

	resp, body := env.do(t, http.MethodPost, "/api/v1/inquiries", sessionID, InquiryRequest{
		PropertyID:  "2",
		ClientName:  "jane doe",
		ClientPhone: "+971 50 123 4567",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var inquiry InquiryResponse
	require.NoError(t, json.Unmarshal(body, &inquiry))
	assert.True(t, strings.HasPrefix(inquiry.Link, "https://wa.me/971500000000?text="))
	assert.Contains(t, inquiry.Message, "Tower 2")
	assert.Contains(t, inquiry.Message, "Jane Doe")

	resp, _ = env.do(t, http.MethodPost, "/api/v1/inquiries", sessionID, InquiryRequest{PropertyID: "2", ClientPhone: "+971501234567"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRouter_InquiryValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	sessionID := "9e8d7c6b-5a49-4838-a726-150f4e3d2c1b"
	env.do(t, http.MethodGet, "/api/v1/listing", sessionID, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/inquiries", sessionID, InquiryRequest{PropertyID: "404", ClientPhone: "+971501234567"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/inquiries", sessionID, InquiryRequest{PropertyID: "2", ClientPhone: "call me"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/inquiries", sessionID, InquiryRequest{PropertyID: "2", ClientPhone: "+971501234567", Channel: "sms"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	env.do(t, http.MethodGet, "/api/v1/filters/vocabulary", "", nil)

	// счетчик пишется после отправки ответа
	assert.Eventually(t, func() bool {
		resp, body := env.do(t, http.MethodGet, "/metrics", "", nil)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), `route="/api/v1/filters/vocabulary"`)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_Vocabulary(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/api/v1/filters/vocabulary", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"developmentStatuses":["Presale","Completed"]`)
	assert.Contains(t, string(body), `"salesSource":"server"`)
}
