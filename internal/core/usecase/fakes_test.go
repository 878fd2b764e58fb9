package usecase

import (
	"context"
	"errors"
	"property-browser-service/internal/core/domain"
	"property-browser-service/internal/core/port"
	"strconv"
	"sync"
	"time"
)

type nopLogger struct{}

func (nopLogger) Info(string, port.Fields)                 {}
func (nopLogger) Warn(string, port.Fields)                 {}
func (nopLogger) Error(string, error, port.Fields)         {}
func (nopLogger) Debug(string, port.Fields)                {}
func (l nopLogger) WithFields(port.Fields) port.LoggerPort { return l }

// memStorage - слот фильтров в памяти
type memStorage struct {
	mu      sync.Mutex
	records map[string][]byte
	ttls    map[string]time.Duration
	saves   int
	deletes int
	loadErr error
}

func newMemStorage() *memStorage {
	return &memStorage{records: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	raw, ok := m.records[key]
	if !ok {
		return nil, domain.ErrNoSavedFilters
	}
	return raw, nil
}

func (m *memStorage) Save(_ context.Context, key string, record []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = record
	m.ttls[key] = ttl
	m.saves++
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	m.deletes++
	return nil
}

func (m *memStorage) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.records[key]
	return raw, ok
}

type rejectingValidator struct{}

func (rejectingValidator) ValidateFilterRecord([]byte) error { return errors.New("schema mismatch") }

// fakePropertyAPI отдает заранее заданный набор объектов постранично
type fakePropertyAPI struct {
	mu       sync.Mutex
	all      []domain.Property
	err      error
	queries  []domain.PropertyQuery
	block    chan struct{} // если не nil, запрос ждет закрытия канала
	started  chan struct{}
	noTotals bool
}

func newFakePropertyAPI(n int) *fakePropertyAPI {
	props := make([]domain.Property, n)
	for i := range props {
		props[i] = domain.Property{
			ID:          "p" + strconv.Itoa(i+1),
			Name:        "Tower " + strconv.Itoa(i+1),
			MinPrice:    float64(1_000_000 + i*1000),
			MinSize:     1000,
			Coordinates: "25.1,55.2",
		}
	}
	return &fakePropertyAPI{all: props}
}

func (f *fakePropertyAPI) FindProperties(ctx context.Context, q domain.PropertyQuery) (*domain.PropertyPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	block, started, err := f.block, f.started, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	from := (q.Page - 1) * q.Limit
	if from > len(f.all) {
		from = len(f.all)
	}
	to := from + q.Limit
	if to > len(f.all) {
		to = len(f.all)
	}
	page := make([]domain.Property, to-from)
	copy(page, f.all[from:to])

	totalPages := 0
	if !f.noTotals {
		totalPages = (len(f.all) + q.Limit - 1) / q.Limit
	}
	return &domain.PropertyPage{
		Properties: page,
		Pagination: domain.NewPagination(q.Page, q.Limit, len(f.all), totalPages),
	}, nil
}

func (f *fakePropertyAPI) Queries() []domain.PropertyQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.PropertyQuery, len(f.queries))
	copy(out, f.queries)
	return out
}

func (f *fakePropertyAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type countingMetrics struct {
	port.NoopMetrics
	mu      sync.Mutex
	dropped int
	batches map[string]int
}

func (m *countingMetrics) IncDroppedFetch(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func (m *countingMetrics) IncMapBatch(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batches == nil {
		m.batches = map[string]int{}
	}
	m.batches[outcome]++
}
