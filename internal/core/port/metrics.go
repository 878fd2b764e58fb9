package port

import "time"

// MetricsPort - счетчики производительности, внедряются как зависимость
type MetricsPort interface {
	ObserveBackendRequest(endpoint, outcome string, duration time.Duration)
	IncMapBatch(outcome string)
	IncDroppedFetch(view string)
	SetActiveSessions(n int)
}

// NoopMetrics - реализация для тестов и запуска без prometheus
type NoopMetrics struct{}

func (NoopMetrics) ObserveBackendRequest(string, string, time.Duration) {}
func (NoopMetrics) IncMapBatch(string)                                  {}
func (NoopMetrics) IncDroppedFetch(string)                              {}
func (NoopMetrics) SetActiveSessions(int)                               {}
