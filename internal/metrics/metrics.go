package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ResultsFetched         int64
	DuplicatesFiltered     int64
	Translations           int64
	AIClassifications      int64
	KeywordClassifications int64
	GeocodeCacheHits       int64
	GeocodeCacheMisses     int64
	EventsDroppedNoLoc     int64
	EventsEmitted          int64

	// Timings
	LastRunDuration    time.Duration
	TotalRunDuration   time.Duration
	AverageRunDuration time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) AddResultsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResultsFetched += int64(n)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Translations++
}

func (m *Metrics) IncrementAIClassifications() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AIClassifications++
}

func (m *Metrics) IncrementKeywordClassifications() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeywordClassifications++
}

func (m *Metrics) RecordGeocodeLookup(cacheHit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cacheHit {
		m.GeocodeCacheHits++
	} else {
		m.GeocodeCacheMisses++
	}
}

func (m *Metrics) IncrementDroppedNoLocation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsDroppedNoLoc++
}

func (m *Metrics) AddEventsEmitted(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsEmitted += int64(n)
}

func (m *Metrics) RecordRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}

	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"results_fetched":         m.ResultsFetched,
		"duplicates_filtered":     m.DuplicatesFiltered,
		"translations":            m.Translations,
		"ai_classifications":      m.AIClassifications,
		"keyword_classifications": m.KeywordClassifications,
		"geocode_cache_hits":      m.GeocodeCacheHits,
		"geocode_cache_misses":    m.GeocodeCacheMisses,
		"events_dropped_no_loc":   m.EventsDroppedNoLoc,
		"events_emitted":          m.EventsEmitted,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"run_count":               m.RunCount,
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
