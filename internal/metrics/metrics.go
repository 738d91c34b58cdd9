package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	MessagesHandled        int64
	MessagesSent           int64
	NewsDelivered          int64
	DuplicatesSkipped      int64
	SuccessfulTranslations int64
	FailedTranslations     int64
	SuccessfulAnalyses     int64
	FailedAnalyses         int64
	FetchFailures          int64

	// Timings
	LastHandlingTime    time.Duration
	AverageHandlingTime time.Duration
	TotalHandlingTime   time.Duration
	HandlingCount       int64

	// Status
	StartedAt     time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{IsHealthy: true, StartedAt: time.Now()}
}

func (m *Metrics) IncrementMessagesHandled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesHandled++
}

func (m *Metrics) IncrementMessagesSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent++
}

func (m *Metrics) IncrementNewsDelivered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NewsDelivered++
}

func (m *Metrics) IncrementDuplicatesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSkipped++
}

func (m *Metrics) IncrementSuccessfulTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulTranslations++
}

func (m *Metrics) IncrementFailedTranslations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedTranslations++
}

func (m *Metrics) IncrementSuccessfulAnalyses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulAnalyses++
}

func (m *Metrics) IncrementFailedAnalyses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedAnalyses++
}

func (m *Metrics) IncrementFetchFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchFailures++
}

func (m *Metrics) RecordHandlingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastHandlingTime = duration
	m.TotalHandlingTime += duration
	m.HandlingCount++

	if m.HandlingCount > 0 {
		m.AverageHandlingTime = m.TotalHandlingTime / time.Duration(m.HandlingCount)
	}
}

// SetError marks the process unhealthy until the next successful send.
func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) SetHealthy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IsHealthy = true
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lastErrorTime := ""
	if !m.LastErrorTime.IsZero() {
		lastErrorTime = m.LastErrorTime.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"messages_handled":         m.MessagesHandled,
		"messages_sent":            m.MessagesSent,
		"news_delivered":           m.NewsDelivered,
		"duplicates_skipped":       m.DuplicatesSkipped,
		"successful_translations":  m.SuccessfulTranslations,
		"failed_translations":      m.FailedTranslations,
		"successful_analyses":      m.SuccessfulAnalyses,
		"failed_analyses":          m.FailedAnalyses,
		"fetch_failures":           m.FetchFailures,
		"last_handling_time_ms":    m.LastHandlingTime.Milliseconds(),
		"average_handling_time_ms": m.AverageHandlingTime.Milliseconds(),
		"started_at":               m.StartedAt.Format(time.RFC3339),
		"last_error_time":          lastErrorTime,
		"last_error":               m.LastError,
		"is_healthy":               m.IsHealthy,
	}
}
