package utils

import (
	"sync"
	"time"
)

// Metrics contém as métricas da aplicação
type Metrics struct {
	mu sync.RWMutex

	// Métricas de requisições
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Métricas de compras e parcelas
	PurchasesCreated     int64
	PurchasesUpdated     int64
	PurchasesDeleted     int64
	SchedulesRegenerated int64
	InstallmentsMarked   int64
	RemindersSent        int64
	LastOperationTime    time.Time

	// Métricas de erros
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

// MetricsSnapshot é a visão somente leitura exposta pela API
type MetricsSnapshot struct {
	TotalRequests        int64  `json:"totalRequests"`
	FailedRequests       int64  `json:"failedRequests"`
	AverageLatency       string `json:"averageLatency"`
	PurchasesCreated     int64  `json:"purchasesCreated"`
	PurchasesUpdated     int64  `json:"purchasesUpdated"`
	PurchasesDeleted     int64  `json:"purchasesDeleted"`
	SchedulesRegenerated int64  `json:"schedulesRegenerated"`
	InstallmentsMarked   int64  `json:"installmentsMarked"`
	RemindersSent        int64  `json:"remindersSent"`
	ErrorCount           int64  `json:"errorCount"`
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics retorna a instância das métricas
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest registra as métricas de uma requisição
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if failed {
		m.FailedRequests++
	}
}

// RecordPurchaseOperation registra as métricas de uma operação sobre compras
func (m *Metrics) RecordPurchaseOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastOperationTime = time.Now()

	if err != nil {
		m.recordErrorLocked(err)
		return
	}

	switch operation {
	case "create":
		m.PurchasesCreated++
	case "update":
		m.PurchasesUpdated++
	case "delete":
		m.PurchasesDeleted++
	case "regenerate":
		m.SchedulesRegenerated++
	case "mark":
		m.InstallmentsMarked++
	case "reminder":
		m.RemindersSent++
	}
}

// recordErrorLocked registra um erro; o chamador deve deter o lock
func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()
	m.ErrorTypes[err.Error()]++
}

// Snapshot retorna uma cópia consistente das métricas
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		TotalRequests:        m.TotalRequests,
		FailedRequests:       m.FailedRequests,
		AverageLatency:       m.AverageLatency.String(),
		PurchasesCreated:     m.PurchasesCreated,
		PurchasesUpdated:     m.PurchasesUpdated,
		PurchasesDeleted:     m.PurchasesDeleted,
		SchedulesRegenerated: m.SchedulesRegenerated,
		InstallmentsMarked:   m.InstallmentsMarked,
		RemindersSent:        m.RemindersSent,
		ErrorCount:           m.ErrorCount,
	}
}
