package pipeline

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EntityMetrics tracks per-entity conformance counters for one run
type EntityMetrics struct {
	Entity       string
	RowsRead     int
	RowsWritten  int
	RowsDropped  int
	CleansingOps int
	Duration     time.Duration
}

// RunMetrics tracks counters for a single conformance run. Entity stages
// run concurrently, so recording is mutex-guarded.
type RunMetrics struct {
	mu        sync.Mutex
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Entities  map[string]*EntityMetrics

	TotalRowsRead      int
	TotalRowsWritten   int
	TotalRowsDropped   int
	TotalCleansingOps  int
	DefectCounts       map[DefectClass]int
	UnresolvedProducts int
	UnresolvedCusts    int
}

// NewRunMetrics creates a metrics tracker for one run
func NewRunMetrics(runID string) *RunMetrics {
	return &RunMetrics{
		RunID:        runID,
		StartTime:    time.Now(),
		Entities:     make(map[string]*EntityMetrics),
		DefectCounts: make(map[DefectClass]int),
	}
}

// RecordEntity records the outcome of one entity conformance stage
func (m *RunMetrics) RecordEntity(entity string, read, written, dropped, ops int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Entities[entity] = &EntityMetrics{
		Entity:       entity,
		RowsRead:     read,
		RowsWritten:  written,
		RowsDropped:  dropped,
		CleansingOps: ops,
		Duration:     duration,
	}

	m.TotalRowsRead += read
	m.TotalRowsWritten += written
	m.TotalRowsDropped += dropped
	m.TotalCleansingOps += ops

	if dropped > 0 {
		m.DefectCounts[DefectDropWorthy] += dropped
	}
	if ops > 0 {
		m.DefectCounts[DefectCorrectable] += ops
	}
}

// RecordUnresolvedRefs records fact rows left with nil surrogate keys
func (m *RunMetrics) RecordUnresolvedRefs(products, customers int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UnresolvedProducts = products
	m.UnresolvedCusts = customers
	m.DefectCounts[DefectUnresolvedRef] += products + customers
}

// Finish marks the run complete
func (m *RunMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Duration returns the total run duration
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// LogSummary emits the run summary
func (m *RunMetrics) LogSummary(logger *zap.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fields := []zap.Field{
		zap.String("run_id", m.RunID),
		zap.Int("rows_read", m.TotalRowsRead),
		zap.Int("rows_written", m.TotalRowsWritten),
		zap.Int("rows_dropped", m.TotalRowsDropped),
		zap.Int("cleansing_ops", m.TotalCleansingOps),
		zap.Int("unresolved_products", m.UnresolvedProducts),
		zap.Int("unresolved_customers", m.UnresolvedCusts),
	}
	for _, class := range []DefectClass{DefectCorrectable, DefectDropWorthy, DefectUnresolvedRef} {
		if count := m.DefectCounts[class]; count > 0 {
			fields = append(fields, zap.Int("defects_"+strings.ToLower(class.String()), count))
		}
	}
	if !m.EndTime.IsZero() {
		fields = append(fields, zap.Duration("duration", m.EndTime.Sub(m.StartTime)))
	}

	logger.Info("Conformance run summary", fields...)

	for _, em := range m.Entities {
		logger.Debug("Entity conformance",
			zap.String("run_id", m.RunID),
			zap.String("entity", em.Entity),
			zap.Int("rows_read", em.RowsRead),
			zap.Int("rows_written", em.RowsWritten),
			zap.Int("rows_dropped", em.RowsDropped),
			zap.Int("cleansing_ops", em.CleansingOps),
			zap.Duration("duration", em.Duration))
	}
}
