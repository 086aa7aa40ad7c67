package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/cleanse"
	"github.com/retail-dw/conformance/pkg/derive"
	"github.com/retail-dw/conformance/pkg/dimension"
	"github.com/retail-dw/conformance/pkg/model"
	"github.com/retail-dw/conformance/pkg/source"
	"github.com/retail-dw/conformance/pkg/store"
	"github.com/retail-dw/conformance/pkg/version"
)

// Persister is the optional warehouse boundary. When configured, a run
// persists its snapshot before swapping it in so the two stores never
// diverge on a committed run.
type Persister interface {
	Persist(ctx context.Context, snap *store.Snapshot) error
	RecordCleansingOperations(ctx context.Context, runID string, ops []model.CleansingOperation) error
}

// RunReport summarizes one completed conformance run
type RunReport struct {
	RunID        string
	Metrics      *RunMetrics
	Verification *VerificationReport
}

// Manager orchestrates a full conformance run: fetch the raw snapshot,
// conform every entity, verify the result, and commit it atomically.
// Runs are all-or-nothing; a failed run leaves the previously committed
// snapshot untouched.
type Manager struct {
	src       source.Source
	engine    *cleanse.Engine
	versioner *version.Versioner
	deriver   *derive.Deriver
	composer  *dimension.Composer
	verifier  *Verifier
	store     *store.Store
	persister Persister
	logger    *zap.Logger
}

// NewManager creates a conformance run manager
func NewManager(src source.Source, st *store.Store, logger *zap.Logger) *Manager {
	return &Manager{
		src:       src,
		engine:    cleanse.NewEngine(logger.Named("cleanse")),
		versioner: version.NewVersioner(logger.Named("version")),
		deriver:   derive.NewDeriver(logger.Named("derive")),
		composer:  dimension.NewComposer(logger.Named("dimension")),
		verifier:  NewVerifier(logger.Named("verify")),
		store:     st,
		logger:    logger,
	}
}

// WithPersister attaches a warehouse persister and returns the manager
func (m *Manager) WithPersister(p Persister) *Manager {
	m.persister = p
	return m
}

// WithClock overrides the clock of every conformance stage, used by
// tests and replays
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.engine.WithClock(now)
	m.versioner.WithClock(now)
	m.deriver.WithClock(now)
	return m
}

// Store returns the in-memory conformed store the manager commits to
func (m *Manager) Store() *store.Store {
	return m.store
}

// Composer returns the dimensional composer for read-model access
func (m *Manager) Composer() *dimension.Composer {
	return m.composer
}

// Run executes one full conformance run
func (m *Manager) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.New().String()
	metrics := NewRunMetrics(runID)
	logger := m.logger.With(zap.String("run_id", runID))

	logger.Info("Starting conformance run")

	raw, err := source.FetchAll(ctx, m.src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	snap := &store.Snapshot{
		RunID:      runID,
		ProducedAt: time.Now(),
	}

	// Independent entities have no ordering dependency and conform
	// concurrently. Product versioning needs its whole batch, so it runs
	// as one stage of its own.
	var (
		wg               sync.WaitGroup
		customerOps      []model.CleansingOperation
		locationOps      []model.CleansingOperation
		extraOps         []model.CleansingOperation
		productOps       []model.CleansingOperation
		salesOps         []model.CleansingOperation
		droppedCustomers int
	)

	wg.Add(6)

	go func() {
		defer wg.Done()
		start := time.Now()
		snap.Customers, customerOps, droppedCustomers = m.engine.ConformCustomers(raw.Customers)
		metrics.RecordEntity("customer", len(raw.Customers), len(snap.Customers), droppedCustomers, len(customerOps), time.Since(start))
	}()

	go func() {
		defer wg.Done()
		start := time.Now()
		snap.Locations, locationOps = m.engine.ConformLocations(raw.Locations)
		metrics.RecordEntity("location", len(raw.Locations), len(snap.Locations), 0, len(locationOps), time.Since(start))
	}()

	go func() {
		defer wg.Done()
		start := time.Now()
		snap.CustomerExtras, extraOps = m.engine.ConformCustomerExtras(raw.CustomerExtras)
		metrics.RecordEntity("customer_extra", len(raw.CustomerExtras), len(snap.CustomerExtras), 0, len(extraOps), time.Since(start))
	}()

	go func() {
		defer wg.Done()
		start := time.Now()
		snap.Categories = m.engine.ConformCategories(raw.Categories)
		metrics.RecordEntity("category", len(raw.Categories), len(snap.Categories), 0, 0, time.Since(start))
	}()

	go func() {
		defer wg.Done()
		start := time.Now()
		snap.Products, productOps = m.versioner.ConformProducts(raw.Products)
		metrics.RecordEntity("product", len(raw.Products), len(snap.Products), 0, len(productOps), time.Since(start))
	}()

	go func() {
		defer wg.Done()
		start := time.Now()
		snap.SalesLines, salesOps = m.deriver.ConformSalesLines(raw.SalesLines)
		metrics.RecordEntity("sales_line", len(raw.SalesLines), len(snap.SalesLines), 0, len(salesOps), time.Since(start))
	}()

	wg.Wait()

	verification := m.verifier.VerifySnapshot(snap)
	if !verification.Passed() {
		metrics.Finish()
		return &RunReport{RunID: runID, Metrics: metrics, Verification: verification},
			fmt.Errorf("%w: run %s", ErrInvariantViolation, runID)
	}

	// Composition is read-time only; running it here is purely to report
	// unresolved references for the run.
	_, diag := m.composer.Facts(snap)
	metrics.RecordUnresolvedRefs(diag.UnresolvedProducts, diag.UnresolvedCustomers)

	allOps := make([]model.CleansingOperation, 0,
		len(customerOps)+len(locationOps)+len(extraOps)+len(productOps)+len(salesOps))
	allOps = append(allOps, customerOps...)
	allOps = append(allOps, locationOps...)
	allOps = append(allOps, extraOps...)
	allOps = append(allOps, productOps...)
	allOps = append(allOps, salesOps...)

	if m.persister != nil {
		if err := m.persister.Persist(ctx, snap); err != nil {
			metrics.Finish()
			return nil, fmt.Errorf("failed to persist snapshot: %w", err)
		}
		if err := m.persister.RecordCleansingOperations(ctx, runID, allOps); err != nil {
			// Tracking rows are diagnostics; their loss does not invalidate
			// the conformed data itself.
			logger.Warn("Failed to record cleansing operations", zap.Error(err))
		}
	}

	m.store.Swap(snap)

	metrics.Finish()
	metrics.LogSummary(logger)

	return &RunReport{
		RunID:        runID,
		Metrics:      metrics,
		Verification: verification,
	}, nil
}
