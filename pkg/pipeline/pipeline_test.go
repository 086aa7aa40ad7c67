package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
	"github.com/retail-dw/conformance/pkg/store"
)

// fakeSource serves a fixed raw snapshot, optionally failing one entity
// fetch to exercise abort paths.
type fakeSource struct {
	snap    model.RawSnapshot
	failOn  string
	fetches int
}

var errFetch = errors.New("source connection reset")

func (f *fakeSource) fail(entity string) error {
	f.fetches++
	if f.failOn == entity {
		return errFetch
	}
	return nil
}

func (f *fakeSource) FetchCustomers(ctx context.Context) ([]model.RawCustomer, error) {
	if err := f.fail("customer"); err != nil {
		return nil, err
	}
	return f.snap.Customers, nil
}

func (f *fakeSource) FetchProducts(ctx context.Context) ([]model.RawProduct, error) {
	if err := f.fail("product"); err != nil {
		return nil, err
	}
	return f.snap.Products, nil
}

func (f *fakeSource) FetchSalesLines(ctx context.Context) ([]model.RawSalesLine, error) {
	if err := f.fail("sales_line"); err != nil {
		return nil, err
	}
	return f.snap.SalesLines, nil
}

func (f *fakeSource) FetchLocations(ctx context.Context) ([]model.RawLocation, error) {
	if err := f.fail("location"); err != nil {
		return nil, err
	}
	return f.snap.Locations, nil
}

func (f *fakeSource) FetchCustomerExtras(ctx context.Context) ([]model.RawCustomerExtra, error) {
	if err := f.fail("customer_extra"); err != nil {
		return nil, err
	}
	return f.snap.CustomerExtras, nil
}

func (f *fakeSource) FetchCategories(ctx context.Context) ([]model.RawCategory, error) {
	if err := f.fail("category"); err != nil {
		return nil, err
	}
	return f.snap.Categories, nil
}

// failingPersister rejects every snapshot
type failingPersister struct{}

func (failingPersister) Persist(ctx context.Context, snap *store.Snapshot) error {
	return errors.New("warehouse unavailable")
}

func (failingPersister) RecordCleansingOperations(ctx context.Context, runID string, ops []model.CleansingOperation) error {
	return nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func rawFixture() model.RawSnapshot {
	return model.RawSnapshot{
		Customers: []model.RawCustomer{
			{ID: intPtr(1), Key: "AW00000001", FirstName: " Ada ", MaritalStatus: "S", Gender: "F", CreatedAt: date(2023, 1, 1)},
			{ID: intPtr(1), Key: "AW00000001", FirstName: "Ada", MaritalStatus: "S", Gender: "F", CreatedAt: date(2023, 6, 1)},
			{ID: nil, Key: "AW00000099"},
			{ID: intPtr(2), Key: "AW00000002", FirstName: "Jon", MaritalStatus: "M", Gender: "", CreatedAt: date(2022, 3, 1)},
		},
		Products: []model.RawProduct{
			{ID: 1, Key: "CO-RF-FR-R92B-58", Name: "Frame v1", Cost: floatPtr(100), Line: "R", StartDate: date(2021, 1, 1)},
			{ID: 2, Key: "CO-RF-FR-R92B-58", Name: "Frame v2", Cost: floatPtr(120), Line: "R", StartDate: date(2022, 6, 1)},
		},
		SalesLines: []model.RawSalesLine{
			{OrderNumber: "SO1", ProductKey: "FR-R92B-58", CustomerID: 1, OrderDate: 20230615, Quantity: intPtr(3), Price: floatPtr(10)},
			{OrderNumber: "SO2", ProductKey: "NO-SUCH", CustomerID: 999, OrderDate: 20230616, Quantity: intPtr(1), SalesAmount: floatPtr(5), Price: floatPtr(5)},
		},
		Locations: []model.RawLocation{
			{CustomerID: "AW-00000001", Country: "DE"},
		},
		CustomerExtras: []model.RawCustomerExtra{
			{ID: "NASAW00000002", Gender: "male", Birthdate: date(1980, 2, 2)},
		},
		Categories: []model.RawCategory{
			{ID: "CO_RF", Category: "Components", Subcategory: "Road Frames", Maintenance: "Yes"},
		},
	}
}

func newTestManager(src *fakeSource) *Manager {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewManager(src, store.New(), zap.NewNop()).
		WithClock(func() time.Time { return fixed })
}

func TestRunCommitsSnapshot(t *testing.T) {
	m := newTestManager(&fakeSource{snap: rawFixture()})

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !report.Verification.Passed() {
		t.Fatalf("verification should pass: %+v", report.Verification.Checks)
	}

	snap, ok := m.Store().Current()
	if !ok {
		t.Fatal("run should commit a snapshot")
	}
	if snap.RunID != report.RunID {
		t.Errorf("committed snapshot run id %q != report %q", snap.RunID, report.RunID)
	}

	// Two raw customers collapse to one plus the distinct second; the
	// nil-id row drops.
	if len(snap.Customers) != 2 {
		t.Errorf("expected 2 conformed customers, got %d", len(snap.Customers))
	}
	if report.Metrics.TotalRowsDropped != 1 {
		t.Errorf("expected 1 dropped row in metrics, got %d", report.Metrics.TotalRowsDropped)
	}

	// One fact row references an unknown product and customer.
	if report.Metrics.UnresolvedProducts != 1 || report.Metrics.UnresolvedCusts != 1 {
		t.Errorf("unresolved refs: got %d products, %d customers, want 1 and 1",
			report.Metrics.UnresolvedProducts, report.Metrics.UnresolvedCusts)
	}
}

func TestRunCommitsProductsWithoutStartDates(t *testing.T) {
	raw := rawFixture()
	raw.Products = append(raw.Products,
		model.RawProduct{ID: 3, Key: "CO-RF-P9", Name: "Undated a", Line: "R"},
		model.RawProduct{ID: 4, Key: "CO-RF-P9", Name: "Undated b", Line: "R"},
	)
	m := newTestManager(&fakeSource{snap: raw})

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("undated product versions must not fail the run: %v", err)
	}
	if !report.Verification.Passed() {
		t.Fatalf("verification should pass: %+v", report.Verification.Checks)
	}

	snap, ok := m.Store().Current()
	if !ok {
		t.Fatal("run should commit a snapshot")
	}
	open := 0
	for _, p := range snap.Products {
		if p.Key == "P9" && p.EndDate == nil {
			open++
		}
	}
	if open != 1 {
		t.Errorf("expected exactly 1 open version for the undated key, got %d", open)
	}
}

func TestRunSourceFailureLeavesStoreUntouched(t *testing.T) {
	good := &fakeSource{snap: rawFixture()}
	m := newTestManager(good)

	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("seed run failed: %v", err)
	}
	committed, _ := m.Store().Current()

	// Subsequent deliveries fail mid-snapshot.
	good.failOn = "sales_line"

	_, err := m.Run(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}

	current, ok := m.Store().Current()
	if !ok || current.RunID != committed.RunID {
		t.Error("failed run must leave the prior snapshot in place")
	}
}

func TestRunPersisterFailureLeavesStoreUntouched(t *testing.T) {
	m := newTestManager(&fakeSource{snap: rawFixture()}).WithPersister(failingPersister{})

	_, err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected persist failure to abort the run")
	}

	if _, ok := m.Store().Current(); ok {
		t.Error("aborted run must not commit a snapshot")
	}
}

func TestRunIdempotence(t *testing.T) {
	src := &fakeSource{snap: rawFixture()}
	m := newTestManager(src)

	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first, _ := m.Store().Current()

	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	second, _ := m.Store().Current()

	if !reflect.DeepEqual(first.Customers, second.Customers) {
		t.Error("customer batches differ across runs over identical raw data")
	}
	if !reflect.DeepEqual(first.Products, second.Products) {
		t.Error("product batches differ across runs over identical raw data")
	}
	if !reflect.DeepEqual(first.SalesLines, second.SalesLines) {
		t.Error("sales batches differ across runs over identical raw data")
	}
	if !reflect.DeepEqual(first.Locations, second.Locations) {
		t.Error("location batches differ across runs over identical raw data")
	}
	if !reflect.DeepEqual(first.CustomerExtras, second.CustomerExtras) {
		t.Error("customer extra batches differ across runs over identical raw data")
	}
	if !reflect.DeepEqual(first.Categories, second.Categories) {
		t.Error("category batches differ across runs over identical raw data")
	}
}

func TestRunMetricsDefectCounts(t *testing.T) {
	m := NewRunMetrics("test")
	m.RecordEntity("customer", 4, 2, 1, 3, time.Millisecond)
	m.RecordUnresolvedRefs(2, 1)
	m.Finish()

	if m.DefectCounts[DefectDropWorthy] != 1 {
		t.Errorf("drop-worthy count: got %d, want 1", m.DefectCounts[DefectDropWorthy])
	}
	if m.DefectCounts[DefectCorrectable] != 3 {
		t.Errorf("correctable count: got %d, want 3", m.DefectCounts[DefectCorrectable])
	}
	if m.DefectCounts[DefectUnresolvedRef] != 3 {
		t.Errorf("unresolved-ref count: got %d, want 3", m.DefectCounts[DefectUnresolvedRef])
	}

	tests := []struct {
		class DefectClass
		want  string
	}{
		{DefectNone, "None"},
		{DefectCorrectable, "Correctable"},
		{DefectDropWorthy, "DropWorthy"},
		{DefectUnresolvedRef, "UnresolvedRef"},
		{DefectClass(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("String(): got %q, want %q", got, tt.want)
		}
	}

	// The summary reports per-class counts under the class names.
	m.LogSummary(zap.NewNop())
}

func TestVerifierCustomerUniqueness(t *testing.T) {
	v := NewVerifier(zap.NewNop())

	snap := &store.Snapshot{
		RunID: "test",
		Customers: []model.Customer{
			{ID: 1}, {ID: 2}, {ID: 1},
		},
	}

	report := v.VerifySnapshot(snap)
	if report.Passed() {
		t.Error("duplicate customer ids should fail verification")
	}
}

func TestVerifierProductIntervals(t *testing.T) {
	v := NewVerifier(zap.NewNop())

	tests := []struct {
		name     string
		products []model.Product
		wantPass bool
	}{
		{
			name: "contiguous history with one open version",
			products: []model.Product{
				{Key: "P1", StartDate: date(2021, 1, 1), EndDate: date(2022, 5, 31)},
				{Key: "P1", StartDate: date(2022, 6, 1)},
			},
			wantPass: true,
		},
		{
			name: "gap between versions",
			products: []model.Product{
				{Key: "P1", StartDate: date(2021, 1, 1), EndDate: date(2022, 5, 1)},
				{Key: "P1", StartDate: date(2022, 6, 1)},
			},
			wantPass: false,
		},
		{
			name: "no open version",
			products: []model.Product{
				{Key: "P1", StartDate: date(2021, 1, 1), EndDate: date(2022, 5, 31)},
			},
			wantPass: false,
		},
		{
			name: "two open versions",
			products: []model.Product{
				{Key: "P1", StartDate: date(2021, 1, 1)},
				{Key: "P1", StartDate: date(2022, 6, 1)},
			},
			wantPass: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.VerifySnapshot(&store.Snapshot{RunID: "test", Products: tt.products})
			if report.Passed() != tt.wantPass {
				t.Errorf("passed = %v, want %v", report.Passed(), tt.wantPass)
			}
		})
	}
}

func TestVerifierSalesConsistency(t *testing.T) {
	v := NewVerifier(zap.NewNop())

	tests := []struct {
		name     string
		line     model.SalesLine
		wantPass bool
	}{
		{"consistent", model.SalesLine{Quantity: 3, SalesAmount: floatPtr(30), Price: floatPtr(10)}, true},
		{"inconsistent", model.SalesLine{Quantity: 3, SalesAmount: floatPtr(25), Price: floatPtr(10)}, false},
		{"zero quantity skipped", model.SalesLine{Quantity: 0, SalesAmount: floatPtr(50)}, true},
		{"missing price skipped", model.SalesLine{Quantity: 3, SalesAmount: floatPtr(30)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.VerifySnapshot(&store.Snapshot{RunID: "test", SalesLines: []model.SalesLine{tt.line}})
			if report.Passed() != tt.wantPass {
				t.Errorf("passed = %v, want %v", report.Passed(), tt.wantPass)
			}
		})
	}
}
