package version

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
)

func testVersioner() *Versioner {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewVersioner(zap.NewNop()).WithClock(func() time.Time { return fixed })
}

func floatPtr(v float64) *float64 { return &v }

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantCategory string
		wantKey      string
	}{
		{"standard composite", "CO-RF-FR-R92B-58", "CO_RF", "FR-R92B-58"},
		{"no separator after prefix", "CO-RFFR-R92B-58", "CO_RF", "FR-R92B-58"},
		{"shorter than prefix", "AB-1", "n/a", "AB-1"},
		{"exactly prefix length", "CO-RF", "CO_RF", ""},
		{"surrounding whitespace", " CO-RF-FR-R92B-58 ", "CO_RF", "FR-R92B-58"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, key := SplitKey(tt.raw)
			if category != tt.wantCategory {
				t.Errorf("category: got %q, want %q", category, tt.wantCategory)
			}
			if key != tt.wantKey {
				t.Errorf("key: got %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestConformProductsIntervals(t *testing.T) {
	// Raw end dates are garbage on purpose; only start dates matter.
	bogusEnd := date(1999, 1, 1)
	raw := []model.RawProduct{
		{ID: 2, Key: "CO-RF-P1", Name: "Frame v2", Cost: floatPtr(120), Line: "R", StartDate: date(2022, 6, 1), EndDate: bogusEnd},
		{ID: 1, Key: "CO-RF-P1", Name: "Frame v1", Cost: floatPtr(100), Line: "R", StartDate: date(2021, 1, 1), EndDate: bogusEnd},
	}

	products, _ := testVersioner().ConformProducts(raw)

	if len(products) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(products))
	}

	first, second := products[0], products[1]
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected versions ordered by start date, got ids %d, %d", first.ID, second.ID)
	}
	wantEnd := time.Date(2022, 5, 31, 0, 0, 0, 0, time.UTC)
	if first.EndDate == nil || !first.EndDate.Equal(wantEnd) {
		t.Errorf("first version should end the day before its successor opens, got %v", first.EndDate)
	}
	if second.EndDate != nil {
		t.Errorf("latest version should stay open, got end %v", second.EndDate)
	}
}

func TestConformProductsNilStartDates(t *testing.T) {
	raw := []model.RawProduct{
		{ID: 1, Key: "CO-RF-P1", Name: "Frame a", Line: "R"},
		{ID: 2, Key: "CO-RF-P1", Name: "Frame b", Line: "R"},
		{ID: 3, Key: "CO-RF-P2", Line: "R", StartDate: date(2023, 1, 1)},
	}

	products, _ := testVersioner().ConformProducts(raw)

	open := make(map[string]int)
	for _, p := range products {
		if p.EndDate == nil {
			open[p.Key]++
		}
	}
	for key, count := range open {
		if count != 1 {
			t.Errorf("key %s has %d open intervals, want exactly 1", key, count)
		}
	}
	if len(open) != 2 {
		t.Errorf("every key needs an open version, got %d of 2", len(open))
	}
}

func TestConformProductsNilStartBeforeDatedVersion(t *testing.T) {
	raw := []model.RawProduct{
		{ID: 1, Key: "CO-RF-P1", Line: "R"},
		{ID: 2, Key: "CO-RF-P1", Line: "R", StartDate: date(2022, 6, 1)},
	}

	products, _ := testVersioner().ConformProducts(raw)

	if products[0].ID != 1 {
		t.Fatalf("version without a start date should sort first, got id %d", products[0].ID)
	}
	wantEnd := time.Date(2022, 5, 31, 0, 0, 0, 0, time.UTC)
	if products[0].EndDate == nil || !products[0].EndDate.Equal(wantEnd) {
		t.Errorf("undated version should close before its dated successor, got %v", products[0].EndDate)
	}
	if products[1].EndDate != nil {
		t.Errorf("dated latest version should stay open, got %v", products[1].EndDate)
	}
}

func TestConformProductsSingleVersionIsCurrent(t *testing.T) {
	raw := []model.RawProduct{
		{ID: 1, Key: "AC-HE-P9", Name: "Helmet", Cost: floatPtr(35), Line: "S", StartDate: date(2023, 1, 1), EndDate: date(2023, 6, 1)},
	}

	products, _ := testVersioner().ConformProducts(raw)

	if products[0].EndDate != nil {
		t.Errorf("sole version should be open regardless of raw end date, got %v", products[0].EndDate)
	}
}

func TestConformProductsCostDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cost     *float64
		wantCost float64
		wantOps  int
	}{
		{"missing cost", nil, 0, 0},
		{"negative cost", floatPtr(-5), 0, 1},
		{"valid cost", floatPtr(49.99), 49.99, 0},
		{"zero cost", floatPtr(0), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []model.RawProduct{{ID: 1, Key: "CO-RF-P1", Cost: tt.cost, Line: "R", StartDate: date(2023, 1, 1)}}
			products, ops := testVersioner().ConformProducts(raw)
			if products[0].Cost != tt.wantCost {
				t.Errorf("cost: got %v, want %v", products[0].Cost, tt.wantCost)
			}
			costOps := 0
			for _, op := range ops {
				if op.Field == "cost" {
					costOps++
				}
			}
			if costOps != tt.wantOps {
				t.Errorf("cost operations: got %d, want %d", costOps, tt.wantOps)
			}
		})
	}
}

func TestConformProductsLineMapping(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"M", "Mountain"},
		{"R", "Road"},
		{"S", "Other Sales"},
		{"T", "Touring"},
		{" t ", "Touring"},
		{"", "n/a"},
		{"X", "n/a"},
	}

	for _, tt := range tests {
		raw := []model.RawProduct{{ID: 1, Key: "CO-RF-P1", Line: tt.raw, StartDate: date(2023, 1, 1)}}
		products, _ := testVersioner().ConformProducts(raw)
		if products[0].Line != tt.want {
			t.Errorf("line %q: got %q, want %q", tt.raw, products[0].Line, tt.want)
		}
	}
}

func TestConformProductsDeterministicOrder(t *testing.T) {
	raw := []model.RawProduct{
		{ID: 3, Key: "CO-RF-P2", StartDate: date(2022, 1, 1)},
		{ID: 1, Key: "CO-RF-P1", StartDate: date(2021, 1, 1)},
		{ID: 2, Key: "CO-RF-P1", StartDate: date(2022, 6, 1)},
	}

	first, _ := testVersioner().ConformProducts(raw)
	second, _ := testVersioner().ConformProducts(raw)

	if len(first) != len(second) {
		t.Fatalf("runs disagree on length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Key != second[i].Key {
			t.Errorf("position %d differs across runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].Key < first[i-1].Key {
			t.Errorf("output not ordered by key at position %d", i)
		}
	}
}
