package pipeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
	"github.com/retail-dw/conformance/pkg/store"
)

// CheckResult is the outcome of one structural check
type CheckResult struct {
	Name         string
	Passed       bool
	Details      string
	AffectedRows int
}

// VerificationReport contains the results of verifying a candidate
// snapshot before it is committed
type VerificationReport struct {
	RunID            string
	VerificationTime time.Time
	Checks           []CheckResult
	Duration         time.Duration
}

// Passed reports whether every structural check held
func (r *VerificationReport) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Verifier checks a built snapshot against the structural invariants the
// dimensional layer depends on. A snapshot that fails verification is
// never swapped in.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a snapshot verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// VerifySnapshot runs all structural checks against a candidate snapshot
func (v *Verifier) VerifySnapshot(snap *store.Snapshot) *VerificationReport {
	start := time.Now()
	report := &VerificationReport{
		RunID:            snap.RunID,
		VerificationTime: start,
	}

	report.Checks = append(report.Checks,
		v.checkCustomerUniqueness(snap.Customers),
		v.checkProductIntervals(snap.Products),
		v.checkSalesConsistency(snap.SalesLines),
	)

	report.Duration = time.Since(start)

	for _, c := range report.Checks {
		if !c.Passed {
			v.logger.Error("Structural check failed",
				zap.String("run_id", snap.RunID),
				zap.String("check", c.Name),
				zap.String("details", c.Details),
				zap.Int("affected_rows", c.AffectedRows))
		}
	}

	return report
}

// checkCustomerUniqueness verifies no two conformed customers share a
// numeric id
func (v *Verifier) checkCustomerUniqueness(customers []model.Customer) CheckResult {
	result := CheckResult{Name: "customer_id_uniqueness", Passed: true}

	seen := make(map[int]bool, len(customers))
	for _, c := range customers {
		if seen[c.ID] {
			result.Passed = false
			result.AffectedRows++
			result.Details = fmt.Sprintf("duplicate customer id %d", c.ID)
		}
		seen[c.ID] = true
	}

	return result
}

// checkProductIntervals verifies that per business key the validity
// intervals partition time: sorted intervals are contiguous and exactly
// one interval per key is open
func (v *Verifier) checkProductIntervals(products []model.Product) CheckResult {
	result := CheckResult{Name: "product_interval_partition", Passed: true}

	byKey := make(map[string][]model.Product)
	for _, p := range products {
		byKey[p.Key] = append(byKey[p.Key], p)
	}

	for key, versions := range byKey {
		sort.SliceStable(versions, func(i, j int) bool {
			return startOrZero(versions[i]).Before(startOrZero(versions[j]))
		})

		open := 0
		for i, p := range versions {
			if p.EndDate == nil {
				open++
				continue
			}
			if i+1 >= len(versions) || versions[i+1].StartDate == nil {
				continue
			}
			// Closed intervals must abut their successor: end + 1 day = next start.
			if !p.EndDate.AddDate(0, 0, 1).Equal(*versions[i+1].StartDate) {
				result.Passed = false
				result.AffectedRows++
				result.Details = fmt.Sprintf("gap or overlap in intervals for product %s", key)
			}
		}

		if open != 1 {
			result.Passed = false
			result.AffectedRows++
			result.Details = fmt.Sprintf("product %s has %d open intervals, want 1", key, open)
		}
	}

	return result
}

// checkSalesConsistency verifies sales_amount = quantity * price for
// every derived line with a non-zero quantity and both measures present
func (v *Verifier) checkSalesConsistency(lines []model.SalesLine) CheckResult {
	result := CheckResult{Name: "sales_measure_consistency", Passed: true}

	for _, l := range lines {
		if l.Quantity == 0 || l.SalesAmount == nil || l.Price == nil {
			continue
		}
		if math.Abs(*l.SalesAmount-float64(l.Quantity)*(*l.Price)) > 1e-9 {
			result.Passed = false
			result.AffectedRows++
			result.Details = fmt.Sprintf("order %s: sales %.4f != quantity %d * price %.4f",
				l.OrderNumber, *l.SalesAmount, l.Quantity, *l.Price)
		}
	}

	return result
}

func startOrZero(p model.Product) time.Time {
	if p.StartDate == nil {
		return time.Time{}
	}
	return *p.StartDate
}
