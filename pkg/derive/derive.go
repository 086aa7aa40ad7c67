// pkg/derive/derive.go
package derive

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
)

// Calendar bounds for sales dates. Anything outside is treated as an
// entry error, not a real date.
var (
	minSalesDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxSalesDate = time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Deriver repairs sales-line records whose numeric or date fields are
// missing or internally inconsistent. No row is ever rejected; every
// anomaly is corrected or nulled in place.
type Deriver struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewDeriver creates a sales-line deriver
func NewDeriver(logger *zap.Logger) *Deriver {
	return &Deriver{
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the deriver's clock, used by tests and replays
func (d *Deriver) WithClock(now func() time.Time) *Deriver {
	d.now = now
	return d
}

// ConformSalesLines validates and repairs the sales detail batch
func (d *Deriver) ConformSalesLines(raw []model.RawSalesLine) ([]model.SalesLine, []model.CleansingOperation) {
	conformedAt := d.now()
	var ops []model.CleansingOperation

	lines := make([]model.SalesLine, 0, len(raw))
	for _, rl := range raw {
		line := model.SalesLine{
			OrderNumber: rl.OrderNumber,
			ProductKey:  rl.ProductKey,
			CustomerID:  rl.CustomerID,
			ConformedAt: conformedAt,
		}

		line.OrderDate = d.repairDate(rl.OrderDate, "order_date", rl.OrderNumber, &ops)
		line.ShipDate = d.repairDate(rl.ShipDate, "ship_date", rl.OrderNumber, &ops)
		line.DueDate = d.repairDate(rl.DueDate, "due_date", rl.OrderNumber, &ops)

		if rl.Quantity != nil {
			line.Quantity = *rl.Quantity
		}

		line.SalesAmount, line.Price = repairMeasures(rl.SalesAmount, rl.Quantity, rl.Price, rl.OrderNumber, &ops)

		lines = append(lines, line)
	}

	d.logger.Info("Derived sales lines",
		zap.Int("raw", len(raw)),
		zap.Int("cleansing_ops", len(ops)))

	return lines, ops
}

// repairDate parses an 8-digit integer date encoding. Non-positive
// values, wrong digit counts, impossible calendar dates, and dates
// outside the sane bounds all null out.
func (d *Deriver) repairDate(encoded int, field, rowKey string, ops *[]model.CleansingOperation) *time.Time {
	parsed := ParseDateInt(encoded)
	if parsed == nil && encoded != 0 {
		*ops = append(*ops, model.NewCleansingOperation(
			"sales_line", field, rowKey, "null_out", "invalid_date_encoding", encoded, ""))
	}
	return parsed
}

// ParseDateInt converts an 8-digit YYYYMMDD integer to a calendar date.
// Returns nil for anything that does not decode to a real date between
// 1900-01-01 and 2050-01-01 inclusive.
func ParseDateInt(encoded int) *time.Time {
	if encoded <= 0 {
		return nil
	}
	if encoded < 10000000 || encoded > 99999999 {
		return nil
	}

	// time.Parse rejects impossible days such as 20230230
	t, err := time.Parse("20060102", strconv.Itoa(encoded))
	if err != nil {
		return nil
	}

	if t.Before(minSalesDate) || t.After(maxSalesDate) {
		return nil
	}

	return &t
}

// repairMeasures applies the two measure corrections in fixed order: the
// sales-amount check first, against the ORIGINAL price, then the price
// check against the possibly-corrected sales amount. The ordering is part
// of the contract; swapping it changes outputs. An absent quantity makes
// both the consistency check and any recomputation undecidable, so the
// raw sales amount stands.
func repairMeasures(sales *float64, quantity *int, price *float64, rowKey string, ops *[]model.CleansingOperation) (*float64, *float64) {
	origPrice := price

	if quantity != nil && salesInvalid(sales, *quantity, origPrice) && origPrice != nil {
		recomputed := float64(*quantity) * math.Abs(*origPrice)
		*ops = append(*ops, model.NewCleansingOperation(
			"sales_line", "sales_amount", rowKey, "recompute", "inconsistent_sales_amount",
			sales, formatAmount(recomputed)))
		sales = &recomputed
	}

	if price == nil || *price <= 0 {
		if quantity != nil && *quantity != 0 && sales != nil {
			recomputed := *sales / float64(*quantity)
			*ops = append(*ops, model.NewCleansingOperation(
				"sales_line", "price", rowKey, "recompute", "invalid_price",
				origPrice, formatAmount(recomputed)))
			price = &recomputed
		} else {
			// Division guarded: a zero or absent quantity leaves the
			// price unknowable.
			if origPrice != nil {
				*ops = append(*ops, model.NewCleansingOperation(
					"sales_line", "price", rowKey, "null_out", "invalid_price_unrecoverable",
					origPrice, ""))
			}
			price = nil
		}
	}

	return sales, price
}

// salesInvalid reports whether the raw sales amount needs recomputation.
// The consistency check against quantity*|price| only applies when a
// price is present.
func salesInvalid(sales *float64, quantity int, price *float64) bool {
	if sales == nil || *sales <= 0 {
		return true
	}
	if price != nil && *sales != float64(quantity)*math.Abs(*price) {
		return true
	}
	return false
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%g", v)
}
