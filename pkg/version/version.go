// pkg/version/version.go
package version

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
)

// categoryPrefixLen is the fixed length of the category identifier at the
// head of the raw composite product key.
const categoryPrefixLen = 5

var productLineLabels = map[string]string{
	"M": "Mountain",
	"R": "Road",
	"S": "Other Sales",
	"T": "Touring",
}

// Versioner conforms product rows and derives their validity intervals.
// Raw end dates are never trusted; intervals are recomputed from start
// dates so that for every business key the intervals partition time and
// exactly one version is current.
type Versioner struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewVersioner creates a product versioner
func NewVersioner(logger *zap.Logger) *Versioner {
	return &Versioner{
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the versioner's clock, used by tests and replays
func (v *Versioner) WithClock(now func() time.Time) *Versioner {
	v.now = now
	return v
}

// ConformProducts cleans the product batch and assigns validity
// intervals. Output is ordered by (business key, start date) so repeated
// runs over the same raw snapshot produce identical batches.
func (v *Versioner) ConformProducts(raw []model.RawProduct) ([]model.Product, []model.CleansingOperation) {
	conformedAt := v.now()
	var ops []model.CleansingOperation

	products := make([]model.Product, 0, len(raw))
	for _, rp := range raw {
		categoryID, key := SplitKey(rp.Key)

		p := model.Product{
			ID:          rp.ID,
			CategoryID:  categoryID,
			Key:         key,
			Name:        strings.TrimSpace(rp.Name),
			StartDate:   rp.StartDate,
			ConformedAt: conformedAt,
		}

		if rp.Cost == nil || *rp.Cost < 0 {
			if rp.Cost != nil {
				ops = append(ops, model.NewCleansingOperation(
					"product", "cost", key, "default_substitution", "invalid_cost", *rp.Cost, "0"))
			}
			p.Cost = 0
		} else {
			p.Cost = *rp.Cost
		}

		line := mapProductLine(rp.Line)
		if line != rp.Line {
			ops = append(ops, model.NewCleansingOperation(
				"product", "line", key, "code_standardization", "product_line_code", rp.Line, line))
		}
		p.Line = line

		products = append(products, p)
	}

	assignIntervals(products)

	v.logger.Info("Conformed products",
		zap.Int("raw", len(raw)),
		zap.Int("cleansing_ops", len(ops)))

	return products, ops
}

// SplitKey derives the category identifier and cleaned business key from
// the raw composite product key. The derivation is a pure string split:
// a fixed-length prefix (separators mapped to underscores) identifies the
// category, the remainder is the business key.
func SplitKey(rawKey string) (categoryID, key string) {
	rawKey = strings.TrimSpace(rawKey)
	if len(rawKey) < categoryPrefixLen {
		return model.NotAvailable, rawKey
	}

	categoryID = strings.ReplaceAll(rawKey[:categoryPrefixLen], "-", "_")

	// Skip the separator between prefix and remainder when present.
	rest := rawKey[categoryPrefixLen:]
	rest = strings.TrimPrefix(rest, "-")

	return categoryID, rest
}

// assignIntervals sorts products into per-key history and derives
// [start, end] validity. Each version apart from the latest closes one
// day before its successor opens; only the latest version per key stays
// open with a nil end date. The input slice is reordered in place.
func assignIntervals(products []model.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Key != products[j].Key {
			return products[i].Key < products[j].Key
		}
		return startOrZero(products[i]).Before(startOrZero(products[j]))
	})

	for i := range products {
		if i+1 >= len(products) || products[i+1].Key != products[i].Key {
			products[i].EndDate = nil
			continue
		}

		// Rows without a start date sort first within a key, so a nil
		// successor start means this row has none either; close it at
		// the zero date rather than leave a second open interval.
		var end time.Time
		if products[i+1].StartDate != nil {
			end = products[i+1].StartDate.AddDate(0, 0, -1)
		}
		products[i].EndDate = &end
	}
}

func mapProductLine(raw string) string {
	if label, ok := productLineLabels[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return label
	}
	return model.NotAvailable
}

func startOrZero(p model.Product) time.Time {
	if p.StartDate == nil {
		return time.Time{}
	}
	return *p.StartDate
}
