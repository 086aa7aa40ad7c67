// Package dimension composes the star-schema read models from a
// conformed snapshot. Composition is side-effect free and recomputed per
// read; nothing here is persisted.
package dimension

import (
	"time"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
	"github.com/retail-dw/conformance/pkg/store"
)

// Composer builds the three dimensional read models on demand
type Composer struct {
	logger *zap.Logger
}

// NewComposer creates a dimensional composer
func NewComposer(logger *zap.Logger) *Composer {
	return &Composer{logger: logger}
}

// FactDiagnostics counts fact rows whose natural keys resolved to no
// dimension row. Such rows are retained with nil surrogate keys.
type FactDiagnostics struct {
	UnresolvedProducts  int
	UnresolvedCustomers int
}

func startOrZero(p model.Product) time.Time {
	if p.StartDate == nil {
		return time.Time{}
	}
	return *p.StartDate
}

// currentProducts filters a snapshot's products to current versions only.
// This filter is what keeps retired product versions out of analytics.
func currentProducts(snap *store.Snapshot) []model.Product {
	current := make([]model.Product, 0, len(snap.Products))
	for _, p := range snap.Products {
		if p.EndDate == nil {
			current = append(current, p)
		}
	}
	return current
}
