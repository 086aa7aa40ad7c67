// pkg/source/source.go
package source

import (
	"context"

	"github.com/retail-dw/conformance/pkg/model"
)

// Source supplies one complete raw snapshot per entity per run. Suppliers
// deliver full extracts, not deltas; every field except the customer
// numeric id may be null, blank, or malformed and must be tolerated.
type Source interface {
	FetchCustomers(ctx context.Context) ([]model.RawCustomer, error)
	FetchProducts(ctx context.Context) ([]model.RawProduct, error)
	FetchSalesLines(ctx context.Context) ([]model.RawSalesLine, error)
	FetchLocations(ctx context.Context) ([]model.RawLocation, error)
	FetchCustomerExtras(ctx context.Context) ([]model.RawCustomerExtra, error)
	FetchCategories(ctx context.Context) ([]model.RawCategory, error)
}

// FetchAll pulls the full raw snapshot from a source. Fetches run
// sequentially; any single failure aborts the snapshot since a run must
// consume a complete delivery.
func FetchAll(ctx context.Context, s Source) (*model.RawSnapshot, error) {
	snap := &model.RawSnapshot{}
	var err error

	if snap.Customers, err = s.FetchCustomers(ctx); err != nil {
		return nil, err
	}
	if snap.Products, err = s.FetchProducts(ctx); err != nil {
		return nil, err
	}
	if snap.SalesLines, err = s.FetchSalesLines(ctx); err != nil {
		return nil, err
	}
	if snap.Locations, err = s.FetchLocations(ctx); err != nil {
		return nil, err
	}
	if snap.CustomerExtras, err = s.FetchCustomerExtras(ctx); err != nil {
		return nil, err
	}
	if snap.Categories, err = s.FetchCategories(ctx); err != nil {
		return nil, err
	}

	return snap, nil
}
