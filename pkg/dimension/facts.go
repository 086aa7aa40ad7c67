package dimension

import (
	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
	"github.com/retail-dw/conformance/pkg/store"
)

// Facts composes the sales fact rows, resolving natural product and
// customer keys to dimension surrogate keys. An unresolved natural key
// yields a nil surrogate key; the row is retained and counted in the
// diagnostics rather than dropped.
func (c *Composer) Facts(snap *store.Snapshot) ([]model.SalesFact, FactDiagnostics) {
	productKeys := productSurrogates(currentProducts(snap))
	customerKeys := customerSurrogates(snap.Customers)

	var diag FactDiagnostics
	rows := make([]model.SalesFact, 0, len(snap.SalesLines))
	for _, line := range snap.SalesLines {
		row := model.SalesFact{
			OrderNumber: line.OrderNumber,
			OrderDate:   line.OrderDate,
			ShipDate:    line.ShipDate,
			DueDate:     line.DueDate,
			SalesAmount: line.SalesAmount,
			Quantity:    line.Quantity,
			Price:       line.Price,
		}

		if sk, ok := productKeys[line.ProductKey]; ok {
			k := sk
			row.ProductKey = &k
		} else {
			diag.UnresolvedProducts++
		}

		if sk, ok := customerKeys[line.CustomerID]; ok {
			k := sk
			row.CustomerKey = &k
		} else {
			diag.UnresolvedCustomers++
		}

		rows = append(rows, row)
	}

	if diag.UnresolvedProducts > 0 || diag.UnresolvedCustomers > 0 {
		c.logger.Warn("Fact composition left unresolved references",
			zap.String("run_id", snap.RunID),
			zap.Int("unresolved_products", diag.UnresolvedProducts),
			zap.Int("unresolved_customers", diag.UnresolvedCustomers))
	}

	return rows, diag
}
