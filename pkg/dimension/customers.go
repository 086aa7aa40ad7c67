package dimension

import (
	"sort"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
	"github.com/retail-dw/conformance/pkg/store"
)

// Customers composes the customer dimension: the customer master
// left-enriched with supplementary attributes and location, matched on
// the cleaned business key. Rows come out in surrogate-key order.
func (c *Composer) Customers(snap *store.Snapshot) []model.CustomerDimension {
	keys := customerSurrogates(snap.Customers)

	extrasByKey := make(map[string]model.CustomerExtra, len(snap.CustomerExtras))
	for _, e := range snap.CustomerExtras {
		extrasByKey[e.CustomerKey] = e
	}

	locationsByKey := make(map[string]model.Location, len(snap.Locations))
	for _, l := range snap.Locations {
		locationsByKey[l.CustomerKey] = l
	}

	rows := make([]model.CustomerDimension, 0, len(snap.Customers))
	for _, cust := range snap.Customers {
		row := model.CustomerDimension{
			SurrogateKey:  keys[cust.ID],
			ID:            cust.ID,
			Number:        cust.Key,
			FirstName:     cust.FirstName,
			LastName:      cust.LastName,
			MaritalStatus: cust.MaritalStatus,
			CreatedAt:     cust.CreatedAt,
			Country:       model.NotAvailable,
		}

		extra, hasExtra := extrasByKey[cust.Key]
		if hasExtra {
			row.Birthdate = extra.Birthdate
		}

		if loc, ok := locationsByKey[cust.Key]; ok && loc.Country != "" {
			row.Country = loc.Country
		}

		// The master is the authority on gender; the supplementary source
		// only fills in when the master has nothing.
		row.Gender = cust.Gender
		if row.Gender == model.NotAvailable && hasExtra && extra.Gender != model.NotAvailable {
			row.Gender = extra.Gender
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].SurrogateKey < rows[j].SurrogateKey })

	c.logger.Debug("Composed customer dimension",
		zap.String("run_id", snap.RunID),
		zap.Int("rows", len(rows)))

	return rows
}
