package dimension

import (
	"sort"

	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
	"github.com/retail-dw/conformance/pkg/store"
)

// Products composes the product dimension from current product versions
// only, left-enriched with category attributes matched on the derived
// category identifier. Historical versions contribute nothing.
func (c *Composer) Products(snap *store.Snapshot) []model.ProductDimension {
	current := currentProducts(snap)
	keys := productSurrogates(current)

	categoriesByID := make(map[string]model.Category, len(snap.Categories))
	for _, cat := range snap.Categories {
		categoriesByID[cat.ID] = cat
	}

	rows := make([]model.ProductDimension, 0, len(current))
	for _, p := range current {
		row := model.ProductDimension{
			SurrogateKey: keys[p.Key],
			ID:           p.ID,
			Number:       p.Key,
			Name:         p.Name,
			CategoryID:   p.CategoryID,
			Cost:         p.Cost,
			Line:         p.Line,
			StartDate:    p.StartDate,
			Category:     model.NotAvailable,
			Subcategory:  model.NotAvailable,
			Maintenance:  model.NotAvailable,
		}

		if cat, ok := categoriesByID[p.CategoryID]; ok {
			row.Category = cat.Category
			row.Subcategory = cat.Subcategory
			row.Maintenance = cat.Maintenance
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].SurrogateKey < rows[j].SurrogateKey })

	c.logger.Debug("Composed product dimension",
		zap.String("run_id", snap.RunID),
		zap.Int("rows", len(rows)),
		zap.Int("versions_total", len(snap.Products)))

	return rows
}
