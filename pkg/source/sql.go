// pkg/source/sql.go
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
)

// Raw table names within the source schema. Fixed per-entity layouts are
// part of the source contract; only the schema name varies by deployment.
const (
	tableCustomers  = "crm_cust_info"
	tableProducts   = "crm_prd_info"
	tableSalesLines = "crm_sales_details"
	tableLocations  = "erp_loc_a101"
	tableExtras     = "erp_cust_az12"
	tableCategories = "erp_px_cat_g1v2"
)

// SQLSource reads raw entity snapshots from a relational source database.
// Cell values are coerced leniently; only connectivity and query failures
// surface as errors.
type SQLSource struct {
	db      *sqlx.DB
	schema  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSQLSource creates a SQL-backed raw record source
func NewSQLSource(db *sqlx.DB, schema string, timeout time.Duration, logger *zap.Logger) *SQLSource {
	return &SQLSource{
		db:      db,
		schema:  schema,
		timeout: timeout,
		logger:  logger,
	}
}

// fetchRows runs a full-table select and returns generic row maps
func (s *SQLSource) fetchRows(ctx context.Context, table string) ([]map[string]interface{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT * FROM %s.%s", s.schema, table)
	rows, err := s.db.QueryxContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var result []map[string]interface{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while reading %s: %w", table, err)
	}

	s.logger.Debug("Fetched raw snapshot",
		zap.String("table", table),
		zap.Int("rows", len(result)))

	return result, nil
}

// FetchCustomers reads the CRM customer master snapshot
func (s *SQLSource) FetchCustomers(ctx context.Context) ([]model.RawCustomer, error) {
	rows, err := s.fetchRows(ctx, tableCustomers)
	if err != nil {
		return nil, err
	}

	customers := make([]model.RawCustomer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, model.RawCustomer{
			ID:            asIntPtr(row["cst_id"]),
			Key:           asString(row["cst_key"]),
			FirstName:     asString(row["cst_firstname"]),
			LastName:      asString(row["cst_lastname"]),
			MaritalStatus: asString(row["cst_marital_status"]),
			Gender:        asString(row["cst_gndr"]),
			CreatedAt:     asTimePtr(row["cst_create_date"]),
		})
	}
	return customers, nil
}

// FetchProducts reads the CRM product master snapshot
func (s *SQLSource) FetchProducts(ctx context.Context) ([]model.RawProduct, error) {
	rows, err := s.fetchRows(ctx, tableProducts)
	if err != nil {
		return nil, err
	}

	products := make([]model.RawProduct, 0, len(rows))
	for _, row := range rows {
		products = append(products, model.RawProduct{
			ID:        asInt(row["prd_id"]),
			Key:       asString(row["prd_key"]),
			Name:      asString(row["prd_nm"]),
			Cost:      asFloatPtr(row["prd_cost"]),
			Line:      asString(row["prd_line"]),
			StartDate: asTimePtr(row["prd_start_dt"]),
			EndDate:   asTimePtr(row["prd_end_dt"]),
		})
	}
	return products, nil
}

// FetchSalesLines reads the CRM sales detail snapshot
func (s *SQLSource) FetchSalesLines(ctx context.Context) ([]model.RawSalesLine, error) {
	rows, err := s.fetchRows(ctx, tableSalesLines)
	if err != nil {
		return nil, err
	}

	lines := make([]model.RawSalesLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, model.RawSalesLine{
			OrderNumber: asString(row["sls_ord_num"]),
			ProductKey:  asString(row["sls_prd_key"]),
			CustomerID:  asInt(row["sls_cust_id"]),
			OrderDate:   asInt(row["sls_order_dt"]),
			ShipDate:    asInt(row["sls_ship_dt"]),
			DueDate:     asInt(row["sls_due_dt"]),
			SalesAmount: asFloatPtr(row["sls_sales"]),
			Quantity:    asIntPtr(row["sls_quantity"]),
			Price:       asFloatPtr(row["sls_price"]),
		})
	}
	return lines, nil
}

// FetchLocations reads the ERP customer location snapshot
func (s *SQLSource) FetchLocations(ctx context.Context) ([]model.RawLocation, error) {
	rows, err := s.fetchRows(ctx, tableLocations)
	if err != nil {
		return nil, err
	}

	locations := make([]model.RawLocation, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, model.RawLocation{
			CustomerID: asString(row["cid"]),
			Country:    asString(row["cntry"]),
		})
	}
	return locations, nil
}

// FetchCustomerExtras reads the ERP supplementary customer attribute snapshot
func (s *SQLSource) FetchCustomerExtras(ctx context.Context) ([]model.RawCustomerExtra, error) {
	rows, err := s.fetchRows(ctx, tableExtras)
	if err != nil {
		return nil, err
	}

	extras := make([]model.RawCustomerExtra, 0, len(rows))
	for _, row := range rows {
		extras = append(extras, model.RawCustomerExtra{
			ID:        asString(row["cid"]),
			Birthdate: asTimePtr(row["bdate"]),
			Gender:    asString(row["gen"]),
		})
	}
	return extras, nil
}

// FetchCategories reads the ERP product category snapshot
func (s *SQLSource) FetchCategories(ctx context.Context) ([]model.RawCategory, error) {
	rows, err := s.fetchRows(ctx, tableCategories)
	if err != nil {
		return nil, err
	}

	categories := make([]model.RawCategory, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, model.RawCategory{
			ID:          asString(row["id"]),
			Category:    asString(row["cat"]),
			Subcategory: asString(row["subcat"]),
			Maintenance: asString(row["maintenance"]),
		})
	}
	return categories, nil
}
