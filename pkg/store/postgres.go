// pkg/store/postgres.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/retail-dw/conformance/pkg/model"
)

// PostgresStore persists conformed snapshots to the warehouse. Each
// persist is a full refresh inside one transaction, so readers of the
// warehouse never see a partially replaced run.
type PostgresStore struct {
	db     *sqlx.DB
	schema string
	logger *zap.Logger
}

// NewPostgresStore creates a warehouse-backed conformed store and ensures
// its tables exist
func NewPostgresStore(ctx context.Context, db *sqlx.DB, schema string, logger *zap.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	ps := &PostgresStore{
		db:     db,
		schema: schema,
		logger: logger,
	}

	if err := ps.ensureTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to set up conformed store tables: %w", err)
	}

	return ps, nil
}

// ensureTables creates the conformed tables and tracking tables when absent
func (ps *PostgresStore) ensureTables(ctx context.Context) error {
	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.customers (
			customer_id INTEGER PRIMARY KEY,
			customer_key TEXT NOT NULL,
			first_name TEXT,
			last_name TEXT,
			marital_status TEXT,
			gender TEXT,
			created_at DATE,
			conformed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.products (
			product_id INTEGER NOT NULL,
			category_id TEXT,
			product_key TEXT NOT NULL,
			product_name TEXT,
			cost NUMERIC NOT NULL,
			product_line TEXT,
			start_date DATE,
			end_date DATE,
			conformed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sales_lines (
			order_number TEXT NOT NULL,
			product_key TEXT,
			customer_id INTEGER,
			order_date DATE,
			ship_date DATE,
			due_date DATE,
			sales_amount NUMERIC,
			quantity INTEGER NOT NULL,
			price NUMERIC,
			conformed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.locations (
			customer_key TEXT NOT NULL,
			country TEXT,
			conformed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.customer_extras (
			customer_key TEXT NOT NULL,
			birthdate DATE,
			gender TEXT,
			conformed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.categories (
			category_id TEXT NOT NULL,
			category TEXT,
			subcategory TEXT,
			maintenance TEXT,
			conformed_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.cleansing_operations (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			entity TEXT NOT NULL,
			field TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_key TEXT NOT NULL,
			operation TEXT NOT NULL,
			reason TEXT NOT NULL,
			cleansed_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`, ps.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.runs (
			run_id TEXT PRIMARY KEY,
			produced_at TIMESTAMP WITH TIME ZONE NOT NULL,
			committed_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`, ps.schema),
	}

	for _, stmt := range statements {
		if _, err := ps.db.ExecContext(setupCtx, stmt); err != nil {
			return fmt.Errorf("failed to execute setup statement: %w", err)
		}
	}

	ps.logger.Info("Ensured conformed store tables exist", zap.String("schema", ps.schema))
	return nil
}

// Persist fully replaces the warehouse's conformed contents with the
// snapshot. Runs inside one transaction; on any failure the previous
// contents remain committed.
func (ps *PostgresStore) Persist(ctx context.Context, snap *Snapshot) (err error) {
	start := time.Now()

	tx, err := ps.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				ps.logger.Error("Failed to rollback persist transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	for _, table := range []string{"customers", "products", "sales_lines", "locations", "customer_extras", "categories"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s.%s", ps.schema, table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err = ps.insertCustomers(ctx, tx, snap.Customers); err != nil {
		return err
	}
	if err = ps.insertProducts(ctx, tx, snap.Products); err != nil {
		return err
	}
	if err = ps.insertSalesLines(ctx, tx, snap.SalesLines); err != nil {
		return err
	}
	if err = ps.insertLocations(ctx, tx, snap.Locations); err != nil {
		return err
	}
	if err = ps.insertExtras(ctx, tx, snap.CustomerExtras); err != nil {
		return err
	}
	if err = ps.insertCategories(ctx, tx, snap.Categories); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s.runs (run_id, produced_at) VALUES ($1, $2)", ps.schema),
		snap.RunID, snap.ProducedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit persist transaction: %w", err)
	}

	ps.logger.Info("Persisted conformed snapshot",
		zap.String("run_id", snap.RunID),
		zap.Int("customers", len(snap.Customers)),
		zap.Int("products", len(snap.Products)),
		zap.Int("sales_lines", len(snap.SalesLines)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

func (ps *PostgresStore) insertCustomers(ctx context.Context, tx *sqlx.Tx, customers []model.Customer) error {
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.customers
		(customer_id, customer_key, first_name, last_name, marital_status, gender, created_at, conformed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ps.schema))
	if err != nil {
		return fmt.Errorf("failed to prepare customer insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range customers {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Key, c.FirstName, c.LastName, c.MaritalStatus, c.Gender, c.CreatedAt, c.ConformedAt); err != nil {
			return fmt.Errorf("failed to insert customer %d: %w", c.ID, err)
		}
	}
	return nil
}

func (ps *PostgresStore) insertProducts(ctx context.Context, tx *sqlx.Tx, products []model.Product) error {
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.products
		(product_id, category_id, product_key, product_name, cost, product_line, start_date, end_date, conformed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ps.schema))
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.CategoryID, p.Key, p.Name, p.Cost, p.Line, p.StartDate, p.EndDate, p.ConformedAt); err != nil {
			return fmt.Errorf("failed to insert product %s: %w", p.Key, err)
		}
	}
	return nil
}

func (ps *PostgresStore) insertSalesLines(ctx context.Context, tx *sqlx.Tx, lines []model.SalesLine) error {
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.sales_lines
		(order_number, product_key, customer_id, order_date, ship_date, due_date, sales_amount, quantity, price, conformed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ps.schema))
	if err != nil {
		return fmt.Errorf("failed to prepare sales line insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range lines {
		if _, err := stmt.ExecContext(ctx,
			l.OrderNumber, l.ProductKey, l.CustomerID, l.OrderDate, l.ShipDate, l.DueDate,
			l.SalesAmount, l.Quantity, l.Price, l.ConformedAt); err != nil {
			return fmt.Errorf("failed to insert sales line %s: %w", l.OrderNumber, err)
		}
	}
	return nil
}

func (ps *PostgresStore) insertLocations(ctx context.Context, tx *sqlx.Tx, locations []model.Location) error {
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.locations (customer_key, country, conformed_at) VALUES ($1, $2, $3)
	`, ps.schema))
	if err != nil {
		return fmt.Errorf("failed to prepare location insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range locations {
		if _, err := stmt.ExecContext(ctx, l.CustomerKey, l.Country, l.ConformedAt); err != nil {
			return fmt.Errorf("failed to insert location %s: %w", l.CustomerKey, err)
		}
	}
	return nil
}

func (ps *PostgresStore) insertExtras(ctx context.Context, tx *sqlx.Tx, extras []model.CustomerExtra) error {
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.customer_extras (customer_key, birthdate, gender, conformed_at) VALUES ($1, $2, $3, $4)
	`, ps.schema))
	if err != nil {
		return fmt.Errorf("failed to prepare customer extra insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range extras {
		if _, err := stmt.ExecContext(ctx, e.CustomerKey, e.Birthdate, e.Gender, e.ConformedAt); err != nil {
			return fmt.Errorf("failed to insert customer extra %s: %w", e.CustomerKey, err)
		}
	}
	return nil
}

func (ps *PostgresStore) insertCategories(ctx context.Context, tx *sqlx.Tx, categories []model.Category) error {
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.categories (category_id, category, subcategory, maintenance, conformed_at) VALUES ($1, $2, $3, $4, $5)
	`, ps.schema))
	if err != nil {
		return fmt.Errorf("failed to prepare category insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range categories {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Category, c.Subcategory, c.Maintenance, c.ConformedAt); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.ID, err)
		}
	}
	return nil
}

// RecordCleansingOperations batch inserts cleansing operations into the
// tracking table
func (ps *PostgresStore) RecordCleansingOperations(ctx context.Context, runID string, operations []model.CleansingOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := ps.db.BeginTxx(opCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				ps.logger.Error("Failed to rollback cleansing op transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(opCtx, fmt.Sprintf(`
		INSERT INTO %s.cleansing_operations
		(run_id, entity, field, original_value, new_value, row_key, operation, reason, cleansed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ps.schema))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		if _, err = stmt.ExecContext(opCtx,
			runID,
			op.Entity,
			op.Field,
			toNullableString(op.OriginalValue),
			op.NewValue,
			op.RowKey,
			op.Operation,
			op.Reason,
			op.CleansedAt,
		); err != nil {
			return fmt.Errorf("failed to insert cleansing operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	ps.logger.Info("Recorded cleansing operations",
		zap.String("run_id", runID),
		zap.Int("count", len(operations)))
	return nil
}

// toNullableString safely converts an original value to a nullable string
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprintf("%v", v)
	return &s
}
