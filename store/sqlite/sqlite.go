/*
Package sqlite persists the cleansed and dimensional layers.

PURPOSE:
  The engine itself is pure functions over collections; this package is
  the storage substrate that makes each run's output queryable. Silver
  and gold tables are written with full-replace semantics: one
  transaction per table, DELETE then INSERT, so a failed stage never
  leaves a table partially overwritten and re-running is always safe.

KEY TABLES:
  silver_*             one table per cleansed source table
  gold_dim_customers   customer dimension with surrogate keys
  gold_dim_products    product dimension with surrogate keys
  gold_fact_sales      resolved fact rows
  validation_reports   one JSON report per run

ENCODING:
  Dates are stored as ISO-8601 text, money as decimal text (never
  floats), nullable fields as SQL NULL.

WAL MODE:
  The database is opened with WAL so API readers don't block a running
  replace.

SEE ALSO:
  - warehouse/types.go: the row types stored here
  - api/handlers.go:    the read side
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/afmzln/dwh-sql-project/validate"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

// Store persists and serves the warehouse layers.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the warehouse database. Use ":memory:" for
// an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS silver_crm_cust_info (
		customer_id INTEGER PRIMARY KEY,
		customer_number TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		marital_status TEXT NOT NULL,
		gender TEXT NOT NULL,
		create_date TEXT
	);

	CREATE TABLE IF NOT EXISTS silver_crm_prd_info (
		product_id INTEGER NOT NULL,
		category_id TEXT NOT NULL,
		product_code TEXT NOT NULL,
		product_key TEXT NOT NULL,
		product_name TEXT,
		cost TEXT NOT NULL,
		product_line TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_silver_prd_code
		ON silver_crm_prd_info(product_code, start_date);

	CREATE TABLE IF NOT EXISTS silver_crm_sales_details (
		order_number TEXT NOT NULL,
		product_key TEXT NOT NULL,
		customer_id INTEGER,
		order_date TEXT,
		ship_date TEXT,
		due_date TEXT,
		sales_amount TEXT,
		quantity INTEGER,
		unit_price TEXT
	);

	CREATE TABLE IF NOT EXISTS silver_erp_cust_az12 (
		customer_number TEXT NOT NULL,
		birthdate TEXT,
		gender TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS silver_erp_loc_a101 (
		customer_number TEXT NOT NULL,
		country TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS silver_erp_px_cat_g1v2 (
		category_id TEXT NOT NULL,
		category TEXT,
		subcategory TEXT,
		maintenance TEXT
	);

	CREATE TABLE IF NOT EXISTS gold_dim_customers (
		customer_key INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL,
		customer_number TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		country TEXT NOT NULL,
		marital_status TEXT NOT NULL,
		gender TEXT NOT NULL,
		birthdate TEXT,
		create_date TEXT
	);

	CREATE TABLE IF NOT EXISTS gold_dim_products (
		product_key INTEGER PRIMARY KEY,
		product_id INTEGER NOT NULL,
		product_number TEXT NOT NULL,
		product_name TEXT,
		category_id TEXT NOT NULL,
		category TEXT,
		subcategory TEXT,
		maintenance TEXT,
		cost TEXT NOT NULL,
		product_line TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT
	);

	CREATE TABLE IF NOT EXISTS gold_fact_sales (
		order_number TEXT NOT NULL,
		product_key INTEGER,
		customer_key INTEGER,
		order_date TEXT,
		shipping_date TEXT,
		due_date TEXT,
		sales_amount TEXT,
		quantity INTEGER,
		unit_price TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_fact_sales_product
		ON gold_fact_sales(product_key);
	CREATE INDEX IF NOT EXISTS idx_fact_sales_customer
		ON gold_fact_sales(customer_key);

	CREATE TABLE IF NOT EXISTS validation_reports (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		passed INTEGER NOT NULL,
		violations INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FULL-REPLACE WRITES
// =============================================================================

// replaceTable runs DELETE + INSERTs for one table inside a transaction.
func (s *Store) replaceTable(ctx context.Context, table string, insert func(tx *sql.Tx) error) error {
	start := time.Now()
	fail := func(err error) error {
		return warehouse.NewStageError("persist", table, time.Since(start), err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		tx.Rollback()
		return fail(err)
	}
	if err := insert(tx); err != nil {
		tx.Rollback()
		return fail(err)
	}
	if err := tx.Commit(); err != nil {
		return fail(err)
	}
	return nil
}

// ReplaceSilver rewrites every silver table from the cleansed set.
func (s *Store) ReplaceSilver(ctx context.Context, set *warehouse.CleansedSet) error {
	if err := s.replaceTable(ctx, "silver_crm_cust_info", func(tx *sql.Tx) error {
		for _, c := range set.Customers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO silver_crm_cust_info
				 (customer_id, customer_number, first_name, last_name, marital_status, gender, create_date)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.CustomerID, c.CustomerNumber, c.FirstName, c.LastName,
				c.MaritalStatus, c.Gender, dateOut(c.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.replaceTable(ctx, "silver_crm_prd_info", func(tx *sql.Tx) error {
		for _, p := range set.Products {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO silver_crm_prd_info
				 (product_id, category_id, product_code, product_key, product_name, cost, product_line, start_date, end_date)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ProductID, p.CategoryID, p.ProductCode, p.ProductKey, p.Name,
				p.Cost.String(), p.Line, dateOut(p.StartDate), dateOut(p.EndDate)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.replaceTable(ctx, "silver_crm_sales_details", func(tx *sql.Tx) error {
		for _, l := range set.SalesLines {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO silver_crm_sales_details
				 (order_number, product_key, customer_id, order_date, ship_date, due_date, sales_amount, quantity, unit_price)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				l.OrderNumber, l.ProductKey, intOut(l.CustomerID),
				dateOut(l.OrderDate), dateOut(l.ShipDate), dateOut(l.DueDate),
				decOut(l.SalesAmount), int64Out(l.Quantity), decOut(l.UnitPrice)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.replaceTable(ctx, "silver_erp_cust_az12", func(tx *sql.Tx) error {
		for _, d := range set.Demos {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO silver_erp_cust_az12 (customer_number, birthdate, gender) VALUES (?, ?, ?)`,
				d.CustomerNumber, dateOut(d.Birthdate), d.Gender); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.replaceTable(ctx, "silver_erp_loc_a101", func(tx *sql.Tx) error {
		for _, l := range set.Locations {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO silver_erp_loc_a101 (customer_number, country) VALUES (?, ?)`,
				l.CustomerNumber, l.Country); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return s.replaceTable(ctx, "silver_erp_px_cat_g1v2", func(tx *sql.Tx) error {
		for _, c := range set.Categories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO silver_erp_px_cat_g1v2 (category_id, category, subcategory, maintenance) VALUES (?, ?, ?, ?)`,
				c.CategoryID, c.Category, c.Subcategory, c.Maintenance); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceGold rewrites the dimensional layer from one assembled schema.
func (s *Store) ReplaceGold(ctx context.Context, schema *warehouse.StarSchema) error {
	if err := s.replaceTable(ctx, "gold_dim_customers", func(tx *sql.Tx) error {
		for _, c := range schema.Customers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO gold_dim_customers
				 (customer_key, customer_id, customer_number, first_name, last_name, country, marital_status, gender, birthdate, create_date)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.CustomerKey, c.CustomerID, c.CustomerNumber, c.FirstName, c.LastName,
				c.Country, c.MaritalStatus, c.Gender, dateOut(c.Birthdate), dateOut(c.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.replaceTable(ctx, "gold_dim_products", func(tx *sql.Tx) error {
		for _, p := range schema.Products {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO gold_dim_products
				 (product_key, product_id, product_number, product_name, category_id, category, subcategory, maintenance, cost, product_line, start_date, end_date)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ProductKey, p.ProductID, p.ProductNumber, p.ProductName, p.CategoryID,
				strOut(p.Category), strOut(p.Subcategory), strOut(p.Maintenance),
				p.Cost.String(), p.ProductLine, dateOut(p.StartDate), dateOut(p.EndDate)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return s.replaceTable(ctx, "gold_fact_sales", func(tx *sql.Tx) error {
		for _, f := range schema.Sales {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO gold_fact_sales
				 (order_number, product_key, customer_key, order_date, shipping_date, due_date, sales_amount, quantity, unit_price)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				f.OrderNumber, intOut(f.ProductKey), intOut(f.CustomerKey),
				dateOut(f.OrderDate), dateOut(f.ShipDate), dateOut(f.DueDate),
				decOut(f.SalesAmount), int64Out(f.Quantity), decOut(f.UnitPrice)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveReport stores one validation report.
func (s *Store) SaveReport(ctx context.Context, report *validate.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	passed := 0
	if report.Passed() {
		passed = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO validation_reports (run_id, started_at, passed, violations, report_json)
		 VALUES (?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UTC().Format(time.RFC3339Nano), passed,
		report.TotalViolations(), string(raw))
	return errors.Wrap(err, "save report")
}

// LatestReport returns the most recent validation report, or
// warehouse.ErrNoRun when no run has been persisted.
func (s *Store) LatestReport(ctx context.Context) (*validate.Report, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM validation_reports ORDER BY started_at DESC LIMIT 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, warehouse.ErrNoRun
	}
	if err != nil {
		return nil, errors.Wrap(err, "load report")
	}
	var report validate.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, errors.Wrap(err, "decode report")
	}
	return &report, nil
}

// =============================================================================
// READS - the downstream query surface
// =============================================================================

// GoldCustomers reads the customer dimension ordered by surrogate key.
func (s *Store) GoldCustomers(ctx context.Context) ([]warehouse.DimCustomer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_key, customer_id, customer_number, first_name, last_name,
		        country, marital_status, gender, birthdate, create_date
		 FROM gold_dim_customers ORDER BY customer_key`)
	if err != nil {
		return nil, errors.Wrap(err, "query dim_customers")
	}
	defer rows.Close()

	var out []warehouse.DimCustomer
	for rows.Next() {
		var c warehouse.DimCustomer
		var birthdate, created sql.NullString
		if err := rows.Scan(&c.CustomerKey, &c.CustomerID, &c.CustomerNumber,
			&c.FirstName, &c.LastName, &c.Country, &c.MaritalStatus, &c.Gender,
			&birthdate, &created); err != nil {
			return nil, errors.Wrap(err, "scan dim_customers")
		}
		c.Birthdate = dateIn(birthdate)
		c.CreatedAt = dateIn(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GoldProducts reads the product dimension ordered by surrogate key.
func (s *Store) GoldProducts(ctx context.Context) ([]warehouse.DimProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_key, product_id, product_number, product_name, category_id,
		        category, subcategory, maintenance, cost, product_line, start_date, end_date
		 FROM gold_dim_products ORDER BY product_key`)
	if err != nil {
		return nil, errors.Wrap(err, "query dim_products")
	}
	defer rows.Close()

	var out []warehouse.DimProduct
	for rows.Next() {
		var p warehouse.DimProduct
		var category, subcategory, maintenance, start, end sql.NullString
		var cost string
		if err := rows.Scan(&p.ProductKey, &p.ProductID, &p.ProductNumber, &p.ProductName,
			&p.CategoryID, &category, &subcategory, &maintenance, &cost, &p.ProductLine,
			&start, &end); err != nil {
			return nil, errors.Wrap(err, "scan dim_products")
		}
		p.Category = strIn(category)
		p.Subcategory = strIn(subcategory)
		p.Maintenance = strIn(maintenance)
		p.StartDate = dateIn(start)
		p.EndDate = dateIn(end)
		c, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, errors.Wrapf(err, "decode cost %q", cost)
		}
		p.Cost = c
		out = append(out, p)
	}
	return out, rows.Err()
}

// GoldSales reads the fact rows in insertion order.
func (s *Store) GoldSales(ctx context.Context) ([]warehouse.FactSale, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_number, product_key, customer_key, order_date, shipping_date,
		        due_date, sales_amount, quantity, unit_price
		 FROM gold_fact_sales`)
	if err != nil {
		return nil, errors.Wrap(err, "query fact_sales")
	}
	defer rows.Close()

	var out []warehouse.FactSale
	for rows.Next() {
		var f warehouse.FactSale
		var productKey, customerKey, quantity sql.NullInt64
		var order, ship, due, sales, price sql.NullString
		if err := rows.Scan(&f.OrderNumber, &productKey, &customerKey,
			&order, &ship, &due, &sales, &quantity, &price); err != nil {
			return nil, errors.Wrap(err, "scan fact_sales")
		}
		f.ProductKey = nullableInt(productKey)
		f.CustomerKey = nullableInt(customerKey)
		f.OrderDate = dateIn(order)
		f.ShipDate = dateIn(ship)
		f.DueDate = dateIn(due)
		f.SalesAmount = decIn(sales)
		f.UnitPrice = decIn(price)
		if quantity.Valid {
			q := quantity.Int64
			f.Quantity = &q
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SilverCustomers reads the cleansed customers ordered by id.
func (s *Store) SilverCustomers(ctx context.Context) ([]warehouse.CleansedCustomer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_id, customer_number, first_name, last_name, marital_status, gender, create_date
		 FROM silver_crm_cust_info ORDER BY customer_id`)
	if err != nil {
		return nil, errors.Wrap(err, "query silver customers")
	}
	defer rows.Close()

	var out []warehouse.CleansedCustomer
	for rows.Next() {
		var c warehouse.CleansedCustomer
		var created sql.NullString
		if err := rows.Scan(&c.CustomerID, &c.CustomerNumber, &c.FirstName, &c.LastName,
			&c.MaritalStatus, &c.Gender, &created); err != nil {
			return nil, errors.Wrap(err, "scan silver customers")
		}
		c.CreatedAt = dateIn(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SilverProducts reads the cleansed product versions in interval order.
func (s *Store) SilverProducts(ctx context.Context) ([]warehouse.CleansedProduct, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, category_id, product_code, product_key, product_name, cost,
		        product_line, start_date, end_date
		 FROM silver_crm_prd_info ORDER BY product_code, start_date`)
	if err != nil {
		return nil, errors.Wrap(err, "query silver products")
	}
	defer rows.Close()

	var out []warehouse.CleansedProduct
	for rows.Next() {
		var p warehouse.CleansedProduct
		var cost string
		var start, end sql.NullString
		if err := rows.Scan(&p.ProductID, &p.CategoryID, &p.ProductCode, &p.ProductKey,
			&p.Name, &cost, &p.Line, &start, &end); err != nil {
			return nil, errors.Wrap(err, "scan silver products")
		}
		c, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, errors.Wrapf(err, "decode cost %q", cost)
		}
		p.Cost = c
		p.StartDate = dateIn(start)
		p.EndDate = dateIn(end)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SilverSales reads the cleansed sales lines in insertion order.
func (s *Store) SilverSales(ctx context.Context) ([]warehouse.CleansedSalesLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_number, product_key, customer_id, order_date, ship_date, due_date,
		        sales_amount, quantity, unit_price
		 FROM silver_crm_sales_details`)
	if err != nil {
		return nil, errors.Wrap(err, "query silver sales")
	}
	defer rows.Close()

	var out []warehouse.CleansedSalesLine
	for rows.Next() {
		var l warehouse.CleansedSalesLine
		var customerID, quantity sql.NullInt64
		var order, ship, due, sales, price sql.NullString
		if err := rows.Scan(&l.OrderNumber, &l.ProductKey, &customerID,
			&order, &ship, &due, &sales, &quantity, &price); err != nil {
			return nil, errors.Wrap(err, "scan silver sales")
		}
		l.CustomerID = nullableInt(customerID)
		l.OrderDate = dateIn(order)
		l.ShipDate = dateIn(ship)
		l.DueDate = dateIn(due)
		l.SalesAmount = decIn(sales)
		l.UnitPrice = decIn(price)
		if quantity.Valid {
			q := quantity.Int64
			l.Quantity = &q
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// =============================================================================
// ENCODING HELPERS
// =============================================================================

const dateLayout = "2006-01-02"

func dateOut(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func dateIn(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s.String, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func decOut(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func decIn(s sql.NullString) *decimal.Decimal {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func intOut(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func int64Out(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func strOut(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func strIn(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
