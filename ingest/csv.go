/*
Package ingest stages the flat-file extracts into memory.

PURPOSE:
  Bulk-loads the six source CSVs verbatim into a warehouse.RawSnapshot.
  This is the bronze boundary: pure I/O, no transformation - field
  values land as the source wrote them, with only mechanical decoding
  (integers, decimals, ISO dates) and nil for anything that does not
  decode. Repair belongs to the cleansing pipeline.

FILE LAYOUT:
  <crm_dir>/cust_info.csv       crm_cust_info
  <crm_dir>/prd_info.csv        crm_prd_info
  <crm_dir>/sales_details.csv   crm_sales_details
  <erp_dir>/CUST_AZ12.csv       erp_cust_az12
  <erp_dir>/LOC_A101.csv        erp_loc_a101
  <erp_dir>/PX_CAT_G1V2.csv     erp_px_cat_g1v2

  Columns are located by header name (case-insensitive), so column order
  in the extracts does not matter.

ERROR POLICY:
  An unreadable or structurally broken file is fatal for that table's
  ingest stage (StageError). A single undecodable FIELD is not - it
  degrades to nil/zero and flows on for the silver rules to judge.
*/
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/afmzln/dwh-sql-project/warehouse"
)

// Reader loads the staged extracts for one run.
type Reader struct {
	crmDir string
	erpDir string
	log    *zap.SugaredLogger
}

func NewReader(crmDir, erpDir string, log *zap.SugaredLogger) *Reader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Reader{crmDir: crmDir, erpDir: erpDir, log: log}
}

// LoadAll reads all six extracts. Each table is its own stage; the first
// failing table aborts the load.
func (r *Reader) LoadAll(ctx context.Context) (warehouse.RawSnapshot, error) {
	var snap warehouse.RawSnapshot

	stages := []struct {
		table string
		path  string
		load  func(rows []record)
	}{
		{warehouse.TableCRMCustomers, filepath.Join(r.crmDir, "cust_info.csv"), func(rows []record) {
			snap.Customers = customersFrom(rows)
		}},
		{warehouse.TableCRMProducts, filepath.Join(r.crmDir, "prd_info.csv"), func(rows []record) {
			snap.Products = productsFrom(rows)
		}},
		{warehouse.TableCRMSales, filepath.Join(r.crmDir, "sales_details.csv"), func(rows []record) {
			snap.SalesLines = salesFrom(rows)
		}},
		{warehouse.TableERPDemo, filepath.Join(r.erpDir, "CUST_AZ12.csv"), func(rows []record) {
			snap.Demos = demosFrom(rows)
		}},
		{warehouse.TableERPLocation, filepath.Join(r.erpDir, "LOC_A101.csv"), func(rows []record) {
			snap.Locations = locationsFrom(rows)
		}},
		{warehouse.TableERPCategories, filepath.Join(r.erpDir, "PX_CAT_G1V2.csv"), func(rows []record) {
			snap.Categories = categoriesFrom(rows)
		}},
	}

	for _, stage := range stages {
		start := time.Now()
		if err := ctx.Err(); err != nil {
			return snap, warehouse.NewStageError("ingest", stage.table, time.Since(start), err)
		}
		rows, err := readCSV(stage.path)
		if err != nil {
			return snap, warehouse.NewStageError("ingest", stage.table, time.Since(start), err)
		}
		stage.load(rows)
		r.log.Infow("table staged", "table", stage.table, "rows", len(rows),
			"duration", time.Since(start))
	}

	return snap, nil
}

// =============================================================================
// CSV DECODING
// =============================================================================

// record is one CSV row with header-name access.
type record struct {
	index  map[string]int
	fields []string
}

// get returns the trimmed value of a column, or "" when absent.
func (r record) get(name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open extract")
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1 // ragged rows surface as empty fields, not failures

	all, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filepath.Base(path))
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: missing header row", filepath.Base(path))
	}

	index := make(map[string]int, len(all[0]))
	for i, name := range all[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows := make([]record, 0, len(all)-1)
	for _, fields := range all[1:] {
		rows = append(rows, record{index: index, fields: fields})
	}
	return rows, nil
}

// =============================================================================
// PER-TABLE MAPPING
// =============================================================================

func customersFrom(rows []record) []warehouse.RawCustomer {
	out := make([]warehouse.RawCustomer, 0, len(rows))
	for _, row := range rows {
		out = append(out, warehouse.RawCustomer{
			CustomerID:     intField(row, "cst_id"),
			CustomerNumber: row.get("cst_key"),
			FirstName:      rawField(row, "cst_firstname"),
			LastName:       rawField(row, "cst_lastname"),
			MaritalStatus:  row.get("cst_marital_status"),
			Gender:         row.get("cst_gndr"),
			CreatedAt:      dateField(row, "cst_create_date"),
		})
	}
	return out
}

func productsFrom(rows []record) []warehouse.RawProduct {
	out := make([]warehouse.RawProduct, 0, len(rows))
	for _, row := range rows {
		id := 0
		if v := intField(row, "prd_id"); v != nil {
			id = *v
		}
		out = append(out, warehouse.RawProduct{
			ProductID:  id,
			ProductKey: row.get("prd_key"),
			Name:       row.get("prd_nm"),
			Cost:       decimalField(row, "prd_cost"),
			Line:       row.get("prd_line"),
			StartDate:  dateField(row, "prd_start_dt"),
			EndDate:    dateField(row, "prd_end_dt"),
		})
	}
	return out
}

func salesFrom(rows []record) []warehouse.RawSalesLine {
	out := make([]warehouse.RawSalesLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, warehouse.RawSalesLine{
			OrderNumber: row.get("sls_ord_num"),
			ProductKey:  row.get("sls_prd_key"),
			CustomerID:  intField(row, "sls_cust_id"),
			OrderDate:   numericDateField(row, "sls_order_dt"),
			ShipDate:    numericDateField(row, "sls_ship_dt"),
			DueDate:     numericDateField(row, "sls_due_dt"),
			SalesAmount: decimalField(row, "sls_sales"),
			Quantity:    int64Field(row, "sls_quantity"),
			UnitPrice:   decimalField(row, "sls_price"),
		})
	}
	return out
}

func demosFrom(rows []record) []warehouse.RawCustomerDemo {
	out := make([]warehouse.RawCustomerDemo, 0, len(rows))
	for _, row := range rows {
		out = append(out, warehouse.RawCustomerDemo{
			CustomerNumber: row.get("cid"),
			Birthdate:      dateField(row, "bdate"),
			Gender:         row.get("gen"),
		})
	}
	return out
}

func locationsFrom(rows []record) []warehouse.RawCustomerLocation {
	out := make([]warehouse.RawCustomerLocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, warehouse.RawCustomerLocation{
			CustomerNumber: row.get("cid"),
			Country:        row.get("cntry"),
		})
	}
	return out
}

func categoriesFrom(rows []record) []warehouse.RawProductCategory {
	out := make([]warehouse.RawProductCategory, 0, len(rows))
	for _, row := range rows {
		out = append(out, warehouse.RawProductCategory{
			CategoryID:  row.get("id"),
			Category:    row.get("cat"),
			Subcategory: row.get("subcat"),
			Maintenance: row.get("maintenance"),
		})
	}
	return out
}

// =============================================================================
// FIELD DECODERS - nil on anything that does not decode
// =============================================================================

// rawField keeps surrounding whitespace: trimming names is a silver rule,
// and the formatting check needs to see the original.
func rawField(r record, name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func intField(r record, name string) *int {
	v, err := strconv.Atoi(r.get(name))
	if err != nil {
		return nil
	}
	return &v
}

func int64Field(r record, name string) *int64 {
	v, err := strconv.ParseInt(r.get(name), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// numericDateField decodes the raw YYYYMMDD integer WITHOUT validating
// it; zero stands in for both "empty" and "zero sentinel" so the silver
// date parser sees the encoding as-is.
func numericDateField(r record, name string) int {
	v, err := strconv.Atoi(r.get(name))
	if err != nil {
		return 0
	}
	return v
}

func decimalField(r record, name string) *decimal.Decimal {
	s := r.get(name)
	if s == "" {
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &v
}

func dateField(r record, name string) *time.Time {
	s := r.get(name)
	if s == "" {
		return nil
	}
	v, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return nil
	}
	return &v
}
