/*
Package warehouse defines the record types shared by every stage of the
transformation engine.

PURPOSE:
  One logical dataset flows through three successive refinement layers:

    Raw*       verbatim source extracts (bronze) - inconsistent, nullable,
               duplicated, encoded
    Cleansed*  standardized and repaired rows (silver) - deduplicated,
               normalized labels, corrected financials, recomputed intervals
    Dim*, Fact analytics-ready star schema (gold) - surrogate keys,
               outer-joined reference attributes, resolved fact references

KEY CONCEPTS IN THIS FILE (types.go):
  - RawSnapshot:  the unordered per-table collections handed in by ingestion
  - CleansedSet:  the full-refresh output of the cleansing pipeline
  - StarSchema:   the assembled dimensional model

DESIGN PRINCIPLES:
  1. Nullability is explicit: optional fields are pointers, never sentinel
     values. A nil *decimal.Decimal is "the source had nothing", a zero
     value is "the source said zero" - the cleansing rules treat them
     differently.
  2. Precision: money fields (cost, sales amount, unit price) use
     decimal.Decimal so the financial consistency invariant holds exactly.
  3. Full-refresh lifecycle: Cleansed* and Dim*, Fact rows carry no identity
     across runs; every run recomputes them wholesale from the raw snapshot.

SEE ALSO:
  - errors.go: stage failure and malformed-input error taxonomy
  - cleanse/:  raw -> cleansed transformation
  - star/:     cleansed -> dimensional assembly
*/
package warehouse

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SOURCE TABLES - fixed names from the two source systems
// =============================================================================

const (
	TableCRMCustomers  = "crm_cust_info"
	TableCRMProducts   = "crm_prd_info"
	TableCRMSales      = "crm_sales_details"
	TableERPDemo       = "erp_cust_az12"
	TableERPLocation   = "erp_loc_a101"
	TableERPCategories = "erp_px_cat_g1v2"
)

// =============================================================================
// RAW LAYER - verbatim extracts, trusted for nothing
// =============================================================================

// RawCustomer is one CRM customer revision. CustomerID repeats across
// revisions; the recency resolver picks the survivor.
type RawCustomer struct {
	CustomerID     *int
	CustomerNumber string
	FirstName      string
	LastName       string
	MaritalStatus  string
	Gender         string
	CreatedAt      *time.Time
}

// RawProduct is one CRM product version. ProductKey is composite:
// a 5-char category prefix, a separator, and a variable-length code.
// EndDate is authoritative only before cleansing; the validity interval
// resolver recomputes it.
type RawProduct struct {
	ProductID  int
	ProductKey string
	Name       string
	Cost       *decimal.Decimal
	Line       string
	StartDate  *time.Time
	EndDate    *time.Time
}

// RawSalesLine is one CRM order line. The three date fields are 8-digit
// YYYYMMDD integers or an invalid sentinel; the financial fields may be
// null, zero, negative, or mutually inconsistent.
type RawSalesLine struct {
	OrderNumber string
	ProductKey  string
	CustomerID  *int
	OrderDate   int
	ShipDate    int
	DueDate     int
	SalesAmount *decimal.Decimal
	Quantity    *int64
	UnitPrice   *decimal.Decimal
}

// RawCustomerDemo is an ERP demographic row keyed by customer number
// (possibly carrying a legacy NAS prefix).
type RawCustomerDemo struct {
	CustomerNumber string
	Birthdate      *time.Time
	Gender         string
}

// RawCustomerLocation is an ERP country row keyed by customer number
// (possibly hyphenated).
type RawCustomerLocation struct {
	CustomerNumber string
	Country        string
}

// RawProductCategory is an ERP category reference row.
type RawProductCategory struct {
	CategoryID  string
	Category    string
	Subcategory string
	Maintenance string
}

// RawSnapshot is everything ingestion staged for one run.
type RawSnapshot struct {
	Customers  []RawCustomer
	Products   []RawProduct
	SalesLines []RawSalesLine
	Demos      []RawCustomerDemo
	Locations  []RawCustomerLocation
	Categories []RawProductCategory
}

// =============================================================================
// CLEANSED LAYER - standardized, deduplicated, repaired
// =============================================================================

// CleansedCustomer holds exactly one row per distinct customer id, the
// most recent revision, with normalized labels and trimmed names.
type CleansedCustomer struct {
	CustomerID     int
	CustomerNumber string
	FirstName      string
	LastName       string
	MaritalStatus  string
	Gender         string
	CreatedAt      *time.Time
}

// CleansedProduct is one product version: composite key decomposed,
// cost defaulted, line normalized, validity interval recomputed.
type CleansedProduct struct {
	ProductID   int
	CategoryID  string
	ProductCode string
	ProductKey  string // original composite key, kept for traceability
	Name        string
	Cost        decimal.Decimal
	Line        string
	StartDate   *time.Time
	EndDate     *time.Time // nil marks the current version
}

// CleansedSalesLine is one sales line with parsed dates and mutually
// consistent financial fields.
type CleansedSalesLine struct {
	OrderNumber string
	ProductKey  string
	CustomerID  *int
	OrderDate   *time.Time
	ShipDate    *time.Time
	DueDate     *time.Time
	SalesAmount *decimal.Decimal
	Quantity    *int64
	UnitPrice   *decimal.Decimal
}

// CleansedDemo is a demographic row with its key aligned to the CRM
// customer number, gender normalized, and future birthdates nulled.
type CleansedDemo struct {
	CustomerNumber string
	Birthdate      *time.Time
	Gender         string
}

// CleansedLocation is a location row with its key aligned to the CRM
// customer number and the country label normalized.
type CleansedLocation struct {
	CustomerNumber string
	Country        string
}

// CleansedSet is the silver layer for one run.
type CleansedSet struct {
	Customers  []CleansedCustomer
	Products   []CleansedProduct
	SalesLines []CleansedSalesLine
	Demos      []CleansedDemo
	Locations  []CleansedLocation
	// Categories carry no transformation; structural copy only.
	Categories []RawProductCategory
}

// =============================================================================
// DIMENSIONAL LAYER - star schema with surrogate keys
// =============================================================================

// DimCustomer is the customer dimension row. Reference attributes from the
// ERP side (birthdate, country) are left-outer joined and may be nil.
type DimCustomer struct {
	CustomerKey    int // surrogate, dense 1..N per run
	CustomerID     int
	CustomerNumber string
	FirstName      string
	LastName       string
	Country        string
	MaritalStatus  string
	Gender         string
	Birthdate      *time.Time
	CreatedAt      *time.Time
}

// DimProduct is the product dimension row. All versions are retained;
// surrogate ordering keeps the versions of one product contiguous.
type DimProduct struct {
	ProductKey    int // surrogate, dense 1..N per run
	ProductID     int
	ProductNumber string // bare product code, the natural join key for facts
	ProductName   string
	CategoryID    string
	Category      *string
	Subcategory   *string
	Maintenance   *string
	Cost          decimal.Decimal
	ProductLine   string
	StartDate     *time.Time
	EndDate       *time.Time
}

// FactSale is one sales line with natural references replaced by surrogate
// keys. Unresolved references stay on the row as nil keys; orphaned facts
// are a data-quality signal, not a reason to drop revenue.
type FactSale struct {
	OrderNumber string
	ProductKey  *int
	CustomerKey *int
	OrderDate   *time.Time
	ShipDate    *time.Time
	DueDate     *time.Time
	SalesAmount *decimal.Decimal
	Quantity    *int64
	UnitPrice   *decimal.Decimal
}

// StarSchema is the gold layer for one run.
type StarSchema struct {
	Customers []DimCustomer
	Products  []DimProduct
	Sales     []FactSale
}
