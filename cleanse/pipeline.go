/*
pipeline.go - Per-table cleansing composition

PURPOSE:
  Composes the resolvers and normalizers in this package into one
  function per source table, and those into a full-snapshot run:

    crm_cust_info     recency dedup + label normalization + name trim
    crm_prd_info      key decomposition + cost default + line
                      normalization + validity interval recompute
    crm_sales_details date decoding + financial consistency correction
    erp_cust_az12     key alignment + gender normalization + future
                      birthdate nulling
    erp_loc_a101      key alignment + country normalization
    erp_px_cat_g1v2   structural copy, no transformation

FULL-REFRESH SEMANTICS:
  Every run recomputes each table's cleansed state wholesale from the raw
  snapshot (truncate, not merge). A failed stage leaves no partial state
  behind because nothing is written here - persistence happens after the
  whole set is built.

MALFORMED PRODUCT KEYS:
  Undersized composite keys follow the configured policy, applied
  uniformly: MalformedKeyDrop excludes the row (counted and logged),
  MalformedKeyKeep emits a degenerate row (whole key as product code,
  empty category id) for the validator to surface.
*/
package cleanse

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/afmzln/dwh-sql-project/warehouse"
)

var decimalZero = decimal.Zero

func trim(s string) string { return strings.TrimSpace(s) }

// MalformedKeyPolicy picks the uniform handling for product keys the
// decomposer cannot split.
type MalformedKeyPolicy string

const (
	MalformedKeyDrop MalformedKeyPolicy = "drop"
	MalformedKeyKeep MalformedKeyPolicy = "keep"
)

// Valid reports whether the policy is one of the defined values.
func (p MalformedKeyPolicy) Valid() bool {
	return p == MalformedKeyDrop || p == MalformedKeyKeep
}

// Pipeline turns a raw snapshot into the cleansed layer.
type Pipeline struct {
	policy MalformedKeyPolicy
	now    func() time.Time
	log    *zap.SugaredLogger
}

// NewPipeline builds a pipeline with the given malformed-key policy.
// An invalid policy falls back to drop.
func NewPipeline(policy MalformedKeyPolicy, log *zap.SugaredLogger) *Pipeline {
	if !policy.Valid() {
		policy = MalformedKeyDrop
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{policy: policy, now: time.Now, log: log}
}

// WithClock overrides the run clock. Tests use this to pin the future
// birthdate cutoff.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run cleanses every source table in the snapshot. The whole cleansed set
// is returned at once; a stage failure aborts the run without emitting a
// partially-built set.
func (p *Pipeline) Run(ctx context.Context, raw warehouse.RawSnapshot) (*warehouse.CleansedSet, error) {
	set := &warehouse.CleansedSet{}

	stages := []struct {
		table string
		run   func() error
	}{
		{warehouse.TableCRMCustomers, func() error {
			set.Customers = p.CleanseCustomers(raw.Customers)
			return nil
		}},
		{warehouse.TableCRMProducts, func() error {
			set.Products = p.CleanseProducts(raw.Products)
			return nil
		}},
		{warehouse.TableCRMSales, func() error {
			set.SalesLines = p.CleanseSalesLines(raw.SalesLines)
			return nil
		}},
		{warehouse.TableERPDemo, func() error {
			set.Demos = p.CleanseDemos(raw.Demos)
			return nil
		}},
		{warehouse.TableERPLocation, func() error {
			set.Locations = p.CleanseLocations(raw.Locations)
			return nil
		}},
		{warehouse.TableERPCategories, func() error {
			set.Categories = p.CleanseCategories(raw.Categories)
			return nil
		}},
	}

	for _, stage := range stages {
		start := p.now()
		if err := ctx.Err(); err != nil {
			return nil, warehouse.NewStageError("cleanse", stage.table, p.now().Sub(start),
				errors.Wrap(err, "run cancelled"))
		}
		if err := stage.run(); err != nil {
			return nil, warehouse.NewStageError("cleanse", stage.table, p.now().Sub(start), err)
		}
		p.log.Infow("table cleansed", "table", stage.table, "duration", p.now().Sub(start))
	}

	return set, nil
}

// CleanseCustomers deduplicates by recency and normalizes labels.
func (p *Pipeline) CleanseCustomers(rows []warehouse.RawCustomer) []warehouse.CleansedCustomer {
	latest := LatestPerCustomer(rows)
	out := make([]warehouse.CleansedCustomer, 0, len(latest))
	for _, row := range latest {
		out = append(out, warehouse.CleansedCustomer{
			CustomerID:     *row.CustomerID,
			CustomerNumber: trim(row.CustomerNumber),
			FirstName:      trim(row.FirstName),
			LastName:       trim(row.LastName),
			MaritalStatus:  NormalizeMaritalStatus(row.MaritalStatus),
			Gender:         NormalizeGender(row.Gender),
			CreatedAt:      row.CreatedAt,
		})
	}
	p.log.Infow("customers deduplicated", "in", len(rows), "out", len(out))
	return out
}

// CleanseProducts decomposes keys, defaults cost, normalizes the line,
// and recomputes validity intervals across versions.
func (p *Pipeline) CleanseProducts(rows []warehouse.RawProduct) []warehouse.CleansedProduct {
	seeds := make([]warehouse.CleansedProduct, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		catID, code, err := DecomposeProductKey(row.ProductKey)
		if err != nil {
			if p.policy == MalformedKeyDrop {
				dropped++
				p.log.Warnw("product row dropped", "product_id", row.ProductID,
					"product_key", row.ProductKey, "reason", err)
				continue
			}
			// Keep policy: degenerate decomposition, flagged downstream.
			catID, code = "", row.ProductKey
		}
		cost := decimalZero
		if row.Cost != nil {
			cost = *row.Cost
		}
		seeds = append(seeds, warehouse.CleansedProduct{
			ProductID:   row.ProductID,
			CategoryID:  catID,
			ProductCode: code,
			ProductKey:  row.ProductKey,
			Name:        trim(row.Name),
			Cost:        cost,
			Line:        NormalizeProductLine(row.Line),
			StartDate:   row.StartDate,
		})
	}
	out := ResolveValidityIntervals(seeds)
	p.log.Infow("products cleansed", "in", len(rows), "out", len(out), "dropped", dropped)
	return out
}

// CleanseSalesLines decodes dates and corrects financial fields.
func (p *Pipeline) CleanseSalesLines(rows []warehouse.RawSalesLine) []warehouse.CleansedSalesLine {
	out := make([]warehouse.CleansedSalesLine, 0, len(rows))
	for _, row := range rows {
		sales, price := CorrectFinancials(row.SalesAmount, row.UnitPrice, row.Quantity)
		out = append(out, warehouse.CleansedSalesLine{
			OrderNumber: trim(row.OrderNumber),
			ProductKey:  trim(row.ProductKey),
			CustomerID:  row.CustomerID,
			OrderDate:   ParseNumericDate(row.OrderDate),
			ShipDate:    ParseNumericDate(row.ShipDate),
			DueDate:     ParseNumericDate(row.DueDate),
			SalesAmount: sales,
			Quantity:    row.Quantity,
			UnitPrice:   price,
		})
	}
	return out
}

// CleanseDemos aligns keys, normalizes gender, and nils future birthdates.
func (p *Pipeline) CleanseDemos(rows []warehouse.RawCustomerDemo) []warehouse.CleansedDemo {
	now := p.now()
	out := make([]warehouse.CleansedDemo, 0, len(rows))
	for _, row := range rows {
		out = append(out, warehouse.CleansedDemo{
			CustomerNumber: NormalizeDemoKey(row.CustomerNumber),
			Birthdate:      NullFutureDate(row.Birthdate, now),
			Gender:         NormalizeGender(row.Gender),
		})
	}
	return out
}

// CleanseLocations aligns keys and normalizes countries.
func (p *Pipeline) CleanseLocations(rows []warehouse.RawCustomerLocation) []warehouse.CleansedLocation {
	out := make([]warehouse.CleansedLocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, warehouse.CleansedLocation{
			CustomerNumber: NormalizeLocationKey(row.CustomerNumber),
			Country:        NormalizeCountry(row.Country),
		})
	}
	return out
}

// CleanseCategories is a structural copy; the category reference carries
// no transformation.
func (p *Pipeline) CleanseCategories(rows []warehouse.RawProductCategory) []warehouse.RawProductCategory {
	out := make([]warehouse.RawProductCategory, len(rows))
	copy(out, rows)
	return out
}
