/*
Package validate runs the invariant check battery over the cleansed and
assembled outputs.

PURPOSE:
  A battery of stateless, read-only checks in five flavors (uniqueness,
  formatting, domain, range/order, referential). Repair is the cleansing
  pipeline's job; this package only surfaces what slipped through.

CHECKS:
  silver customers:  unique customer_id; trimmed names; marital/gender
                     labels inside their closed sets
  silver products:   category id and product code present; cost >= 0;
                     line label in set; end_date never before start_date
  silver sales:      dates inside [1900-01-01, 2050-01-01); order date
                     not after ship/due; sales = quantity * |price|
  gold dimensions:   surrogate keys dense 1..N, no gaps or repeats
  gold facts:        every non-nil surrogate key exists in its dimension;
                     nil keys reported as unresolved references
*/
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/afmzln/dwh-sql-project/cleanse"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

// Battery runs every check against one run's outputs.
type Battery struct {
	log *zap.SugaredLogger
}

func NewBattery(log *zap.SugaredLogger) *Battery {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Battery{log: log}
}

// Run executes the full battery. It never fails; the report is the outcome.
func (b *Battery) Run(set *warehouse.CleansedSet, schema *warehouse.StarSchema) *Report {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: start,
	}

	report.Results = append(report.Results,
		checkUniqueCustomerIDs(set.Customers),
		checkTrimmedCustomerNames(set.Customers),
		checkMaritalStatusDomain(set.Customers),
		checkGenderDomain(set.Customers),
		checkProductKeysPresent(set.Products),
		checkProductCost(set.Products),
		checkProductLineDomain(set.Products),
		checkProductIntervalOrder(set.Products),
		checkSalesDateBounds(set.SalesLines),
		checkSalesDateOrder(set.SalesLines),
		checkSalesConsistency(set.SalesLines),
		checkSurrogateDensity("gold.dim_customers", customerKeys(schema.Customers)),
		checkSurrogateDensity("gold.dim_products", productKeys(schema.Products)),
		checkFactReferences(schema),
	)

	report.Duration = time.Since(start)
	b.log.Infow("validation finished",
		"checks", len(report.Results),
		"violations", report.TotalViolations(),
		"passed", report.Passed(),
		"duration", report.Duration)
	return report
}

// =============================================================================
// SILVER CUSTOMERS
// =============================================================================

func checkUniqueCustomerIDs(rows []warehouse.CleansedCustomer) CheckResult {
	res := CheckResult{Name: "unique_customer_id", Kind: KindUniqueness, Table: "silver.crm_cust_info"}
	counts := make(map[int]int, len(rows))
	for _, r := range rows {
		counts[r.CustomerID]++
	}
	for id, n := range counts {
		if n > 1 {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("customer_id=%d", id),
				Detail: fmt.Sprintf("%d rows share the key", n),
			})
		}
	}
	return res
}

func checkTrimmedCustomerNames(rows []warehouse.CleansedCustomer) CheckResult {
	res := CheckResult{Name: "trimmed_customer_names", Kind: KindFormatting, Table: "silver.crm_cust_info"}
	for _, r := range rows {
		for field, v := range map[string]string{"first_name": r.FirstName, "last_name": r.LastName} {
			if v != strings.TrimSpace(v) {
				res.Violations = append(res.Violations, Violation{
					RowKey: fmt.Sprintf("customer_id=%d", r.CustomerID),
					Detail: field + " carries surrounding whitespace",
				})
			}
		}
	}
	return res
}

func checkMaritalStatusDomain(rows []warehouse.CleansedCustomer) CheckResult {
	allowed := labelSet(cleanse.MaritalSingle, cleanse.MaritalMarried, cleanse.LabelNA)
	res := CheckResult{Name: "marital_status_domain", Kind: KindDomain, Table: "silver.crm_cust_info"}
	for value, n := range domainValues(rows, func(c warehouse.CleansedCustomer) string { return c.MaritalStatus }) {
		if !allowed[value] {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("marital_status=%q", value),
				Detail: fmt.Sprintf("value outside closed label set (%d rows)", n),
			})
		}
	}
	return res
}

func checkGenderDomain(rows []warehouse.CleansedCustomer) CheckResult {
	allowed := labelSet(cleanse.GenderMale, cleanse.GenderFemale, cleanse.LabelNA)
	res := CheckResult{Name: "gender_domain", Kind: KindDomain, Table: "silver.crm_cust_info"}
	for value, n := range domainValues(rows, func(c warehouse.CleansedCustomer) string { return c.Gender }) {
		if !allowed[value] {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("gender=%q", value),
				Detail: fmt.Sprintf("value outside closed label set (%d rows)", n),
			})
		}
	}
	return res
}

// =============================================================================
// SILVER PRODUCTS
// =============================================================================

func checkProductKeysPresent(rows []warehouse.CleansedProduct) CheckResult {
	res := CheckResult{Name: "product_keys_present", Kind: KindDomain, Table: "silver.crm_prd_info"}
	for _, r := range rows {
		if r.CategoryID == "" || r.ProductCode == "" {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("product_id=%d", r.ProductID),
				Detail: fmt.Sprintf("undecomposed key %q", r.ProductKey),
			})
		}
	}
	return res
}

func checkProductCost(rows []warehouse.CleansedProduct) CheckResult {
	res := CheckResult{Name: "product_cost_non_negative", Kind: KindRange, Table: "silver.crm_prd_info"}
	for _, r := range rows {
		if r.Cost.Sign() < 0 {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("product_id=%d", r.ProductID),
				Detail: "negative cost " + r.Cost.String(),
			})
		}
	}
	return res
}

func checkProductLineDomain(rows []warehouse.CleansedProduct) CheckResult {
	allowed := labelSet(cleanse.LineMountain, cleanse.LineRoad, cleanse.LineOtherSales,
		cleanse.LineTouring, cleanse.LabelNA)
	res := CheckResult{Name: "product_line_domain", Kind: KindDomain, Table: "silver.crm_prd_info"}
	seen := map[string]int{}
	for _, r := range rows {
		seen[r.Line]++
	}
	for value, n := range seen {
		if !allowed[value] {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("product_line=%q", value),
				Detail: fmt.Sprintf("value outside closed label set (%d rows)", n),
			})
		}
	}
	return res
}

func checkProductIntervalOrder(rows []warehouse.CleansedProduct) CheckResult {
	res := CheckResult{Name: "product_interval_order", Kind: KindRange, Table: "silver.crm_prd_info"}
	for _, r := range rows {
		if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("product_id=%d", r.ProductID),
				Detail: fmt.Sprintf("end_date %s before start_date %s",
					r.EndDate.Format("2006-01-02"), r.StartDate.Format("2006-01-02")),
			})
		}
	}
	return res
}

// =============================================================================
// SILVER SALES
// =============================================================================

func checkSalesDateBounds(rows []warehouse.CleansedSalesLine) CheckResult {
	res := CheckResult{Name: "sales_date_bounds", Kind: KindRange, Table: "silver.crm_sales_details"}
	for _, r := range rows {
		for field, d := range map[string]*time.Time{
			"order_date": r.OrderDate, "ship_date": r.ShipDate, "due_date": r.DueDate,
		} {
			if d != nil && (d.Before(cleanse.MinWarehouseDate) || !d.Before(cleanse.MaxWarehouseDate)) {
				res.Violations = append(res.Violations, Violation{
					RowKey: "order_number=" + r.OrderNumber,
					Detail: fmt.Sprintf("%s %s outside sane bounds", field, d.Format("2006-01-02")),
				})
			}
		}
	}
	return res
}

func checkSalesDateOrder(rows []warehouse.CleansedSalesLine) CheckResult {
	res := CheckResult{Name: "sales_date_order", Kind: KindRange, Table: "silver.crm_sales_details"}
	for _, r := range rows {
		if r.OrderDate == nil {
			continue
		}
		if (r.ShipDate != nil && r.OrderDate.After(*r.ShipDate)) ||
			(r.DueDate != nil && r.OrderDate.After(*r.DueDate)) {
			res.Violations = append(res.Violations, Violation{
				RowKey: "order_number=" + r.OrderNumber,
				Detail: "order date after ship or due date",
			})
		}
	}
	return res
}

func checkSalesConsistency(rows []warehouse.CleansedSalesLine) CheckResult {
	res := CheckResult{Name: "sales_financial_consistency", Kind: KindRange, Table: "silver.crm_sales_details"}
	for _, r := range rows {
		if r.Quantity == nil || *r.Quantity == 0 {
			continue
		}
		if r.SalesAmount == nil || r.UnitPrice == nil {
			res.Violations = append(res.Violations, Violation{
				RowKey: "order_number=" + r.OrderNumber,
				Detail: "underivable sales amount or unit price",
			})
			continue
		}
		expected := mulAbs(*r.Quantity, *r.UnitPrice)
		if !r.SalesAmount.Equal(expected) {
			res.Violations = append(res.Violations, Violation{
				RowKey: "order_number=" + r.OrderNumber,
				Detail: fmt.Sprintf("sales %s != quantity %d * |price| %s",
					r.SalesAmount, *r.Quantity, r.UnitPrice),
			})
		}
	}
	return res
}

// =============================================================================
// GOLD
// =============================================================================

func checkSurrogateDensity(table string, keys []int) CheckResult {
	res := CheckResult{Name: "surrogate_key_density", Kind: KindUniqueness, Table: table}
	seen := make(map[int]int, len(keys))
	for _, k := range keys {
		seen[k]++
	}
	for k, n := range seen {
		if n > 1 {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("surrogate_key=%d", k),
				Detail: fmt.Sprintf("assigned %d times", n),
			})
		}
	}
	for want := 1; want <= len(keys); want++ {
		if seen[want] == 0 {
			res.Violations = append(res.Violations, Violation{
				RowKey: fmt.Sprintf("surrogate_key=%d", want),
				Detail: "gap in dense key range",
			})
		}
	}
	return res
}

func checkFactReferences(schema *warehouse.StarSchema) CheckResult {
	res := CheckResult{Name: "fact_dimension_references", Kind: KindReferential, Table: "gold.fact_sales"}

	customerKeys := make(map[int]bool, len(schema.Customers))
	for _, c := range schema.Customers {
		customerKeys[c.CustomerKey] = true
	}
	productKeys := make(map[int]bool, len(schema.Products))
	for _, p := range schema.Products {
		productKeys[p.ProductKey] = true
	}

	for _, f := range schema.Sales {
		switch {
		case f.ProductKey == nil:
			res.Violations = append(res.Violations, Violation{
				RowKey: "order_number=" + f.OrderNumber,
				Detail: "unresolved product reference",
			})
		case !productKeys[*f.ProductKey]:
			res.Violations = append(res.Violations, Violation{
				RowKey: "order_number=" + f.OrderNumber,
				Detail: fmt.Sprintf("product surrogate %d not in dimension", *f.ProductKey),
			})
		}
		switch {
		case f.CustomerKey == nil:
			res.Violations = append(res.Violations, Violation{
				RowKey: "order_number=" + f.OrderNumber,
				Detail: "unresolved customer reference",
			})
		case !customerKeys[*f.CustomerKey]:
			res.Violations = append(res.Violations, Violation{
				RowKey: "order_number=" + f.OrderNumber,
				Detail: fmt.Sprintf("customer surrogate %d not in dimension", *f.CustomerKey),
			})
		}
	}
	return res
}

// =============================================================================
// HELPERS
// =============================================================================

func labelSet(labels ...string) map[string]bool {
	out := make(map[string]bool, len(labels))
	for _, l := range labels {
		out[l] = true
	}
	return out
}

func domainValues(rows []warehouse.CleansedCustomer, field func(warehouse.CleansedCustomer) string) map[string]int {
	out := map[string]int{}
	for _, r := range rows {
		out[field(r)]++
	}
	return out
}

func mulAbs(quantity int64, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(price.Abs())
}

func customerKeys(rows []warehouse.DimCustomer) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.CustomerKey
	}
	return out
}

func productKeys(rows []warehouse.DimProduct) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ProductKey
	}
	return out
}
