/*
Package star assembles the cleansed layer into the dimensional model.

PURPOSE:
  Builds the customer and product dimensions (cleansed rows + surrogate
  keys + left-outer-joined reference attributes) and resolves the fact
  rows against the just-built dimensions.

ORDERING DEPENDENCY:
  Fact resolution is a lookup against the finished dimension sets, so
  both dimensions are fully assembled - surrogate keys included - before
  any sales line is resolved. This is a hard sequencing rule, not a
  concurrency concern.

SOFT REFERENTIAL INTEGRITY:
  A sales line whose product key or customer id matches no dimension row
  keeps its surrogate key nil instead of being dropped. Orphans survive
  as facts; the validator reports them.

JOIN KEYS:
  dim_customers: ERP demographics and location match on the customer
                 number (already aligned by cleansing)
  dim_products:  category reference matches on the decomposed category id
  fact_sales:    product key matches the CURRENT version (nil end date)
                 of a product code; customer id matches directly
*/
package star

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/afmzln/dwh-sql-project/cleanse"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

// Assembler builds the star schema for one run.
type Assembler struct {
	log *zap.SugaredLogger
}

func NewAssembler(log *zap.SugaredLogger) *Assembler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Assembler{log: log}
}

// Assemble builds both dimensions and then resolves the facts.
func (a *Assembler) Assemble(ctx context.Context, set *warehouse.CleansedSet) (*warehouse.StarSchema, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, warehouse.NewStageError("assemble", "star", time.Since(start), err)
	}

	customers := a.buildCustomerDimension(set)
	products := a.buildProductDimension(set)
	sales := a.resolveFacts(set.SalesLines, customers, products)

	a.log.Infow("star schema assembled",
		"dim_customers", len(customers),
		"dim_products", len(products),
		"fact_sales", len(sales),
		"duration", time.Since(start))

	return &warehouse.StarSchema{
		Customers: customers,
		Products:  products,
		Sales:     sales,
	}, nil
}

// buildCustomerDimension outer-joins the ERP reference rows onto the
// CRM customers and assigns surrogate keys by customer_id order.
func (a *Assembler) buildCustomerDimension(set *warehouse.CleansedSet) []warehouse.DimCustomer {
	demoByNumber := make(map[string]warehouse.CleansedDemo, len(set.Demos))
	for _, d := range set.Demos {
		demoByNumber[d.CustomerNumber] = d
	}
	locByNumber := make(map[string]warehouse.CleansedLocation, len(set.Locations))
	for _, l := range set.Locations {
		locByNumber[l.CustomerNumber] = l
	}

	ordered := orderCustomers(set.Customers)
	out := make([]warehouse.DimCustomer, 0, len(ordered))
	for i, c := range ordered {
		dim := warehouse.DimCustomer{
			CustomerKey:    i + 1,
			CustomerID:     c.CustomerID,
			CustomerNumber: c.CustomerNumber,
			FirstName:      c.FirstName,
			LastName:       c.LastName,
			Country:        cleanse.LabelNA,
			MaritalStatus:  c.MaritalStatus,
			Gender:         c.Gender,
			CreatedAt:      c.CreatedAt,
		}
		if demo, ok := demoByNumber[c.CustomerNumber]; ok {
			dim.Birthdate = demo.Birthdate
			dim.Gender = cleanse.ResolveGender(c.Gender, demo.Gender)
		}
		if loc, ok := locByNumber[c.CustomerNumber]; ok {
			dim.Country = loc.Country
		}
		out = append(out, dim)
	}
	return out
}

// buildProductDimension outer-joins the category reference and assigns
// surrogate keys by (start_date, product_key) order. All versions are
// retained; EndDate marks which one is current.
func (a *Assembler) buildProductDimension(set *warehouse.CleansedSet) []warehouse.DimProduct {
	catByID := make(map[string]warehouse.RawProductCategory, len(set.Categories))
	for _, c := range set.Categories {
		catByID[c.CategoryID] = c
	}

	ordered := orderProducts(set.Products)
	out := make([]warehouse.DimProduct, 0, len(ordered))
	for i, p := range ordered {
		dim := warehouse.DimProduct{
			ProductKey:    i + 1,
			ProductID:     p.ProductID,
			ProductNumber: p.ProductCode,
			ProductName:   p.Name,
			CategoryID:    p.CategoryID,
			Cost:          p.Cost,
			ProductLine:   p.Line,
			StartDate:     p.StartDate,
			EndDate:       p.EndDate,
		}
		if cat, ok := catByID[p.CategoryID]; ok {
			category, subcategory, maintenance := cat.Category, cat.Subcategory, cat.Maintenance
			dim.Category = &category
			dim.Subcategory = &subcategory
			dim.Maintenance = &maintenance
		}
		out = append(out, dim)
	}
	return out
}

// resolveFacts substitutes surrogate keys for natural references.
// Product lookups target the current version of each product code.
func (a *Assembler) resolveFacts(lines []warehouse.CleansedSalesLine,
	customers []warehouse.DimCustomer, products []warehouse.DimProduct) []warehouse.FactSale {

	customerKeyByID := make(map[int]int, len(customers))
	for _, c := range customers {
		customerKeyByID[c.CustomerID] = c.CustomerKey
	}
	productKeyByCode := make(map[string]int, len(products))
	for _, p := range products {
		if p.EndDate == nil {
			productKeyByCode[p.ProductNumber] = p.ProductKey
		}
	}

	orphans := 0
	out := make([]warehouse.FactSale, 0, len(lines))
	for _, line := range lines {
		fact := warehouse.FactSale{
			OrderNumber: line.OrderNumber,
			OrderDate:   line.OrderDate,
			ShipDate:    line.ShipDate,
			DueDate:     line.DueDate,
			SalesAmount: line.SalesAmount,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
		if key, ok := productKeyByCode[line.ProductKey]; ok {
			k := key
			fact.ProductKey = &k
		}
		if line.CustomerID != nil {
			if key, ok := customerKeyByID[*line.CustomerID]; ok {
				k := key
				fact.CustomerKey = &k
			}
		}
		if fact.ProductKey == nil || fact.CustomerKey == nil {
			orphans++
		}
		out = append(out, fact)
	}
	if orphans > 0 {
		a.log.Warnw("facts with unresolved references", "count", orphans)
	}
	return out
}
