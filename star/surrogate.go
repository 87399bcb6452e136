/*
surrogate.go - Dense surrogate key assignment

PURPOSE:
  Dimension rows get generated integer keys 1..N, assigned as an index
  pass over a deterministically sorted copy of the cleansed rows. No
  global counters: key assignment is scoped to one assembly run, and
  identical input row sets always yield identical keys.

SORT KEYS:
  customers: customer_id ascending
  products:  start_date ascending, then composite product key ascending -
             keeps the slowly-changing versions of one product contiguous
             and numbers early versions first
*/
package star

import (
	"sort"

	"github.com/afmzln/dwh-sql-project/warehouse"
)

// orderCustomers returns a copy sorted by the customer surrogate sort key.
func orderCustomers(rows []warehouse.CleansedCustomer) []warehouse.CleansedCustomer {
	out := make([]warehouse.CleansedCustomer, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}

// orderProducts returns a copy sorted by the product surrogate sort key.
func orderProducts(rows []warehouse.CleansedProduct) []warehouse.CleansedProduct {
	out := make([]warehouse.CleansedProduct, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.StartDate == nil && b.StartDate != nil:
			return true
		case a.StartDate != nil && b.StartDate == nil:
			return false
		case a.StartDate != nil && b.StartDate != nil && !a.StartDate.Equal(*b.StartDate):
			return a.StartDate.Before(*b.StartDate)
		}
		return a.ProductKey < b.ProductKey
	})
	return out
}
