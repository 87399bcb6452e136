/*
recency.go - Customer deduplication by recency

PURPOSE:
  The CRM extract contains one row per customer REVISION; the cleansed
  layer wants one row per customer. Group by customer id, keep the row
  with the latest created_at.

TIE-BREAK:
  The source defines no deterministic tie-break for equal created_at
  values. Policy here: stable input order - the earliest-ingested row
  among the ties wins (replacement requires a strictly later created_at).
  For a given extract this makes the resolver fully deterministic.
*/
package cleanse

import "github.com/afmzln/dwh-sql-project/warehouse"

// LatestPerCustomer deduplicates raw customer rows: rows with a null
// customer id are discarded, and within each id group the most recent
// created_at survives. A nil created_at ranks below any real date.
// Output order follows first appearance of each id in the input.
func LatestPerCustomer(rows []warehouse.RawCustomer) []warehouse.RawCustomer {
	winners := make(map[int]warehouse.RawCustomer)
	var order []int

	for _, row := range rows {
		if row.CustomerID == nil {
			continue
		}
		id := *row.CustomerID
		current, seen := winners[id]
		if !seen {
			winners[id] = row
			order = append(order, id)
			continue
		}
		if moreRecent(row, current) {
			winners[id] = row
		}
	}

	out := make([]warehouse.RawCustomer, 0, len(order))
	for _, id := range order {
		out = append(out, winners[id])
	}
	return out
}

// moreRecent reports whether a should replace b: strictly later
// created_at only, so ties keep the earlier-ingested row.
func moreRecent(a, b warehouse.RawCustomer) bool {
	if a.CreatedAt == nil {
		return false
	}
	if b.CreatedAt == nil {
		return true
	}
	return a.CreatedAt.After(*b.CreatedAt)
}
