/*
intervals.go - Slowly-changing product validity intervals

PURPOSE:
  Product versions arrive with unreliable end dates. The validity
  interval is recomputed from the ordered sequence of versions sharing a
  bare product code: each version ends one day before the next one
  starts, and the chronologically latest version stays open (nil end).

  The grouping key is the bare product code (post-decomposition), not the
  full composite key - the category prefix is not part of the product's
  identity over time.
*/
package cleanse

import (
	"sort"
	"time"

	"github.com/afmzln/dwh-sql-project/warehouse"
)

// ResolveValidityIntervals recomputes end dates across the versions of
// each product code. The returned slice is sorted by (product code,
// start date, product id) so the pipeline output is deterministic
// regardless of input order. Versions with a nil start date sort first
// within their group.
func ResolveValidityIntervals(products []warehouse.CleansedProduct) []warehouse.CleansedProduct {
	out := make([]warehouse.CleansedProduct, len(products))
	copy(out, products)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductCode != out[j].ProductCode {
			return out[i].ProductCode < out[j].ProductCode
		}
		if !sameDate(out[i].StartDate, out[j].StartDate) {
			return beforeDate(out[i].StartDate, out[j].StartDate)
		}
		return out[i].ProductID < out[j].ProductID
	})

	// Sliding pairwise pass: out is grouped by code and ordered by start.
	for i := range out {
		last := i == len(out)-1 || out[i+1].ProductCode != out[i].ProductCode
		if last || out[i+1].StartDate == nil {
			out[i].EndDate = nil
			continue
		}
		end := out[i+1].StartDate.AddDate(0, 0, -1)
		out[i].EndDate = &end
	}

	return out
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// beforeDate orders nil (unknown start) before any real date.
func beforeDate(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}
