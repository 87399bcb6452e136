/*
finance.go - Financial consistency correction

PURPOSE:
  Sales lines must satisfy: sales_amount = quantity * |unit_price|.
  Quantity is the consistency anchor and is never touched; the other two
  fields are repaired around it.

INDEPENDENCE RULE:
  Both corrections are computed from the ORIGINAL raw values, never
  chained. A recomputed sales amount does not feed the price derivation,
  and a derived price does not feed the sales check. Chaining would
  change outputs - e.g. quantity=3, price=null, sales=30 keeps sales=30
  (the equation check is vacuous with a null price) and derives price=10.
*/
package cleanse

import "github.com/shopspring/decimal"

// CorrectFinancials repairs a sales line's amount and unit price from the
// original raw values.
//
//   - sales_amount is recomputed as quantity * |unit_price| when it is
//     null, non-positive, or disagrees with that product. When the
//     product itself is underivable (null price or quantity) the
//     recomputed amount is nil.
//   - unit_price is derived as sales_amount / quantity when it is null or
//     non-positive; a zero or null quantity yields nil (no division by
//     zero, fail-open).
//   - quantity passes through untouched.
func CorrectFinancials(sales, price *decimal.Decimal, quantity *int64) (outSales, outPrice *decimal.Decimal) {
	// quantity * |price| from the original values; nil when underivable.
	var expected *decimal.Decimal
	if quantity != nil && price != nil {
		v := decimal.NewFromInt(*quantity).Mul(price.Abs())
		expected = &v
	}

	outSales = sales
	if sales == nil || sales.Sign() <= 0 || (expected != nil && !sales.Equal(*expected)) {
		outSales = expected
	}

	outPrice = price
	if price == nil || price.Sign() <= 0 {
		outPrice = nil
		if sales != nil && quantity != nil && *quantity != 0 {
			v := sales.Div(decimal.NewFromInt(*quantity))
			outPrice = &v
		}
	}

	return outSales, outPrice
}
