package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afmzln/dwh-sql-project/store/sqlite"
	"github.com/afmzln/dwh-sql-project/validate"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func datePtr(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int    { return &v }
func i64(v int64) *int64   { return &v }
func strPtr(s string) *string { return &s }

func sampleSilver() *warehouse.CleansedSet {
	return &warehouse.CleansedSet{
		Customers: []warehouse.CleansedCustomer{
			{CustomerID: 7, CustomerNumber: "AW00000007", FirstName: "Jon", LastName: "Yang",
				MaritalStatus: "Married", Gender: "Male", CreatedAt: datePtr(2024, time.January, 1)},
		},
		Products: []warehouse.CleansedProduct{
			{ProductID: 1, CategoryID: "CO_RF", ProductCode: "FR-R92B-58",
				ProductKey: "CO-RF-FR-R92B-58", Name: "HL Road Frame",
				Cost: decimal.NewFromInt(1263), Line: "Road",
				StartDate: datePtr(2011, time.July, 1)},
		},
		SalesLines: []warehouse.CleansedSalesLine{
			{OrderNumber: "SO43697", ProductKey: "FR-R92B-58", CustomerID: intPtr(7),
				OrderDate:   datePtr(2024, time.January, 5),
				SalesAmount: dec(30), Quantity: i64(3), UnitPrice: dec(10)},
		},
		Demos:      []warehouse.CleansedDemo{{CustomerNumber: "AW00000007", Gender: "Female"}},
		Locations:  []warehouse.CleansedLocation{{CustomerNumber: "AW00000007", Country: "United States"}},
		Categories: []warehouse.RawProductCategory{{CategoryID: "CO_RF", Category: "Components"}},
	}
}

func sampleGold() *warehouse.StarSchema {
	return &warehouse.StarSchema{
		Customers: []warehouse.DimCustomer{
			{CustomerKey: 1, CustomerID: 7, CustomerNumber: "AW00000007", FirstName: "Jon",
				Country: "United States", MaritalStatus: "Married", Gender: "Male",
				Birthdate: datePtr(1971, time.October, 6)},
		},
		Products: []warehouse.DimProduct{
			{ProductKey: 1, ProductID: 1, ProductNumber: "FR-R92B-58", ProductName: "HL Road Frame",
				CategoryID: "CO_RF", Category: strPtr("Components"),
				Cost: decimal.NewFromInt(1263), ProductLine: "Road",
				StartDate: datePtr(2011, time.July, 1)},
		},
		Sales: []warehouse.FactSale{
			{OrderNumber: "SO43697", ProductKey: intPtr(1), CustomerKey: intPtr(1),
				OrderDate: datePtr(2024, time.January, 5), SalesAmount: dec(30),
				Quantity: i64(3), UnitPrice: dec(10)},
			{OrderNumber: "SO-ORPHAN"}, // nil keys round-trip as NULL
		},
	}
}

func TestSilverRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	set := sampleSilver()

	require.NoError(t, s.ReplaceSilver(ctx, set))

	customers, err := s.SilverCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, set.Customers, customers)

	products, err := s.SilverProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Cost.Equal(decimal.NewFromInt(1263)))
	assert.Nil(t, products[0].EndDate)

	sales, err := s.SilverSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.True(t, sales[0].SalesAmount.Equal(decimal.NewFromInt(30)))
	assert.Nil(t, sales[0].ShipDate)
}

func TestGoldRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceGold(ctx, sampleGold()))

	customers, err := s.GoldCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, 1, customers[0].CustomerKey)
	require.NotNil(t, customers[0].Birthdate)

	products, err := s.GoldProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Category)
	assert.Equal(t, "Components", *products[0].Category)
	assert.Nil(t, products[0].Subcategory)

	sales, err := s.GoldSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	require.NotNil(t, sales[0].ProductKey)
	assert.Equal(t, 1, *sales[0].ProductKey)
	assert.Nil(t, sales[1].ProductKey, "orphan keys stay NULL")
	assert.Nil(t, sales[1].CustomerKey)
}

func TestReplace_IsFullRefresh(t *testing.T) {
	// A second replace discards the first run's rows entirely.

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceSilver(ctx, sampleSilver()))

	second := sampleSilver()
	second.Customers[0].CustomerID = 99
	require.NoError(t, s.ReplaceSilver(ctx, second))

	customers, err := s.SilverCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, 99, customers[0].CustomerID)
}

func TestReportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestReport(ctx)
	assert.ErrorIs(t, err, warehouse.ErrNoRun)

	report := &validate.Report{
		RunID:     "run-1",
		StartedAt: time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC),
		Results: []validate.CheckResult{
			{Name: "unique_customer_id", Kind: validate.KindUniqueness, Table: "silver.crm_cust_info"},
		},
	}
	require.NoError(t, s.SaveReport(ctx, report))

	got, err := s.LatestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, got.Passed())
}
