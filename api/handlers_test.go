/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Gold/silver collection endpoints
- Validation report retrieval (404 before the first run)
- Run trigger responses
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afmzln/dwh-sql-project/store/sqlite"
	"github.com/afmzln/dwh-sql-project/validate"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

func newTestServer(t *testing.T, run RunFunc) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	router := NewRouter(NewHandler(store, run, nil), []string{"*"})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func seedGold(t *testing.T, store *sqlite.Store) {
	t.Helper()
	birth := time.Date(1971, time.October, 6, 0, 0, 0, 0, time.UTC)
	start := time.Date(2011, time.July, 1, 0, 0, 0, 0, time.UTC)
	pk, ck := 1, 1
	amount := decimal.NewFromInt(30)

	schema := &warehouse.StarSchema{
		Customers: []warehouse.DimCustomer{
			{CustomerKey: 1, CustomerID: 7, CustomerNumber: "AW00000007", FirstName: "Jon",
				LastName: "Yang", Country: "United States", MaritalStatus: "Married",
				Gender: "Male", Birthdate: &birth},
		},
		Products: []warehouse.DimProduct{
			{ProductKey: 1, ProductID: 1, ProductNumber: "FR-R92B-58",
				ProductName: "HL Road Frame", CategoryID: "CO_RF",
				Cost: decimal.NewFromInt(1263), ProductLine: "Road", StartDate: &start},
		},
		Sales: []warehouse.FactSale{
			{OrderNumber: "SO43697", ProductKey: &pk, CustomerKey: &ck,
				SalesAmount: &amount},
		},
	}
	require.NoError(t, store.ReplaceGold(context.Background(), schema))
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestGetGoldCustomers(t *testing.T) {
	// GIVEN: a persisted customer dimension
	srv, store := newTestServer(t, nil)
	seedGold(t, store)

	// WHEN: reading the gold customers collection
	var got []DimCustomerDTO
	resp := getJSON(t, srv, "/api/gold/customers", &got)

	// THEN: rows come back with business field names and formatted dates
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].CustomerKey)
	assert.Equal(t, "AW00000007", got[0].CustomerNumber)
	require.NotNil(t, got[0].Birthdate)
	assert.Equal(t, "1971-10-06", *got[0].Birthdate)
}

func TestGetGoldSales_MoneyAsStrings(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seedGold(t, store)

	var got []FactSaleDTO
	resp := getJSON(t, srv, "/api/gold/sales", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].SalesAmount)
	assert.Equal(t, "30", *got[0].SalesAmount)
	require.NotNil(t, got[0].ProductKey)
	assert.Equal(t, 1, *got[0].ProductKey)
}

func TestGetGoldCollections_EmptyBeforeRun(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var got []DimProductDTO
	resp := getJSON(t, srv, "/api/gold/products", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, got)
}

func TestGetValidationReport_NotFoundBeforeRun(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var body ErrorResponse
	resp := getJSON(t, srv, "/api/validation/report", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no completed run", body.Error)
}

func TestGetValidationReport_ReturnsLatest(t *testing.T) {
	srv, store := newTestServer(t, nil)
	report := &validate.Report{
		RunID:     "run-1",
		StartedAt: time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC),
		Results: []validate.CheckResult{
			{Name: "unique_customer_id", Kind: validate.KindUniqueness, Table: "silver.crm_cust_info"},
		},
	}
	require.NoError(t, store.SaveReport(context.Background(), report))

	var got validate.Report
	resp := getJSON(t, srv, "/api/validation/report", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Results, 1)
}

func TestTriggerRun_Success(t *testing.T) {
	// GIVEN: a run function that reports one passing battery
	run := func(ctx context.Context) (*validate.Report, error) {
		return &validate.Report{
			RunID: "run-42",
			Results: []validate.CheckResult{
				{Name: "unique_customer_id", Kind: validate.KindUniqueness},
				{Name: "fact_references_resolve", Kind: validate.KindReferential,
					Violations: []validate.Violation{{RowKey: "SO1", Detail: "unresolved"}}},
			},
		}, nil
	}
	srv, _ := newTestServer(t, run)

	// WHEN: triggering a run
	resp, err := http.Post(srv.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	// THEN: the summary reflects the report
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var got RunResponseDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "run-42", got.RunID)
	assert.False(t, got.Passed)
	assert.Equal(t, 2, got.Checks)
	assert.Equal(t, 1, got.Violations)
}

func TestTriggerRun_Failure(t *testing.T) {
	run := func(ctx context.Context) (*validate.Report, error) {
		return nil, errors.New("source extract missing")
	}
	srv, _ := newTestServer(t, run)

	resp, err := http.Post(srv.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run failed", body.Error)
	assert.Contains(t, body.Details, "source extract missing")
}

func TestTriggerRun_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var got map[string]string
	resp := getJSON(t, srv, "/api/health", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", got["status"])
}
