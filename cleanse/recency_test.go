package cleanse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afmzln/dwh-sql-project/cleanse"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(v int) *int { return &v }

func rawCustomer(id int, created *time.Time, gender string) warehouse.RawCustomer {
	return warehouse.RawCustomer{
		CustomerID: intPtr(id),
		Gender:     gender,
		CreatedAt:  created,
	}
}

func TestLatestPerCustomer_MostRecentWins(t *testing.T) {
	// GIVEN: two revisions of customer 7
	// THEN:  the 2024 revision survives

	rows := []warehouse.RawCustomer{
		rawCustomer(7, datePtr(2023, time.January, 1), "f"),
		rawCustomer(7, datePtr(2024, time.January, 1), "M"),
	}

	out := cleanse.LatestPerCustomer(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "M", out[0].Gender)
	assert.Equal(t, *datePtr(2024, time.January, 1), *out[0].CreatedAt)
}

func TestLatestPerCustomer_NullIDDiscarded(t *testing.T) {
	rows := []warehouse.RawCustomer{
		{CustomerID: nil, Gender: "F"},
		rawCustomer(1, datePtr(2024, time.March, 1), "M"),
	}

	out := cleanse.LatestPerCustomer(rows)
	require.Len(t, out, 1)
	assert.Equal(t, 1, *out[0].CustomerID)
}

func TestLatestPerCustomer_TieKeepsInputOrder(t *testing.T) {
	// Equal created_at: the earliest-ingested row wins (documented
	// stable-order tie-break).

	rows := []warehouse.RawCustomer{
		rawCustomer(5, datePtr(2024, time.May, 5), "first"),
		rawCustomer(5, datePtr(2024, time.May, 5), "second"),
	}

	out := cleanse.LatestPerCustomer(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Gender)
}

func TestLatestPerCustomer_NilCreatedRanksLast(t *testing.T) {
	rows := []warehouse.RawCustomer{
		rawCustomer(9, nil, "undated"),
		rawCustomer(9, datePtr(2020, time.January, 1), "dated"),
	}

	out := cleanse.LatestPerCustomer(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "dated", out[0].Gender)
}

func TestLatestPerCustomer_OutputFollowsFirstAppearance(t *testing.T) {
	rows := []warehouse.RawCustomer{
		rawCustomer(3, datePtr(2024, time.January, 1), ""),
		rawCustomer(1, datePtr(2024, time.January, 1), ""),
		rawCustomer(3, datePtr(2025, time.January, 1), ""),
		rawCustomer(2, datePtr(2024, time.January, 1), ""),
	}

	out := cleanse.LatestPerCustomer(rows)
	require.Len(t, out, 3)
	assert.Equal(t, 3, *out[0].CustomerID)
	assert.Equal(t, 1, *out[1].CustomerID)
	assert.Equal(t, 2, *out[2].CustomerID)
}
