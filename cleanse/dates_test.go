package cleanse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afmzln/dwh-sql-project/cleanse"
)

func TestParseNumericDate_ValidEncoding(t *testing.T) {
	got := cleanse.ParseNumericDate(20231215)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC), *got)
}

func TestParseNumericDate_FailsClosed(t *testing.T) {
	// Zero sentinel, wrong digit count, negatives, and 8-digit values
	// that are not calendar dates all degrade to nil.
	assert.Nil(t, cleanse.ParseNumericDate(0))
	assert.Nil(t, cleanse.ParseNumericDate(2023121))   // 7 digits
	assert.Nil(t, cleanse.ParseNumericDate(202312155)) // 9 digits
	assert.Nil(t, cleanse.ParseNumericDate(-20231215))
	assert.Nil(t, cleanse.ParseNumericDate(20231345)) // month 13
	assert.Nil(t, cleanse.ParseNumericDate(20230230)) // Feb 30
}

func TestNullFutureDate(t *testing.T) {
	now := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)
	past := time.Date(1985, time.June, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, &past, cleanse.NullFutureDate(&past, now))
	assert.Nil(t, cleanse.NullFutureDate(&future, now))
	assert.Nil(t, cleanse.NullFutureDate(nil, now))
}
