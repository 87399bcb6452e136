package cleanse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afmzln/dwh-sql-project/cleanse"
)

func TestNormalizeGender_ClosedLabelSet(t *testing.T) {
	cases := map[string]string{
		"F":        "Female",
		"f":        "Female",
		"FEMALE":   "Female",
		" female ": "Female",
		"M":        "Male",
		"MALE":     "Male",
		" m ":      "Male",
		"":         "n/a",
		"  ":       "n/a",
		"X":        "n/a",
		"unknown":  "n/a",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanse.NormalizeGender(in), "input %q", in)
	}
}

func TestNormalizeMaritalStatus_ClosedLabelSet(t *testing.T) {
	cases := map[string]string{
		"S":   "Single",
		" s ": "Single",
		"M":   "Married",
		"m":   "Married",
		"":    "n/a",
		"D":   "n/a",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanse.NormalizeMaritalStatus(in), "input %q", in)
	}
}

func TestNormalizeProductLine_ClosedLabelSet(t *testing.T) {
	cases := map[string]string{
		"M":  "Mountain",
		"R":  "Road",
		"S":  "Other Sales",
		"T":  "Touring",
		"t ": "Touring",
		"":   "n/a",
		"Q":  "n/a",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanse.NormalizeProductLine(in), "input %q", in)
	}
}

func TestNormalizeCountry_PassThroughNotDefaulted(t *testing.T) {
	// GIVEN: country codes, blanks, and already-spelled-out names
	// THEN: codes expand, blanks become n/a, names pass through trimmed

	assert.Equal(t, "Germany", cleanse.NormalizeCountry("DE"))
	assert.Equal(t, "Germany", cleanse.NormalizeCountry(" de "))
	assert.Equal(t, "United States", cleanse.NormalizeCountry("US"))
	assert.Equal(t, "United States", cleanse.NormalizeCountry("USA"))
	assert.Equal(t, "n/a", cleanse.NormalizeCountry(""))
	assert.Equal(t, "n/a", cleanse.NormalizeCountry("   "))
	assert.Equal(t, "Australia", cleanse.NormalizeCountry(" Australia "))
	assert.Equal(t, "France", cleanse.NormalizeCountry("France"))
}

func TestResolveGender_CRMWinsUnlessNA(t *testing.T) {
	// CRM gender is the master; ERP demographics are the fallback.
	assert.Equal(t, "Male", cleanse.ResolveGender("Male", "Female"))
	assert.Equal(t, "Female", cleanse.ResolveGender("n/a", "F"))
	assert.Equal(t, "Male", cleanse.ResolveGender("", "MALE"))
	assert.Equal(t, "n/a", cleanse.ResolveGender("", ""))
	assert.Equal(t, "n/a", cleanse.ResolveGender("n/a", "whatever"))
}
