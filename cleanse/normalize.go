/*
normalize.go - Coded-value normalization tables

PURPOSE:
  The source systems encode categorical fields as one-letter codes or
  loosely-spelled tokens. Each normalizer here is a total function over
  the finite input domain: every input - including null, blank, and
  unrecognized codes - maps to a label, never to "unmapped".

RULES:
  - Surrounding whitespace is trimmed and comparison is case-folded
    before lookup.
  - Unrecognized codes collapse to the "n/a" label, except country,
    which passes the trimmed original through (a country name is data,
    not a code).

SEE ALSO:
  - pipeline.go: where these are applied per table
  - star/assembler.go: gender master/fallback precedence across systems
*/
package cleanse

import "strings"

// Canonical labels for the closed label sets.
const (
	LabelNA = "n/a"

	GenderFemale = "Female"
	GenderMale   = "Male"

	MaritalSingle  = "Single"
	MaritalMarried = "Married"

	LineMountain   = "Mountain"
	LineRoad       = "Road"
	LineOtherSales = "Other Sales"
	LineTouring    = "Touring"
)

func fold(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeGender maps a raw gender code to {Male, Female, n/a}.
func NormalizeGender(raw string) string {
	switch fold(raw) {
	case "F", "FEMALE":
		return GenderFemale
	case "M", "MALE":
		return GenderMale
	default:
		return LabelNA
	}
}

// NormalizeMaritalStatus maps a raw marital-status code to
// {Single, Married, n/a}.
func NormalizeMaritalStatus(raw string) string {
	switch fold(raw) {
	case "S":
		return MaritalSingle
	case "M":
		return MaritalMarried
	default:
		return LabelNA
	}
}

// NormalizeProductLine maps a raw product-line code to
// {Mountain, Road, Other Sales, Touring, n/a}.
func NormalizeProductLine(raw string) string {
	switch fold(raw) {
	case "M":
		return LineMountain
	case "R":
		return LineRoad
	case "S":
		return LineOtherSales
	case "T":
		return LineTouring
	default:
		return LabelNA
	}
}

// NormalizeCountry expands known country codes and defaults blanks to n/a.
// Unrecognized non-blank values pass through trimmed: they are already
// country names, not codes.
func NormalizeCountry(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToUpper(trimmed) {
	case "DE":
		return "Germany"
	case "US", "USA":
		return "United States"
	case "":
		return LabelNA
	default:
		return trimmed
	}
}

// ResolveGender applies the master/fallback precedence for the customer
// dimension: the CRM gender wins when present and meaningful, otherwise
// the ERP demographic gender, otherwise n/a. Both inputs are expected to
// be already-normalized labels; unnormalized input is tolerated.
func ResolveGender(crmGender, erpGender string) string {
	if g := NormalizeGender(crmGender); g != LabelNA {
		return g
	}
	return NormalizeGender(erpGender)
}
