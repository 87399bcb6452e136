/*
keys.go - Natural-key decomposition and alignment

PURPOSE:
  Two unrelated key fixes live here:

  1. Composite product keys decompose by fixed position: characters 1-5
     form the category token (hyphens become underscores to match the ERP
     category table's id format), character 7 onward is the bare product
     code. The rule is positional, not delimiter-based - a 9-char key
     "RM-100-42" yields category "RM_10" and code "0-42".

  2. ERP customer keys are aligned to the CRM customer number: location
     keys drop their hyphens, demographic keys drop a legacy "NAS" prefix.

MALFORMED KEYS:
  A product key shorter than 7 characters cannot be decomposed. The
  pipeline decides (per configured policy) whether such rows are dropped
  or kept degenerate; this file only reports the condition.
*/
package cleanse

import (
	"fmt"
	"strings"

	"github.com/afmzln/dwh-sql-project/warehouse"
)

// minProductKeyLen is the shortest composite key the fixed-position
// decomposition can handle: 5 category chars, a separator, and at least
// one code char.
const minProductKeyLen = 7

// DecomposeProductKey splits a composite product key into its category id
// and bare product code. Returns warehouse.ErrMalformedProductKey when
// the key is too short for the fixed-position rule.
func DecomposeProductKey(key string) (categoryID, productCode string, err error) {
	if len(key) < minProductKeyLen {
		return "", "", fmt.Errorf("%w: %q is shorter than %d chars",
			warehouse.ErrMalformedProductKey, key, minProductKeyLen)
	}
	categoryID = strings.ReplaceAll(key[:5], "-", "_")
	productCode = key[6:]
	return categoryID, productCode, nil
}

// NormalizeLocationKey aligns an ERP location key with the CRM customer
// number by stripping hyphens entirely (AW-00011000 -> AW00011000).
func NormalizeLocationKey(cid string) string {
	return strings.ReplaceAll(strings.TrimSpace(cid), "-", "")
}

// NormalizeDemoKey aligns an ERP demographic key with the CRM customer
// number by stripping the legacy NAS prefix (NASAW00011000 -> AW00011000).
func NormalizeDemoKey(cid string) string {
	trimmed := strings.TrimSpace(cid)
	if strings.HasPrefix(trimmed, "NAS") {
		return trimmed[3:]
	}
	return trimmed
}
