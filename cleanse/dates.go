/*
dates.go - Source date decoding

PURPOSE:
  The CRM encodes sales dates as 8-digit YYYYMMDD integers, with zero as
  the "no date" sentinel and occasional truncated garbage. Parsing fails
  closed: an invalid encoding yields nil, never an error, so one bad
  field never voids an otherwise-good row.
*/
package cleanse

import (
	"strconv"
	"time"
)

// Accepted calendar bounds for warehouse dates. Used by the validator's
// range checks; parsing itself does not clamp.
var (
	MinWarehouseDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxWarehouseDate = time.Date(2050, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// ParseNumericDate converts an 8-digit YYYYMMDD integer to a calendar
// date. Valid iff the decimal-digit length is exactly 8 and the value is
// non-zero; anything else - including real 8-digit values that are not a
// calendar date - yields nil.
func ParseNumericDate(n int) *time.Time {
	if n < 10000000 || n > 99999999 {
		return nil
	}
	t, err := time.ParseInLocation("20060102", strconv.Itoa(n), time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// NullFutureDate nils a date lying after now. Used for demographic
// birthdates, where a future value is always an entry error.
func NullFutureDate(d *time.Time, now time.Time) *time.Time {
	if d != nil && d.After(now) {
		return nil
	}
	return d
}
