package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/itinventory/inventory/pkg/response"
	"gorm.io/datatypes"
)

// Read-path bounds on identity keys taken from URLs.
const (
	maxNumericKeyLen = 5
	maxHostnameLen   = 19
	maxOptionLen     = 39
)

// parseNumericKey parses a barcode or transaction id from a form.
func parseNumericKey(raw string, code response.Code, what string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, validationError(code, "%s must be a whole number", what)
	}
	return n, nil
}

// lookupNumericKey is parseNumericKey for keys taken from a URL, which are
// also length-bounded before reaching the store.
func lookupNumericKey(raw string, code response.Code, what string) (int64, error) {
	if len(raw) > maxNumericKeyLen {
		return 0, notFoundError(code, "%s %q out of range", what, raw)
	}
	return parseNumericKey(raw, code, what)
}

func lookupHostname(raw string) (string, error) {
	if raw == "" || len(raw) > maxHostnameLen {
		return "", notFoundError(response.CodeHostnameNotFound, "hostname %q not found", raw)
	}
	return raw, nil
}

// parseDate parses a required yyyy-mm-dd form date.
func parseDate(raw, field string) (datatypes.Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return datatypes.Date{}, validationError(response.NoCode, "%s: invalid date %q", field, raw)
	}
	return datatypes.Date(t), nil
}

// parseOptionalDate parses an optional form date; absent stays nil.
func parseOptionalDate(v Optional[string], field string) (*datatypes.Date, error) {
	raw, ok := v.Get()
	if !ok {
		return nil, nil
	}
	d, err := parseDate(raw, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DateString renders a stored date for forms and tables.
func DateString(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return time.Time(*d).Format(dateLayout)
}

// Deref renders an optional text column.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// sameFields compares two rows field by field as rendered text.
func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
