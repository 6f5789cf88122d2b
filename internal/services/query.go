package services

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dateLayout is the form and display format of calendar dates.
const dateLayout = "2006-01-02"

// Layout fragments for each component a partial date or timestamp may
// carry, in order. Single-letter verbs accept one or two digits.
var timeLayoutParts = []string{"2006", "-1", "-2", " 15", ":4", ":5"}

// ParseTimeCriteria turns partial date/timestamp input into the half-open
// range [start, end) it denotes: "2024" is the whole year, "2024-03" the
// month, "2024-03-05 10" the hour. Components may be separated by '-', ' '
// or ':', but the input is validated against the canonical separators of
// exactly the components supplied.
func ParseTimeCriteria(raw string, format Format) (start, end time.Time, err error) {
	raw = strings.TrimSpace(raw)
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '-' || r == ' ' || r == ':'
	})

	max := 3
	if format == FormatTimestamp {
		max = 6
	}
	if len(parts) == 0 || len(parts) > max {
		return time.Time{}, time.Time{}, errInvalidDate(raw)
	}

	layout := strings.Join(timeLayoutParts[:len(parts)], "")
	start, err = time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate(raw)
	}

	switch len(parts) {
	case 1:
		end = start.AddDate(1, 0, 0)
	case 2:
		end = start.AddDate(0, 1, 0)
	case 3:
		end = start.AddDate(0, 0, 1)
	case 4:
		end = start.Add(time.Hour)
	case 5:
		end = start.Add(time.Minute)
	default:
		end = start.Add(time.Second)
	}
	return start, end, nil
}

// BuildCriteria returns the bound filter expression for col matching raw.
// The column identifier is emitted quoted; raw only ever travels as a
// parameter.
func BuildCriteria(col Column, raw string) (clause.Expression, error) {
	ident := clause.Column{Name: col.Key}

	switch col.Format {
	case FormatInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return nil, noResults("%s must be a whole number", col.Label)
		}
		return clause.Eq{Column: ident, Value: n}, nil

	case FormatStr:
		return clause.Expr{
			SQL:  "LOWER(?) LIKE ?",
			Vars: []interface{}{ident, "%" + strings.ToLower(raw) + "%"},
		}, nil

	case FormatDate:
		start, end, err := ParseTimeCriteria(raw, FormatDate)
		if err != nil {
			return nil, err
		}
		// Dates bind as plain strings so every dialect compares them as
		// calendar days regardless of session time zone.
		return rangeExpr(ident, start.Format(dateLayout), end.Format(dateLayout)), nil

	case FormatTimestamp:
		start, end, err := ParseTimeCriteria(raw, FormatTimestamp)
		if err != nil {
			return nil, err
		}
		return rangeExpr(ident, start.UTC(), end.UTC()), nil
	}

	return nil, noResults("column %s is not searchable", col.Key)
}

func rangeExpr(ident clause.Column, start, end interface{}) clause.Expression {
	return clause.Expr{
		SQL:  "? >= ? AND ? < ?",
		Vars: []interface{}{ident, start, ident, end},
	}
}

// OrderBy applies the resolved sort column and the table's tie-break.
func OrderBy(table *Table, sortBy string) func(*gorm.DB) *gorm.DB {
	col := table.SortColumn(sortBy)
	return func(db *gorm.DB) *gorm.DB {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col.Key}})
		if table.TieBreak != "" && table.TieBreak != col.Key {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: table.TieBreak}})
		}
		return db
	}
}

// Where wraps a built expression as a gorm scope.
func Where(expr clause.Expression) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(expr)
	}
}
