package services

import (
	"context"

	"gorm.io/gorm"
)

// listRecords loads every row of table in sort order.
func listRecords[T any](ctx context.Context, db *gorm.DB, table *Table, sortBy string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var rows []T
	q := db.WithContext(ctx).Table(table.Name).Scopes(scopes...).Scopes(OrderBy(table, sortBy))
	if err := q.Find(&rows).Error; err != nil {
		return nil, storeError("list "+table.Name, err)
	}
	return rows, nil
}

// searchRecords filters table by one column. An empty result is not an
// error here; callers decide how to present it.
func searchRecords[T any](ctx context.Context, db *gorm.DB, table *Table, category, criteria, sortBy string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	col, ok := table.SearchColumn(category)
	if !ok {
		return nil, noResults("unknown search category %q", category)
	}
	expr, err := BuildCriteria(col, criteria)
	if err != nil {
		return nil, err
	}
	return listRecords[T](ctx, db, table, sortBy, append(scopes, Where(expr))...)
}

// exists reports whether any row of model matches query.
func exists(tx *gorm.DB, model interface{}, query interface{}, args ...interface{}) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
