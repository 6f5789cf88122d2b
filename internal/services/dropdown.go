package services

import (
	"context"
	"sort"
	"strings"

	"github.com/itinventory/inventory/internal/metrics"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DropdownList names one of the two option lists kept in the dropdowns table.
type DropdownList string

const (
	DeviceType       DropdownList = "devicetype"
	DeviceDepartment DropdownList = "devicedepartment"
)

// ParseDropdownList accepts only the two known list names.
func ParseDropdownList(raw string) (DropdownList, bool) {
	switch DropdownList(raw) {
	case DeviceType, DeviceDepartment:
		return DropdownList(raw), true
	}
	return "", false
}

func (l DropdownList) column() clause.Column { return clause.Column{Name: string(l)} }

func (l DropdownList) value(p *models.DropdownPair) *string {
	if l == DeviceType {
		return p.DeviceType
	}
	return p.DeviceDepartment
}

// DropdownForm is the admin add/remove option form.
type DropdownForm struct {
	List  string `form:"dropdown"`
	Value string `form:"option"`
}

type DropdownService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

func NewDropdownService(db *gorm.DB, m *metrics.Metrics) *DropdownService {
	return &DropdownService{db: db, metrics: m}
}

// Options returns the sorted values of list.
func (s *DropdownService) Options(ctx context.Context, list DropdownList) ([]string, error) {
	var values []string
	err := s.db.WithContext(ctx).Model(&models.DropdownPair{}).
		Where(clause.Expr{SQL: "? IS NOT NULL", Vars: []interface{}{list.column()}}).
		Order(clause.OrderByColumn{Column: list.column()}).
		Pluck(string(list), &values).Error
	if err != nil {
		return nil, storeError("list "+string(list)+" options", err)
	}
	return values, nil
}

// OptionsWithCurrent returns the options of list with current moved to the
// front, for edit forms. current is kept even if it was since removed.
func (s *DropdownService) OptionsWithCurrent(ctx context.Context, list DropdownList, current string) ([]string, error) {
	values, err := s.Options(ctx, list)
	if err != nil {
		return nil, err
	}
	out := []string{current}
	for _, v := range values {
		if v != current {
			out = append(out, v)
		}
	}
	return out, nil
}

// Table returns every row for the admin view, ordered by the shorter list so
// its empty slots sink to the bottom.
func (s *DropdownService) Table(ctx context.Context) ([]models.DropdownPair, error) {
	var rows []models.DropdownPair
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, storeError("list dropdowns", err)
	}

	var typeGaps, departmentGaps int
	for i := range rows {
		if rows[i].DeviceType == nil {
			typeGaps++
		}
		if rows[i].DeviceDepartment == nil {
			departmentGaps++
		}
	}

	var by DropdownList
	switch {
	case typeGaps > departmentGaps:
		by = DeviceType
	case departmentGaps > typeGaps:
		by = DeviceDepartment
	default:
		return rows, nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := by.value(&rows[i]), by.value(&rows[j])
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})
	return rows, nil
}

// Has reports whether value is in list, for confirmation views reached by URL.
func (s *DropdownService) Has(ctx context.Context, list DropdownList, value string) error {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxOptionLen {
		return optionError(response.CodeOptionNotFound, "option %q not found", value)
	}
	ok, err := exists(s.db.WithContext(ctx), &models.DropdownPair{}, clause.Eq{Column: list.column(), Value: value})
	if err != nil {
		return storeError("check option", err)
	}
	if !ok {
		return optionError(response.CodeOptionNotFound, "option %q not found in %s", value, list)
	}
	return nil
}

// Add places value into the first empty slot of list, or a new row.
func (s *DropdownService) Add(ctx context.Context, list DropdownList, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return validationError(response.NoCode, "option is required")
	}
	if len(value) > maxOptionLen {
		return validationError(response.NoCode, "option must be under %d characters", maxOptionLen+1)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx, &models.DropdownPair{}, clause.Eq{Column: list.column(), Value: value})
		if err != nil {
			return storeError("check option", err)
		}
		if taken {
			return optionError(response.CodeOptionDuplicate, "option %q already in %s", value, list)
		}

		var slot models.DropdownPair
		res := tx.Where(clause.Expr{SQL: "? IS NULL", Vars: []interface{}{list.column()}}).
			Order("id").Limit(1).Find(&slot)
		if res.Error != nil {
			return storeError("find empty slot", res.Error)
		}

		if res.RowsAffected > 0 {
			err = tx.Model(&models.DropdownPair{}).Where("id = ?", slot.ID).Update(string(list), value).Error
		} else {
			row := &models.DropdownPair{}
			if list == DeviceType {
				row.DeviceType = &value
			} else {
				row.DeviceDepartment = &value
			}
			err = tx.Create(row).Error
		}
		if err != nil {
			return storeError("add option", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMutation(models.DropdownPair{}.TableName(), models.ActionAdd)
	return nil
}

// Remove clears value from list and drops rows left with no value at all.
func (s *DropdownService) Remove(ctx context.Context, list DropdownList, value string) error {
	value = strings.TrimSpace(value)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match := clause.Eq{Column: list.column(), Value: value}
		found, err := exists(tx, &models.DropdownPair{}, match)
		if err != nil {
			return storeError("check option", err)
		}
		if !found {
			return optionError(response.CodeOptionNotFound, "option %q not found in %s", value, list)
		}

		if err := tx.Model(&models.DropdownPair{}).Where(match).Update(string(list), nil).Error; err != nil {
			return storeError("clear option", err)
		}
		err = tx.Where("devicetype IS NULL AND devicedepartment IS NULL").Delete(&models.DropdownPair{}).Error
		if err != nil {
			return storeError("delete empty rows", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordMutation(models.DropdownPair{}.TableName(), models.ActionRemove)
	return nil
}
