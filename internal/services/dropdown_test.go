package services

import (
	"context"
	"testing"

	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func (e *testEngine) dropdownRows(t *testing.T) []models.DropdownPair {
	t.Helper()
	var rows []models.DropdownPair
	require.NoError(t, e.db.Order("id").Find(&rows).Error)
	return rows
}

func TestDropdownAdd_FillsEmptySlotFirst(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.db.Create(&models.DropdownPair{DeviceDepartment: strPtr("HR")}).Error)

	require.NoError(t, e.dropdowns.Add(ctx, DeviceType, "Laptop"))

	rows := e.dropdownRows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "Laptop", Deref(rows[0].DeviceType))
	assert.Equal(t, "HR", Deref(rows[0].DeviceDepartment))

	require.NoError(t, e.dropdowns.Add(ctx, DeviceType, "Desktop"))
	rows = e.dropdownRows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, "Desktop", Deref(rows[1].DeviceType))
	assert.Nil(t, rows[1].DeviceDepartment)

	require.NoError(t, e.dropdowns.Add(ctx, DeviceDepartment, "IT"))
	rows = e.dropdownRows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, "IT", Deref(rows[1].DeviceDepartment))
}

func TestDropdownAdd_Duplicate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.dropdowns.Add(ctx, DeviceType, "Laptop"))
	err := e.dropdowns.Add(ctx, DeviceType, "Laptop")
	requireCode(t, err, ErrOption, response.CodeOptionDuplicate)

	// The same value may live in the other list.
	require.NoError(t, e.dropdowns.Add(ctx, DeviceDepartment, "Laptop"))

	err = e.dropdowns.Add(ctx, DeviceType, "   ")
	requireCode(t, err, ErrValidation, response.NoCode)
}

func TestDropdownRemove_DeletesEmptyRow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.db.Create(&models.DropdownPair{DeviceType: strPtr("Laptop")}).Error)
	require.NoError(t, e.db.Create(&models.DropdownPair{DeviceType: strPtr("Desktop"), DeviceDepartment: strPtr("HR")}).Error)

	require.NoError(t, e.dropdowns.Remove(ctx, DeviceType, "Laptop"))
	rows := e.dropdownRows(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "Desktop", Deref(rows[0].DeviceType))

	require.NoError(t, e.dropdowns.Remove(ctx, DeviceType, "Desktop"))
	rows = e.dropdownRows(t)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].DeviceType)
	assert.Equal(t, "HR", Deref(rows[0].DeviceDepartment))

	err := e.dropdowns.Remove(ctx, DeviceType, "Desktop")
	requireCode(t, err, ErrOption, response.CodeOptionNotFound)
}

func TestDropdownRemove_TrimsLikeAdd(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.dropdowns.Add(ctx, DeviceType, " Laptop "))
	require.NoError(t, e.dropdowns.Has(ctx, DeviceType, "Laptop "))
	require.NoError(t, e.dropdowns.Remove(ctx, DeviceType, "Laptop "))
	assert.Empty(t, e.dropdownRows(t))
}

func TestDropdownsAreNotAudited(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.dropdowns.Add(ctx, DeviceType, "Laptop"))
	require.NoError(t, e.dropdowns.Remove(ctx, DeviceType, "Laptop"))
	assert.Equal(t, int64(0), e.logCount(t))
}

func TestDropdownOptions(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, v := range []string{"Monitor", "Desktop", "Laptop"} {
		require.NoError(t, e.dropdowns.Add(ctx, DeviceType, v))
	}
	require.NoError(t, e.dropdowns.Add(ctx, DeviceDepartment, "IT"))

	opts, err := e.dropdowns.Options(ctx, DeviceType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Desktop", "Laptop", "Monitor"}, opts)

	opts, err = e.dropdowns.OptionsWithCurrent(ctx, DeviceType, "Monitor")
	require.NoError(t, err)
	assert.Equal(t, []string{"Monitor", "Desktop", "Laptop"}, opts)

	opts, err = e.dropdowns.OptionsWithCurrent(ctx, DeviceType, "Tablet")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tablet", "Desktop", "Laptop", "Monitor"}, opts)

	opts, err = e.dropdowns.Options(ctx, DeviceDepartment)
	require.NoError(t, err)
	assert.Equal(t, []string{"IT"}, opts)
}

func TestDropdownTable_ShorterListSorted(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, v := range []string{"Monitor", "Desktop", "Laptop"} {
		require.NoError(t, e.dropdowns.Add(ctx, DeviceType, v))
	}
	require.NoError(t, e.dropdowns.Add(ctx, DeviceDepartment, "IT"))
	require.NoError(t, e.dropdowns.Remove(ctx, DeviceType, "Monitor"))
	require.NoError(t, e.dropdowns.Add(ctx, DeviceDepartment, "HR"))
	require.NoError(t, e.dropdowns.Add(ctx, DeviceDepartment, "Admin"))
	require.NoError(t, e.dropdowns.Add(ctx, DeviceDepartment, "Sales"))

	rows, err := e.dropdowns.Table(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var types []string
	for _, r := range rows {
		types = append(types, Deref(r.DeviceType))
	}
	assert.Equal(t, []string{"Desktop", "Laptop", "", ""}, types)
}

func TestDropdownHas(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.dropdowns.Add(ctx, DeviceType, "Laptop"))
	require.NoError(t, e.dropdowns.Has(ctx, DeviceType, "Laptop"))

	requireCode(t, e.dropdowns.Has(ctx, DeviceDepartment, "Laptop"), ErrOption, response.CodeOptionNotFound)
	long := "0123456789012345678901234567890123456789"
	requireCode(t, e.dropdowns.Has(ctx, DeviceType, long), ErrOption, response.CodeOptionNotFound)
}

func TestParseDropdownList(t *testing.T) {
	l, ok := ParseDropdownList("devicetype")
	assert.True(t, ok)
	assert.Equal(t, DeviceType, l)

	_, ok = ParseDropdownList("devicetype; DROP TABLE dropdowns")
	assert.False(t, ok)
}
