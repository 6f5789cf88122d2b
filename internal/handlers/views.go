package handlers

import (
	"net/url"

	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
)

// Navigation sections, used to highlight the active nav link.
const (
	navInventory    = "inventory"
	navTransactions = "transactions"
	navHostnames    = "hostnames"
	navAdmin        = "admin_tools"
)

// PageData is the base data passed to all templates.
type PageData struct {
	Title     string
	Active    string
	ViewStyle session.ViewStyle
	Username  string
	LoggedIn  bool
	IsAdmin   bool
}

type Link struct {
	Label string
	Href  string
}

// Row is one rendered table row. Marked rows are highlighted, e.g. retired
// devices.
type Row struct {
	Cells  []string
	Links  []Link
	Marked bool
}

type TableView struct {
	PageData
	Heading     string
	Action      string
	Columns     []string
	Rows        []Row
	SortOptions []string
	Searched    bool
	SearchLabel string
	Criteria    string
	AddHref     string
	SearchHref  string
	BackHref    string
	MarkedNote  string

	// Hostnames only.
	ShowActiveFilter bool
	ActiveOnly       bool
}

// Field input types.
const (
	FieldText     = "text"
	FieldNumber   = "number"
	FieldDate     = "date"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
)

type Field struct {
	Name      string
	Label     string
	Type      string
	Value     string
	Options   []string
	Required  bool
	MaxLength int
	Checked   bool
	List      string
}

type FormView struct {
	PageData
	Heading    string
	Action     string
	Fields     []Field
	Note       string
	CancelHref string
	Datalist   []string
	Submit     string
}

type SearchView struct {
	PageData
	Heading    string
	Action     string
	Columns    []services.Column
	CancelHref string
}

type ConfirmView struct {
	PageData
	Message string
	Action  string
}

type ErrorView struct {
	PageData
	Message string
	Back    string
}

type LoginView struct {
	PageData
	Invalid bool
}

type AdminView struct {
	PageData
}

type DropdownView struct {
	PageData
	Rows []DropdownRow
}

// DropdownRow pairs one slot of each list; empty cells render blank.
type DropdownRow struct {
	DeviceType       Link
	DeviceDepartment Link
}

func dropdownRows(pairs []models.DropdownPair) []DropdownRow {
	rows := make([]DropdownRow, 0, len(pairs))
	for i := range pairs {
		rows = append(rows, DropdownRow{
			DeviceType:       optionLink(services.DeviceType, pairs[i].DeviceType),
			DeviceDepartment: optionLink(services.DeviceDepartment, pairs[i].DeviceDepartment),
		})
	}
	return rows
}

func optionLink(list services.DropdownList, value *string) Link {
	if value == nil {
		return Link{}
	}
	return Link{
		Label: *value,
		Href:  dropdownsRoot + "/remove/" + string(list) + "/" + url.PathEscape(*value),
	}
}

func columnLabels(t *services.Table) []string {
	labels := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		labels = append(labels, c.Label)
	}
	return labels
}
