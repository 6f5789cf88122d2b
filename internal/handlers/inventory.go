package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
)

const inventoryRoot = "/inventory"

type InventoryHandler struct {
	base
	inventory *services.InventoryService
	dropdowns *services.DropdownService
}

func NewInventoryHandler(views Renderer, sessions *session.Manager, inventory *services.InventoryService, dropdowns *services.DropdownService) *InventoryHandler {
	return &InventoryHandler{
		base:      base{views: views, sessions: sessions},
		inventory: inventory,
		dropdowns: dropdowns,
	}
}

// List renders the whole inventory table.
// GET|POST /inventory
func (h *InventoryHandler) List(c *gin.Context) {
	h.remember(c, session.PageInventory)

	sort := sortBy(c)
	items, err := h.inventory.List(c.Request.Context(), sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageTable, h.table(c, items, sort))
}

// Search renders the inventory rows matching one column.
// GET|POST /inventory/search/:category/:criteria
func (h *InventoryHandler) Search(c *gin.Context) {
	h.remember(c, session.PageInventory)

	category, criteria, sort := c.Param("category"), c.Param("criteria"), sortBy(c)
	items, err := h.inventory.Search(c.Request.Context(), category, criteria, sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(items) == 0 {
		noResults(c, session.PageInventory)
		return
	}

	view := h.table(c, items, sort)
	view.Searched = true
	view.SearchLabel = searchLabel(services.InventoryTable, category)
	view.Criteria = criteria
	view.BackHref = inventoryRoot
	h.views.Render(c, http.StatusOK, PageTable, view)
}

func (h *InventoryHandler) table(c *gin.Context, items []models.InventoryItem, sort string) *TableView {
	rows := make([]Row, 0, len(items))
	for i := range items {
		item := &items[i]
		barcode := strconv.FormatInt(item.Barcode, 10)
		rows = append(rows, Row{
			Cells: []string{
				barcode,
				services.Deref(item.Serial),
				item.Model,
				item.Category,
				item.Department,
				services.DateString(item.DatePurchased),
				services.DateString(item.DateRetired),
				services.Deref(item.LastHostname),
			},
			Links: []Link{
				{Label: "Edit", Href: inventoryRoot + "/edit-record/" + barcode},
				{Label: "Remove", Href: inventoryRoot + "/remove-record/" + barcode},
				{Label: "History", Href: searchPath(transactionsRoot, "barcode", barcode)},
			},
			Marked: item.DateRetired != nil,
		})
	}
	return &TableView{
		PageData:    h.page(c, "Inventory", navInventory),
		Heading:     "Inventory",
		Action:      c.Request.URL.EscapedPath(),
		Columns:     columnLabels(services.InventoryTable),
		Rows:        rows,
		SortOptions: services.InventoryTable.SortOptions(sort),
		AddHref:     inventoryRoot + "/add-record",
		SearchHref:  inventoryRoot + "/search",
		MarkedNote:  "Highlighted devices are retired.",
	}
}

// AddForm renders the new item form.
// GET /inventory/add-record
func (h *InventoryHandler) AddForm(c *gin.Context) {
	ctx := c.Request.Context()
	categories, err := h.dropdowns.Options(ctx, services.DeviceType)
	if err != nil {
		h.fail(c, err)
		return
	}
	departments, err := h.dropdowns.Options(ctx, services.DeviceDepartment)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.views.Render(c, http.StatusOK, PageForm, &FormView{
		PageData:   h.page(c, "Add Item", navInventory),
		Heading:    "Add Inventory Item",
		Action:     inventoryRoot + "/add-record",
		Fields:     inventoryFields(&services.InventoryForm{}, categories, departments),
		CancelHref: session.FromContext(c).LastPage(session.PageInventory),
		Submit:     "Add",
	})
}

// Add stores a new item.
// POST /inventory/add-record
func (h *InventoryHandler) Add(c *gin.Context) {
	var form services.InventoryForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errInvalidForm)
		return
	}
	if _, err := h.inventory.Add(c.Request.Context(), actor(c), form.Input()); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageInventory)
}

// EditForm renders an item for editing, its current category and department
// listed first.
// GET /inventory/edit-record/:barcode
func (h *InventoryHandler) EditForm(c *gin.Context) {
	ctx := c.Request.Context()
	item, err := h.inventory.Get(ctx, c.Param("barcode"))
	if err != nil {
		h.fail(c, err)
		return
	}
	categories, err := h.dropdowns.OptionsWithCurrent(ctx, services.DeviceType, item.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	departments, err := h.dropdowns.OptionsWithCurrent(ctx, services.DeviceDepartment, item.Department)
	if err != nil {
		h.fail(c, err)
		return
	}

	barcode := strconv.FormatInt(item.Barcode, 10)
	form := &services.InventoryForm{
		Barcode:       barcode,
		Serial:        services.Deref(item.Serial),
		Model:         item.Model,
		Category:      item.Category,
		Department:    item.Department,
		DatePurchased: services.DateString(item.DatePurchased),
		DateRetired:   services.DateString(item.DateRetired),
	}
	view := &FormView{
		PageData:   h.page(c, "Edit Item", navInventory),
		Heading:    "Edit Inventory Item " + barcode,
		Action:     inventoryRoot + "/edit-record/" + barcode,
		Fields:     inventoryFields(form, categories, departments),
		CancelHref: session.FromContext(c).LastPage(session.PageInventory),
		Submit:     "Save",
	}
	if item.LastHostname != nil {
		view.Note = "Last hostname: " + *item.LastHostname
	}
	h.views.Render(c, http.StatusOK, PageForm, view)
}

// Edit applies an item edit. An unchanged submission writes nothing.
// POST /inventory/edit-record/:barcode
func (h *InventoryHandler) Edit(c *gin.Context) {
	var form services.InventoryForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errInvalidForm)
		return
	}
	if _, err := h.inventory.Edit(c.Request.Context(), actor(c), c.Param("barcode"), form.Input()); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageInventory)
}

// RemoveForm asks for confirmation before removing an item.
// GET /inventory/remove-record/:barcode
func (h *InventoryHandler) RemoveForm(c *gin.Context) {
	item, err := h.inventory.Get(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.fail(c, err)
		return
	}
	barcode := strconv.FormatInt(item.Barcode, 10)
	h.views.Render(c, http.StatusOK, PageConfirm, &ConfirmView{
		PageData: h.page(c, "Remove Item", navInventory),
		Message:  "Remove item " + barcode + " (" + item.Model + ") from inventory? Its transactions are kept.",
		Action:   inventoryRoot + "/remove-record/" + barcode,
	})
}

// Remove deletes an item unless the confirmation was cancelled.
// POST /inventory/remove-record/:barcode
func (h *InventoryHandler) Remove(c *gin.Context) {
	if cancelled(c) {
		h.back(c, session.PageInventory)
		return
	}
	if err := h.inventory.Remove(c.Request.Context(), actor(c), c.Param("barcode")); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageInventory)
}

// SearchForm renders the column/criteria form.
// GET /inventory/search
func (h *InventoryHandler) SearchForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageSearch, &SearchView{
		PageData:   h.page(c, "Search Inventory", navInventory),
		Heading:    "Search Inventory",
		Action:     inventoryRoot + "/search",
		Columns:    services.InventoryTable.SearchColumns(),
		CancelHref: session.FromContext(c).LastPage(session.PageInventory),
	})
}

// SearchSubmit redirects to the results page.
// POST /inventory/search
func (h *InventoryHandler) SearchSubmit(c *gin.Context) {
	submitSearch(c, inventoryRoot)
}

func inventoryFields(f *services.InventoryForm, categories, departments []string) []Field {
	return []Field{
		{Name: "barcode", Label: "Barcode", Type: FieldNumber, Value: f.Barcode, Required: true},
		{Name: "serial", Label: "Serial", Type: FieldText, Value: f.Serial, MaxLength: 255},
		{Name: "model", Label: "Model", Type: FieldText, Value: f.Model, Required: true, MaxLength: 255},
		{Name: "category", Label: "Category", Type: FieldSelect, Value: f.Category, Options: categories, Required: true},
		{Name: "department", Label: "Department", Type: FieldSelect, Value: f.Department, Options: departments, Required: true},
		{Name: "date_purchased", Label: "Date Purchased", Type: FieldDate, Value: f.DatePurchased},
		{Name: "date_retired", Label: "Date Retired", Type: FieldDate, Value: f.DateRetired},
	}
}
