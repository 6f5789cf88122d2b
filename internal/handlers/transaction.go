package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
)

const transactionsRoot = "/transactions"

var directions = []string{"In", "Out"}

type TransactionHandler struct {
	base
	transactions *services.TransactionService
	inventory    *services.InventoryService
	hostnames    *services.HostnameService
}

func NewTransactionHandler(views Renderer, sessions *session.Manager, transactions *services.TransactionService, inventory *services.InventoryService, hostnames *services.HostnameService) *TransactionHandler {
	return &TransactionHandler{
		base:         base{views: views, sessions: sessions},
		transactions: transactions,
		inventory:    inventory,
		hostnames:    hostnames,
	}
}

// List renders every transaction, retired barcodes highlighted.
// GET|POST /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	h.remember(c, session.PageTransactions)

	sort := sortBy(c)
	rows, err := h.transactions.List(c.Request.Context(), sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	view, err := h.table(c, rows, sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageTable, view)
}

// Search renders the transactions matching one column.
// GET|POST /transactions/search/:category/:criteria
func (h *TransactionHandler) Search(c *gin.Context) {
	h.remember(c, session.PageTransactions)

	category, criteria, sort := c.Param("category"), c.Param("criteria"), sortBy(c)
	rows, err := h.transactions.Search(c.Request.Context(), category, criteria, sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(rows) == 0 {
		noResults(c, session.PageTransactions)
		return
	}

	view, err := h.table(c, rows, sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	view.Searched = true
	view.SearchLabel = searchLabel(services.TransactionsTable, category)
	view.Criteria = criteria
	view.BackHref = transactionsRoot
	h.views.Render(c, http.StatusOK, PageTable, view)
}

func (h *TransactionHandler) table(c *gin.Context, transactions []models.Transaction, sort string) (*TableView, error) {
	retired, err := h.inventory.Retired(c.Request.Context())
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		id := strconv.FormatInt(t.TransactionID, 10)
		barcode := strconv.FormatInt(t.Barcode, 10)
		rows = append(rows, Row{
			Cells: []string{
				id,
				barcode,
				t.InOut,
				services.Deref(t.Username),
				t.AssignedTo,
				services.Deref(t.Hostname),
				services.DateString(&t.Date),
			},
			Links: []Link{
				{Label: "Item", Href: searchPath(inventoryRoot, "barcode", barcode)},
				{Label: "Quick Add", Href: transactionsRoot + "/add-record?quick_add=" + id},
				{Label: "Edit", Href: transactionsRoot + "/edit-record/" + id},
				{Label: "Remove", Href: transactionsRoot + "/remove-record/" + id},
			},
			Marked: retired[t.Barcode],
		})
	}
	return &TableView{
		PageData:    h.page(c, "Transactions", navTransactions),
		Heading:     "Transactions",
		Action:      c.Request.URL.EscapedPath(),
		Columns:     columnLabels(services.TransactionsTable),
		Rows:        rows,
		SortOptions: services.TransactionsTable.SortOptions(sort),
		AddHref:     transactionsRoot + "/add-record",
		SearchHref:  transactionsRoot + "/search",
		MarkedNote:  "Highlighted barcodes belong to retired or removed devices.",
	}, nil
}

// AddForm renders the new transaction form. With ?quick_add=<id> the form is
// prefilled from that transaction, leaving the date blank.
// GET /transactions/add-record
func (h *TransactionHandler) AddForm(c *gin.Context) {
	ctx := c.Request.Context()
	var form services.TransactionForm
	if id := c.Query("quick_add"); id != "" {
		t, err := h.transactions.Get(ctx, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		form = services.Prefill(t)
	}
	names, err := h.hostnames.Names(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.views.Render(c, http.StatusOK, PageForm, &FormView{
		PageData:   h.page(c, "Add Transaction", navTransactions),
		Heading:    "Add Transaction",
		Action:     transactionsRoot + "/add-record",
		Fields:     transactionFields(&form),
		Datalist:   names,
		CancelHref: session.FromContext(c).LastPage(session.PageTransactions),
		Submit:     "Add",
	})
}

// Add records a new transaction.
// POST /transactions/add-record
func (h *TransactionHandler) Add(c *gin.Context) {
	var form services.TransactionForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errInvalidForm)
		return
	}
	if _, err := h.transactions.Add(c.Request.Context(), actor(c), form.Input()); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageTransactions)
}

// EditForm renders a transaction for editing and flags a retired device.
// GET /transactions/edit-record/:transactionid
func (h *TransactionHandler) EditForm(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.transactions.Get(ctx, c.Param("transactionid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	retired, err := h.inventory.IsRetired(ctx, t.Barcode)
	if err != nil {
		h.fail(c, err)
		return
	}
	names, err := h.hostnames.Names(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	form := services.Prefill(t)
	form.Date = services.DateString(&t.Date)
	id := strconv.FormatInt(t.TransactionID, 10)
	view := &FormView{
		PageData:   h.page(c, "Edit Transaction", navTransactions),
		Heading:    "Edit Transaction " + id,
		Action:     transactionsRoot + "/edit-record/" + id,
		Fields:     transactionFields(&form),
		Datalist:   names,
		CancelHref: session.FromContext(c).LastPage(session.PageTransactions),
		Submit:     "Save",
	}
	if retired {
		view.Note = "This device is retired."
	}
	h.views.Render(c, http.StatusOK, PageForm, view)
}

// Edit applies a transaction edit. An unchanged submission writes nothing.
// POST /transactions/edit-record/:transactionid
func (h *TransactionHandler) Edit(c *gin.Context) {
	var form services.TransactionForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errInvalidForm)
		return
	}
	if _, err := h.transactions.Edit(c.Request.Context(), actor(c), c.Param("transactionid"), form.Input()); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageTransactions)
}

// RemoveForm asks for confirmation before removing a transaction.
// GET /transactions/remove-record/:transactionid
func (h *TransactionHandler) RemoveForm(c *gin.Context) {
	t, err := h.transactions.Get(c.Request.Context(), c.Param("transactionid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	id := strconv.FormatInt(t.TransactionID, 10)
	h.views.Render(c, http.StatusOK, PageConfirm, &ConfirmView{
		PageData: h.page(c, "Remove Transaction", navTransactions),
		Message:  "Remove transaction " + id + " for barcode " + strconv.FormatInt(t.Barcode, 10) + "?",
		Action:   transactionsRoot + "/remove-record/" + id,
	})
}

// Remove deletes a transaction unless the confirmation was cancelled.
// POST /transactions/remove-record/:transactionid
func (h *TransactionHandler) Remove(c *gin.Context) {
	if cancelled(c) {
		h.back(c, session.PageTransactions)
		return
	}
	if err := h.transactions.Remove(c.Request.Context(), actor(c), c.Param("transactionid")); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageTransactions)
}

// GET /transactions/search
func (h *TransactionHandler) SearchForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageSearch, &SearchView{
		PageData:   h.page(c, "Search Transactions", navTransactions),
		Heading:    "Search Transactions",
		Action:     transactionsRoot + "/search",
		Columns:    services.TransactionsTable.SearchColumns(),
		CancelHref: session.FromContext(c).LastPage(session.PageTransactions),
	})
}

// POST /transactions/search
func (h *TransactionHandler) SearchSubmit(c *gin.Context) {
	submitSearch(c, transactionsRoot)
}

func transactionFields(f *services.TransactionForm) []Field {
	inout := directions
	if f.InOut == directions[1] {
		inout = []string{directions[1], directions[0]}
	}
	return []Field{
		{Name: "barcode", Label: "Barcode", Type: FieldNumber, Value: f.Barcode, Required: true},
		{Name: "inout", Label: "In/Out", Type: FieldSelect, Value: f.InOut, Options: inout, Required: true},
		{Name: "username", Label: "Username", Type: FieldText, Value: f.Username, MaxLength: 255},
		{Name: "assignedto", Label: "Assigned To", Type: FieldText, Value: f.AssignedTo, Required: true, MaxLength: 255},
		{Name: "hostname", Label: "Hostname", Type: FieldText, Value: f.Hostname, List: "hostnames", MaxLength: 255},
		{Name: "date", Label: "Date", Type: FieldDate, Value: f.Date, Required: true},
	}
}
