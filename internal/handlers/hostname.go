package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
)

const hostnamesRoot = "/hostnames"

type HostnameHandler struct {
	base
	hostnames *services.HostnameService
}

func NewHostnameHandler(views Renderer, sessions *session.Manager, hostnames *services.HostnameService) *HostnameHandler {
	return &HostnameHandler{
		base:      base{views: views, sessions: sessions},
		hostnames: hostnames,
	}
}

// activeOnly reads the active-only filter from the table's filter form.
func activeOnly(c *gin.Context) bool {
	v := c.PostForm("active_only")
	if v == "" {
		v = c.Query("active_only")
	}
	return strings.EqualFold(v, "true")
}

// List renders the hostnames table.
// GET|POST /hostnames
func (h *HostnameHandler) List(c *gin.Context) {
	h.remember(c, session.PageHostnames)

	sort, only := sortBy(c), activeOnly(c)
	rows, err := h.hostnames.List(c.Request.Context(), sort, only)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageTable, h.table(c, rows, sort, only))
}

// Search renders the hostnames matching one column.
// GET|POST /hostnames/search/:category/:criteria
func (h *HostnameHandler) Search(c *gin.Context) {
	h.remember(c, session.PageHostnames)

	category, criteria := c.Param("category"), c.Param("criteria")
	sort, only := sortBy(c), activeOnly(c)
	rows, err := h.hostnames.Search(c.Request.Context(), category, criteria, sort, only)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(rows) == 0 {
		noResults(c, session.PageHostnames)
		return
	}

	view := h.table(c, rows, sort, only)
	view.Searched = true
	view.SearchLabel = searchLabel(services.HostnamesTable, category)
	view.Criteria = criteria
	view.BackHref = hostnamesRoot
	h.views.Render(c, http.StatusOK, PageTable, view)
}

func (h *HostnameHandler) table(c *gin.Context, hostnames []models.Hostname, sort string, only bool) *TableView {
	rows := make([]Row, 0, len(hostnames))
	for i := range hostnames {
		host := &hostnames[i]
		name := url.PathEscape(host.Hostname)
		rows = append(rows, Row{
			Cells: []string{host.Hostname, host.Description},
			Links: []Link{
				{Label: "Transactions", Href: searchPath(transactionsRoot, "hostname", host.Hostname)},
				{Label: "Edit", Href: hostnamesRoot + "/edit/" + name},
				{Label: "Remove", Href: hostnamesRoot + "/remove/" + name},
			},
			Marked: !host.Active,
		})
	}
	return &TableView{
		PageData:         h.page(c, "Hostnames", navHostnames),
		Heading:          "Hostnames",
		Action:           c.Request.URL.EscapedPath(),
		Columns:          columnLabels(services.HostnamesTable),
		Rows:             rows,
		SortOptions:      services.HostnamesTable.SortOptions(sort),
		AddHref:          hostnamesRoot + "/add",
		SearchHref:       hostnamesRoot + "/search",
		MarkedNote:       "Highlighted hostnames are inactive.",
		ShowActiveFilter: true,
		ActiveOnly:       only,
	}
}

// GET /hostnames/add
func (h *HostnameHandler) AddForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageForm, &FormView{
		PageData:   h.page(c, "Add Hostname", navHostnames),
		Heading:    "Add Hostname",
		Action:     hostnamesRoot + "/add",
		Fields:     hostnameFields(&models.Hostname{Active: true}),
		CancelHref: session.FromContext(c).LastPage(session.PageHostnames),
		Submit:     "Add",
	})
}

// POST /hostnames/add
func (h *HostnameHandler) Add(c *gin.Context) {
	var form services.HostnameForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errInvalidForm)
		return
	}
	if _, err := h.hostnames.Add(c.Request.Context(), actor(c), form.Input()); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageHostnames)
}

// EditForm renders a hostname for editing.
// GET /hostnames/edit/:hostname
func (h *HostnameHandler) EditForm(c *gin.Context) {
	host, err := h.hostnames.Get(c.Request.Context(), c.Param("hostname"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageForm, &FormView{
		PageData:   h.page(c, "Edit Hostname", navHostnames),
		Heading:    "Edit Hostname " + host.Hostname,
		Action:     hostnamesRoot + "/edit/" + url.PathEscape(host.Hostname),
		Fields:     hostnameFields(host),
		Note:       "Renaming a hostname updates every transaction that uses it.",
		CancelHref: session.FromContext(c).LastPage(session.PageHostnames),
		Submit:     "Save",
	})
}

// Edit applies a hostname edit; a rename cascades to transactions.
// POST /hostnames/edit/:hostname
func (h *HostnameHandler) Edit(c *gin.Context) {
	var form services.HostnameForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errInvalidForm)
		return
	}
	if _, err := h.hostnames.Edit(c.Request.Context(), actor(c), c.Param("hostname"), form.Input()); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageHostnames)
}

// GET /hostnames/remove/:hostname
func (h *HostnameHandler) RemoveForm(c *gin.Context) {
	host, err := h.hostnames.Get(c.Request.Context(), c.Param("hostname"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageConfirm, &ConfirmView{
		PageData: h.page(c, "Remove Hostname", navHostnames),
		Message:  "Remove hostname " + host.Hostname + "? Transactions using it will have their hostname cleared.",
		Action:   hostnamesRoot + "/remove/" + url.PathEscape(host.Hostname),
	})
}

// POST /hostnames/remove/:hostname
func (h *HostnameHandler) Remove(c *gin.Context) {
	if cancelled(c) {
		h.back(c, session.PageHostnames)
		return
	}
	if err := h.hostnames.Remove(c.Request.Context(), actor(c), c.Param("hostname")); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, session.PageHostnames)
}

// GET /hostnames/search
func (h *HostnameHandler) SearchForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageSearch, &SearchView{
		PageData:   h.page(c, "Search Hostnames", navHostnames),
		Heading:    "Search Hostnames",
		Action:     hostnamesRoot + "/search",
		Columns:    services.HostnamesTable.SearchColumns(),
		CancelHref: session.FromContext(c).LastPage(session.PageHostnames),
	})
}

// POST /hostnames/search
func (h *HostnameHandler) SearchSubmit(c *gin.Context) {
	submitSearch(c, hostnamesRoot)
}

func hostnameFields(host *models.Hostname) []Field {
	return []Field{
		{Name: "hostname", Label: "Hostname", Type: FieldText, Value: host.Hostname, Required: true, MaxLength: 19},
		{Name: "description", Label: "Description", Type: FieldText, Value: host.Description, MaxLength: 255},
		{Name: "active", Label: "Active", Type: FieldCheckbox, Value: "true", Checked: host.Active},
	}
}
