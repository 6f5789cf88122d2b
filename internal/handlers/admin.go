package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/pkg/response"
)

const (
	adminRoot     = "/admin-tools"
	logsRoot      = adminRoot + "/logs"
	dropdownsRoot = adminRoot + "/dropdowns"
)

// AdminHandler serves the admin-only tools: the audit log and the dropdown
// option lists.
type AdminHandler struct {
	base
	logs      *services.LogService
	dropdowns *services.DropdownService
}

func NewAdminHandler(views Renderer, sessions *session.Manager, logs *services.LogService, dropdowns *services.DropdownService) *AdminHandler {
	return &AdminHandler{
		base:      base{views: views, sessions: sessions},
		logs:      logs,
		dropdowns: dropdowns,
	}
}

// Tools renders the admin landing page.
// GET /admin-tools
func (h *AdminHandler) Tools(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageAdmin, &AdminView{
		PageData: h.page(c, "Admin Tools", navAdmin),
	})
}

// Logs renders the audit log.
// GET|POST /admin-tools/logs
func (h *AdminHandler) Logs(c *gin.Context) {
	sort := sortBy(c)
	entries, err := h.logs.List(c.Request.Context(), sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageTable, h.logTable(c, entries, sort))
}

// SearchLogs renders the log entries matching one column.
// GET|POST /admin-tools/logs/search/:category/:criteria
func (h *AdminHandler) SearchLogs(c *gin.Context) {
	category, criteria, sort := c.Param("category"), c.Param("criteria"), sortBy(c)
	entries, err := h.logs.Search(c.Request.Context(), category, criteria, sort)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(entries) == 0 {
		if strings.Contains(c.Request.Referer(), "remove") {
			response.Redirect(c, logsRoot)
			return
		}
		response.RedirectCode(c, response.CodeNoResults)
		return
	}

	view := h.logTable(c, entries, sort)
	view.Searched = true
	view.SearchLabel = searchLabel(services.LogsTable, category)
	view.Criteria = criteria
	view.BackHref = logsRoot
	h.views.Render(c, http.StatusOK, PageTable, view)
}

func (h *AdminHandler) logTable(c *gin.Context, entries []models.LogEntry, sort string) *TableView {
	rows := make([]Row, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		rows = append(rows, Row{
			Cells: []string{
				e.Username,
				e.ActionType,
				e.Database,
				e.Timestamp.Format(timestampLayout),
				e.RecordCopy,
			},
		})
	}
	return &TableView{
		PageData:    h.page(c, "Logs", navAdmin),
		Heading:     "Logs",
		Action:      c.Request.URL.EscapedPath(),
		Columns:     columnLabels(services.LogsTable),
		Rows:        rows,
		SortOptions: services.LogsTable.SortOptions(sort),
		SearchHref:  logsRoot + "/search",
	}
}

// GET /admin-tools/logs/search
func (h *AdminHandler) SearchLogsForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageSearch, &SearchView{
		PageData:   h.page(c, "Search Logs", navAdmin),
		Heading:    "Search Logs",
		Action:     logsRoot + "/search",
		Columns:    services.LogsTable.SearchColumns(),
		CancelHref: logsRoot,
	})
}

// POST /admin-tools/logs/search
func (h *AdminHandler) SearchLogsSubmit(c *gin.Context) {
	submitSearch(c, logsRoot)
}

// Dropdowns renders both option lists side by side.
// GET|POST /admin-tools/dropdowns
func (h *AdminHandler) Dropdowns(c *gin.Context) {
	pairs, err := h.dropdowns.Table(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageDropdowns, &DropdownView{
		PageData: h.page(c, "Dropdowns", navAdmin),
		Rows:     dropdownRows(pairs),
	})
}

// AddOptionForm renders the new option form, preselecting ?list=.
// GET /admin-tools/dropdowns/add
func (h *AdminHandler) AddOptionForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageForm, &FormView{
		PageData:   h.page(c, "Add Option", navAdmin),
		Heading:    "Add Dropdown Option",
		Action:     dropdownsRoot + "/add",
		Fields:     optionFields(c.Query("list")),
		CancelHref: dropdownsRoot,
		Submit:     "Add",
	})
}

// AddOption adds a value to a list.
// POST /admin-tools/dropdowns/add
func (h *AdminHandler) AddOption(c *gin.Context) {
	list, value, ok := h.bindOption(c)
	if !ok {
		return
	}
	if err := h.dropdowns.Add(c.Request.Context(), list, value); err != nil {
		h.fail(c, err)
		return
	}
	response.Redirect(c, dropdownsRoot)
}

// GET /admin-tools/dropdowns/remove
func (h *AdminHandler) RemoveOptionForm(c *gin.Context) {
	h.views.Render(c, http.StatusOK, PageForm, &FormView{
		PageData:   h.page(c, "Remove Option", navAdmin),
		Heading:    "Remove Dropdown Option",
		Action:     dropdownsRoot + "/remove",
		Fields:     optionFields(c.Query("list")),
		CancelHref: dropdownsRoot,
		Submit:     "Remove",
	})
}

// RemoveOption removes a value named in the form.
// POST /admin-tools/dropdowns/remove
func (h *AdminHandler) RemoveOption(c *gin.Context) {
	list, value, ok := h.bindOption(c)
	if !ok {
		return
	}
	if err := h.dropdowns.Remove(c.Request.Context(), list, value); err != nil {
		h.fail(c, err)
		return
	}
	response.Redirect(c, dropdownsRoot)
}

// ConfirmRemoveOption asks before removing a value reached by link.
// GET /admin-tools/dropdowns/remove/:list/:value
func (h *AdminHandler) ConfirmRemoveOption(c *gin.Context) {
	list, ok := services.ParseDropdownList(c.Param("list"))
	if !ok {
		response.RedirectCode(c, response.CodeOptionNotFound)
		return
	}
	value := c.Param("value")
	if err := h.dropdowns.Has(c.Request.Context(), list, value); err != nil {
		h.fail(c, err)
		return
	}
	h.views.Render(c, http.StatusOK, PageConfirm, &ConfirmView{
		PageData: h.page(c, "Remove Option", navAdmin),
		Message:  "Remove " + value + " from the " + listLabel(list) + " list?",
		Action:   c.Request.URL.EscapedPath(),
	})
}

// RemoveOptionConfirmed removes the value unless cancelled.
// POST /admin-tools/dropdowns/remove/:list/:value
func (h *AdminHandler) RemoveOptionConfirmed(c *gin.Context) {
	if cancelled(c) {
		response.Redirect(c, dropdownsRoot)
		return
	}
	list, ok := services.ParseDropdownList(c.Param("list"))
	if !ok {
		response.RedirectCode(c, response.CodeOptionNotFound)
		return
	}
	if err := h.dropdowns.Remove(c.Request.Context(), list, c.Param("value")); err != nil {
		h.fail(c, err)
		return
	}
	response.Redirect(c, dropdownsRoot)
}

func (h *AdminHandler) bindOption(c *gin.Context) (services.DropdownList, string, bool) {
	var form services.DropdownForm
	if err := c.ShouldBind(&form); err != nil {
		h.fail(c, errInvalidForm)
		return "", "", false
	}
	list, ok := services.ParseDropdownList(form.List)
	if !ok {
		h.fail(c, response.NewBadRequest("Unknown dropdown list."))
		return "", "", false
	}
	return list, form.Value, true
}

func listLabel(list services.DropdownList) string {
	if list == services.DeviceType {
		return "category"
	}
	return "department"
}

func optionFields(selected string) []Field {
	lists := []string{string(services.DeviceType), string(services.DeviceDepartment)}
	if selected == string(services.DeviceDepartment) {
		lists[0], lists[1] = lists[1], lists[0]
	}
	return []Field{
		{Name: "dropdown", Label: "List", Type: FieldSelect, Value: lists[0], Options: lists, Required: true},
		{Name: "option", Label: "Option", Type: FieldText, Required: true, MaxLength: 39},
	}
}
