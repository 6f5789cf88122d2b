package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/middleware"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/pkg/logger"
	"github.com/itinventory/inventory/pkg/response"
)

const defaultBack = "/inventory"

var errInvalidForm = response.NewBadRequest("Invalid form submission.")

// base carries what every page handler needs.
type base struct {
	views    Renderer
	sessions *session.Manager
}

func (b *base) page(c *gin.Context, title, active string) PageData {
	s := session.FromContext(c)
	return PageData{
		Title:     title,
		Active:    active,
		ViewStyle: s.ViewStyle,
		Username:  s.Username,
		LoggedIn:  s.Role.AtLeast(models.RoleUser),
		IsAdmin:   s.Role.AtLeast(models.RoleAdmin),
	}
}

// remember records the current path as the last page viewed of table.
func (b *base) remember(c *gin.Context, table string) {
	s := session.FromContext(c)
	s.SetLastPage(table, c.Request.URL.EscapedPath())
	if err := b.sessions.Save(c, s); err != nil {
		logger.Warn().Err(err).Msg("Failed to save navigation cookie")
	}
}

// back returns the client to the last page viewed of table.
func (b *base) back(c *gin.Context, table string) {
	response.Redirect(c, session.FromContext(c).LastPage(table))
}

// fail resolves an operation error. Numbered conditions redirect to their
// error page; other domain errors render the error view with a matching
// status; store failures are logged and shown as a generic 500.
func (b *base) fail(c *gin.Context, err error) {
	var appErr *response.AppError
	if errors.As(err, &appErr) && appErr.Code == response.NoCode {
		b.renderError(c, appErr.HTTPStatus, appErr.Message)
		return
	}

	var e *services.Error
	if !errors.As(err, &e) {
		b.serverError(c, err)
		return
	}
	if e.Code != response.NoCode {
		response.Error(c, e)
		return
	}

	status := http.StatusBadRequest
	switch e.Kind {
	case services.KindStore:
		b.serverError(c, err)
		return
	case services.KindDuplicateKey, services.KindOption:
		status = http.StatusConflict
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindPrivilege:
		status = http.StatusForbidden
	}
	b.renderError(c, status, e.Message)
}

func (b *base) serverError(c *gin.Context, err error) {
	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("actor", c.GetString(logger.ActorKey)).
		Msg("Request failed")
	b.renderError(c, http.StatusInternalServerError, "Something went wrong. The change was not saved.")
}

func (b *base) renderError(c *gin.Context, status int, message string) {
	back, active := errorBack(c)
	b.views.Render(c, status, PageError, &ErrorView{
		PageData: b.page(c, "Error", active),
		Message:  message,
		Back:     back,
	})
	c.Abort()
}

// noResults routes an empty search. A search reached from a removal goes
// back to the table root; inventory reached from transactions and
// transactions reached from inventory get their own conditions.
func noResults(c *gin.Context, table string) {
	referer := c.Request.Referer()
	switch {
	case strings.Contains(referer, "remove"):
		response.Redirect(c, "/"+table)
	case table == session.PageInventory && strings.Contains(referer, "transactions"):
		response.RedirectCode(c, response.CodeBarcodeNotInInventory)
	case table == session.PageTransactions && strings.Contains(referer, "inventory"):
		response.RedirectCode(c, response.CodeNoTransactions)
	default:
		response.RedirectCode(c, response.CodeNoResults)
	}
}

// refererPath returns the local path and query of the Referer header, or ""
// when it is absent or points at another host.
func refererPath(c *gin.Context) string {
	raw := c.Request.Referer()
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Host != "" && u.Host != c.Request.Host {
		return ""
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return ""
	}
	return u.RequestURI()
}

// errorBack picks the back-link and nav section of an error page from the
// page that led to it. Without a usable referer no section is active.
func errorBack(c *gin.Context) (string, string) {
	path := refererPath(c)
	switch {
	case path == "":
		return defaultBack, ""
	case strings.Contains(path, "admin-tools"):
		return path, navAdmin
	case strings.Contains(path, "inventory"):
		return path, navInventory
	case strings.Contains(path, "hostnames"):
		return path, navHostnames
	}
	return path, navTransactions
}

func actor(c *gin.Context) string {
	return middleware.GetUsername(c)
}

// sortBy reads the sort choice posted by the table's sort form.
func sortBy(c *gin.Context) string {
	if v := c.PostForm("sortby"); v != "" {
		return v
	}
	return c.Query("sortby")
}

func cancelled(c *gin.Context) bool {
	_, ok := c.GetPostForm("cancel")
	return ok
}

// searchPath builds the results URL for a search form submission.
func searchPath(root, category, criteria string) string {
	return root + "/search/" + url.PathEscape(category) + "/" + url.PathEscape(criteria)
}

// submitSearch redirects a posted search form to its results page.
func submitSearch(c *gin.Context, root string) {
	category := c.PostForm("search_category")
	criteria := strings.TrimSpace(c.PostForm("criteria"))
	if category == "" || criteria == "" {
		response.RedirectCode(c, response.CodeNoResults)
		return
	}
	response.Redirect(c, searchPath(root, category, criteria))
}

func searchLabel(t *services.Table, category string) string {
	if col, ok := t.SearchColumn(category); ok {
		return col.Label
	}
	return category
}
