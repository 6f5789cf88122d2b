package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/pkg/logger"
)

// Page template names.
const (
	PageLogin     = "login.html"
	PageTable     = "table.html"
	PageForm      = "form.html"
	PageSearch    = "search.html"
	PageConfirm   = "confirm.html"
	PageError     = "error.html"
	PageAdmin     = "admin.html"
	PageDropdowns = "dropdowns.html"
)

const timestampLayout = "2006-01-02 15:04:05"

var pages = []string{
	PageLogin,
	PageTable,
	PageForm,
	PageSearch,
	PageConfirm,
	PageError,
	PageAdmin,
	PageDropdowns,
}

// Renderer writes a full HTML page.
type Renderer interface {
	Render(c *gin.Context, status int, page string, data interface{})
}

// Templates holds each page parsed together with the shared layout.
type Templates struct {
	templates map[string]*template.Template
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dark": func(v session.ViewStyle) bool { return v == session.ViewDark },
	}
}

// LoadTemplates parses every page with layout.html from tfs.
func LoadTemplates(tfs fs.FS) (*Templates, error) {
	layout, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		body, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(funcMap()).Parse(string(layout))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		ts.templates[page] = tmpl
	}
	return ts, nil
}

// Render executes page into a buffer first so a template error never
// leaves a half-written response.
func (ts *Templates) Render(c *gin.Context, status int, page string, data interface{}) {
	tmpl, ok := ts.templates[page]
	if !ok {
		logger.Error().Str("template", page).Msg("Template not found")
		c.String(http.StatusInternalServerError, "template not found")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error().Err(err).Str("template", page).Msg("Failed to render template")
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
