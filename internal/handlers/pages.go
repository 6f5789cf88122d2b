package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/middleware"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/pkg/logger"
	"github.com/itinventory/inventory/pkg/response"
)

// PageHandler serves the pages that belong to no table.
type PageHandler struct {
	base
}

func NewPageHandler(views Renderer, sessions *session.Manager) *PageHandler {
	return &PageHandler{base: base{views: views, sessions: sessions}}
}

// Root sends visitors to the sign-in page.
// GET /
func (h *PageHandler) Root(c *gin.Context) {
	response.Redirect(c, middleware.LoginPath)
}

// Error renders the message for a numbered condition. Unknown codes go to
// the inventory.
// GET /error/:code
func (h *PageHandler) Error(c *gin.Context) {
	code, ok := response.ParseCode(c.Param("code"))
	if !ok {
		response.Redirect(c, inventoryRoot)
		return
	}
	msg, _ := response.Message(code)
	back, active := errorBack(c)
	h.views.Render(c, http.StatusOK, PageError, &ErrorView{
		PageData: h.page(c, "Error", active),
		Message:  msg,
		Back:     back,
	})
}

// ToggleView flips between the light and dark styles and returns to the
// page it was clicked on.
// GET /toggle-view
func (h *PageHandler) ToggleView(c *gin.Context) {
	s := session.FromContext(c)
	s.ToggleView()
	if err := h.sessions.Save(c, s); err != nil {
		logger.Warn().Err(err).Msg("Failed to save view style")
	}

	if back := refererPath(c); back != "" {
		response.Redirect(c, back)
		return
	}
	response.Redirect(c, middleware.LoginPath)
}
