package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/middleware"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/pkg/response"
)

// Authenticator resolves credentials to a role. Any failure is
// models.RoleInvalid.
type Authenticator interface {
	Login(ctx context.Context, req *services.LoginRequest) models.Role
}

type AuthHandler struct {
	base
	auth Authenticator
}

func NewAuthHandler(views Renderer, sessions *session.Manager, auth Authenticator) *AuthHandler {
	return &AuthHandler{
		base: base{views: views, sessions: sessions},
		auth: auth,
	}
}

// LoginPage renders the sign-in form, or skips it for a signed-in session.
// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if session.FromContext(c).Role.AtLeast(models.RoleUser) {
		response.Redirect(c, inventoryRoot)
		return
	}
	h.renderLogin(c, http.StatusOK, false)
}

// Login signs in, or signs out when the form carries a logout field.
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	s := session.FromContext(c)
	if _, ok := c.GetPostForm("logout"); ok {
		h.sessions.Logout(c, s)
		h.renderLogin(c, http.StatusOK, false)
		return
	}

	var req services.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderLogin(c, http.StatusBadRequest, true)
		return
	}
	role := h.auth.Login(c.Request.Context(), &req)
	if !role.AtLeast(models.RoleUser) {
		h.renderLogin(c, http.StatusUnauthorized, true)
		return
	}

	if err := h.sessions.Login(c, s, strings.TrimSpace(req.Username), role); err != nil {
		h.serverError(c, err)
		return
	}
	response.Redirect(c, inventoryRoot)
}

// Logout clears the session cookies.
// GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Logout(c, session.FromContext(c))
	response.Redirect(c, middleware.LoginPath)
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, invalid bool) {
	h.views.Render(c, status, PageLogin, &LoginView{
		PageData: h.page(c, "Login", ""),
		Invalid:  invalid,
	})
}
