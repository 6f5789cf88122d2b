// Package session carries the signed-in identity and per-browser navigation
// state between requests. Identity travels in a signed JWT cookie; navigation
// state (last page per table, view style) in a securecookie-encoded cookie.
package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/itinventory/inventory/internal/config"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/utils"
	"github.com/itinventory/inventory/pkg/logger"
)

const (
	TokenCookie = "token"
	NavCookie   = "nav"

	contextKey = "session"
	navMaxAge  = 30 * 24 * 60 * 60
)

type ViewStyle string

const (
	ViewLight ViewStyle = "light"
	ViewDark  ViewStyle = "dark"
)

// Tables that remember the last page viewed, so a cancelled removal can
// return to it.
const (
	PageInventory    = "inventory"
	PageTransactions = "transactions"
	PageHostnames    = "hostnames"
)

// Nav is the navigation state persisted in the nav cookie.
type Nav struct {
	LastPages map[string]string `json:"last_pages"`
	ViewStyle ViewStyle         `json:"view_style"`
}

// Session is the request-scoped view of who is signed in and where they
// have been.
type Session struct {
	Role     models.Role
	Username string
	Nav
}

// LastPage returns the last page viewed for table, or the table root.
func (s *Session) LastPage(table string) string {
	if p, ok := s.LastPages[table]; ok && strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") {
		return p
	}
	return "/" + table
}

func (s *Session) SetLastPage(table, uri string) {
	if s.LastPages == nil {
		s.LastPages = make(map[string]string)
	}
	s.LastPages[table] = uri
}

func (s *Session) ToggleView() {
	if s.ViewStyle == ViewDark {
		s.ViewStyle = ViewLight
		return
	}
	s.ViewStyle = ViewDark
}

// Manager reads and writes the session cookies.
type Manager struct {
	codec       *securecookie.SecureCookie
	expireHours int
	secure      bool
}

func NewManager(cfg *config.Config) *Manager {
	var blockKey []byte
	if cfg.Session.BlockKey != "" {
		blockKey = []byte(cfg.Session.BlockKey)
	}

	codec := securecookie.New([]byte(cfg.Session.HashKey), blockKey).
		MaxAge(navMaxAge).
		SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		codec:       codec,
		expireHours: cfg.JWT.ExpireHour,
		secure:      cfg.Session.Secure,
	}
}

// Load decodes both cookies. A missing, expired or tampered cookie yields
// the defaults: an invalid role and a light view.
func (m *Manager) Load(c *gin.Context) *Session {
	s := &Session{Role: models.RoleInvalid, Nav: Nav{ViewStyle: ViewLight}}

	if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
		claims, err := utils.ParseToken(token)
		if err != nil {
			logger.Debug().Err(err).Msg("Rejected session token")
		} else {
			s.Role = models.ParseRole(claims.Role)
			s.Username = claims.Username
		}
	}

	if raw, err := c.Cookie(NavCookie); err == nil && raw != "" {
		var nav Nav
		if err := m.codec.Decode(NavCookie, raw, &nav); err != nil {
			logger.Debug().Err(err).Msg("Rejected navigation cookie")
		} else {
			s.Nav = nav
			if s.ViewStyle != ViewDark {
				s.ViewStyle = ViewLight
			}
		}
	}

	return s
}

// Middleware loads the session once per request and stores it on the
// gin context.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKey, m.Load(c))
		c.Next()
	}
}

// Login issues the identity cookie.
func (m *Manager) Login(c *gin.Context, s *Session, username string, role models.Role) error {
	token, err := utils.GenerateToken(username, string(role), m.expireHours)
	if err != nil {
		return err
	}
	m.setCookie(c, TokenCookie, token, m.expireHours*3600)
	s.Username = username
	s.Role = role
	return nil
}

// Logout clears both cookies.
func (m *Manager) Logout(c *gin.Context, s *Session) {
	m.setCookie(c, TokenCookie, "", -1)
	m.setCookie(c, NavCookie, "", -1)
	s.Role = models.RoleInvalid
	s.Username = ""
	s.Nav = Nav{ViewStyle: ViewLight}
}

// Save writes the navigation state. Must be called before the response
// body is written.
func (m *Manager) Save(c *gin.Context, s *Session) error {
	encoded, err := m.codec.Encode(NavCookie, s.Nav)
	if err != nil {
		return err
	}
	m.setCookie(c, NavCookie, encoded, navMaxAge)
	return nil
}

func (m *Manager) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", m.secure, true)
}

// FromContext returns the request's session. Outside the middleware it is
// an anonymous session.
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return &Session{Role: models.RoleInvalid, Nav: Nav{ViewStyle: ViewLight}}
}

// WithSession stores s on the context, for tests and handlers that replace
// the session mid-request.
func WithSession(c *gin.Context, s *Session) {
	c.Set(contextKey, s)
}
