package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/pkg/logger"
	"github.com/itinventory/inventory/pkg/response"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// RequireUser admits any signed-in session.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.FromContext(c)
		if !s.Role.AtLeast(models.RoleUser) {
			response.Redirect(c, LoginPath)
			return
		}
		c.Set(logger.ActorKey, s.Username)
		c.Next()
	}
}

// RequireAdmin admits admin sessions only. Signed-in users are sent to the
// insufficient-privilege page.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.FromContext(c)
		switch {
		case s.Role.AtLeast(models.RoleAdmin):
		case s.Role.AtLeast(models.RoleUser):
			c.Set(logger.ActorKey, s.Username)
			response.RedirectCode(c, response.CodeNotAdmin)
			return
		default:
			response.Redirect(c, LoginPath)
			return
		}
		c.Set(logger.ActorKey, s.Username)
		c.Next()
	}
}

// GetUsername gets the signed-in username from context
func GetUsername(c *gin.Context) string {
	return session.FromContext(c).Username
}

// GetRole gets the session role from context
func GetRole(c *gin.Context) models.Role {
	return session.FromContext(c).Role
}
