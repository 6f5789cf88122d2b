package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/models"
	"gorm.io/gorm"
)

// HealthHandler reports whether the store answers.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// CheckHealth returns the health status of the service and its database.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall, status := "healthy", http.StatusOK

	dbStatus := "ok"
	if err := models.Ping(h.db); err != nil {
		dbStatus = "error: " + err.Error()
		overall, status = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "inventory",
		"components": gin.H{
			"database": dbStatus,
		},
	})
}
