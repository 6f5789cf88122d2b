package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/metrics"
)

// Metrics exposes the Prometheus registry in text format.
// GET /metrics
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}
