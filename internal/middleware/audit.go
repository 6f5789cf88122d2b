package middleware

import (
	"bytes"
	"io"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/pkg/logger"
)

const maxAuditBody = 2000

var sensitiveFields = []string{"password", "token", "secret"}

// AuditTrail logs every form submission after it is handled: who, what
// route, the outcome and the masked form body. The record-level audit lives
// in the logs table; this is the operator-facing request trace.
func AuditTrail() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != "POST" {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			body = maskFormFields(string(bodyBytes))
			if len(body) > maxAuditBody {
				body = body[:maxAuditBody] + "...[truncated]"
			}
		}

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("actor", c.GetString(logger.ActorKey)).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("outcome", outcome(status, c.Writer.Header().Get("Location"))).
			Str("body", body).
			Str("ip", c.ClientIP()).
			Msg("audit")
	}
}

// outcome classifies a handled submission. Redirects to the error page
// count as failures.
func outcome(status int, location string) string {
	if status >= 400 || strings.HasPrefix(location, "/error/") {
		return "failed"
	}
	return "ok"
}

// maskFormFields replaces the values of sensitive fields in a urlencoded
// body. Bodies that do not parse are dropped.
func maskFormFields(body string) string {
	if body == "" {
		return ""
	}
	values, err := url.ParseQuery(body)
	if err != nil {
		return "[unparsed]"
	}
	for key := range values {
		lower := strings.ToLower(key)
		for _, s := range sensitiveFields {
			if strings.Contains(lower, s) {
				values[key] = []string{"***"}
				break
			}
		}
	}
	return values.Encode()
}
