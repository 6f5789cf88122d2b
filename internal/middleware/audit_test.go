package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/pkg/logger"
	"github.com/itinventory/inventory/pkg/response"
)

func TestMaskFormFields(t *testing.T) {
	got := maskFormFields("username=alice&password=hunter2")
	if strings.Contains(got, "hunter2") {
		t.Errorf("password leaked: %q", got)
	}
	if !strings.Contains(got, "username=alice") {
		t.Errorf("username lost: %q", got)
	}
	if maskFormFields("") != "" {
		t.Error("empty body should stay empty")
	}
	if got := maskFormFields("%zz"); got != "[unparsed]" {
		t.Errorf("malformed body = %q", got)
	}
}

func TestOutcome(t *testing.T) {
	if outcome(http.StatusSeeOther, "/inventory") != "ok" {
		t.Error("redirect to a page should be ok")
	}
	if outcome(http.StatusSeeOther, response.ErrorPath(response.CodeDuplicateBarcode)) != "failed" {
		t.Error("redirect to the error page should be failed")
	}
	if outcome(http.StatusBadRequest, "") != "failed" {
		t.Error("400 should be failed")
	}
}

func TestAuditTrail_LogsAndPreservesBody(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter("info", &buf)
	t.Cleanup(func() { logger.Init("info") })

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(logger.ActorKey, "alice")
		c.Next()
	})
	router.Use(AuditTrail())
	var seen string
	router.POST("/login", func(c *gin.Context) {
		seen = c.PostForm("password")
		response.Redirect(c, "/inventory")
	})
	router.GET("/inventory", func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/login", strings.NewReader("username=alice&password=hunter2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	if seen != "hunter2" {
		t.Errorf("handler saw password %q, body was not restored", seen)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["actor"] != "alice" || entry["route"] != "/login" || entry["outcome"] != "ok" {
		t.Errorf("unexpected audit entry: %v", entry)
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Error("password written to the audit trail")
	}

	buf.Reset()
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/inventory", nil)
	router.ServeHTTP(w, req)
	if buf.Len() != 0 {
		t.Errorf("GET should not be audited, got %q", buf.String())
	}
}
