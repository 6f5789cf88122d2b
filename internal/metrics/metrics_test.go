package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/itinventory/inventory/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMutation(t *testing.T) {
	m := New()
	m.RecordMutation("inventory", "Add")
	m.RecordMutation("inventory", "Add")
	m.RecordMutation("hostnames", "Remove")

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("inventory", "Add")); got != 2 {
		t.Errorf("inventory/Add = %v, expected 2", got)
	}
	if got := testutil.ToFloat64(m.mutations.WithLabelValues("hostnames", "Remove")); got != 1 {
		t.Errorf("hostnames/Remove = %v, expected 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordMutation("inventory", "Add")
	m.RecordLogin(LoginInvalid)
	m.RecordSearch("logs", SearchHit)
	if err := m.WatchDB(nil); err != nil {
		t.Errorf("WatchDB on nil metrics returned %v", err)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.RecordLogin(LoginAdmin)
	m.RecordSearch("transactions", SearchEmpty)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`inventory_logins_total{result="admin"} 1`,
		`inventory_searches_total{outcome="empty",table="transactions"} 1`,
		"inventory_uptime_seconds",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestWatchDBCountsRows(t *testing.T) {
	db := models.OpenTestDB(t)
	if err := db.Create(&models.Hostname{Hostname: "PC-01", Active: true}).Error; err != nil {
		t.Fatal(err)
	}

	m := New()
	if err := m.WatchDB(db, "hostnames", "inventory"); err != nil {
		t.Fatalf("WatchDB() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(body, `inventory_table_rows{table="hostnames"} 1`) {
		t.Error("expected hostnames row gauge of 1")
	}
	if !strings.Contains(body, `inventory_table_rows{table="inventory"} 0`) {
		t.Error("expected inventory row gauge of 0")
	}
}
