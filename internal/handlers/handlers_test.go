package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/config"
	"github.com/itinventory/inventory/internal/metrics"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/services"
	"github.com/itinventory/inventory/internal/session"
	"github.com/itinventory/inventory/internal/utils"
	"github.com/itinventory/inventory/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handlers-test-secret")
}

// fakeRenderer records the last page rendered instead of executing templates.
type fakeRenderer struct {
	page   string
	status int
	data   interface{}
}

func (f *fakeRenderer) Render(c *gin.Context, status int, page string, data interface{}) {
	f.page, f.status, f.data = page, status, data
	c.String(status, page)
}

type testApp struct {
	db           *gorm.DB
	views        *fakeRenderer
	router       *gin.Engine
	inventory    *services.InventoryService
	transactions *services.TransactionService
	hostnames    *services.HostnameService
	dropdowns    *services.DropdownService
}

func asRole(role models.Role, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session.WithSession(c, &session.Session{
			Role:     role,
			Username: username,
			Nav:      session.Nav{ViewStyle: session.ViewLight},
		})
		c.Next()
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := models.OpenTestDB(t)
	m := metrics.New()
	audit := services.NewAuditLogger()
	app := &testApp{
		db:           db,
		views:        &fakeRenderer{},
		inventory:    services.NewInventoryService(db, audit, m),
		transactions: services.NewTransactionService(db, audit, m),
		hostnames:    services.NewHostnameService(db, audit, m),
		dropdowns:    services.NewDropdownService(db, m),
	}
	sessions := session.NewManager(config.DefaultConfig())

	inv := NewInventoryHandler(app.views, sessions, app.inventory, app.dropdowns)
	trans := NewTransactionHandler(app.views, sessions, app.transactions, app.inventory, app.hostnames)
	hosts := NewHostnameHandler(app.views, sessions, app.hostnames)
	admin := NewAdminHandler(app.views, sessions, services.NewLogService(db), app.dropdowns)
	pages := NewPageHandler(app.views, sessions)

	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(asRole(models.RoleAdmin, "alice"))

	r.GET("/error/:code", pages.Error)
	r.GET("/toggle-view", pages.ToggleView)

	r.GET("/inventory", inv.List)
	r.POST("/inventory", inv.List)
	r.GET("/inventory/add-record", inv.AddForm)
	r.POST("/inventory/add-record", inv.Add)
	r.GET("/inventory/edit-record/:barcode", inv.EditForm)
	r.POST("/inventory/edit-record/:barcode", inv.Edit)
	r.GET("/inventory/remove-record/:barcode", inv.RemoveForm)
	r.POST("/inventory/remove-record/:barcode", inv.Remove)
	r.POST("/inventory/search", inv.SearchSubmit)
	r.GET("/inventory/search/:category/:criteria", inv.Search)

	r.GET("/transactions", trans.List)
	r.GET("/transactions/add-record", trans.AddForm)
	r.POST("/transactions/add-record", trans.Add)
	r.GET("/transactions/edit-record/:transactionid", trans.EditForm)
	r.GET("/transactions/search/:category/:criteria", trans.Search)

	r.GET("/hostnames", hosts.List)
	r.POST("/hostnames", hosts.List)

	r.GET("/admin-tools/dropdowns", admin.Dropdowns)
	r.POST("/admin-tools/dropdowns/add", admin.AddOption)
	r.GET("/admin-tools/dropdowns/remove/:list/:value", admin.ConfirmRemoveOption)
	r.POST("/admin-tools/dropdowns/remove/:list/:value", admin.RemoveOptionConfirmed)
	r.GET("/admin-tools/logs/search/:category/:criteria", admin.SearchLogs)

	app.router = r
	return app
}

func (a *testApp) get(path, referer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) addItem(t *testing.T, barcode string) {
	t.Helper()
	_, err := a.inventory.Add(context.Background(), "alice", services.InventoryInput{
		Barcode:    barcode,
		Model:      "Latitude 5440",
		Category:   "Laptop",
		Department: "IT",
	})
	require.NoError(t, err)
}

func (a *testApp) logCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(&models.LogEntry{}).Count(&n).Error)
	return n
}

func TestInventory_AddAndList(t *testing.T) {
	app := newTestApp(t)

	w := app.post("/inventory/add-record", url.Values{
		"barcode":    {"100"},
		"model":      {"OptiPlex 7010"},
		"category":   {"Desktop"},
		"department": {"HR"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/inventory", w.Header().Get("Location"))

	w = app.get("/inventory", "")
	require.Equal(t, http.StatusOK, w.Code)
	view, ok := app.views.data.(*TableView)
	require.True(t, ok)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "100", view.Rows[0].Cells[0])
	assert.Equal(t, "", view.Rows[0].Cells[1], "empty serial renders blank")
	assert.Equal(t, "Barcode", view.SortOptions[0])
}

func TestInventory_AddDuplicateRedirectsToCode(t *testing.T) {
	app := newTestApp(t)
	app.addItem(t, "100")

	w := app.post("/inventory/add-record", url.Values{
		"barcode":    {"100"},
		"model":      {"Other"},
		"category":   {"Laptop"},
		"department": {"IT"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, response.ErrorPath(response.CodeDuplicateBarcode), w.Header().Get("Location"))
}

func TestInventory_AddInvalidBarcodeRendersBadRequest(t *testing.T) {
	app := newTestApp(t)

	w := app.post("/inventory/add-record", url.Values{
		"barcode":    {"abc"},
		"model":      {"Latitude"},
		"category":   {"Laptop"},
		"department": {"IT"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, PageError, app.views.page)
}

func TestInventory_RemoveCancelKeepsRow(t *testing.T) {
	app := newTestApp(t)
	app.addItem(t, "100")
	before := app.logCount(t)

	w := app.post("/inventory/remove-record/100", url.Values{"cancel": {"Cancel"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/inventory", w.Header().Get("Location"))

	_, err := app.inventory.Get(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, before, app.logCount(t), "a cancelled removal writes no log entry")

	w = app.post("/inventory/remove-record/100", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	_, err = app.inventory.Get(context.Background(), "100")
	assert.True(t, errors.Is(err, services.ErrNotFound))
	assert.Equal(t, before+1, app.logCount(t))
}

func TestInventory_RemoveFormUnknownBarcode(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/inventory/remove-record/999999", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, response.ErrorPath(response.CodeBarcodeNotFound), w.Header().Get("Location"))
}

func TestInventory_EditFormListsCurrentOptionsFirst(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.dropdowns.Add(ctx, services.DeviceType, "Desktop"))
	require.NoError(t, app.dropdowns.Add(ctx, services.DeviceType, "Laptop"))
	app.addItem(t, "100")

	w := app.get("/inventory/edit-record/100", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := app.views.data.(*FormView)
	var category Field
	for _, f := range view.Fields {
		if f.Name == "category" {
			category = f
		}
	}
	assert.Equal(t, []string{"Laptop", "Desktop"}, category.Options)
}

func TestSearch_RemembersLastPage(t *testing.T) {
	app := newTestApp(t)
	app.addItem(t, "100")

	w := app.get("/inventory/search/model/latitude", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := app.views.data.(*TableView)
	assert.True(t, view.Searched)
	assert.Equal(t, "Model", view.SearchLabel)

	var nav *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.NavCookie {
			nav = ck
		}
	}
	require.NotNil(t, nav, "search should persist the last page")
}

func TestSearch_NoResultsRouting(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		referer string
		want    string
	}{
		{"generic", "/inventory/search/model/nothing", "http://example.com/inventory", response.ErrorPath(response.CodeNoResults)},
		{"after removal", "/inventory/search/model/nothing", "http://example.com/inventory/remove-record/5", "/inventory"},
		{"item link from transactions", "/inventory/search/barcode/5", "http://example.com/transactions", response.ErrorPath(response.CodeBarcodeNotInInventory)},
		{"history link from inventory", "/transactions/search/barcode/5", "http://example.com/inventory", response.ErrorPath(response.CodeNoTransactions)},
		{"transactions after removal", "/transactions/search/barcode/5", "http://example.com/transactions/remove-record/2", "/transactions"},
		{"no referer", "/transactions/search/barcode/5", "", response.ErrorPath(response.CodeNoResults)},
		{"logs after removal", "/admin-tools/logs/search/username/bob", "http://example.com/hostnames/remove/x", "/admin-tools/logs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			w := app.get(tt.path, tt.referer)
			require.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestSearch_InvalidDateRedirectsToNoResults(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/inventory/search/date_purchased/2024-13", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, response.ErrorPath(response.CodeNoResults), w.Header().Get("Location"))
}

func TestSearchSubmit_EscapesCriteria(t *testing.T) {
	app := newTestApp(t)

	w := app.post("/inventory/search", url.Values{"search_category": {"model"}, "criteria": {"a/b c"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/inventory/search/model/a%2Fb%20c", w.Header().Get("Location"))

	w = app.post("/inventory/search", url.Values{"search_category": {"model"}})
	assert.Equal(t, response.ErrorPath(response.CodeNoResults), w.Header().Get("Location"))
}

func TestTransactions_MarksRetiredAndPrefills(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	app.addItem(t, "100")
	_, err := app.transactions.Add(ctx, "alice", services.TransactionInput{
		Barcode:    "100",
		InOut:      "Out",
		AssignedTo: "Bob",
		Date:       "2024-05-01",
	})
	require.NoError(t, err)

	w := app.get("/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := app.views.data.(*TableView)
	require.Len(t, view.Rows, 1)
	assert.False(t, view.Rows[0].Marked)

	require.NoError(t, app.inventory.Remove(ctx, "alice", "100"))
	app.get("/transactions", "")
	view = app.views.data.(*TableView)
	assert.True(t, view.Rows[0].Marked, "orphaned barcode reads as retired")

	w = app.get("/transactions/add-record?quick_add=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	form := app.views.data.(*FormView)
	values := map[string]string{}
	for _, f := range form.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "100", values["barcode"])
	assert.Equal(t, "Bob", values["assignedto"])
	assert.Equal(t, "", values["date"])
	assert.Equal(t, []string{"Out", "In"}, form.Fields[1].Options)

	app.get("/transactions/edit-record/1", "")
	form = app.views.data.(*FormView)
	assert.Equal(t, "This device is retired.", form.Note)
}

func TestTransactions_QuickAddUnknownID(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/transactions/add-record?quick_add=42", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, response.ErrorPath(response.CodeTransactionNotFound), w.Header().Get("Location"))
}

func TestHostnames_ActiveOnlyFilter(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.hostnames.Add(ctx, "alice", services.HostnameInput{Hostname: "LAB-01", Active: true})
	require.NoError(t, err)
	_, err = app.hostnames.Add(ctx, "alice", services.HostnameInput{Hostname: "LAB-02"})
	require.NoError(t, err)

	app.get("/hostnames", "")
	view := app.views.data.(*TableView)
	assert.Len(t, view.Rows, 2)
	assert.False(t, view.ActiveOnly)

	app.post("/hostnames", url.Values{"active_only": {"True"}})
	view = app.views.data.(*TableView)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "LAB-01", view.Rows[0].Cells[0])
	assert.True(t, view.ActiveOnly)
}

func TestDropdowns_ConfirmAndRemove(t *testing.T) {
	app := newTestApp(t)

	w := app.post("/admin-tools/dropdowns/add", url.Values{"dropdown": {"devicetype"}, "option": {"Tablet PC"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin-tools/dropdowns", w.Header().Get("Location"))

	app.get("/admin-tools/dropdowns", "")
	view := app.views.data.(*DropdownView)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "/admin-tools/dropdowns/remove/devicetype/Tablet%20PC", view.Rows[0].DeviceType.Href)

	w = app.get("/admin-tools/dropdowns/remove/devicetype/Tablet%20PC", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, PageConfirm, app.views.page)

	w = app.get("/admin-tools/dropdowns/remove/colour/Red", "")
	assert.Equal(t, response.ErrorPath(response.CodeOptionNotFound), w.Header().Get("Location"))

	w = app.post("/admin-tools/dropdowns/remove/devicetype/Tablet%20PC", url.Values{"cancel": {"Cancel"}})
	assert.Equal(t, "/admin-tools/dropdowns", w.Header().Get("Location"))
	require.NoError(t, app.dropdowns.Has(context.Background(), services.DeviceType, "Tablet PC"))

	app.post("/admin-tools/dropdowns/remove/devicetype/Tablet%20PC", url.Values{})
	err := app.dropdowns.Has(context.Background(), services.DeviceType, "Tablet PC")
	assert.True(t, errors.Is(err, services.ErrOption))
}

func TestDropdowns_UnknownListIsBadRequest(t *testing.T) {
	app := newTestApp(t)

	w := app.post("/admin-tools/dropdowns/add", url.Values{"dropdown": {"colour"}, "option": {"Red"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, PageError, app.views.page)
}

func TestErrorPage(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/error/99", "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/inventory", w.Header().Get("Location"))

	w = app.get("/error/11", "http://example.com/hostnames/add")
	require.Equal(t, http.StatusOK, w.Code)
	view := app.views.data.(*ErrorView)
	msg, _ := response.Message(response.CodeHostnameDuplicate)
	assert.Equal(t, msg, view.Message)
	assert.Equal(t, "/hostnames/add", view.Back)
	assert.Equal(t, navHostnames, view.Active)

	app.get("/error/3", "")
	view = app.views.data.(*ErrorView)
	assert.Equal(t, "/inventory", view.Back)
	assert.Equal(t, "", view.Active)

	app.get("/error/3", "https://evil.example/phish")
	view = app.views.data.(*ErrorView)
	assert.Equal(t, "/inventory", view.Back, "foreign referers are not linked")
}

func TestToggleView(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/toggle-view", "http://example.com/hostnames?x=1")
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/hostnames?x=1", w.Header().Get("Location"))

	w = app.get("/toggle-view", "")
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestFail_Statuses(t *testing.T) {
	views := &fakeRenderer{}
	b := &base{views: views}

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &services.Error{Kind: services.KindValidation, Code: response.NoCode, Message: "bad"}, http.StatusBadRequest},
		{"duplicate", &services.Error{Kind: services.KindDuplicateKey, Code: response.NoCode, Message: "dup"}, http.StatusConflict},
		{"not found", &services.Error{Kind: services.KindNotFound, Code: response.NoCode, Message: "gone"}, http.StatusNotFound},
		{"store", &services.Error{Kind: services.KindStore, Code: response.NoCode, Message: "db", Err: errors.New("boom")}, http.StatusInternalServerError},
		{"foreign", errors.New("boom"), http.StatusInternalServerError},
		{"bad form", errInvalidForm, http.StatusBadRequest},
		{"coded", &services.Error{Kind: services.KindNotFound, Code: response.CodeHostnameNotFound}, http.StatusSeeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/hostnames/add", nil)
			b.fail(c, tt.err)
			c.Writer.WriteHeaderNow()
			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

type fakeAuth struct {
	role models.Role
	seen string
}

func (f *fakeAuth) Login(_ context.Context, req *services.LoginRequest) models.Role {
	f.seen = req.Username
	return f.role
}

func TestAuthHandler(t *testing.T) {
	views := &fakeRenderer{}
	sessions := session.NewManager(config.DefaultConfig())
	auth := &fakeAuth{role: models.RoleInvalid}
	h := NewAuthHandler(views, sessions, auth)

	r := gin.New()
	r.Use(sessions.Middleware())
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(url.Values{"username": {"bob"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, views.data.(*LoginView).Invalid)

	auth.role = models.RoleUser
	w = post(url.Values{"username": {" bob "}, "password": {"right"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/inventory", w.Header().Get("Location"))

	var token *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.TokenCookie {
			token = ck
		}
	}
	require.NotNil(t, token)
	claims, err := utils.ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Username)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code, "signed-in sessions skip the login form")

	w = post(url.Values{"logout": {"Log out"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, PageLogin, views.page)
	for _, ck := range w.Result().Cookies() {
		assert.True(t, ck.MaxAge < 0, "cookie %s should be cleared", ck.Name)
	}
}
